package health

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all configured components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckNotConfigured marks an optional component that is switched off.
	// It does not degrade the report.
	CheckNotConfigured CheckResult = "not_configured"
)

// Component names in the report.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentLLM       = "llm"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding Checker
	llm       Checker
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Service. embedding and llm can be nil, which reports them as not configured.
func New(db DBPinger, embedding, llm Checker, logger *zap.Logger) *Service {
	return &Service{
		db:        db,
		embedding: embedding,
		llm:       llm,
		timeout:   DefaultCheckTimeout,
		logger:    logger,
	}
}

// WithTimeout sets the per-component check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		ComponentDatabase:  s.run(ctx, ComponentDatabase, s.db.Ping),
		ComponentEmbedding: CheckNotConfigured,
		ComponentLLM:       CheckNotConfigured,
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = s.run(ctx, ComponentEmbedding, s.embedding.HealthCheck)
	}
	if s.llm != nil {
		checks[ComponentLLM] = s.run(ctx, ComponentLLM, s.llm.HealthCheck)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, component string, check func(context.Context) error) CheckResult {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := check(cctx); err != nil {
		s.logger.Warn("Health check failed", zap.String("component", component), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
