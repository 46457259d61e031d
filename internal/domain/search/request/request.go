package request

import (
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 7
	MaxTopK        = 20
)

// Limits bounds top_k. Out-of-range values are rejected, never clamped.
type Limits struct {
	DefaultTopK int
	MaxTopK     int
}

// DefaultLimits returns the built-in top_k bounds.
func DefaultLimits() Limits {
	return Limits{DefaultTopK: DefaultTopK, MaxTopK: MaxTopK}
}

// Request is a validated search query.
type Request struct {
	query        string
	topK         int
	filters      filter.Expression
	resourceType string
}

// New validates search parameters. A nil topK takes the default.
// The resource type is kept as given; resolving it to a collection is the caller's job.
func New(query string, topK *int, filters filter.Expression, resourceType string, lim Limits) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}

	k := lim.DefaultTopK
	if topK != nil {
		k = *topK
	}
	if k < 1 || k > lim.MaxTopK {
		return Request{}, fmt.Errorf("top_k must be between 1 and %d", lim.MaxTopK)
	}

	return Request{
		query:        query,
		topK:         k,
		filters:      filters,
		resourceType: resourceType,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results.
func (r *Request) TopK() int { return r.topK }

// Filters returns the pre-filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// ResourceType returns the requested resource type, possibly empty.
func (r *Request) ResourceType() string { return r.resourceType }
