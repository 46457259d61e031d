// Package valkey adapts the Redis store to valkey-search, which lacks
// bare FT.SEARCH listing and SORTBY on vector scores.
package valkey

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/db/redis"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Valkey store.
type Config = redis.Config

// Store implements db.Store for Valkey with valkey-search.
type Store struct {
	*redis.Store
}

// NewStore creates a Valkey store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	inner, err := redis.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Store: inner}, nil
}

// NewStoreForTest creates a Store with the provided rueidis client.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{Store: redis.NewStoreForTest(c)}
}

// SearchKNN runs a KNN query without SORTBY; valkey-search returns hits by distance.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	c := s.Client()
	cmd := c.B().Arbitrary("FT.SEARCH").Args(redis.BuildKNNArgs(q, false)...).Build()
	raw, err := c.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	res, err := redis.ParseKNNResult(raw)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(res.Entries, func(i, j int) bool {
		return res.Entries[i].Score > res.Entries[j].Score
	})
	return res, nil
}

// SearchList performs paginated search. Valkey-search does not support bare FT.SEARCH
// without KNN, so query="*" falls back to SCAN + HGETALL.
func (s *Store) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if query == "*" {
		return s.scanList(ctx, index, offset, limit, fields)
	}
	return s.Store.SearchList(ctx, index, query, offset, limit, fields)
}

// SearchCount returns document count. Falls back to SCAN for query="*".
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	if query == "*" {
		return s.scanCount(ctx, index)
	}
	return s.Store.SearchCount(ctx, index, query)
}

func (s *Store) scanList(
	ctx context.Context, index string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	prefix := indexToKeyPrefix(index)
	keys, err := s.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan for list: %w", err)
	}

	sort.Strings(keys) // deterministic ordering
	total := len(keys)

	if offset >= total {
		return &db.SearchResult{Total: total}, nil
	}
	end := min(offset+limit, total)
	pageKeys := keys[offset:end]

	hashes, err := s.HGetAllMulti(ctx, pageKeys)
	if err != nil {
		return nil, fmt.Errorf("fetch listed hashes: %w", err)
	}

	entries := make([]db.SearchEntry, 0, len(pageKeys))
	for i, h := range hashes {
		if len(h) == 0 {
			continue // key deleted between SCAN and HGETALL
		}
		entries = append(entries, db.SearchEntry{
			Key:    pageKeys[i],
			Fields: pick(h, fields),
		})
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func (s *Store) scanCount(ctx context.Context, index string) (int, error) {
	prefix := indexToKeyPrefix(index)
	keys, err := s.Scan(ctx, prefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan for count: %w", err)
	}
	return len(keys), nil
}

func pick(h map[string]string, fields []string) map[string]string {
	if len(fields) == 0 {
		return h
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := h[f]; ok {
			out[f] = v
		}
	}
	return out
}

// indexToKeyPrefix converts index name to a SCAN prefix.
// "vecsync:learning_paths:idx" -> "vecsync:learning_paths:"
func indexToKeyPrefix(index string) string {
	if strings.HasSuffix(index, ":idx") {
		return index[:len(index)-3]
	}
	return index + ":"
}
