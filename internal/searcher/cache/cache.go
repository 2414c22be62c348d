// Package cache memoises per-query rankings in Redis. Keys are bound to the
// index digest so a rebuilt index never serves stale rankings.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/ranker"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/resilience"
)

const keyPrefix = "rank:"

// Backend is the key-value store behind the cache. *pkgredis.Client
// implements it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Ranking is the cached outcome of one query.
type Ranking struct {
	Matched int
	Docs    []ranker.ScoredDoc
}

type cachedDoc struct {
	DocID int32   `json:"d"`
	Score float64 `json:"s"`
}

type cachedRanking struct {
	Matched int         `json:"m"`
	Docs    []cachedDoc `json:"docs"`
}

type RankingCache struct {
	backend   Backend
	ttl       time.Duration
	namespace string
	group     singleflight.Group
	breaker   *resilience.CircuitBreaker
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New creates a cache for rankings computed against the index with the
// given digest and stemming setting.
func New(backend Backend, ttl time.Duration, digest [32]byte, stem bool) *RankingCache {
	return &RankingCache{
		backend:   backend,
		ttl:       ttl,
		namespace: fmt.Sprintf("%s%x:%t:", keyPrefix, digest[:8], stem),
		breaker: resilience.NewCircuitBreaker("ranking-cache", resilience.BreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		}),
		logger:    slog.Default().With("component", "ranking-cache"),
	}
}

// Get looks up a ranking. Backend errors count as misses.
func (c *RankingCache) Get(ctx context.Context, tokens []string, limit int, idx *index.Index) (*Ranking, bool) {
	key := c.buildKey(tokens, limit)
	data, found, err := c.fetch(ctx, key)
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	var cr cachedRanking
	if err := json.Unmarshal(data, &cr); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	ranking := &Ranking{Matched: cr.Matched, Docs: make([]ranker.ScoredDoc, len(cr.Docs))}
	for i, d := range cr.Docs {
		if d.DocID < 0 || int(d.DocID) >= idx.DocCount() {
			c.logger.Warn("cached ranking references unknown document", "key", key, "doc_id", d.DocID)
			c.misses.Add(1)
			return nil, false
		}
		id := index.DocID(d.DocID)
		ranking.Docs[i] = ranker.ScoredDoc{DocID: id, DocNo: idx.DocNo(id), Score: d.Score}
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return ranking, true
}

// Set stores a ranking. Failures are logged only.
func (c *RankingCache) Set(ctx context.Context, tokens []string, limit int, ranking *Ranking) {
	key := c.buildKey(tokens, limit)
	cr := cachedRanking{Matched: ranking.Matched, Docs: make([]cachedDoc, len(ranking.Docs))}
	for i, d := range ranking.Docs {
		cr.Docs[i] = cachedDoc{DocID: int32(d.DocID), Score: d.Score}
	}
	data, err := json.Marshal(cr)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// fetch reads key through the breaker. A missing key is not a backend
// failure.
func (c *RankingCache) fetch(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := c.breaker.Execute(func() error {
		v, err := c.backend.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		if err != nil {
			return err
		}
		data, found = v, true
		return nil
	})
	return data, found, err
}

// GetOrCompute returns a cached ranking or computes and stores it.
// Concurrent callers for the same key share one computation.
func (c *RankingCache) GetOrCompute(
	ctx context.Context,
	tokens []string,
	limit int,
	idx *index.Index,
	computeFn func() (*Ranking, error),
) (*Ranking, bool, error) {
	if ranking, ok := c.Get(ctx, tokens, limit, idx); ok {
		return ranking, true, nil
	}
	key := c.buildKey(tokens, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		ranking, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, tokens, limit, ranking)
		return ranking, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Ranking), false, nil
}

// Invalidate removes every ranking cached for this index and stem setting.
func (c *RankingCache) Invalidate(ctx context.Context) error {
	deleted, err := c.backend.FlushByPattern(ctx, c.namespace+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

// BackendState reports whether the backend is currently being bypassed.
func (c *RankingCache) BackendState() resilience.State {
	return c.breaker.State()
}

func (c *RankingCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey keeps token order: float addition order affects the exact
// scores.
func (c *RankingCache) buildKey(tokens []string, limit int) string {
	raw := strings.Join(tokens, "\x00") + "\x00limit=" + strconv.Itoa(limit)
	sum := blake3.Sum256([]byte(raw))
	return c.namespace + hex.EncodeToString(sum[:16])
}
