package cache

import (
	"context"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/searcher/ranker"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/resilience"
)

type memBackend struct {
	data    map[string][]byte
	failGet bool
	gets    int
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte)}
}

func (m *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.gets++
	if m.failGet {
		return nil, errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return nil, pkgredis.Nil
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memBackend) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func testIndex(t *testing.T) *index.Index {
	t.Helper()
	b := index.NewBuilder()
	for _, d := range []struct {
		docNo  string
		tokens []string
	}{
		{"LA-1", []string{"quake", "valley"}},
		{"LA-2", []string{"quake"}},
		{"LA-3", []string{"lakers"}},
	} {
		if _, err := b.Add(d.docNo, d.tokens); err != nil {
			t.Fatal(err)
		}
	}
	return b.Build(index.Meta{})
}

func TestGetOrComputeCachesRanking(t *testing.T) {
	idx := testIndex(t)
	backend := newMemBackend()
	c := New(backend, time.Hour, [32]byte{1}, false)
	ctx := context.Background()
	tokens := []string{"quake"}

	calls := 0
	compute := func() (*Ranking, error) {
		calls++
		acc := ranker.Score(tokens, idx)
		return &Ranking{Matched: len(acc), Docs: ranker.Rank(acc, idx, 10)}, nil
	}

	first, hit, err := c.GetOrCompute(ctx, tokens, 10, idx, compute)
	if err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	second, hit, err := c.GetOrCompute(ctx, tokens, 10, idx, compute)
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if second.Matched != first.Matched || len(second.Docs) != len(first.Docs) {
		t.Fatalf("cached = %+v, want %+v", second, first)
	}
	for i := range first.Docs {
		if first.Docs[i] != second.Docs[i] {
			t.Errorf("doc %d = %+v, want %+v", i, second.Docs[i], first.Docs[i])
		}
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestKeysDependOnIndexAndTokenOrder(t *testing.T) {
	a := New(newMemBackend(), time.Hour, [32]byte{1}, false)
	b := New(newMemBackend(), time.Hour, [32]byte{2}, false)
	stemmed := New(newMemBackend(), time.Hour, [32]byte{1}, true)

	k := a.buildKey([]string{"x", "y"}, 10)
	if k == b.buildKey([]string{"x", "y"}, 10) {
		t.Error("different digests share a key")
	}
	if k == stemmed.buildKey([]string{"x", "y"}, 10) {
		t.Error("stem setting not part of the key")
	}
	if k == a.buildKey([]string{"y", "x"}, 10) {
		t.Error("token order not part of the key")
	}
	if k == a.buildKey([]string{"x", "y"}, 5) {
		t.Error("limit not part of the key")
	}
}

func TestBackendErrorIsMiss(t *testing.T) {
	idx := testIndex(t)
	backend := newMemBackend()
	backend.failGet = true
	c := New(backend, time.Hour, [32]byte{}, false)
	if _, ok := c.Get(context.Background(), []string{"quake"}, 10, idx); ok {
		t.Error("failed backend reported a hit")
	}
}

func TestFailingBackendIsBypassed(t *testing.T) {
	idx := testIndex(t)
	backend := newMemBackend()
	backend.failGet = true
	c := New(backend, time.Hour, [32]byte{}, false)
	for i := 0; i < 20; i++ {
		c.Get(context.Background(), []string{"quake"}, 10, idx)
	}
	if backend.gets != 5 {
		t.Errorf("backend called %d times, want 5 before the breaker opened", backend.gets)
	}
	if c.BackendState() != resilience.StateOpen {
		t.Errorf("breaker state = %v", c.BackendState())
	}
	if _, misses := c.Stats(); misses != 20 {
		t.Errorf("misses = %d, want 20", misses)
	}
}

func TestMissingKeyDoesNotTripBreaker(t *testing.T) {
	idx := testIndex(t)
	backend := newMemBackend()
	c := New(backend, time.Hour, [32]byte{}, false)
	for i := 0; i < 10; i++ {
		c.Get(context.Background(), []string{"quake"}, 10, idx)
	}
	if backend.gets != 10 || c.BackendState() != resilience.StateClosed {
		t.Errorf("gets=%d state=%v", backend.gets, c.BackendState())
	}
}

func TestInvalidate(t *testing.T) {
	idx := testIndex(t)
	backend := newMemBackend()
	c := New(backend, time.Hour, [32]byte{3}, false)
	ctx := context.Background()
	c.Set(ctx, []string{"quake"}, 10, &Ranking{Matched: 0})
	backend.data["other:key"] = []byte("x")

	if err := c.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, []string{"quake"}, 10, idx); ok {
		t.Error("ranking survived invalidation")
	}
	if _, ok := backend.data["other:key"]; !ok {
		t.Error("invalidation removed unrelated keys")
	}
}
