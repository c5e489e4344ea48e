package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jonwraymond/chatbridge/chat"
)

// harness wires a Resolver to an in-memory map cache and a counting fetcher.
type harness struct {
	mu      sync.Mutex
	cached  map[string]chat.User
	fetches atomic.Int64
	failing map[string]bool
}

func newHarness() *harness {
	return &harness{
		cached:  make(map[string]chat.User),
		failing: make(map[string]bool),
	}
}

func (h *harness) resolver() *Resolver[chat.User] {
	return New(Config[chat.User]{
		Lookup: func(id string) (chat.User, bool) {
			h.mu.Lock()
			defer h.mu.Unlock()
			u, ok := h.cached[id]
			return u, ok
		},
		Store: func(u chat.User) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.cached[u.ID] = u
		},
		Fetch: func(_ context.Context, id string) (chat.User, error) {
			h.fetches.Add(1)
			if h.failing[id] {
				return chat.User{}, errors.New("fetch failed")
			}
			return chat.User{ID: id, Username: "user-" + id}, nil
		},
		Placeholder: func(id string) chat.User {
			return chat.User{ID: id, Username: "unknown"}
		},
	})
}

func TestResolver_DeduplicatesIDs(t *testing.T) {
	h := newHarness()
	r := h.resolver()

	got := r.Resolve(context.Background(), []string{"u1", "u2", "u1", "u1", "u2"})

	if len(got) != 2 {
		t.Fatalf("Resolve returned %d entries, want 2", len(got))
	}
	if n := h.fetches.Load(); n != 2 {
		t.Errorf("fetch count = %d, want 2 (one per distinct id)", n)
	}
	if got["u1"].Username != "user-u1" {
		t.Errorf("u1 = %+v, want fetched entity", got["u1"])
	}
}

func TestResolver_ServesCacheHits(t *testing.T) {
	h := newHarness()
	h.cached["u1"] = chat.User{ID: "u1", Username: "cached"}
	r := h.resolver()

	got := r.Resolve(context.Background(), []string{"u1", "u2"})

	if n := h.fetches.Load(); n != 1 {
		t.Errorf("fetch count = %d, want 1 (only the miss)", n)
	}
	if got["u1"].Username != "cached" {
		t.Errorf("cache hit should be served directly, got %+v", got["u1"])
	}
}

func TestResolver_SecondResolveWithinTTLFetchesNothing(t *testing.T) {
	h := newHarness()
	r := h.resolver()
	ctx := context.Background()

	r.Resolve(ctx, []string{"u1", "u2"})
	r.Resolve(ctx, []string{"u1", "u2"})

	if n := h.fetches.Load(); n != 2 {
		t.Errorf("fetch count = %d, want 2 (second resolve fully cached)", n)
	}
}

func TestResolver_PlaceholderOnIndividualFailure(t *testing.T) {
	h := newHarness()
	h.failing["u1"] = true
	r := h.resolver()

	got := r.Resolve(context.Background(), []string{"u1", "u2"})

	if got["u2"].Username != "user-u2" {
		t.Errorf("u2 should resolve normally, got %+v", got["u2"])
	}
	if got["u1"].Username != "unknown" {
		t.Errorf("u1 should be a placeholder, got %+v", got["u1"])
	}
	if got["u1"].ID != "u1" {
		t.Errorf("placeholder should keep the id, got %q", got["u1"].ID)
	}
}

func TestResolver_FailedFetchNotCached(t *testing.T) {
	h := newHarness()
	h.failing["u1"] = true
	r := h.resolver()
	ctx := context.Background()

	r.Resolve(ctx, []string{"u1"})
	if _, ok := h.cached["u1"]; ok {
		t.Fatal("failed fetch must not populate the cache")
	}

	// Once the id becomes fetchable it resolves for real.
	h.failing["u1"] = false
	got := r.Resolve(ctx, []string{"u1"})
	if got["u1"].Username != "user-u1" {
		t.Errorf("recovered id should resolve, got %+v", got["u1"])
	}
}

func TestResolver_SkipsEmptyIDs(t *testing.T) {
	h := newHarness()
	r := h.resolver()

	got := r.Resolve(context.Background(), []string{"", "u1", ""})

	if len(got) != 1 {
		t.Errorf("Resolve returned %d entries, want 1", len(got))
	}
	if n := h.fetches.Load(); n != 1 {
		t.Errorf("fetch count = %d, want 1", n)
	}
}

func TestResolver_ConcurrentResolves(t *testing.T) {
	h := newHarness()
	r := h.resolver()

	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%d", i)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := r.Resolve(context.Background(), ids)
			if len(got) != len(ids) {
				t.Errorf("Resolve returned %d entries, want %d", len(got), len(ids))
			}
		}()
	}
	wg.Wait()
}
