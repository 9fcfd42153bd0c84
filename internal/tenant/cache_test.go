package tenant

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// countingStore records how often the backing store is queried.
type countingStore struct {
	Store
	lookups atomic.Int32
	fail    error
}

func (c *countingStore) ByDomain(ctx context.Context, domain string) (Tenant, bool, error) {
	c.lookups.Add(1)
	if c.fail != nil {
		return Tenant{}, false, c.fail
	}
	return c.Store.ByDomain(ctx, domain)
}

func TestCachedStore_HitAvoidsStore(t *testing.T) {
	back := &countingStore{Store: NewMemoryStore()}
	c := NewCachedStore(back, time.Minute, 10)
	defer c.Close()
	ctx := context.Background()

	ten := Tenant{ID: "t-1", Username: "ana", Domain: DomainFor("ana", base)}
	if err := c.Insert(ctx, ten); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		got, ok, err := c.ByDomain(ctx, ten.Domain)
		if err != nil || !ok || got.ID != "t-1" {
			t.Fatalf("lookup %d = %+v, %v, %v", i, got, ok, err)
		}
	}
	if n := back.lookups.Load(); n != 1 {
		t.Fatalf("backing lookups = %d, want 1", n)
	}
}

func TestCachedStore_MissNotCached(t *testing.T) {
	back := &countingStore{Store: NewMemoryStore()}
	c := NewCachedStore(back, time.Minute, 10)
	defer c.Close()
	ctx := context.Background()

	if _, ok, _ := c.ByDomain(ctx, "ana."+base); ok {
		t.Fatal("hit on empty store")
	}
	_ = c.Insert(ctx, Tenant{ID: "t-1", Domain: "ana." + base})
	if _, ok, _ := c.ByDomain(ctx, "ana."+base); !ok {
		t.Fatal("fresh registration not visible")
	}
}

func TestCachedStore_StoreError(t *testing.T) {
	boom := errors.New("db down")
	c := NewCachedStore(&countingStore{Store: NewMemoryStore(), fail: boom}, time.Minute, 10)
	defer c.Close()

	if _, _, err := c.ByDomain(context.Background(), "ana."+base); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestCachedStore_Evict(t *testing.T) {
	back := NewMemoryStore()
	c := NewCachedStore(back, time.Minute, 1)
	defer c.Close()
	ctx := context.Background()

	for _, name := range []string{"ana", "bob"} {
		_ = back.Insert(ctx, Tenant{ID: name, Domain: DomainFor(name, base)})
	}
	_, _, _ = c.ByDomain(ctx, "ana."+base)
	time.Sleep(time.Millisecond)
	_, _, _ = c.ByDomain(ctx, "bob."+base)
	if c.Len() != 2 {
		t.Fatalf("cached = %d, want 2", c.Len())
	}

	// LRU pressure keeps the most recent entry only.
	c.evict(time.Now().UnixNano())
	if c.Len() != 1 {
		t.Fatalf("after LRU pass cached = %d, want 1", c.Len())
	}
	if _, ok := c.m.Load("bob." + base); !ok {
		t.Fatal("LRU pass evicted the most recent entry")
	}

	// Idle pass drops everything older than the TTL.
	c.evict(time.Now().Add(2 * time.Minute).UnixNano())
	if c.Len() != 0 {
		t.Fatalf("after idle pass cached = %d, want 0", c.Len())
	}
}

// gatedStore holds every ByDomain until release is closed and then fails
// with the context error when the query context was cancelled.
type gatedStore struct {
	Store
	entered chan struct{}
	release chan struct{}
	lookups atomic.Int32
}

func (g *gatedStore) ByDomain(ctx context.Context, domain string) (Tenant, bool, error) {
	if g.lookups.Add(1) == 1 {
		close(g.entered)
	}
	<-g.release
	if err := ctx.Err(); err != nil {
		return Tenant{}, false, err
	}
	return g.Store.ByDomain(ctx, domain)
}

func TestCachedStore_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	mem := NewMemoryStore()
	ten := Tenant{ID: "t-1", Username: "ana", Domain: DomainFor("ana", base)}
	if err := mem.Insert(context.Background(), ten); err != nil {
		t.Fatal(err)
	}
	back := &gatedStore{Store: mem, entered: make(chan struct{}), release: make(chan struct{})}
	c := NewCachedStore(back, time.Minute, 10)
	defer c.Close()

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.ByDomain(first, ten.Domain)
		firstErr <- err
	}()
	<-back.entered

	type lookup struct {
		t   Tenant
		ok  bool
		err error
	}
	second := make(chan lookup, 1)
	go func() {
		t, ok, err := c.ByDomain(context.Background(), ten.Domain)
		second <- lookup{t, ok, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the second caller join the flight

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller err = %v, want context.Canceled", err)
	}
	close(back.release)

	got := <-second
	if got.err != nil || !got.ok || got.t.ID != "t-1" {
		t.Fatalf("waiter = %+v, want tenant t-1", got)
	}
	if n := back.lookups.Load(); n != 1 {
		t.Fatalf("backing lookups = %d, want 1", n)
	}
}
