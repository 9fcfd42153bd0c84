package site

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yanizio/sheetzu/internal/sheets"
)

// gatedReader serves every range after release is closed.  A read whose
// context was cancelled fails with the context error.
type gatedReader struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func newGatedReader() *gatedReader {
	return &gatedReader{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedReader) GetRange(ctx context.Context, sheetID, rng string) (sheets.ValueRange, error) {
	g.calls.Add(1)
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return sheets.ValueRange{}, err
	}
	return sheets.ValueRange{
		Range:  rng,
		Values: sheets.Grid{{sheets.Text("Title"), sheets.Text(sheetID)}},
	}, nil
}

func TestFetch_ConcurrentCallersShareOneWalk(t *testing.T) {
	reader := newGatedReader()
	agg := NewAggregator(reader)

	leader, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := agg.Fetch(leader, "S1")
		leaderErr <- err
	}()
	<-reader.entered

	const waiters = 4
	type result struct {
		d   *Data
		err error
	}
	results := make(chan result, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			d, err := agg.Fetch(context.Background(), "S1")
			results <- result{d, err}
		}()
	}
	time.Sleep(20 * time.Millisecond) // let the waiters join the flight

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller err = %v, want context.Canceled", err)
	}
	close(reader.release)

	var first *Data
	for i := 0; i < waiters; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("waiter %d: %v", i, r.err)
		}
		if len(r.d.Grids) != len(Sections) {
			t.Fatalf("waiter %d: %d sections, want %d", i, len(r.d.Grids), len(Sections))
		}
		if first == nil {
			first = r.d
		} else if r.d != first {
			t.Fatalf("waiter %d got a separate result", i)
		}
	}
	if n := reader.calls.Load(); n != int32(len(Sections)) {
		t.Fatalf("upstream calls = %d, want %d", n, len(Sections))
	}

	// Nothing outlives the flight: the next Fetch walks the sections again.
	if _, err := agg.Fetch(context.Background(), "S1"); err != nil {
		t.Fatalf("follow-up Fetch: %v", err)
	}
	if n := reader.calls.Load(); n != 2*int32(len(Sections)) {
		t.Fatalf("upstream calls after follow-up = %d, want %d", n, 2*len(Sections))
	}
}
