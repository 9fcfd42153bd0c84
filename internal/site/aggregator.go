// internal/site/aggregator.go
//
// Site data aggregator.
//
// Context
// -------
// Rendering a tenant page needs all three sections of its spreadsheet.
// Fetch walks the Sections table in order, one range read per section,
// and stops at the first failure.  The caller either gets every grid or a
// single *SectionError naming the section that failed; partial data is
// never returned, and nothing is retried.
//
// Concurrent Fetch calls for the same spreadsheet share one upstream walk
// (singleflight).  The shared result is handed to every waiting caller and
// then dropped; nothing outlives the call.
//
// Notes
// -----
//   - The shared walk runs detached from any one caller's cancellation.
//     Each range read is still bounded by the client's per-call timeout.
//   - Oxford commas, two spaces after periods.
package site

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/sheetzu/internal/metrics"
	"github.com/yanizio/sheetzu/internal/sheets"
)

// RangeReader reads one named range.  *sheets.Client satisfies it.
type RangeReader interface {
	GetRange(ctx context.Context, sheetID, rng string) (sheets.ValueRange, error)
}

var _ RangeReader = (*sheets.Client)(nil)

// SectionError reports which section aborted an aggregate fetch.
type SectionError struct {
	Section Section
	Range   string
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("site section %s (%q): %v", e.Section, e.Range, e.Err)
}

func (e *SectionError) Unwrap() error { return e.Err }

// Aggregator assembles SiteData from a RangeReader.
type Aggregator struct {
	reader   RangeReader
	sections []Binding
	sfg      singleflight.Group
}

// NewAggregator uses the default Sections table.
func NewAggregator(r RangeReader) *Aggregator {
	return &Aggregator{reader: r, sections: Sections}
}

// Fetch returns every section of sheetID or the first failure.
func (a *Aggregator) Fetch(ctx context.Context, sheetID string) (*Data, error) {
	ch := a.sfg.DoChan(sheetID, func() (interface{}, error) {
		return a.fetchAll(context.WithoutCancel(ctx), sheetID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Data), nil
	}
}

// fetchAll is the one generic fetch-all-or-fail routine.
func (a *Aggregator) fetchAll(ctx context.Context, sheetID string) (*Data, error) {
	d := &Data{SheetID: sheetID, Grids: make(map[Section]sheets.Grid, len(a.sections))}
	for _, b := range a.sections {
		vr, err := a.reader.GetRange(ctx, sheetID, b.Range)
		if err != nil {
			metrics.SiteFetchErrorsTotal.WithLabelValues(string(b.Section)).Inc()
			zap.L().Warn("site section fetch failed",
				zap.String("sheet_id", sheetID),
				zap.String("section", string(b.Section)),
				zap.Error(err))
			return nil, &SectionError{Section: b.Section, Range: b.Range, Err: err}
		}
		d.Grids[b.Section] = vr.Values
	}
	return d, nil
}
