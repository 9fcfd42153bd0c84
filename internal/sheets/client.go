// internal/sheets/client.go
//
// Spreadsheet client.
//
// Context
// -------
// Every site is backed by one Google Sheet, read through the Sheets v4 API
// with a read-only service-account credential.  This file wraps the
// generated client so the rest of the code sees three small operations:
//
//   - GetMetadata: document exists and is readable, plus its title.
//   - GetRange: one named range as a typed Grid.
//   - Check: GetMetadata plus a read of A1, the registration gate.
//
// Failures are mapped onto the taxonomy in errors.go.  Every upstream call
// runs under its own deadline (Options.Timeout).  Nothing is cached; each
// call goes to the upstream service.
//
// Notes
// -----
//   - Tests point the client at an httptest server with
//     option.WithEndpoint and option.WithoutAuthentication, see sheetstest.
//   - Oxford commas, two spaces after periods.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/yanizio/sheetzu/internal/metrics"
)

const (
	opMetadata = "metadata"
	opRange    = "range"

	// ProbeRange is the single cell read to confirm end-to-end access.
	ProbeRange = "A1"

	DefaultTimeout = 10 * time.Second
)

// Options configures New.
type Options struct {
	// Credentials is the service-account JSON key.  Empty means the
	// caller supplies authentication through ClientOptions.
	Credentials []byte

	// Timeout bounds each upstream call.  Zero selects DefaultTimeout.
	Timeout time.Duration

	// ValueRender is FORMATTED_VALUE (default), UNFORMATTED_VALUE, or
	// FORMULA.
	ValueRender string

	ClientOptions []option.ClientOption
}

// Metadata describes one spreadsheet document.
type Metadata struct {
	SheetID string   `json:"sheetId"`
	Title   string   `json:"title"`
	Tabs    []string `json:"tabs"`
}

// ValueRange is the result of one range read.
type ValueRange struct {
	Range          string `json:"range"`
	MajorDimension string `json:"majorDimension"`
	Values         Grid   `json:"values"`
}

// Client is safe for concurrent use.
type Client struct {
	svc     *gsheets.Service
	timeout time.Duration
	render  string
	email   string
}

// New builds a Client.  It performs no network I/O.
func New(ctx context.Context, o Options) (*Client, error) {
	var opts []option.ClientOption
	if len(o.Credentials) > 0 {
		opts = append(opts,
			option.WithCredentialsJSON(o.Credentials),
			option.WithScopes(gsheets.SpreadsheetsReadonlyScope),
		)
	}
	opts = append(opts, o.ClientOptions...)
	if len(opts) == 0 {
		return nil, errors.New("sheets: no credentials configured")
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	render := o.ValueRender
	if render == "" {
		render = "FORMATTED_VALUE"
	}

	return &Client{
		svc:     svc,
		timeout: timeout,
		render:  render,
		email:   ServiceAccountEmail(o.Credentials),
	}, nil
}

// ServiceAccount returns the client_email of the configured credential,
// or "" when unknown.  Users must share their sheet with this address.
func (c *Client) ServiceAccount() string { return c.email }

// GetMetadata confirms the document exists and is readable.
func (c *Client) GetMetadata(ctx context.Context, sheetID string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	ss, err := c.svc.Spreadsheets.Get(sheetID).
		Fields("spreadsheetId,properties.title,sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		e := classify(opMetadata, sheetID, "", err)
		observe(opMetadata, start, e)
		zap.L().Debug("sheets metadata failed",
			zap.String("sheet_id", sheetID), zap.Error(e))
		return Metadata{}, e
	}
	observe(opMetadata, start, nil)

	md := Metadata{SheetID: sheetID}
	if ss.Properties != nil {
		md.Title = ss.Properties.Title
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			md.Tabs = append(md.Tabs, s.Properties.Title)
		}
	}
	return md, nil
}

// GetRange reads one named range (a tab name or A1 notation).
func (c *Client) GetRange(ctx context.Context, sheetID, rng string) (ValueRange, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	vr, err := c.svc.Spreadsheets.Values.Get(sheetID, rng).
		ValueRenderOption(c.render).
		Context(ctx).
		Do()
	if err != nil {
		e := classify(opRange, sheetID, rng, err)
		observe(opRange, start, e)
		zap.L().Debug("sheets range failed",
			zap.String("sheet_id", sheetID),
			zap.String("range", rng),
			zap.Error(e))
		return ValueRange{}, e
	}
	observe(opRange, start, nil)

	return ValueRange{
		Range:          vr.Range,
		MajorDimension: vr.MajorDimension,
		Values:         gridFrom(vr.Values),
	}, nil
}

// Check composes GetMetadata and a read of ProbeRange, returning the first
// typed failure.
func (c *Client) Check(ctx context.Context, sheetID string) (Metadata, error) {
	md, err := c.GetMetadata(ctx, sheetID)
	if err != nil {
		return Metadata{}, err
	}
	if _, err := c.GetRange(ctx, sheetID, ProbeRange); err != nil {
		return Metadata{}, err
	}
	return md, nil
}

// ValidateAccess reports whether Check succeeds.
func (c *Client) ValidateAccess(ctx context.Context, sheetID string) bool {
	_, err := c.Check(ctx, sheetID)
	return err == nil
}

// ServiceAccountEmail extracts client_email from a service-account key.
func ServiceAccountEmail(creds []byte) string {
	if len(creds) == 0 {
		return ""
	}
	var key struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(creds, &key); err != nil {
		return ""
	}
	return key.ClientEmail
}

func observe(op string, start time.Time, err error) {
	metrics.SheetRequestsTotal.WithLabelValues(op, outcome(err)).Inc()
	metrics.SheetRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
