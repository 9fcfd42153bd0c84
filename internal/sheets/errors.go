package sheets

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Failure taxonomy.  Every error returned by Client wraps exactly one of
// these so callers can branch with errors.Is.
var (
	ErrNotFound      = errors.New("spreadsheet not found")
	ErrAccessDenied  = errors.New("spreadsheet access denied")
	ErrRangeNotFound = errors.New("range not found")
	ErrTransport     = errors.New("spreadsheet service error")
)

// Error carries the failing operation alongside the taxonomy member and the
// upstream cause.
type Error struct {
	Op      string // "metadata", "range"
	SheetID string
	Range   string
	Kind    error
	Err     error
}

func (e *Error) Error() string {
	if e.Range != "" {
		return fmt.Sprintf("sheets %s %q of %s: %v: %v", e.Op, e.Range, e.SheetID, e.Kind, e.Err)
	}
	return fmt.Sprintf("sheets %s of %s: %v: %v", e.Op, e.SheetID, e.Kind, e.Err)
}

// Unwrap exposes both the taxonomy member and the upstream cause.
func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }

// classify maps an upstream failure onto the taxonomy.  A 404 means the
// document itself is gone, for range reads too; a missing tab comes back
// as a 400 "Unable to parse range".
func classify(op, sheetID, rng string, err error) *Error {
	kind := ErrTransport

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusForbidden:
			kind = ErrAccessDenied
		case http.StatusNotFound:
			kind = ErrNotFound
		case http.StatusBadRequest:
			if op == opRange {
				kind = ErrRangeNotFound
			}
		}
	}
	return &Error{Op: op, SheetID: sheetID, Range: rng, Kind: kind, Err: err}
}

// outcome is the metrics label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrRangeNotFound):
		return "range_not_found"
	default:
		return "transport"
	}
}
