// Package signup reads the master sign-up sheet: one row per user with
// columns A:C = isPaid | username | sheetId, under a header row.  New
// sign-ups are appended, so the last rows are the most recent.
package signup

import (
	"context"
	"errors"
	"strings"

	"github.com/yanizio/sheetzu/internal/site"
)

// MasterRange is the column span read from the master sheet.
const MasterRange = "A:C"

// DefaultLimit caps Latest.
const DefaultLimit = 10

// ErrEmpty means the master sheet returned no values at all.
var ErrEmpty = errors.New("no data found in master sheet")

// User is one valid master-sheet row.
type User struct {
	IsPaid   bool   `json:"isPaid"`
	Username string `json:"username"`
	SheetID  string `json:"sheetId"`
}

// Directory reads users from the master sheet on every call.
type Directory struct {
	reader  site.RangeReader
	sheetID string
}

// New returns a Directory over masterSheetID.
func New(r site.RangeReader, masterSheetID string) *Directory {
	return &Directory{reader: r, sheetID: masterSheetID}
}

// Users returns every valid row in sheet order.
func (d *Directory) Users(ctx context.Context) ([]User, error) {
	vr, err := d.reader.GetRange(ctx, d.sheetID, MasterRange)
	if err != nil {
		return nil, err
	}
	if len(vr.Values) == 0 {
		return nil, ErrEmpty
	}

	var out []User
	for _, row := range vr.Values[1:] {
		if len(row) < 3 {
			continue
		}
		name := strings.TrimSpace(row[1].String())
		sheet := strings.TrimSpace(row[2].String())
		if name == "" || sheet == "" {
			continue
		}
		out = append(out, User{
			IsPaid:   strings.ToUpper(row[0].String()) == "TRUE",
			Username: name,
			SheetID:  sheet,
		})
	}
	return out, nil
}

// Latest returns up to limit users, most recent first.
func (d *Directory) Latest(ctx context.Context, limit int) ([]User, error) {
	users, err := d.Users(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(users) > limit {
		users = users[len(users)-limit:]
	}
	out := make([]User, len(users))
	for i, u := range users {
		out[len(users)-1-i] = u
	}
	return out, nil
}

// Find returns the most recent row whose username matches, ignoring case.
func (d *Directory) Find(ctx context.Context, username string) (User, bool, error) {
	users, err := d.Users(ctx)
	if err != nil {
		return User{}, false, err
	}
	for i := len(users) - 1; i >= 0; i-- {
		if strings.EqualFold(users[i].Username, username) {
			return users[i], true, nil
		}
	}
	return User{}, false, nil
}
