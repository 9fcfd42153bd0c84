// internal/sheets/cell.go
//
// Typed cell values.
//
// Context
// -------
// The Sheets API hands back every range as `[][]interface{}`.  Callers
// should never poke at those untyped values, so the client converts each
// grid into `Grid`, a slice of rows whose cells are a small tagged union:
// string, number, bool, or blank.
//
// Notes
// -----
//   - `FORMATTED_VALUE` rendering (the default) yields strings only.
//     `UNFORMATTED_VALUE` yields numbers and booleans as well.
//   - `Cell.String` renders booleans the way Sheets displays them ("TRUE").
//   - Oxford commas, two spaces after periods.
package sheets

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind tags the value held by a Cell.
type Kind uint8

const (
	Blank Kind = iota
	String
	Number
	Bool
)

// Cell is one spreadsheet cell.  Only the field matching Kind is set.
type Cell struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

// Text returns a string cell.
func Text(s string) Cell { return Cell{Kind: String, Str: s} }

// Num returns a number cell.
func Num(n float64) Cell { return Cell{Kind: Number, Num: n} }

// Flag returns a boolean cell.
func Flag(b bool) Cell { return Cell{Kind: Bool, Bool: b} }

// IsBlank reports whether the cell is empty or holds only whitespace.
func (c Cell) IsBlank() bool {
	return c.Kind == Blank || (c.Kind == String && strings.TrimSpace(c.Str) == "")
}

// String renders the cell as Sheets would display it.
func (c Cell) String() string {
	switch c.Kind {
	case String:
		return c.Str
	case Number:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case Bool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// MarshalJSON writes the raw value so API consumers see the same shape the
// upstream service returned.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case String:
		return json.Marshal(c.Str)
	case Number:
		return json.Marshal(c.Num)
	case Bool:
		return json.Marshal(c.Bool)
	default:
		return []byte(`""`), nil
	}
}

// cellFrom converts one decoded JSON value.
func cellFrom(v any) Cell {
	switch t := v.(type) {
	case nil:
		return Cell{}
	case string:
		if t == "" {
			return Cell{}
		}
		return Text(t)
	case float64:
		return Num(t)
	case bool:
		return Flag(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Num(f)
		}
		return Text(t.String())
	default:
		b, _ := json.Marshal(t)
		return Text(string(b))
	}
}

// Row is one spreadsheet row.  Trailing blank cells are omitted upstream,
// so rows in the same grid may differ in length.
type Row []Cell

// At returns the cell at column i, or a blank cell when the row is short.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// Grid is a row-major cell grid.
type Grid []Row

// gridFrom converts the API's untyped values.
func gridFrom(values [][]interface{}) Grid {
	g := make(Grid, 0, len(values))
	for _, raw := range values {
		row := make(Row, len(raw))
		for i, v := range raw {
			row[i] = cellFrom(v)
		}
		g = append(g, row)
	}
	return g
}
