// internal/site/data.go
//
// SiteData and its per-section schema mapping.
//
// Context
// -------
// Data keeps the raw grids exactly as the spreadsheet returned them.  The
// renderer never indexes those grids directly; it reads through three
// typed views:
//
//   - Settings: key/value rows ("title" | "Ana Bakes"), or a header row
//     followed by one value row.  Keys are folded by settingKey, so
//     "Footer Text" and "footerText" are the same setting.
//   - Items: Events/Products rows under a header row.  Well-known
//     columns (name, description, price, image, link) get fields; every
//     column is kept in Fields.
//   - Pages: WebPages rows under a header row (title, content, slug);
//     slugs pass through routing.MakeSlug.
//
// Rows that are entirely blank are skipped.
package site

import (
	"strings"

	"github.com/yanizio/sheetzu/internal/routing"
	"github.com/yanizio/sheetzu/internal/sheets"
)

// Data is one request's worth of site content.  It is never persisted.
type Data struct {
	SheetID string
	Grids   map[Section]sheets.Grid
}

// Grid returns the raw grid for s.
func (d *Data) Grid(s Section) sheets.Grid { return d.Grids[s] }

// Item is one event or product.
type Item struct {
	Name        string
	Description string
	Price       string
	Image       string
	Link        string
	Fields      map[string]string
}

// Page is one free-form web page.
type Page struct {
	Title   string
	Content string
	Slug    string
}

// Settings maps folded keys to values.
func (d *Data) Settings() map[string]string {
	g := d.Grid(Settings)
	out := make(map[string]string)
	if len(g) == 0 {
		return out
	}

	// Wide layout: header row, one value row, more than two columns.
	if len(g[0]) > 2 && len(g) >= 2 {
		for i, h := range g[0] {
			if k := settingKey(h.String()); k != "" {
				out[k] = strings.TrimSpace(g[1].At(i).String())
			}
		}
		return out
	}

	for _, row := range g {
		k := settingKey(row.At(0).String())
		if k == "" || k == "key" || k == "setting" {
			continue
		}
		out[k] = strings.TrimSpace(row.At(1).String())
	}
	return out
}

// Setting returns one value by any spelling of its key.
func (d *Data) Setting(key string) string {
	return d.Settings()[settingKey(key)]
}

// Items maps the events/products grid.
func (d *Data) Items() []Item {
	var out []Item
	for _, rec := range records(d.Grid(Events)) {
		out = append(out, Item{
			Name:        rec["name"],
			Description: rec["description"],
			Price:       rec["price"],
			Image:       rec["image"],
			Link:        rec["link"],
			Fields:      rec,
		})
	}
	return out
}

// Pages maps the web pages grid.
func (d *Data) Pages() []Page {
	var out []Page
	for _, rec := range records(d.Grid(WebPages)) {
		slug := rec["slug"]
		if slug == "" {
			slug = rec["title"]
		}
		slug = routing.MakeSlug(slug)
		out = append(out, Page{Title: rec["title"], Content: rec["content"], Slug: slug})
	}
	return out
}

// records turns a header row plus data rows into maps keyed by folded
// header names.
func records(g sheets.Grid) []map[string]string {
	if len(g) < 2 {
		return nil
	}
	headers := make([]string, len(g[0]))
	for i, h := range g[0] {
		headers[i] = settingKey(h.String())
	}

	var out []map[string]string
	for _, row := range g[1:] {
		if blankRow(row) {
			continue
		}
		rec := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			rec[h] = strings.TrimSpace(row.At(i).String())
		}
		out = append(out, rec)
	}
	return out
}

func blankRow(r sheets.Row) bool {
	for _, c := range r {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// settingKey lowercases and drops everything but letters and digits.
func settingKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
