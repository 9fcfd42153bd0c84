// internal/site/section.go
//
// Section table.
//
// Context
// -------
// A site is assembled from three fixed sections, each read from one tab of
// the tenant's spreadsheet.  The table below is the only place the tab
// names live; the aggregator, the JSON API, and the renderer all walk it.
//
// The events tab is literally named "Events/Products".  The slash cannot
// travel inside one URL path segment, so every section also carries a
// URL-safe slug ("Events_Products") that RangeForSlug maps back.
package site

// Section is a logical data group of a site.
type Section string

const (
	Events   Section = "EVENTS"
	Settings Section = "SETTINGS"
	WebPages Section = "WEBPAGES"
)

// Binding ties a Section to its spreadsheet range and URL slug.
type Binding struct {
	Section Section
	Range   string
	Slug    string
}

// Sections is the fetch order.
var Sections = []Binding{
	{Section: Events, Range: "Events/Products", Slug: "Events_Products"},
	{Section: Settings, Range: "Settings", Slug: "Settings"},
	{Section: WebPages, Range: "WebPages", Slug: "WebPages"},
}

// RangeForSlug maps a URL slug onto a range name.  Unknown slugs are
// returned unchanged so any tab can be read by name.
func RangeForSlug(slug string) string {
	for _, b := range Sections {
		if b.Slug == slug {
			return b.Range
		}
	}
	return slug
}
