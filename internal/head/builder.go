// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single render.  Page handlers push
// the title, description, and social tags derived from a tenant's
// Settings section; layout.html emits them in order.
//
// Features
// --------
//   - SetTitle       – single <title> tag (last call wins).
//   - Meta, Property – <meta name> and <meta property> tags, escaped and
//     deduplicated by key.
//   - Link           – <link rel href> tags.
//   - JSONLD         – marshals a value into
//     <script type="application/ld+json">…</script>.
package head

import (
	"encoding/json"
	"html/template"
	"strings"
)

// Builder is not safe for concurrent use; build one per render.
type Builder struct {
	title  string
	tags   []string
	jsonLD []string
	seen   map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// RawTitle is the unescaped title, for headings.
func (b *Builder) RawTitle() string { return b.title }

// Meta adds <meta name="…" content="…">.  Empty content is ignored.
func (b *Builder) Meta(name, content string) {
	b.add("name:"+name, `<meta name="`+esc(name)+`" content="`+esc(content)+`">`, content)
}

// Property adds <meta property="…" content="…"> (Open Graph).
func (b *Builder) Property(prop, content string) {
	b.add("property:"+prop, `<meta property="`+esc(prop)+`" content="`+esc(content)+`">`, content)
}

// Link adds <link rel="…" href="…">.
func (b *Builder) Link(rel, href string) {
	b.add("link:"+rel+":"+href, `<link rel="`+esc(rel)+`" href="`+esc(href)+`">`, href)
}

// JSONLD marshals v as a structured-data block.  Marshal errors drop it.
func (b *Builder) JSONLD(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	b.jsonLD = append(b.jsonLD, string(raw))
}

func (b *Builder) add(key, tag, value string) {
	if value == "" {
		return
	}
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	b.tags = append(b.tags, tag)
}

// ------------------------------------------------------------------
// Rendering helpers called from layout.html
// ------------------------------------------------------------------

// Tags returns every meta and link tag in insertion order.
func (b *Builder) Tags() template.HTML {
	return template.HTML(strings.Join(b.tags, "\n"))
}

// JSON returns all JSON-LD blocks wrapped in <script> tags.  json.Marshal
// escapes <, >, and & so the payload cannot close the script element.
func (b *Builder) JSON() template.HTML {
	var sb strings.Builder
	for _, js := range b.jsonLD {
		sb.WriteString(`<script type="application/ld+json">`)
		sb.WriteString(js)
		sb.WriteString(`</script>`)
	}
	return template.HTML(sb.String())
}

func esc(s string) string { return template.HTMLEscapeString(s) }
