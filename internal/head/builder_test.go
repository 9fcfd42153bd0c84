package head

import (
	"strings"
	"testing"
)

func TestBuilder(t *testing.T) {
	b := New()
	b.SetTitle("Ana's <Shop>")
	b.Meta("description", `Fresh "bread"`)
	b.Meta("description", "ignored duplicate")
	b.Meta("keywords", "")
	b.Property("og:title", "Ana")
	b.JSONLD(map[string]string{"@type": "Store", "name": "</script>"})

	if got := string(b.Title()); got != "<title>Ana&#39;s &lt;Shop&gt;</title>" {
		t.Errorf("Title = %s", got)
	}
	tags := string(b.Tags())
	if strings.Count(tags, `name="description"`) != 1 {
		t.Errorf("description not deduplicated: %s", tags)
	}
	if strings.Contains(tags, "keywords") {
		t.Error("empty meta emitted")
	}
	if !strings.Contains(tags, "Fresh &#34;bread&#34;") {
		t.Errorf("content not escaped: %s", tags)
	}
	if js := string(b.JSON()); strings.Contains(js, "</script>\"") {
		t.Errorf("JSON-LD not escaped: %s", js)
	}
}
