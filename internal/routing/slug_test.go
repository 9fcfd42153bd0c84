package routing

import (
	"strings"
	"testing"
)

func TestMakeSlug(t *testing.T) {
	cases := map[string]string{
		"About Us":          "about-us",
		"  Opening  Hours!": "opening-hours",
		"Café & Bar":        "caf-bar",
		"!!!":               "page",
		"":                  "page",
	}
	for in, want := range cases {
		if got := MakeSlug(in); got != want {
			t.Errorf("MakeSlug(%q) = %q, want %q", in, got, want)
		}
	}
	long := MakeSlug(strings.Repeat("ab ", 60))
	if len(long) > 100 || strings.HasSuffix(long, "-") {
		t.Errorf("long slug = %q", long)
	}
}

func TestSitePath(t *testing.T) {
	if got := SitePath("Ana Baker"); got != "/Ana%20Baker" {
		t.Errorf("SitePath = %q", got)
	}
}
