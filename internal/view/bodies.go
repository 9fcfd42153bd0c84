package view

import (
	"github.com/yanizio/sheetzu/internal/signup"
	"github.com/yanizio/sheetzu/internal/site"
	"github.com/yanizio/sheetzu/internal/tenant"
)

// RegisterForm echoes the submitted registration values.
type RegisterForm struct {
	Username string
	SheetID  string
}

// HomeBody feeds home.html.
type HomeBody struct {
	Form           RegisterForm
	Error          string
	Created        *tenant.Tenant
	SiteURL        string
	ServiceAccount string
	CSRFToken      string
	Latest         []signup.User
}

// SiteBody feeds site.html.
type SiteBody struct {
	Title   string
	Tagline string
	Items   []site.Item
	Pages   []site.Page
	Footer  string // settings "Footer Text"
}

// NotFoundBody feeds notfound.html.
type NotFoundBody struct {
	Host    string
	HomeURL string
}

// ErrorBody feeds error.html.
type ErrorBody struct {
	Message   string
	RequestID string
}
