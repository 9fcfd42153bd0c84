// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • `conf/global.yaml`                        – primary static file,
//   • `SHEETZU_`-prefixed environment overrides – highest precedence.
//
// `Sheets.Credentials` may hold the service-account JSON inline or a
// `vault:<mount>/<path>#<key>` reference.  References are resolved by
// cmd/web through internal/vault, so the model itself only stores strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"strings"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	Debug      bool   `koanf:"debug"` // exposes /api/tenants
	CSRFKey    string `koanf:"csrf_key"` // base64url, ≥32 bytes; may be a vault: ref
}

//
// Site section
//

// Site describes the host names tenants live under.
type Site struct {
	BaseDomain  string   `koanf:"base_domain"  validate:"required,hostname_rfc1123"`
	ProductName string   `koanf:"product_name" validate:"required"`
	DevDomains  []string `koanf:"dev_domains"`
	Reserved    []string `koanf:"reserved"`
	Unresolved  string   `koanf:"unresolved"   validate:"omitempty,oneof=notfound redirect"`
}

// ReservedLabels returns Reserved plus the product name, lowercased.
func (s Site) ReservedLabels() []string {
	out := make([]string, 0, len(s.Reserved)+1)
	for _, r := range s.Reserved {
		out = append(out, strings.ToLower(r))
	}
	return append(out, strings.ToLower(s.ProductName))
}

//
// Sheets section
//

// Sheets configures the upstream spreadsheet client.
type Sheets struct {
	Credentials     string        `koanf:"credentials"`
	CredentialsFile string        `koanf:"credentials_file"`
	MasterSheetID   string        `koanf:"master_sheet_id"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ValueRender     string        `koanf:"value_render" validate:"omitempty,oneof=FORMATTED_VALUE UNFORMATTED_VALUE FORMULA"`
}

//
// Store section
//

// Store selects the tenant directory backend.
//
// `memory` keeps tenants in process memory only.  `mysql` persists them in
// the `tenant` table and fronts lookups with an idle-evicting cache.
type Store struct {
	Driver   string        `koanf:"driver"    validate:"required,oneof=memory mysql"`
	DSN      string        `koanf:"dsn"       validate:"required_if=Driver mysql"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
	CacheMax int           `koanf:"cache_max" validate:"gte=0"`
}

//
// Geo section
//

// Geo points at an optional GeoLite2-City database for visitor logging.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // SHEETZU_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP   HTTP   `koanf:"http"`
	Site   Site   `koanf:"site"`
	Sheets Sheets `koanf:"sheets"`
	Store  Store  `koanf:"store"`
	Geo    Geo    `koanf:"geo"`
	Paths  Paths  `koanf:"-"` // not loaded from config files
}

// applyDefaults fills optional fields left empty by every layer.
func (c *Config) applyDefaults() {
	c.Site.BaseDomain = strings.ToLower(c.Site.BaseDomain)
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.Site.ProductName == "" {
		c.Site.ProductName = "sheetzu"
	}
	if c.Site.DevDomains == nil {
		c.Site.DevDomains = []string{"localhost", "127.0.0.1"}
	}
	if c.Site.Reserved == nil {
		c.Site.Reserved = []string{"www", "app", "admin"}
	}
	if c.Site.Unresolved == "" {
		c.Site.Unresolved = "notfound"
	}
	if c.Sheets.RequestTimeout <= 0 {
		c.Sheets.RequestTimeout = 10 * time.Second
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
}
