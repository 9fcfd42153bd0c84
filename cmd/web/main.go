// cmd/web/main.go
//
// sheetzu – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load configuration (.env → conf/global.yaml → SHEETZU_ env).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Resolve `vault:` references, then build the Sheets client from the
//     service-account JSON.
//
//  4. Select the tenant directory: in-memory, or mysql behind the
//     idle-evicting cache.
//
//  5. Open the optional GeoLite2 database for page-view logging.
//
//  6. Build the router:
//
//     • chi RequestID, RealIP, Recoverer  – every request
//     • Security headers, ForceHTTPS      – every request
//     • /metrics                          – Prometheus
//     • /api/*                            – JSON, tenant resolved but never 404'd
//     • /*                                – pages, unresolved hosts → not found
//
//  7. Serve until SIGINT or SIGTERM, then drain for ShutdownGrace.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/sheetzu/internal/api"
	"github.com/yanizio/sheetzu/internal/config"
	"github.com/yanizio/sheetzu/internal/database"
	"github.com/yanizio/sheetzu/internal/form"
	"github.com/yanizio/sheetzu/internal/logger"
	"github.com/yanizio/sheetzu/internal/middleware"
	"github.com/yanizio/sheetzu/internal/requestinfo"
	"github.com/yanizio/sheetzu/internal/server"
	"github.com/yanizio/sheetzu/internal/sheets"
	"github.com/yanizio/sheetzu/internal/signup"
	"github.com/yanizio/sheetzu/internal/site"
	"github.com/yanizio/sheetzu/internal/tenant"
	"github.com/yanizio/sheetzu/internal/vault"
	"github.com/yanizio/sheetzu/internal/view"
	"github.com/yanizio/sheetzu/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logOut, err := logger.New(logger.Options{
		Root:  cfg.Paths.Root,
		Tee:   logger.IsTTY(),
		Debug: cfg.HTTP.Debug,
	})
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logOut.Fatalw("sheetzu stopped", "err", err)
	}
	logOut.Infow("sheetzu stopped cleanly")
}

func run(ctx context.Context, cfg *config.Config) error {
	//
	// ── 1.  Secrets and the Sheets client ───────────────────────────────
	//
	var vc vault.Getter
	if vault.IsRef(cfg.Sheets.Credentials) || vault.IsRef(cfg.Store.DSN) || vault.IsRef(cfg.HTTP.CSRFKey) {
		cli, err := vault.New(ctx)
		if err != nil {
			return err
		}
		vc = cli
	}

	creds, err := credentials(ctx, vc, cfg.Sheets)
	if err != nil {
		return err
	}
	sc, err := sheets.New(ctx, sheets.Options{
		Credentials: creds,
		Timeout:     cfg.Sheets.RequestTimeout,
		ValueRender: cfg.Sheets.ValueRender,
	})
	if err != nil {
		return err
	}
	zap.S().Infow("sheets client ready", "service_account", sc.ServiceAccount())

	//
	// ── 2.  Tenant directory ────────────────────────────────────────────
	//
	store, closeStore, err := openStore(ctx, vc, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	//
	// ── 3.  Optional visitor geolocation ────────────────────────────────
	//
	if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
		zap.S().Warnw("geo lookup disabled", "err", err)
	}
	defer func() { _ = requestinfo.CloseGeo() }()

	//
	// ── 4.  Domain services ─────────────────────────────────────────────
	//
	resolver := tenant.NewResolver(store, tenant.ResolverConfig{
		BaseDomain: cfg.Site.BaseDomain,
		DevDomains: cfg.Site.DevDomains,
		Reserved:   cfg.Site.ReservedLabels(),
	})
	registrar := tenant.NewRegistrar(store, sc, cfg.Site.BaseDomain)
	aggregator := site.NewAggregator(sc)

	var users *signup.Directory
	if cfg.Sheets.MasterSheetID != "" {
		users = signup.New(sc, cfg.Sheets.MasterSheetID)
	} else {
		zap.S().Infow("no master sheet configured, latest signups disabled")
	}

	views, err := view.New(filepath.Join(cfg.Paths.Root, "templates"))
	if err != nil {
		return err
	}
	csrfKey, err := vault.Resolve(ctx, vc, cfg.HTTP.CSRFKey)
	if err != nil {
		return err
	}

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	jsonAPI := api.New(api.Deps{
		Sheets:         sc,
		ServiceAccount: sc.ServiceAccount(),
		Registrar:      registrar,
		Store:          store,
		Users:          users,
		Debug:          cfg.HTTP.Debug,
	})
	pages := web.New(web.Deps{
		Views:          views,
		Resolver:       resolver,
		Aggregator:     aggregator,
		Registrar:      registrar,
		Users:          users,
		CSRF:           form.NewSigner(csrfKey),
		Product:        cfg.Site.ProductName,
		ServiceAccount: sc.ServiceAccount(),
		Unresolved:     cfg.Site.Unresolved,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Security)
	r.Use(middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, cfg.Site.DevDomains))

	r.Handle("/metrics", promhttp.Handler())
	r.With(tenant.Middleware(resolver, nil)).Mount("/api", jsonAPI.Routes())
	r.Mount("/", pages.Routes())

	return server.Run(ctx, server.New(cfg.HTTP.ListenAddr, r))
}

// credentials returns the service-account JSON from, in order: the
// inline or vault-referenced config value, the configured file, or
// GOOGLE_APPLICATION_CREDENTIALS (inline JSON or a path).
func credentials(ctx context.Context, vc vault.Getter, sc config.Sheets) ([]byte, error) {
	v, err := vault.Resolve(ctx, vc, sc.Credentials)
	if err != nil {
		return nil, err
	}
	if v != "" {
		return []byte(v), nil
	}

	path := sc.CredentialsFile
	if path == "" {
		env := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		if strings.HasPrefix(env, "{") {
			return []byte(env), nil
		}
		path = env
	}
	if path == "" {
		return nil, errors.New("no Google service-account credentials configured")
	}
	return os.ReadFile(path)
}

// openStore builds the configured tenant.Store and its cleanup.
func openStore(ctx context.Context, vc vault.Getter, sc config.Store) (tenant.Store, func(), error) {
	if sc.Driver != "mysql" {
		zap.S().Infow("tenant directory in memory, records are lost on restart")
		return tenant.NewMemoryStore(), func() {}, nil
	}

	dsn, err := vault.Resolve(ctx, vc, sc.DSN)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	cached := tenant.NewCachedStore(tenant.NewSQLStore(db), sc.CacheTTL, sc.CacheMax)
	zap.S().Infow("tenant directory on mysql", "cache_ttl", sc.CacheTTL, "cache_max", sc.CacheMax)

	return cached, func() {
		cached.Close()
		_ = db.Close()
	}, nil
}
