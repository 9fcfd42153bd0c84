// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SheetRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheet_requests_total",
			Help: "Upstream spreadsheet calls by operation and outcome.",
		}, []string{"op", "outcome"})

	SheetRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sheet_request_duration_seconds",
			Help:    "Latency of upstream spreadsheet calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"})

	TenantResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolve_total",
			Help: "Host resolutions by outcome (resolved, unresolved, not_applicable, error).",
		}, []string{"outcome"})

	TenantRegisterTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_register_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"})

	SiteFetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_fetch_errors_total",
			Help: "Aggregate site fetches aborted, by failing section.",
		}, []string{"section"})

	PageViewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_views_total",
			Help: "Rendered pages by device class and bot flag.",
		}, []string{"device", "bot"})

	// Directory cache (tenant.CachedStore).

	ActiveTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenants",
			Help: "Number of tenant records currently cached in memory.",
		})

	TenantLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_total",
			Help: "Cumulative number of tenant records loaded from the store.",
		})

	TenantLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_errors_total",
			Help: "Cumulative number of tenant store lookup errors.",
		})

	TenantEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_evict_total",
			Help: "Cumulative number of tenant records evicted from the cache.",
		})
)

func init() {
	prometheus.MustRegister(
		SheetRequestsTotal,
		SheetRequestDuration,
		TenantResolveTotal,
		TenantRegisterTotal,
		SiteFetchErrorsTotal,
		PageViewsTotal,
		ActiveTenants,
		TenantLoadTotal,
		TenantLoadErrorsTotal,
		TenantEvictTotal,
	)
}
