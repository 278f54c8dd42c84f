// Package metrics exposes dashboard activity as Prometheus metrics on a
// private registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/portfolio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lumina"

// Registry holds all dashboard metrics
type Registry struct {
	registry *prometheus.Registry

	TicksTotal          prometheus.Counter
	GasPrice            prometheus.Gauge
	TotalBalance        prometheus.Gauge
	AssetPrice          *prometheus.GaugeVec
	ActiveNotifications prometheus.Gauge
	NotificationsTotal  *prometheus.CounterVec
	SwapsTotal          *prometheus.CounterVec
	AdvisorRequests     *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	StreamClients       prometheus.Gauge
}

// NewRegistry creates and registers every metric
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_ticks_total",
			Help:      "Total number of simulator ticks applied",
		}),
		GasPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gas_price_gwei",
			Help:      "Current simulated gas price in gwei",
		}),
		TotalBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_total_balance_usd",
			Help:      "Total portfolio value at the latest tick",
		}),
		AssetPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "asset_price_usd",
			Help:      "Latest simulated price per asset",
		}, []string{"symbol"}),
		ActiveNotifications: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notifications_active",
			Help:      "Notifications currently queued",
		}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification lifecycle events",
		}, []string{"event"}),
		SwapsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swaps_total",
			Help:      "Simulated swaps executed by pair",
		}, []string{"from", "to"}),
		AdvisorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisor_requests_total",
			Help:      "Advisor requests by kind and outcome",
		}, []string{"kind", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route"}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected websocket stream clients",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.TicksTotal,
		r.GasPrice,
		r.TotalBalance,
		r.AssetPrice,
		r.ActiveNotifications,
		r.NotificationsTotal,
		r.SwapsTotal,
		r.AdvisorRequests,
		r.HTTPRequests,
		r.HTTPDuration,
		r.StreamClients,
	)

	return r
}

// Gatherer returns the underlying registry for scraping and tests
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// OnTick records the market state carried by a tick
func (r *Registry) OnTick(_ context.Context, tick models.MarketTick) {
	r.TicksTotal.Inc()
	r.ObserveMarket(tick.Assets, tick.GasPrice)
}

// ObserveMarket sets the market gauges without counting a tick
func (r *Registry) ObserveMarket(assets []models.Asset, gas int) {
	r.GasPrice.Set(float64(gas))
	r.TotalBalance.Set(portfolio.TotalBalance(assets))
	for _, a := range assets {
		r.AssetPrice.WithLabelValues(a.Symbol).Set(a.Price)
	}
}

// NotificationPushed records a push and the resulting queue length
func (r *Registry) NotificationPushed(active int) {
	r.NotificationsTotal.WithLabelValues("pushed").Inc()
	r.ActiveNotifications.Set(float64(active))
}

// NotificationRemoved records an expiry or dismissal and the resulting queue length
func (r *Registry) NotificationRemoved(reason string, active int) {
	r.NotificationsTotal.WithLabelValues(reason).Inc()
	r.ActiveNotifications.Set(float64(active))
}

// SwapExecuted records a completed swap
func (r *Registry) SwapExecuted(from, to string) {
	r.SwapsTotal.WithLabelValues(from, to).Inc()
}

// AdvisorRequest records one gateway round trip
func (r *Registry) AdvisorRequest(kind, outcome string) {
	r.AdvisorRequests.WithLabelValues(kind, outcome).Inc()
}

// ObserveHTTP records one served request
func (r *Registry) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	r.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
