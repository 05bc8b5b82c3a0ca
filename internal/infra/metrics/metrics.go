// Package metrics exposes identity reconciliation counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bazaar/internal/domain/service"
)

// Collector implements service.IdentityMetrics.
type Collector struct {
	exchanges   *prometheus.CounterVec
	linkCreated *prometheus.CounterVec
	currentUser *prometheus.CounterVec
}

var _ service.IdentityMetrics = (*Collector)(nil)

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaar_exchange_total",
			Help: "Token and code exchanges by provider and outcome.",
		}, []string{"provider", "outcome"}),
		linkCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaar_ledger_links_created_total",
			Help: "Provider links created by the account ledger.",
		}, []string{"provider"}),
		currentUser: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaar_current_user_resolutions_total",
			Help: "Current user resolutions by winning credential source.",
		}, []string{"source"}),
	}

	reg.MustRegister(c.exchanges, c.linkCreated, c.currentUser)

	return c
}

func (c *Collector) RecordExchange(provider, outcome string) {
	c.exchanges.WithLabelValues(provider, outcome).Inc()
}

func (c *Collector) RecordLinkCreated(provider string) {
	c.linkCreated.WithLabelValues(provider).Inc()
}

// RecordCurrentUser counts a resolution; guests are recorded with source "guest".
func (c *Collector) RecordCurrentUser(source string) {
	c.currentUser.WithLabelValues(source).Inc()
}

// NewRegistry returns a registry with the Go runtime and process collectors attached.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
