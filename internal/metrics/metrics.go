package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the marketplace.
type Metrics struct {
	ItemsRegistered  prometheus.Counter
	ItemsSold        prometheus.Counter
	ItemsTransferred prometheus.Counter
	Certifications   prometheus.Counter
	ItemsForSale     prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ItemsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_items_registered_total",
			Help: "Total number of items registered on the ledger",
		}),
		ItemsSold: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_items_sold_total",
			Help: "Total number of completed purchases",
		}),
		ItemsTransferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_items_transferred_total",
			Help: "Total number of gift transfers",
		}),
		Certifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_certifications_total",
			Help: "Total number of certification calls, re-certifications included",
		}),
		ItemsForSale: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "marketplace_items_for_sale",
			Help: "Number of items currently listed for sale",
		}),
	}
}
