// Package metrics exports business counters for orders and payments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Prometheus struct {
	registry           *prometheus.Registry
	ordersCreated      prometheus.Counter
	paymentsFailed     prometheus.Counter
	duplicateCallbacks prometheus.Counter
	sideEffectFailures *prometheus.CounterVec
	emailsSent         prometheus.Counter
	orderProcessing    prometheus.Histogram
	cartItems          prometheus.Histogram
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of created orders",
		}),
		paymentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_payment_failed_total",
			Help: "Number of failed payments",
		}),
		duplicateCallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payment_callbacks_duplicate_total",
			Help: "Callbacks received for orders already in a terminal payment state",
		}),
		sideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_side_effect_failures_total",
			Help: "Failures of cart clearing, notification or event publishing after settlement",
		}, []string{"effect"}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Emails successfully sent",
		}),
		orderProcessing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_processing_seconds",
			Help:    "Time to process order and payment",
			Buckets: prometheus.DefBuckets,
		}),
		cartItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cart_items",
			Help:    "Number of items in a cart after a mutation",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
	}
	p.registry.MustRegister(
		p.ordersCreated,
		p.paymentsFailed,
		p.duplicateCallbacks,
		p.sideEffectFailures,
		p.emailsSent,
		p.orderProcessing,
		p.cartItems,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) OrderCreated()      { p.ordersCreated.Inc() }
func (p *Prometheus) PaymentFailed()     { p.paymentsFailed.Inc() }
func (p *Prometheus) DuplicateCallback() { p.duplicateCallbacks.Inc() }
func (p *Prometheus) EmailSent()         { p.emailsSent.Inc() }

func (p *Prometheus) SideEffectFailed(effect string) {
	p.sideEffectFailures.WithLabelValues(effect).Inc()
}

func (p *Prometheus) ObserveOrderProcessing(d time.Duration) {
	p.orderProcessing.Observe(d.Seconds())
}

func (p *Prometheus) ObserveCartItems(n int) {
	p.cartItems.Observe(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) OrderCreated()                        {}
func (Noop) PaymentFailed()                       {}
func (Noop) DuplicateCallback()                   {}
func (Noop) EmailSent()                           {}
func (Noop) SideEffectFailed(string)              {}
func (Noop) ObserveOrderProcessing(time.Duration) {}
func (Noop) ObserveCartItems(int)                 {}
