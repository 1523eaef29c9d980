package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the delivery engine's counters behind a private Prometheus
// registry so tests can create isolated instances.
type Registry struct {
	reg *prometheus.Registry

	OrdersCreated   prometheus.Counter
	OrdersAccepted  prometheus.Counter
	OrdersCompleted prometheus.Counter
	OrdersDeleted   prometheus.Counter
	OtpRejected     prometheus.Counter

	BookingsCreated prometheus.Counter
	BookingsExpired prometheus.Counter
	SweepRuns       prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_created_total"})
	ordersAccepted := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_accepted_total"})
	ordersCompleted := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_completed_total"})
	ordersDeleted := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_deleted_total"})
	otpRejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "otp_rejected_total"})

	bookingsCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "shelf_bookings_created_total"})
	bookingsExpired := prometheus.NewCounter(prometheus.CounterOpts{Name: "shelf_bookings_expired_total"})
	sweepRuns := prometheus.NewCounter(prometheus.CounterOpts{Name: "shelf_booking_sweep_runs_total"})

	r.MustRegister(ordersCreated, ordersAccepted, ordersCompleted, ordersDeleted, otpRejected,
		bookingsCreated, bookingsExpired, sweepRuns)
	return &Registry{
		reg:             r,
		OrdersCreated:   ordersCreated,
		OrdersAccepted:  ordersAccepted,
		OrdersCompleted: ordersCompleted,
		OrdersDeleted:   ordersDeleted,
		OtpRejected:     otpRejected,
		BookingsCreated: bookingsCreated,
		BookingsExpired: bookingsExpired,
		SweepRuns:       sweepRuns,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
