package monitoring

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Confirmed bookings per event category",
		},
		[]string{"category"},
	)

	ticketsBooked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_booked_total",
			Help: "Tickets issued per event category, counting quantity",
		},
		[]string{"category"},
	)

	bookingAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_amount_dollars",
			Help:    "Total amount of confirmed bookings",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
		[]string{"category"},
	)

	cancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_cancellations_total",
			Help: "Cancelled tickets per event category",
		},
		[]string{"category"},
	)

	wizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_wizard_transitions_total",
			Help: "Booking wizard actions by outcome",
		},
		[]string{"action", "outcome"},
	)

	filterResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_filter_results",
			Help:    "Number of events returned per filter request",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)
)

func TrackBooking(category string, quantity int, total decimal.Decimal) {
	bookingsTotal.WithLabelValues(category).Inc()
	ticketsBooked.WithLabelValues(category).Add(float64(quantity))
	bookingAmount.WithLabelValues(category).Observe(total.InexactFloat64())
}

func TrackCancellation(category string) {
	cancellationsTotal.WithLabelValues(category).Inc()
}

func TrackWizardTransition(action string, accepted bool) {
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	wizardTransitions.WithLabelValues(action, outcome).Inc()
}

func TrackFilter(results int) {
	filterResults.Observe(float64(results))
}

// Monitor samples runtime gauges and serves /metrics.
type Monitor struct {
	interval time.Duration
}

func NewMonitor(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{interval: interval}
}

func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.collect()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect()
		}
	}
}

func (m *Monitor) collect() {
	goroutineCount.Set(float64(runtime.NumGoroutine()))
}

// Serve exposes the default registry on addr until ctx is cancelled.
func (m *Monitor) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
