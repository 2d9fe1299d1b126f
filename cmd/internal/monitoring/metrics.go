package monitoring

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	bidsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatehub_bids_total",
			Help: "Bid attempts by outcome",
		},
		[]string{"result"},
	)

	bidRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "estatehub_bid_retries_total",
			Help: "Bid writes retried after a concurrent price change",
		},
	)

	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatehub_bookings_total",
			Help: "Appointment booking and cancellation attempts by outcome",
		},
		[]string{"operation", "result"},
	)

	auctionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatehub_auction_transitions_total",
			Help: "Auction lifecycle transitions",
		},
		[]string{"to"},
	)

	paymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatehub_payments_total",
			Help: "Purchase payment completions by outcome",
		},
		[]string{"result"},
	)

	liveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "estatehub_live_feed_clients",
			Help: "Connected auction feed websocket clients",
		},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estatehub_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordBid(result string) {
	bidsTotal.WithLabelValues(result).Inc()
}

func RecordBidRetry() {
	bidRetries.Inc()
}

func RecordBooking(operation, result string) {
	bookingsTotal.WithLabelValues(operation, result).Inc()
}

func RecordAuctionTransition(to string) {
	auctionTransitions.WithLabelValues(to).Inc()
}

func RecordPayment(result string) {
	paymentsTotal.WithLabelValues(result).Inc()
}

// TrackLiveClients adjusts the websocket client gauge by delta.
func TrackLiveClients(delta int) {
	liveClients.Add(float64(delta))
}

// Middleware observes request latency labelled by the route pattern.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			requestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
