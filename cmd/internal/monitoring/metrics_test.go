package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandlerExposesMetrics(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/metrics", Handler())
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	RecordBid("accepted")
	RecordBidRetry()
	RecordBooking("book", "conflict")
	RecordAuctionTransition("ended")
	RecordPayment("completed")
	TrackLiveClients(1)

	body := scrape(t, e)
	require.Contains(t, body, `estatehub_bids_total{result="accepted"}`)
	require.Contains(t, body, "estatehub_bid_retries_total")
	require.Contains(t, body, `estatehub_bookings_total{operation="book",result="conflict"}`)
	require.Contains(t, body, `estatehub_auction_transitions_total{to="ended"}`)
	require.Contains(t, body, `estatehub_payments_total{result="completed"}`)
	require.Contains(t, body, "estatehub_live_feed_clients 1")
	require.Contains(t, body, `route="/ping"`)
}
