package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/v1/bookings/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/v1/bookings/:id", "204"))

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/bookings/"+id, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/v1/bookings/:id", "204"))
	assert.Equal(t, before+2, after)
}

func TestRecordAdmission(t *testing.T) {
	before := testutil.ToFloat64(BookingAdmissions.WithLabelValues("conflict"))
	RecordAdmission("conflict")
	assert.Equal(t, before+1, testutil.ToFloat64(BookingAdmissions.WithLabelValues("conflict")))
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(ResponseCacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(ResponseCacheLookups.WithLabelValues("miss"))
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)
	assert.Equal(t, hits+1, testutil.ToFloat64(ResponseCacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(ResponseCacheLookups.WithLabelValues("miss")))
}
