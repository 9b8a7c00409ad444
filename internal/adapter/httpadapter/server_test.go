package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ozonesonde-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
	"github.com/couchcryptid/ozonesonde-etl/internal/observability"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type staticCorpus struct {
	corpus *domain.Corpus
}

func (s *staticCorpus) Corpus() *domain.Corpus { return s.corpus }

var (
	launchA = time.Date(2005, 3, 9, 14, 30, 0, 0, time.UTC)
	launchB = time.Date(2005, 3, 16, 14, 30, 0, 0, time.UTC)
)

func testCorpus(t *testing.T) *domain.Corpus {
	t.Helper()
	g, err := domain.NewGrid(0, 0.2, 0.1)
	require.NoError(t, err)

	c := domain.NewCorpus()
	a := domain.EmptyProfile(launchA, g)
	a.LaunchAltitudeM = domain.Present(51)
	a.Quantities[domain.OzonePPBV] = domain.SeriesOf(20, 21, 22)
	a.Quantities[domain.OzonePartialPressure] = domain.SeriesOf(2, 2.1, 2.2)
	b := domain.EmptyProfile(launchB, g)
	b.Quantities[domain.OzonePPBV] = domain.Series{domain.Present(25), domain.Missing(), domain.Present(27)}
	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(b))
	return c
}

func newTestServer(t *testing.T, readyErr error) (*httpadapter.Server, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	srv := httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, &staticCorpus{corpus: testCorpus(t)}, metrics, 8, slog.Default())
	return srv, metrics
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, get(srv, "/healthz").Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, get(srv, "/readyz").Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(t, fmt.Errorf("corpus has not been assembled yet"))
	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestFlightsList(t *testing.T) {
	srv, metrics := newTestServer(t, nil)
	rec := get(srv, "/api/v1/flights")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Count   int `json:"count"`
		Flights []struct {
			LaunchTime      time.Time `json:"launch_time"`
			LaunchAltitudeM *float64  `json:"launch_altitude_m"`
			OzonePoints     int       `json:"ozone_points"`
			Href            string    `json:"href"`
		} `json:"flights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.True(t, launchA.Equal(body.Flights[0].LaunchTime))
	require.NotNil(t, body.Flights[0].LaunchAltitudeM)
	assert.InDelta(t, 51, *body.Flights[0].LaunchAltitudeM, 0)
	assert.Nil(t, body.Flights[1].LaunchAltitudeM)
	assert.Equal(t, 3, body.Flights[0].OzonePoints)
	assert.Equal(t, "/api/v1/flights/2005-03-09T14:30:00Z", body.Flights[0].Href)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("flights", "200")), 0)
}

func TestFlightsList_Range(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := get(srv, "/api/v1/flights?from=2005-03-10")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)

	rec = get(srv, "/api/v1/flights?from=2005-03-09T14:30:00Z&to=2005-03-09T14:30:00Z")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count, "bounds are inclusive")
}

func TestFlightsList_BadQuery(t *testing.T) {
	srv, metrics := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, get(srv, "/api/v1/flights?from=yesterday").Code)
	assert.Equal(t, http.StatusBadRequest, get(srv, "/api/v1/flights?from=2006-01-01&to=2005-01-01").Code)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("flights", "400")), 0)
}

func TestFlight_ReturnsProfileAndCaches(t *testing.T) {
	srv, metrics := newTestServer(t, nil)

	first := get(srv, "/api/v1/flights/2005-03-16T14:30:00Z")
	require.Equal(t, http.StatusOK, first.Code)

	var p domain.GriddedFlightProfile
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &p))
	assert.True(t, launchB.Equal(p.LaunchTime))
	assert.Equal(t, domain.Series{domain.Present(25), domain.Missing(), domain.Present(27)}, p.Series(domain.OzonePPBV))

	second := get(srv, "/api/v1/flights/200503161430")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.APICache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.APICache.WithLabelValues("hit")), 0)
}

func TestFlight_NewCorpusIsNotServedFromCache(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	provider := &staticCorpus{corpus: testCorpus(t)}
	srv := httpadapter.NewServer(":0", &mockReadiness{}, provider, metrics, 8, slog.Default())

	require.Equal(t, http.StatusOK, get(srv, "/api/v1/flights/200503161430").Code)

	g, err := domain.NewGrid(0, 0.2, 0.1)
	require.NoError(t, err)
	next := domain.NewCorpus()
	b := domain.EmptyProfile(launchB, g)
	b.Quantities[domain.OzonePPBV] = domain.SeriesOf(30, 31, 32)
	require.NoError(t, next.Add(b))
	provider.corpus = next

	rec := get(srv, "/api/v1/flights/200503161430")
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.GriddedFlightProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, domain.SeriesOf(30, 31, 32), p.Series(domain.OzonePPBV))

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.APICache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.APICache.WithLabelValues("hit")), 0)
}

func TestFlight_NotFoundAndBadLaunch(t *testing.T) {
	srv, metrics := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, get(srv, "/api/v1/flights/2005-03-10T00:00:00Z").Code)
	assert.Equal(t, http.StatusBadRequest, get(srv, "/api/v1/flights/last-tuesday").Code)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("flight", "404")), 0)
}

func TestSeries(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/api/v1/series/O3_ppbv?altitude=0.1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Quantity   string  `json:"quantity"`
		Unit       string  `json:"unit"`
		AltitudeKm float64 `json:"altitude_km"`
		Points     []struct {
			LaunchTime time.Time `json:"launch_time"`
			Value      *float64  `json:"value"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "O3_ppbv", body.Quantity)
	assert.Equal(t, "ppbv", body.Unit)
	require.Len(t, body.Points, 2)
	require.NotNil(t, body.Points[0].Value)
	assert.InDelta(t, 21, *body.Points[0].Value, 0)
	assert.Nil(t, body.Points[1].Value, "missing values are null")
}

func TestSeries_Errors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, get(srv, "/api/v1/series/Ozone?altitude=1").Code)
	assert.Equal(t, http.StatusBadRequest, get(srv, "/api/v1/series/O3_ppbv").Code)
	assert.Equal(t, http.StatusBadRequest, get(srv, "/api/v1/series/O3_ppbv?altitude=high").Code)
}

func TestSeries_AltitudeOffGrid(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/api/v1/series/Pressure?altitude=0.15")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Points []json.RawMessage `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Points)
}
