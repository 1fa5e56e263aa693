package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("companies", http.MethodGet, 200, 10*time.Millisecond)
	m.ObserveRequest("companies", http.MethodGet, 200, 20*time.Millisecond)
	m.ObserveRequest("companies", http.MethodPost, 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("companies", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("companies", "POST", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}

func TestStaleHook(t *testing.T) {
	m := New()
	hook := m.StaleHook("invoices")
	hook()
	hook()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.staleResponses.WithLabelValues("invoices")))
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New()
	m.StaleHook("tasks")()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `jobsify_store_stale_responses_total{entity="tasks"} 1`)

	vars, err := http.Get(srv.URL + "/debug/vars")
	require.NoError(t, err)
	vars.Body.Close()
	assert.Equal(t, http.StatusOK, vars.StatusCode)

	for _, path := range []string{"/debug/pprof/", "/debug/pprof/goroutine", "/debug/pprof/cmdline"} {
		res, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
	}

	missing, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
