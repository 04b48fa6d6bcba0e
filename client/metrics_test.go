package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/habedi/folio/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsRequestsAndRefreshes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == RefreshPath:
			_, _ = w.Write([]byte(`{"access":"new","refresh":"r2"}`))
		case r.Header.Get("Authorization") == "Bearer new":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer ts.Close()

	ctx := context.Background()
	mgr := session.NewManager(session.NewMemoryStore(), session.Policy{})
	require.NoError(t, mgr.Begin(ctx, session.TokenPair{Access: "old", Refresh: "r1"}))

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	gw := NewGateway(ts.URL, mgr, WithMetrics(m))

	require.NoError(t, gw.Do(ctx, &Envelope{Method: http.MethodGet, Path: "/api/me"}, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues(RefreshSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.observeRequest("GET", 200, time.Millisecond)
	m.observeRefresh(RefreshFailure)
}

func TestMetrics_TransportErrorLabel(t *testing.T) {
	m := NewMetrics(nil)
	m.observeRequest("GET", 0, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "error")))
}
