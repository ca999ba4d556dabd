package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSession(reg)

	s.ObserveVerify("valid", "")
	s.ObserveVerify("expired", "expired")
	s.ObserveVerify("expired", "expired")
	s.ObserveResolve("authenticated", true)
	s.ObserveRefreshFailure("exchange")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.verifyTotal.WithLabelValues("valid", "none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.verifyTotal.WithLabelValues("expired", "expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.resolveTotal.WithLabelValues("authenticated", "true")))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.resolveTotal.WithLabelValues("anonymous", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.refreshFailureTotal.WithLabelValues("exchange")))
}

func TestHandler_ServesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSession(reg)
	s.ObserveRefreshFailure("canceled")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `session_gateway_session_refresh_failures_total{stage="canceled"} 1`))
}
