package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryHandlerServesCollectedMetrics(t *testing.T) {
	r := NewRegistry()
	r.CommandsTotal.WithLabelValues("get").Inc()
	r.ConnectionsTotal.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "redisd_commands_processed_total")
}
