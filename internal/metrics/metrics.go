// Package metrics exposes the server's Prometheus collectors. Grounded
// on odin-ws-server-3's internal/metrics/metrics.go (promauto-registered
// Gauge/Counter struct, a Handler() returning promhttp.Handler()), with
// the specific counters swapped for this server's concerns: commands
// processed, connections, expired keys, and AOF write failures.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every collector the server updates.
type Registry struct {
	CommandsTotal    *prometheus.CounterVec
	ConnectionsTotal prometheus.Counter
	ConnectionsOpen  prometheus.Gauge
	ExpiredKeysTotal prometheus.Counter
	AOFErrorsTotal   prometheus.Counter
	PubSubMessages   prometheus.Counter
}

// NewRegistry constructs and registers every collector against the
// default Prometheus registry.
func NewRegistry() *Registry {
	return &Registry{
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "redisd_commands_processed_total",
			Help: "Total number of commands dispatched, labeled by command name.",
		}, []string{"command"}),
		ConnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redisd_connections_total",
			Help: "Total number of client connections accepted.",
		}),
		ConnectionsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "redisd_connections_open",
			Help: "Number of currently open client connections.",
		}),
		ExpiredKeysTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redisd_expired_keys_total",
			Help: "Total number of keys removed by active expiration.",
		}),
		AOFErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redisd_aof_errors_total",
			Help: "Total number of AOF write or sync failures.",
		}),
		PubSubMessages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redisd_pubsub_messages_total",
			Help: "Total number of pub/sub messages published.",
		}),
	}
}

// Handler serves the collected metrics in the Prometheus text exposition
// format.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
