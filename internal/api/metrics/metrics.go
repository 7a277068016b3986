// Package metrics defines and registers all custom Prometheus metrics
// for the directory service. It is the single source of truth for
// metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "directory"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "throttled", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RosterQueriesTotal counts roster list requests.
// Label:
//   - filtered: "true" when a search term was supplied
var RosterQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "roster_queries_total",
		Help:      "Total number of roster queries, by whether a filter was active.",
	},
	[]string{"filtered"},
)

// MutationsTotal counts account mutations.
// Labels:
//   - action: "create", "update_profile", "delete", "promote", "demote", "change_password"
//   - result: "success" or "error"
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of account mutations, by action and result.",
	},
	[]string{"action", "result"},
)

// TelemetryEventsTotal counts frontend telemetry events accepted by the
// log sink.
// Label:
//   - event_type: the client-reported event type
var TelemetryEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telemetry_events_total",
		Help:      "Total number of frontend telemetry events received.",
	},
	[]string{"event_type"},
)
