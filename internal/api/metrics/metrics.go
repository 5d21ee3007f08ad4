// Package metrics defines and registers all custom Prometheus metrics for the
// user accounts API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Identity lifecycle ────────────────────────────────────────────────────────

// IdentitiesCreatedTotal counts successful dual-store identity creations.
// Label:
//   - role: "Administrator" or "Client"
var IdentitiesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identities_created_total",
		Help:      "Total number of identities created in both stores.",
	},
	[]string{"role"},
)

// LoginsTotal counts authentication attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of authentication attempts, by result.",
	},
	[]string{"result"},
)

// PasswordChangesTotal counts successful dual-store password rotations.
var PasswordChangesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_changes_total",
		Help:      "Total number of successful password changes.",
	},
)

// ── Dual-store coordination ───────────────────────────────────────────────────

// CompensatingRollbacksTotal counts second-store commit failures that were
// repaired by undoing the first store's already-committed write.
// Label:
//   - operation: "create", "update", "change_password", "delete"
var CompensatingRollbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compensating_rollbacks_total",
		Help:      "Total number of compensating rollbacks after a partial dual-store commit.",
	},
	[]string{"operation"},
)

// ConsistencyAlarmsTotal counts unrecoverable partial commits: one store
// committed and the compensating write also failed. Any increment here
// requires out-of-band reconciliation.
// Label:
//   - operation: "create", "update", "change_password", "delete"
var ConsistencyAlarmsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consistency_alarms_total",
		Help:      "Total number of unrecoverable dual-store inconsistencies.",
	},
	[]string{"operation"},
)

// DualWriteDuration measures a dual-store mutation end-to-end, from the first
// Begin to the final commit or rollback.
// Label:
//   - operation: the coordinator operation name
var DualWriteDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dual_write_duration_seconds",
		Help:      "Duration of dual-store mutations from first Begin to resolution.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)
