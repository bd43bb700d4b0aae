// Package metrics publishes scheduler counters via expvar.
package metrics

import (
	"expvar"
)

// Coordinator / orchestrator metrics.
var (
	runsTotal      = new(expvar.Int)
	batchesTotal   = new(expvar.Int)
	nodeExecsTotal = new(expvar.Int)
	retriesTotal   = new(expvar.Int)
	deadlocksTotal = new(expvar.Int)
	plansTotal     = new(expvar.Int)
)

// Snapshot metrics keyed by saver implementation.
var snapshotsSaved = expvar.NewMap("graphrun_snapshots_saved_total")

func init() {
	expvar.Publish("graphrun_runs_total", runsTotal)
	expvar.Publish("graphrun_batches_total", batchesTotal)
	expvar.Publish("graphrun_node_executions_total", nodeExecsTotal)
	expvar.Publish("graphrun_node_retries_total", retriesTotal)
	expvar.Publish("graphrun_deadlocks_total", deadlocksTotal)
	expvar.Publish("graphrun_plans_total", plansTotal)
}

// Coordinator helpers
func IncRuns()           { runsTotal.Add(1) }
func IncBatches()        { batchesTotal.Add(1) }
func IncNodeExecs(n int64) { nodeExecsTotal.Add(n) }
func IncRetries()        { retriesTotal.Add(1) }
func IncDeadlocks()      { deadlocksTotal.Add(1) }
func IncPlans()          { plansTotal.Add(1) }

// Snapshot helpers
func SnapshotSaved(kind string) { snapshotsSaved.Add(kind, 1) }
