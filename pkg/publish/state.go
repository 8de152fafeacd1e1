package publish

// State tracks a publish request through the pipeline. Transitions are
// linear; a request that leaves the happy path lands in StateRejected or
// StateRolledBack and never resumes.
type State string

const (
	StateRequested            State = "requested"
	StateAuthorizationChecked State = "authorization_checked"
	StatePlanGateChecked      State = "plan_gate_checked"
	StateRiskGated            State = "risk_gated"
	StateSnapshotWritten      State = "snapshot_written"
	StateTelemetryEmitted     State = "telemetry_emitted"
	StateSucceeded            State = "succeeded"

	// StateRejected covers every rejection before the snapshot write.
	StateRejected State = "rejected"

	// StateRolledBack means the risk gate deleted an existing snapshot
	// after recomputing a score over the blocking threshold.
	StateRolledBack State = "rolled_back"
)
