// Package publish orchestrates the flow publish pipeline: authorization,
// plan gating, risk gating, snapshot write and telemetry.
package publish

import "errors"

// User-facing rejections. Messages are stable; callers surface them verbatim.
var (
	// ErrFlowNotFound covers both a missing flow and a forbidden write.
	// The conflation is intentional: callers must not be able to confirm a
	// flow exists by probing publish. The true reason is logged internally.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrPlanRestricted rejects plan-gated capabilities.
	ErrPlanRestricted = errors.New("file upload blocks can't be published on the free plan")

	// ErrFraudBlocked rejects flows over the risk threshold, whether the
	// stored score tripped the pre-check or a recompute tripped the
	// rollback. Both paths surface this same error.
	ErrFraudBlocked = errors.New("radar detected a potentially malicious flow; it is being manually reviewed by the fraud prevention team")

	// ErrNotPublished rejects unpublishing a flow that has no snapshot.
	ErrNotPublished = errors.New("flow has no published version")
)

// ErrSnapshotWrite is fatal: the snapshot create/update did not yield a
// usable result. A half-written snapshot is worse than a rejected publish,
// so this must alert, never be swallowed.
var ErrSnapshotWrite = errors.New("snapshot write did not yield a usable result")

// IsRejection reports whether the error is a user-facing rejection rather
// than an internal failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrFlowNotFound) ||
		errors.Is(err, ErrPlanRestricted) ||
		errors.Is(err, ErrFraudBlocked) ||
		errors.Is(err, ErrNotPublished)
}
