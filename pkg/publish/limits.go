package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/flowkit/pkg/eventbus"
	"github.com/dukex/flowkit/pkg/events"
	"github.com/dukex/flowkit/pkg/lock"
	"github.com/dukex/flowkit/pkg/persistence"
	"github.com/dukex/flowkit/pkg/quota"
)

// LimitReviewer unpublishes flows whose group count exceeds the workspace's
// advisory quota. The advisory is conservative: only an authoritative,
// error-free answer ever triggers an unpublish.
type LimitReviewer struct {
	store     persistence.Persistence
	quota     *quota.Client
	locker    lock.Locker
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func NewLimitReviewer(
	store persistence.Persistence,
	quotaClient *quota.Client,
	locker lock.Locker,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *LimitReviewer {
	return &LimitReviewer{
		store:     store,
		quota:     quotaClient,
		locker:    locker,
		publisher: publisher,
		logger:    logger.With("module", "limit_reviewer"),
	}
}

// Review checks one flow against its workspace group limit and removes the
// snapshot when the limit is authoritatively exceeded. Flows without a
// snapshot are never touched.
func (r *LimitReviewer) Review(ctx context.Context, flowID string) error {
	fc, err := r.store.FlowContextByID(ctx, flowID)
	if err != nil {
		return fmt.Errorf("failed to load flow %s: %w", flowID, err)
	}

	if fc == nil || !fc.HasPublished() {
		return nil
	}

	if !r.quota.ShouldUnpublishFlow(ctx, fc.Workspace.ID, fc.Flow.GroupCount()) {
		return nil
	}

	release, err := r.locker.Acquire(ctx, flowID)
	if err != nil {
		return fmt.Errorf("failed to lock flow %s: %w", flowID, err)
	}
	defer release()

	if err := r.store.DeletePublishedFlow(ctx, flowID); err != nil {
		return fmt.Errorf("failed to delete snapshot for flow %s: %w", flowID, err)
	}

	r.logger.WarnContext(ctx, "Flow unpublished over group limit",
		"flow_id", flowID,
		"workspace_id", fc.Workspace.ID,
		"group_count", fc.Flow.GroupCount(),
	)

	event := events.FlowUnpublished{
		BaseEvent: events.NewBaseEvent(events.FlowUnpublishedEvent, flowID),
		Reason:    "group limit exceeded",
	}
	event.WorkspaceID = fc.Workspace.ID

	if err := r.publisher.Publish(ctx, flowID, event); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish flow unpublished event",
			"flow_id", flowID,
			"error", err,
		)
	}

	return nil
}
