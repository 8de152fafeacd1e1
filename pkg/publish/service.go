package publish

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/flowkit/pkg/eventbus"
	"github.com/dukex/flowkit/pkg/events"
	"github.com/dukex/flowkit/pkg/lock"
	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/notify"
	"github.com/dukex/flowkit/pkg/otelhelper"
	"github.com/dukex/flowkit/pkg/persistence"
	"github.com/dukex/flowkit/pkg/radar"
	"github.com/dukex/flowkit/pkg/schema"
)

// Service runs the publish pipeline end to end. One instance serves all
// flows; per-flow serialization happens at the snapshot write through the
// locker.
type Service struct {
	store      persistence.Persistence
	normalizer *schema.Normalizer
	authorizer Authorizer
	gate       *riskGate
	locker     lock.Locker
	publisher  eventbus.EventPublisher
	tracer     trace.Tracer
	logger     *slog.Logger
}

func NewService(
	store persistence.Persistence,
	normalizer *schema.Normalizer,
	authorizer Authorizer,
	scorer radar.Scorer,
	notifier notify.Notifier,
	locker lock.Locker,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
	debug bool,
) *Service {
	return &Service{
		store:      store,
		normalizer: normalizer,
		authorizer: authorizer,
		gate: &riskGate{
			scorer:    scorer,
			store:     store,
			notifier:  notifier,
			publisher: publisher,
			debug:     debug,
			logger:    logger.With("module", "risk_gate"),
		},
		locker:    locker,
		publisher: publisher,
		tracer:    otel.Tracer("github.com/dukex/flowkit/pkg/publish"),
		logger:    logger.With("module", "publish"),
	}
}

// Publish validates, gates and snapshots a flow. Rejections surface as the
// sentinel errors in this package; anything else is an internal failure.
//
// Telemetry is emitted only after the snapshot write durably committed, so a
// failed publish never produces a published event. A telemetry failure after
// the commit is logged, never returned: the publish already happened.
func (s *Service) Publish(ctx context.Context, flowID string, user *models.User) error {
	ctx, span := s.tracer.Start(ctx, "flow.publish",
		trace.WithAttributes(attribute.String("flowkit.flow.id", flowID)))
	defer span.End()

	logger := s.logger.With("flow_id", flowID, "user_id", userID(user))

	step := func(state State) {
		logger.DebugContext(ctx, "Publish state transition", "state", state)
	}
	step(StateRequested)

	fail := func(err error) error {
		otelhelper.SetError(span, err)

		return err
	}

	fc, err := s.store.FlowContextByID(ctx, flowID)
	if err != nil {
		return fail(fmt.Errorf("failed to load flow %s: %w", flowID, err))
	}

	if fc == nil {
		return ErrFlowNotFound
	}

	if s.authorizer.IsWriteForbidden(fc.Flow, fc.Workspace, user) {
		// Conflated on purpose: the caller must not learn the flow exists.
		logger.WarnContext(ctx, "Publish forbidden, reporting not found",
			"workspace_id", fc.Workspace.ID,
		)

		return ErrFlowNotFound
	}
	step(StateAuthorizationChecked)

	normalized, err := s.normalizer.Normalize(fc.Flow)
	if err != nil {
		return fail(fmt.Errorf("flow %s failed structural validation: %w", flowID, err))
	}

	hasFileUpload := models.HasFileUploadBlocks(normalized.Groups)
	if hasFileUpload && fc.Workspace.Plan == models.PlanFree {
		return ErrPlanRestricted
	}
	step(StatePlanGateChecked)

	decision, err := s.gate.evaluate(ctx, fc)
	if err != nil {
		return fail(err)
	}

	if decision.Blocked {
		if decision.RolledBack {
			step(StateRolledBack)
			s.emitUnpublished(ctx, fc, user, "risk threshold exceeded")
		} else {
			step(StateRejected)
		}

		return ErrFraudBlocked
	}
	step(StateRiskGated)

	isFirstPublish, err := s.writeSnapshot(ctx, fc, normalized)
	if err != nil {
		return fail(err)
	}
	step(StateSnapshotWritten)

	s.emitPublished(ctx, fc, user, isFirstPublish, hasFileUpload)
	step(StateTelemetryEmitted)

	logger.InfoContext(ctx, "Flow published",
		"workspace_id", fc.Workspace.ID,
		"risk_level", decision.Score,
		"first_publish", isFirstPublish,
	)
	step(StateSucceeded)

	return nil
}

// Unpublish deletes the flow's snapshot. The editable flow is untouched.
func (s *Service) Unpublish(ctx context.Context, flowID string, user *models.User) error {
	ctx, span := s.tracer.Start(ctx, "flow.unpublish",
		trace.WithAttributes(attribute.String("flowkit.flow.id", flowID)))
	defer span.End()

	fc, err := s.store.FlowContextByID(ctx, flowID)
	if err != nil {
		return fmt.Errorf("failed to load flow %s: %w", flowID, err)
	}

	if fc == nil {
		return ErrFlowNotFound
	}

	if s.authorizer.IsWriteForbidden(fc.Flow, fc.Workspace, user) {
		return ErrFlowNotFound
	}

	if !fc.HasPublished() {
		return ErrNotPublished
	}

	release, err := s.locker.Acquire(ctx, flowID)
	if err != nil {
		return fmt.Errorf("failed to lock flow %s: %w", flowID, err)
	}
	defer release()

	if err := s.store.DeletePublishedFlow(ctx, flowID); err != nil {
		return fmt.Errorf("failed to delete snapshot for flow %s: %w", flowID, err)
	}

	s.emitUnpublished(ctx, fc, user, "user requested")

	s.logger.InfoContext(ctx, "Flow unpublished",
		"flow_id", flowID,
		"workspace_id", fc.Workspace.ID,
	)

	return nil
}

// writeSnapshot creates or replaces the snapshot under the per-flow lock and
// reports whether this was the flow's first publish.
func (s *Service) writeSnapshot(ctx context.Context, fc *persistence.FlowContext, normalized *schema.NormalizedFlow) (bool, error) {
	release, err := s.locker.Acquire(ctx, fc.Flow.ID)
	if err != nil {
		return false, fmt.Errorf("failed to lock flow %s: %w", fc.Flow.ID, err)
	}
	defer release()

	// Re-read under the lock: fc.Published may predate a concurrent publish.
	existing, err := s.store.PublishedFlowByFlowID(ctx, fc.Flow.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot for flow %s: %w", fc.Flow.ID, err)
	}

	snapshot := &models.PublishedFlow{
		FlowID:    fc.Flow.ID,
		Version:   normalized.Version,
		Groups:    normalized.Groups,
		Edges:     normalized.Edges,
		Variables: normalized.Variables,
		Events:    normalized.Events,
		Settings:  normalized.Settings,
		Theme:     normalized.Theme,
	}
	if existing != nil {
		snapshot.ID = existing.ID
		snapshot.CreatedAt = existing.CreatedAt
	}

	if err := s.store.SavePublishedFlow(ctx, snapshot); err != nil {
		return false, fmt.Errorf("failed to write snapshot for flow %s: %w", fc.Flow.ID, err)
	}

	if snapshot.ID == "" {
		return false, fmt.Errorf("flow %s: %w", fc.Flow.ID, ErrSnapshotWrite)
	}

	return existing == nil, nil
}

func (s *Service) emitPublished(ctx context.Context, fc *persistence.FlowContext, user *models.User, isFirstPublish, hasFileUpload bool) {
	published := events.FlowPublished{
		BaseEvent:      events.NewBaseEvent(events.FlowPublishedEvent, fc.Flow.ID),
		Name:           fc.Flow.Name,
		IsFirstPublish: isFirstPublish,
	}
	published.WorkspaceID = fc.Workspace.ID
	published.UserID = userID(user)

	if err := s.publisher.Publish(ctx, fc.Flow.ID, published); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish flow published event",
			"flow_id", fc.Flow.ID,
			"error", err,
		)
	}

	if !hasFileUpload {
		return
	}

	fileUpload := events.FileUploadPublished{
		BaseEvent: events.NewBaseEvent(events.FileUploadPublishedEvent, fc.Flow.ID),
	}
	fileUpload.WorkspaceID = fc.Workspace.ID
	fileUpload.UserID = userID(user)

	if err := s.publisher.Publish(ctx, fc.Flow.ID, fileUpload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish file upload event",
			"flow_id", fc.Flow.ID,
			"error", err,
		)
	}
}

func (s *Service) emitUnpublished(ctx context.Context, fc *persistence.FlowContext, user *models.User, reason string) {
	event := events.FlowUnpublished{
		BaseEvent: events.NewBaseEvent(events.FlowUnpublishedEvent, fc.Flow.ID),
		Reason:    reason,
	}
	event.WorkspaceID = fc.Workspace.ID
	event.UserID = userID(user)

	if err := s.publisher.Publish(ctx, fc.Flow.ID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish flow unpublished event",
			"flow_id", fc.Flow.ID,
			"error", err,
		)
	}
}

func userID(user *models.User) string {
	if user == nil {
		return ""
	}

	return user.ID
}
