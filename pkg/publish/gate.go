package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowkit/pkg/eventbus"
	"github.com/dukex/flowkit/pkg/events"
	"github.com/dukex/flowkit/pkg/notify"
	"github.com/dukex/flowkit/pkg/persistence"
	"github.com/dukex/flowkit/pkg/radar"
)

// blockingRiskLevel is the exclusive threshold above which a flow may not be
// published. 80 itself still publishes.
const blockingRiskLevel = 80

// notifyRiskFloor is the exclusive floor for moderation notifications.
const notifyRiskFloor = 60

const notifyTimeout = 10 * time.Second

// gateDecision is the risk gate's verdict for one publish request.
type gateDecision struct {
	// Score is the effective risk level: 0 for exempt flows, otherwise
	// the stored or freshly computed score.
	Score int

	// Blocked means the request must be rejected with ErrFraudBlocked.
	Blocked bool

	// RolledBack means a pre-existing snapshot was deleted because the
	// recomputed score crossed the blocking threshold.
	RolledBack bool
}

// riskGate evaluates and persists risk scores during publish. It owns the
// notify-and-persist side effects so the service stays a plain sequence of
// steps.
type riskGate struct {
	scorer    radar.Scorer
	store     persistence.Persistence
	notifier  notify.Notifier
	publisher eventbus.EventPublisher
	debug     bool
	logger    *slog.Logger
}

// evaluate runs the risk policy for one flow.
//
// Exempt flows (risk level -1 or a verified workspace) never reach the
// scorer. A stored score over the threshold rejects immediately, also
// without recomputing. Otherwise the score is recomputed; a changed positive
// score is persisted, and a score over the threshold deletes any existing
// snapshot before rejecting.
func (g *riskGate) evaluate(ctx context.Context, fc *persistence.FlowContext) (gateDecision, error) {
	flow := fc.Flow

	if flow.IsRiskExempt() || fc.Workspace.IsVerified {
		g.logger.DebugContext(ctx, "Flow is exempt from risk scoring",
			"flow_id", flow.ID,
			"risk_level", flow.RiskLevel,
			"workspace_verified", fc.Workspace.IsVerified,
		)

		return gateDecision{Score: 0}, nil
	}

	if flow.RiskLevel > blockingRiskLevel {
		g.logger.WarnContext(ctx, "Publish blocked by stored risk level",
			"flow_id", flow.ID,
			"risk_level", flow.RiskLevel,
		)

		return gateDecision{Score: flow.RiskLevel, Blocked: true}, nil
	}

	score := g.scorer.ComputeRiskLevel(flow, radar.Options{Debug: g.debug})

	if score != flow.RiskLevel && score > 0 {
		if score > notifyRiskFloor && score < 100 {
			g.notifyModeration(ctx, fc, score)
		}

		if err := g.store.UpdateFlowRiskLevel(ctx, flow.ID, score); err != nil {
			return gateDecision{}, fmt.Errorf("failed to persist risk level for flow %s: %w", flow.ID, err)
		}

		g.emitRiskUpdated(ctx, fc, flow.RiskLevel, score)
	}

	if score > blockingRiskLevel {
		rolledBack := false

		if fc.HasPublished() {
			if err := g.store.DeletePublishedFlow(ctx, flow.ID); err != nil {
				return gateDecision{}, fmt.Errorf("failed to roll back snapshot for flow %s: %w", flow.ID, err)
			}

			rolledBack = true

			g.logger.WarnContext(ctx, "Existing snapshot rolled back over risk threshold",
				"flow_id", flow.ID,
				"risk_level", score,
			)
		}

		return gateDecision{Score: score, Blocked: true, RolledBack: rolledBack}, nil
	}

	return gateDecision{Score: score}, nil
}

// notifyModeration alerts the review channel about a mid-range score. Failures
// are logged and swallowed; delivery is never a precondition for publishing.
func (g *riskGate) notifyModeration(ctx context.Context, fc *persistence.FlowContext, score int) {
	message := fmt.Sprintf(
		"Flow %s (workspace %s) scored a risk level of %d and is being published.",
		fc.Flow.ID, fc.Workspace.ID, score,
	)

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := g.notifier.Notify(notifyCtx, message); err != nil {
		g.logger.ErrorContext(ctx, "Failed to deliver moderation notification",
			"flow_id", fc.Flow.ID,
			"error", err,
		)
	}
}

func (g *riskGate) emitRiskUpdated(ctx context.Context, fc *persistence.FlowContext, previous, score int) {
	event := events.FlowRiskUpdated{
		BaseEvent:         events.NewBaseEvent(events.FlowRiskUpdatedEvent, fc.Flow.ID),
		PreviousRiskLevel: previous,
		RiskLevel:         score,
	}
	event.WorkspaceID = fc.Workspace.ID

	if err := g.publisher.Publish(ctx, fc.Flow.ID, event); err != nil {
		g.logger.ErrorContext(ctx, "Failed to publish risk updated event",
			"flow_id", fc.Flow.ID,
			"error", err,
		)
	}
}
