package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/persistence"
)

const flowColumns = `
	id
  , workspace_id
  , name
  , version
  , groups
  , edges
  , variables
  , events
  , settings
  , theme
  , risk_level
  , created_at
  , updated_at
`

func (p *Persistence) Flows(ctx context.Context) ([]*models.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows ORDER BY created_at DESC`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			p.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	flows := make([]*models.Flow, 0)

	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}

		flows = append(flows, flow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flows: %w", err)
	}

	return flows, nil
}

func (p *Persistence) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE id = $1`

	flow, err := scanFlow(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan flow: %w", err)
	}

	return flow, nil
}

func (p *Persistence) SaveFlow(ctx context.Context, flow *models.Flow) error {
	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	groupsJSON, edgesJSON, variablesJSON, eventsJSON, settingsJSON, themeJSON, err := marshalFlowContent(
		flow.Groups, flow.Edges, flow.Variables, flow.Events, flow.Settings, flow.Theme)
	if err != nil {
		return persistence.NewFlowError("SaveFlow", flow.ID, err)
	}

	query := `
		INSERT INTO flows (id, workspace_id, name, version, groups, edges, variables, events, settings, theme, risk_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id
		  , name = EXCLUDED.name
		  , version = EXCLUDED.version
		  , groups = EXCLUDED.groups
		  , edges = EXCLUDED.edges
		  , variables = EXCLUDED.variables
		  , events = EXCLUDED.events
		  , settings = EXCLUDED.settings
		  , theme = EXCLUDED.theme
		  , risk_level = EXCLUDED.risk_level
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = p.db.ExecContext(ctx, query,
		flow.ID, flow.WorkspaceID, flow.Name, flow.Version,
		groupsJSON, edgesJSON, variablesJSON, eventsJSON, settingsJSON, themeJSON,
		flow.RiskLevel, flow.CreatedAt, flow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewFlowError("SaveFlow", flow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteFlow(ctx context.Context, id string) error {
	// published_flows cascades on the foreign key.
	_, err := p.db.ExecContext(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return persistence.NewFlowError("DeleteFlow", id, err)
	}

	return nil
}

func (p *Persistence) UpdateFlowRiskLevel(ctx context.Context, id string, riskLevel int) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE flows SET risk_level = $1, updated_at = NOW() WHERE id = $2`, riskLevel, id)
	if err != nil {
		return persistence.NewFlowError("UpdateFlowRiskLevel", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewFlowError("UpdateFlowRiskLevel", id, err)
	}

	if affected == 0 {
		return persistence.NewFlowError("UpdateFlowRiskLevel", id, persistence.ErrFlowNotFound)
	}

	return nil
}

func (p *Persistence) FlowContextByID(ctx context.Context, id string) (*persistence.FlowContext, error) {
	flow, err := p.FlowByID(ctx, id)
	if err != nil || flow == nil {
		return nil, err
	}

	workspace, err := p.WorkspaceByID(ctx, flow.WorkspaceID)
	if err != nil {
		return nil, err
	}

	if workspace == nil {
		return nil, persistence.NewFlowError("FlowContextByID", id, persistence.ErrWorkspaceNotFound)
	}

	published, err := p.PublishedFlowByFlowID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &persistence.FlowContext{
		Flow:      flow,
		Workspace: workspace,
		Published: published,
	}, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFlow(row scanner) (*models.Flow, error) {
	var (
		flow          models.Flow
		groupsJSON    []byte
		edgesJSON     []byte
		variablesJSON []byte
		eventsJSON    []byte
		settingsJSON  []byte
		themeJSON     []byte
	)

	err := row.Scan(
		&flow.ID, &flow.WorkspaceID, &flow.Name, &flow.Version,
		&groupsJSON, &edgesJSON, &variablesJSON, &eventsJSON, &settingsJSON, &themeJSON,
		&flow.RiskLevel, &flow.CreatedAt, &flow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = unmarshalFlowContent(
		groupsJSON, edgesJSON, variablesJSON, eventsJSON, settingsJSON, themeJSON,
		&flow.Groups, &flow.Edges, &flow.Variables, &flow.Events, &flow.Settings, &flow.Theme)
	if err != nil {
		return nil, err
	}

	return &flow, nil
}

func marshalFlowContent(
	groups []*models.Group,
	edges []*models.Edge,
	variables []*models.Variable,
	events []*models.StartEvent,
	settings models.Settings,
	theme models.Theme,
) (groupsJSON, edgesJSON, variablesJSON, eventsJSON, settingsJSON, themeJSON []byte, err error) {
	if groupsJSON, err = json.Marshal(groups); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal groups: %w", err)
	}

	if edgesJSON, err = json.Marshal(edges); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal edges: %w", err)
	}

	if variablesJSON, err = json.Marshal(variables); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal variables: %w", err)
	}

	if events != nil {
		if eventsJSON, err = json.Marshal(events); err != nil {
			return nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal events: %w", err)
		}
	}

	if settingsJSON, err = json.Marshal(settings); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	if themeJSON, err = json.Marshal(theme); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal theme: %w", err)
	}

	return groupsJSON, edgesJSON, variablesJSON, eventsJSON, settingsJSON, themeJSON, nil
}

func unmarshalFlowContent(
	groupsJSON, edgesJSON, variablesJSON, eventsJSON, settingsJSON, themeJSON []byte,
	groups *[]*models.Group,
	edges *[]*models.Edge,
	variables *[]*models.Variable,
	events *[]*models.StartEvent,
	settings *models.Settings,
	theme *models.Theme,
) error {
	if err := json.Unmarshal(groupsJSON, groups); err != nil {
		return fmt.Errorf("failed to unmarshal groups: %w", err)
	}

	if err := json.Unmarshal(edgesJSON, edges); err != nil {
		return fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	if err := json.Unmarshal(variablesJSON, variables); err != nil {
		return fmt.Errorf("failed to unmarshal variables: %w", err)
	}

	if len(eventsJSON) > 0 {
		if err := json.Unmarshal(eventsJSON, events); err != nil {
			return fmt.Errorf("failed to unmarshal events: %w", err)
		}
	}

	if err := json.Unmarshal(settingsJSON, settings); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if err := json.Unmarshal(themeJSON, theme); err != nil {
		return fmt.Errorf("failed to unmarshal theme: %w", err)
	}

	return nil
}
