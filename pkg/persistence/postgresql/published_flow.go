package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/persistence"
	"github.com/google/uuid"
)

func (p *Persistence) PublishedFlowByFlowID(ctx context.Context, flowID string) (*models.PublishedFlow, error) {
	query := `
		SELECT
			id
		  , flow_id
		  , version
		  , groups
		  , edges
		  , variables
		  , events
		  , settings
		  , theme
		  , created_at
		  , updated_at
		FROM published_flows
		WHERE flow_id = $1
	`

	var (
		published     models.PublishedFlow
		groupsJSON    []byte
		edgesJSON     []byte
		variablesJSON []byte
		eventsJSON    []byte
		settingsJSON  []byte
		themeJSON     []byte
	)

	err := p.db.QueryRowContext(ctx, query, flowID).Scan(
		&published.ID, &published.FlowID, &published.Version,
		&groupsJSON, &edgesJSON, &variablesJSON, &eventsJSON, &settingsJSON, &themeJSON,
		&published.CreatedAt, &published.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan published flow: %w", err)
	}

	err = unmarshalFlowContent(
		groupsJSON, edgesJSON, variablesJSON, eventsJSON, settingsJSON, themeJSON,
		&published.Groups, &published.Edges, &published.Variables, &published.Events,
		&published.Settings, &published.Theme)
	if err != nil {
		return nil, err
	}

	return &published, nil
}

// SavePublishedFlow upserts the snapshot keyed on flow_id in a single
// statement, so the create-or-replace can never be observed half-applied.
func (p *Persistence) SavePublishedFlow(ctx context.Context, published *models.PublishedFlow) error {
	now := time.Now().UTC()
	if published.CreatedAt.IsZero() {
		published.CreatedAt = now
	}

	published.UpdatedAt = now

	if published.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewFlowError("SavePublishedFlow", published.FlowID, err)
		}

		published.ID = id.String()
	}

	groupsJSON, edgesJSON, variablesJSON, eventsJSON, settingsJSON, themeJSON, err := marshalFlowContent(
		published.Groups, published.Edges, published.Variables, published.Events,
		published.Settings, published.Theme)
	if err != nil {
		return persistence.NewFlowError("SavePublishedFlow", published.FlowID, err)
	}

	query := `
		INSERT INTO published_flows (id, flow_id, version, groups, edges, variables, events, settings, theme, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (flow_id) DO UPDATE SET
			version = EXCLUDED.version
		  , groups = EXCLUDED.groups
		  , edges = EXCLUDED.edges
		  , variables = EXCLUDED.variables
		  , events = EXCLUDED.events
		  , settings = EXCLUDED.settings
		  , theme = EXCLUDED.theme
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = p.db.ExecContext(ctx, query,
		published.ID, published.FlowID, published.Version,
		groupsJSON, edgesJSON, variablesJSON, eventsJSON, settingsJSON, themeJSON,
		published.CreatedAt, published.UpdatedAt,
	)
	if err != nil {
		return persistence.NewFlowError("SavePublishedFlow", published.FlowID, err)
	}

	return nil
}

func (p *Persistence) DeletePublishedFlow(ctx context.Context, flowID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM published_flows WHERE flow_id = $1`, flowID)
	if err != nil {
		return persistence.NewFlowError("DeletePublishedFlow", flowID, err)
	}

	return nil
}
