package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/flowkit/pkg/models"
)

func (p *Persistence) WorkspaceByID(ctx context.Context, id string) (*models.Workspace, error) {
	query := `
		SELECT
			id
		  , name
		  , plan
		  , is_verified
		  , is_suspended
		  , is_past_due
		  , members
		FROM workspaces
		WHERE id = $1
	`

	var (
		workspace   models.Workspace
		membersJSON []byte
	)

	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&workspace.ID, &workspace.Name, &workspace.Plan,
		&workspace.IsVerified, &workspace.IsSuspended, &workspace.IsPastDue,
		&membersJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace: %w", err)
	}

	if err := json.Unmarshal(membersJSON, &workspace.Members); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workspace members: %w", err)
	}

	return &workspace, nil
}

func (p *Persistence) SaveWorkspace(ctx context.Context, workspace *models.Workspace) error {
	membersJSON, err := json.Marshal(workspace.Members)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace members: %w", err)
	}

	query := `
		INSERT INTO workspaces (id, name, plan, is_verified, is_suspended, is_past_due, members, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , plan = EXCLUDED.plan
		  , is_verified = EXCLUDED.is_verified
		  , is_suspended = EXCLUDED.is_suspended
		  , is_past_due = EXCLUDED.is_past_due
		  , members = EXCLUDED.members
		  , updated_at = NOW()
	`

	_, err = p.db.ExecContext(ctx, query,
		workspace.ID, workspace.Name, workspace.Plan,
		workspace.IsVerified, workspace.IsSuspended, workspace.IsPastDue,
		membersJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save workspace %s: %w", workspace.ID, err)
	}

	return nil
}
