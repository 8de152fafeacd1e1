// Package file provides file-based persistence for flows, workspaces and
// published snapshots. It backs local development and tests; production
// deployments use the postgresql implementation.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/persistence"
)

const (
	flowsDir      = "flows"
	workspacesDir = "workspaces"
	publishedDir  = "published"

	dirPerm  = 0o755
	filePerm = 0o600
)

// Persistence implements persistence.Persistence on the local file system.
// A process-wide mutex keeps concurrent snapshot writes from interleaving;
// the store holds one JSON document per entity.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a file persistence rooted at the given directory.
// Accepts both plain paths and file:// URLs.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Flows(ctx context.Context) ([]*models.Flow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	dir := filepath.Join(p.root, flowsDir)

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil || len(jsonFiles) == 0 {
		return make([]*models.Flow, 0), nil
	}

	flows := make([]*models.Flow, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		flow := &models.Flow{}
		if err := p.read(filepath.Join(dir, name), flow); err != nil {
			return nil, fmt.Errorf("failed to load flow %s: %w", name, err)
		}

		flows = append(flows, flow)
	}

	return flows, nil
}

func (p *Persistence) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.flowByIDLocked(id)
}

func (p *Persistence) flowByIDLocked(id string) (*models.Flow, error) {
	flow := &models.Flow{}

	err := p.read(p.path(flowsDir, id), flow)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return flow, nil
}

func (p *Persistence) SaveFlow(ctx context.Context, flow *models.Flow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	return p.write(flowsDir, flow.ID, flow)
}

func (p *Persistence) DeleteFlow(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.Remove(p.path(flowsDir, id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete flow %s: %w", id, err)
	}

	// A deleted draft takes its snapshot with it.
	if err := os.Remove(p.path(publishedDir, id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete published flow %s: %w", id, err)
	}

	return nil
}

func (p *Persistence) UpdateFlowRiskLevel(ctx context.Context, id string, riskLevel int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	flow, err := p.flowByIDLocked(id)
	if err != nil {
		return err
	}

	if flow == nil {
		return persistence.NewFlowError("UpdateFlowRiskLevel", id, persistence.ErrFlowNotFound)
	}

	flow.RiskLevel = riskLevel
	flow.UpdatedAt = time.Now().UTC()

	return p.write(flowsDir, flow.ID, flow)
}

func (p *Persistence) FlowContextByID(ctx context.Context, id string) (*persistence.FlowContext, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	flow, err := p.flowByIDLocked(id)
	if err != nil || flow == nil {
		return nil, err
	}

	workspace := &models.Workspace{}

	err = p.read(p.path(workspacesDir, flow.WorkspaceID), workspace)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewFlowError("FlowContextByID", id, persistence.ErrWorkspaceNotFound)
	}

	if err != nil {
		return nil, err
	}

	published := &models.PublishedFlow{}

	err = p.read(p.path(publishedDir, id), published)
	if errors.Is(err, os.ErrNotExist) {
		published = nil
	} else if err != nil {
		return nil, err
	}

	return &persistence.FlowContext{
		Flow:      flow,
		Workspace: workspace,
		Published: published,
	}, nil
}

func (p *Persistence) WorkspaceByID(ctx context.Context, id string) (*models.Workspace, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workspace := &models.Workspace{}

	err := p.read(p.path(workspacesDir, id), workspace)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return workspace, nil
}

func (p *Persistence) SaveWorkspace(ctx context.Context, workspace *models.Workspace) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.write(workspacesDir, workspace.ID, workspace)
}

func (p *Persistence) PublishedFlowByFlowID(ctx context.Context, flowID string) (*models.PublishedFlow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	published := &models.PublishedFlow{}

	err := p.read(p.path(publishedDir, flowID), published)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return published, nil
}

// SavePublishedFlow writes the snapshot as one document keyed on the flow id,
// so a replace can never be observed half-applied.
func (p *Persistence) SavePublishedFlow(ctx context.Context, published *models.PublishedFlow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if published.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewFlowError("SavePublishedFlow", published.FlowID, err)
		}

		published.ID = id.String()
	}

	now := time.Now().UTC()
	if published.CreatedAt.IsZero() {
		published.CreatedAt = now
	}

	published.UpdatedAt = now

	return p.write(publishedDir, published.FlowID, published)
}

func (p *Persistence) DeletePublishedFlow(ctx context.Context, flowID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.path(publishedDir, flowID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete published flow %s: %w", flowID, err)
	}

	return nil
}

func (p *Persistence) path(kind, id string) string {
	return filepath.Join(p.root, kind, id+".json")
}

func (p *Persistence) read(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, target)
}

// write marshals to a temp file first and renames it into place, keeping the
// single-document write atomic on POSIX file systems.
func (p *Persistence) write(kind, id string, source any) error {
	dir := filepath.Join(p.root, kind)

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	data, err := json.MarshalIndent(source, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	tmp := filepath.Join(dir, id+".json.tmp")
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s %s: %w", kind, id, err)
	}

	if err := os.Rename(tmp, filepath.Join(dir, id+".json")); err != nil {
		return fmt.Errorf("failed to commit %s %s: %w", kind, id, err)
	}

	return nil
}
