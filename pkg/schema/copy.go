package schema

import "github.com/dukex/flowkit/pkg/models"

// copyNormalized deep-copies the publish-relevant fields so the snapshot
// never aliases draft content that keeps being edited.
func copyNormalized(flow *models.Flow, events []*models.StartEvent) *NormalizedFlow {
	return &NormalizedFlow{
		Version:   flow.Version,
		Groups:    copyGroups(flow.Groups),
		Edges:     copyEdges(flow.Edges),
		Variables: copyVariables(flow.Variables),
		Events:    copyEvents(events),
		Settings:  flow.Settings,
		Theme:     flow.Theme,
	}
}

func copyGroups(groups []*models.Group) []*models.Group {
	result := make([]*models.Group, len(groups))

	for i, group := range groups {
		blocks := make([]*models.Block, len(group.Blocks))
		for j, block := range group.Blocks {
			blocks[j] = &models.Block{
				ID:             block.ID,
				Type:           block.Type,
				Options:        copyMap(block.Options),
				OutgoingEdgeID: block.OutgoingEdgeID,
			}
		}

		result[i] = &models.Group{
			ID:          group.ID,
			Title:       group.Title,
			Coordinates: group.Coordinates,
			Blocks:      blocks,
		}
	}

	return result
}

func copyEdges(edges []*models.Edge) []*models.Edge {
	result := make([]*models.Edge, len(edges))

	for i, edge := range edges {
		copied := *edge
		result[i] = &copied
	}

	return result
}

func copyVariables(variables []*models.Variable) []*models.Variable {
	result := make([]*models.Variable, len(variables))

	for i, variable := range variables {
		copied := *variable
		result[i] = &copied
	}

	return result
}

func copyEvents(events []*models.StartEvent) []*models.StartEvent {
	if events == nil {
		return nil
	}

	result := make([]*models.StartEvent, len(events))

	for i, event := range events {
		copied := *event
		result[i] = &copied
	}

	return result
}

// copyMap creates a copy of a map[string]any.
func copyMap(original map[string]any) map[string]any {
	if original == nil {
		return nil
	}

	result := make(map[string]any, len(original))
	for k, v := range original {
		result[k] = v // Note: this is a shallow copy of values
	}

	return result
}
