// Package schema provides version-aware structural validation and
// normalization of flow content. Each schema version maps to its own parser;
// adding a version is a registration, never an edit of existing branches.
package schema

import (
	"fmt"

	"github.com/dukex/flowkit/pkg/models"
)

// NormalizedFlow is the validated, deep-copied set of publish-relevant fields
// the snapshot writer persists.
type NormalizedFlow struct {
	Version   int
	Groups    []*models.Group
	Edges     []*models.Edge
	Variables []*models.Variable
	Events    []*models.StartEvent
	Settings  models.Settings
	Theme     models.Theme
}

// ParseFunc validates one schema version's shape and produces the normalized
// content. Parsers are pure functions over the flow.
type ParseFunc func(flow *models.Flow) (*NormalizedFlow, error)

// Normalizer dispatches flows to the parser registered for their version.
type Normalizer struct {
	parsers map[int]ParseFunc
}

// NewNormalizer returns a normalizer with parsers for all supported schema
// versions. Versions 3 through 5 share the legacy shape (no events field);
// version 6 introduced the singleton start event.
func NewNormalizer() *Normalizer {
	n := &Normalizer{parsers: make(map[int]ParseFunc)}

	for _, version := range []int{3, 4, 5} {
		n.MustRegister(version, legacyParser(version))
	}

	n.MustRegister(6, eventfulParser(6))

	return n
}

// Register adds a parser for a schema version. Versions are append-only;
// registering one twice is a wiring bug.
func (n *Normalizer) Register(version int, parser ParseFunc) error {
	if _, exists := n.parsers[version]; exists {
		return fmt.Errorf("parser for schema version %d already registered", version)
	}

	n.parsers[version] = parser

	return nil
}

// MustRegister is Register for startup wiring; it panics on duplicates.
func (n *Normalizer) MustRegister(version int, parser ParseFunc) {
	if err := n.Register(version, parser); err != nil {
		panic(err)
	}
}

// Normalize validates the flow against the schema shape recorded in its
// version and returns a deep copy of its publish-relevant fields. It never
// coerces: any shape mismatch is a *StructuralError naming the field.
func (n *Normalizer) Normalize(flow *models.Flow) (*NormalizedFlow, error) {
	parser, ok := n.parsers[flow.Version]
	if !ok {
		return nil, newStructuralError("version", flow.Version, "unsupported schema version %d", flow.Version)
	}

	return parser(flow)
}

// legacyParser handles schema versions that predate start events: the events
// field must be absent.
func legacyParser(version int) ParseFunc {
	return func(flow *models.Flow) (*NormalizedFlow, error) {
		if len(flow.Events) != 0 {
			return nil, newStructuralError("events", version, "events are not part of schema version %d", version)
		}

		if err := validateStructure(flow, version, nil); err != nil {
			return nil, err
		}

		return copyNormalized(flow, nil), nil
	}
}

// eventfulParser handles schema versions with a singleton start event.
func eventfulParser(version int) ParseFunc {
	return func(flow *models.Flow) (*NormalizedFlow, error) {
		if len(flow.Events) != 1 {
			return nil, newStructuralError("events", version,
				"schema version %d requires exactly one start event, got %d", version, len(flow.Events))
		}

		event := flow.Events[0]
		if event.ID == "" {
			return nil, newStructuralError("events", version, "start event has no id")
		}

		if event.Type != models.StartEventType {
			return nil, newStructuralError("events", version, "unexpected event type %q", event.Type)
		}

		eventIDs := map[string]bool{event.ID: true}

		if err := validateStructure(flow, version, eventIDs); err != nil {
			return nil, err
		}

		return copyNormalized(flow, flow.Events), nil
	}
}

// validateStructure runs the shape checks shared by every schema version:
// group, block, edge and variable identity plus edge endpoint integrity.
func validateStructure(flow *models.Flow, version int, eventIDs map[string]bool) error {
	groupIDs := make(map[string]bool, len(flow.Groups))
	blockIDs := make(map[string]string) // block id -> owning group id

	for _, group := range flow.Groups {
		if group.ID == "" {
			return newStructuralError("groups", version, "group has no id")
		}

		if groupIDs[group.ID] {
			return newStructuralError("groups", version, "duplicate group id %q", group.ID)
		}

		groupIDs[group.ID] = true

		for _, block := range group.Blocks {
			if block.ID == "" {
				return newStructuralError("groups", version, "block in group %q has no id", group.ID)
			}

			if block.Type == "" {
				return newStructuralError("groups", version, "block %q has no type", block.ID)
			}

			if _, dup := blockIDs[block.ID]; dup {
				return newStructuralError("groups", version, "duplicate block id %q", block.ID)
			}

			blockIDs[block.ID] = group.ID
		}
	}

	edgeIDs := make(map[string]bool, len(flow.Edges))

	for _, edge := range flow.Edges {
		if edge.ID == "" {
			return newStructuralError("edges", version, "edge has no id")
		}

		if edgeIDs[edge.ID] {
			return newStructuralError("edges", version, "duplicate edge id %q", edge.ID)
		}

		edgeIDs[edge.ID] = true

		if err := validateEndpoint(edge.From, "from", edge.ID, version, groupIDs, blockIDs, eventIDs); err != nil {
			return err
		}

		if err := validateEndpoint(edge.To, "to", edge.ID, version, groupIDs, blockIDs, nil); err != nil {
			return err
		}
	}

	variableIDs := make(map[string]bool, len(flow.Variables))

	for _, variable := range flow.Variables {
		if variable.ID == "" || variable.Name == "" {
			return newStructuralError("variables", version, "variable requires id and name")
		}

		if variableIDs[variable.ID] {
			return newStructuralError("variables", version, "duplicate variable id %q", variable.ID)
		}

		variableIDs[variable.ID] = true
	}

	return nil
}

func validateEndpoint(
	endpoint models.EdgeEndpoint,
	side, edgeID string,
	version int,
	groupIDs map[string]bool,
	blockIDs map[string]string,
	eventIDs map[string]bool,
) error {
	if endpoint.IsEvent() {
		if !eventIDs[endpoint.EventID] {
			return newStructuralError("edges", version,
				"edge %q %s references unknown event %q", edgeID, side, endpoint.EventID)
		}

		return nil
	}

	if endpoint.GroupID == "" {
		return newStructuralError("edges", version, "edge %q %s endpoint has no group", edgeID, side)
	}

	if !groupIDs[endpoint.GroupID] {
		return newStructuralError("edges", version,
			"edge %q %s references unknown group %q", edgeID, side, endpoint.GroupID)
	}

	if endpoint.BlockID != "" {
		owner, exists := blockIDs[endpoint.BlockID]
		if !exists {
			return newStructuralError("edges", version,
				"edge %q %s references unknown block %q", edgeID, side, endpoint.BlockID)
		}

		if owner != endpoint.GroupID {
			return newStructuralError("edges", version,
				"edge %q %s references block %q outside group %q", edgeID, side, endpoint.BlockID, endpoint.GroupID)
		}
	}

	return nil
}
