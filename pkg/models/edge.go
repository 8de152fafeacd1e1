package models

// EdgeEndpoint references one side of an edge. Either a block inside a group
// (GroupID + BlockID), a whole group (GroupID only) or, for version >= 6
// flows, the start event (EventID only).
type EdgeEndpoint struct {
	GroupID string `json:"group_id,omitempty"`
	BlockID string `json:"block_id,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// IsEvent reports whether the endpoint references a start event.
func (e EdgeEndpoint) IsEvent() bool {
	return e.EventID != ""
}

// Edge is a directed connection defining the control-flow successor of a
// block, group or start event.
type Edge struct {
	ID   string       `json:"id"   validate:"required"`
	From EdgeEndpoint `json:"from" validate:"required"`
	To   EdgeEndpoint `json:"to"   validate:"required"`
}
