// Package models defines the core domain models for conversational flow building
package models

import "time"

// RiskLevelExempt marks a flow that was manually reviewed and cleared.
// Exempt flows are never re-scored on publish.
const RiskLevelExempt = -1

// Flow is the mutable draft of a conversational flow: a directed graph of
// groups connected by edges, owned by a workspace and edited in the builder.
type Flow struct {
	ID          string        `json:"id"           validate:"required"`
	WorkspaceID string        `json:"workspace_id" validate:"required"`
	Name        string        `json:"name"         validate:"required,min=1"`
	Version     int           `json:"version"      validate:"required,min=1"` // Ordinal schema version controlling parse rules
	Groups      []*Group      `json:"groups"`
	Edges       []*Edge       `json:"edges"`
	Variables   []*Variable   `json:"variables"`
	Events      []*StartEvent `json:"events,omitempty"` // Present for version >= 6 only
	Settings    Settings      `json:"settings"`
	Theme       Theme         `json:"theme"`
	RiskLevel   int           `json:"risk_level"` // -1 exempt, 0 clean, 1-100 increasing suspicion
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsRiskExempt reports whether the flow is excluded from risk scoring.
func (f *Flow) IsRiskExempt() bool {
	return f.RiskLevel == RiskLevelExempt
}

// GroupCount returns the number of groups in the flow, used by quota checks.
func (f *Flow) GroupCount() int {
	return len(f.Groups)
}

// Group is an ordered container of blocks positioned on the editor canvas.
type Group struct {
	ID          string           `json:"id"    validate:"required"`
	Title       string           `json:"title"`
	Coordinates GraphCoordinates `json:"graph_coordinates"`
	Blocks      []*Block         `json:"blocks"`
}

// GraphCoordinates locates a group or event on the editor canvas.
type GraphCoordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Variable is a named value readable and writable by blocks at runtime.
type Variable struct {
	ID    string `json:"id"   validate:"required"`
	Name  string `json:"name" validate:"required"`
	Value any    `json:"value,omitempty"`
}

// StartEventType is the only event type defined today.
const StartEventType = "start"

// StartEvent is the entry point of a version >= 6 flow. Flows carry exactly
// one of these; earlier schema versions encode the start point implicitly.
type StartEvent struct {
	ID             string           `json:"id"   validate:"required"`
	Type           string           `json:"type" validate:"required"`
	Coordinates    GraphCoordinates `json:"graph_coordinates"`
	OutgoingEdgeID string           `json:"outgoing_edge_id,omitempty"`
}

// Settings holds runtime behavior configuration copied verbatim into the
// published snapshot.
type Settings struct {
	General  GeneralSettings  `json:"general"`
	Typing   TypingEmulation  `json:"typing_emulation"`
	Metadata MetadataSettings `json:"metadata"`
}

type GeneralSettings struct {
	IsBrandingEnabled     bool `json:"is_branding_enabled"`
	IsInputPrefillEnabled bool `json:"is_input_prefill_enabled"`
	IsHideQueryParams     bool `json:"is_hide_query_params"`
}

type TypingEmulation struct {
	Enabled                  bool `json:"enabled"`
	Speed                    int  `json:"speed"`
	MaxDelayMs               int  `json:"max_delay_ms"`
	IsDisabledOnFirstMessage bool `json:"is_disabled_on_first_message"`
}

type MetadataSettings struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Theme holds visual configuration copied verbatim into the published snapshot.
type Theme struct {
	General ThemeGeneral `json:"general"`
	Chat    ThemeChat    `json:"chat"`
}

type ThemeGeneral struct {
	Font       string `json:"font,omitempty"`
	Background string `json:"background,omitempty"`
}

type ThemeChat struct {
	HostBubbleColor  string `json:"host_bubble_color,omitempty"`
	GuestBubbleColor string `json:"guest_bubble_color,omitempty"`
}
