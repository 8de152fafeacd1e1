// Package forge provides the pluggable block registry. Integrations join the
// flow graph by registering a descriptor here; the publish pipeline never
// learns their internals.
package forge

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ErrBlockNotFound indicates no descriptor is registered for the given id.
var ErrBlockNotFound = errors.New("forge block not found")

// ActionDescriptor names one invocable action a block exposes to the runtime.
type ActionDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AuthDescriptor declares the shape of the credentials a block needs,
// expressed as a JSON schema the builder validates submissions against.
type AuthDescriptor struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

// BlockDescriptor describes a pluggable integration block: display metadata,
// an optional credential requirement and an ordered action list.
type BlockDescriptor struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Icon    string             `json:"icon,omitempty"`
	Auth    *AuthDescriptor    `json:"auth,omitempty"`
	Actions []ActionDescriptor `json:"actions"`
}

// Registry is the process-wide, append-only catalog of forge blocks.
// It is populated once at startup and read-only thereafter.
type Registry struct {
	blocks map[string]BlockDescriptor
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{blocks: make(map[string]BlockDescriptor)}
}

// Register adds a block descriptor. Duplicate ids are a wiring bug and fail
// fatally at startup rather than surfacing at runtime.
func (r *Registry) Register(descriptor BlockDescriptor) {
	if descriptor.ID == "" {
		panic("forge: descriptor requires an id")
	}

	if _, exists := r.blocks[descriptor.ID]; exists {
		panic(fmt.Sprintf("forge: block %q already registered", descriptor.ID))
	}

	r.blocks[descriptor.ID] = descriptor
	r.order = append(r.order, descriptor.ID)
}

// Get returns the descriptor registered under id.
func (r *Registry) Get(id string) (BlockDescriptor, error) {
	descriptor, ok := r.blocks[id]
	if !ok {
		return BlockDescriptor{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}

	return descriptor, nil
}

// Has reports whether a block type is a registered forge block.
func (r *Registry) Has(id string) bool {
	_, ok := r.blocks[id]

	return ok
}

// IDs returns all registered block ids in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)

	return ids
}

// Descriptors returns all registered descriptors in registration order,
// consumed by the builder UI for capability display.
func (r *Registry) Descriptors() []BlockDescriptor {
	descriptors := make([]BlockDescriptor, 0, len(r.order))
	for _, id := range r.order {
		descriptors = append(descriptors, r.blocks[id])
	}

	return descriptors
}

// ValidateCredentials checks a credentials document against the block's
// declared auth schema. Blocks without an auth requirement accept anything.
func (r *Registry) ValidateCredentials(id string, credentials map[string]any) error {
	descriptor, err := r.Get(id)
	if err != nil {
		return err
	}

	if descriptor.Auth == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(descriptor.Auth.Schema),
		gojsonschema.NewGoLoader(credentials),
	)
	if err != nil {
		return fmt.Errorf("failed to validate credentials for block %q: %w", id, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			details = append(details, resultError.String())
		}

		return fmt.Errorf("invalid credentials for block %q: %v", id, details)
	}

	return nil
}
