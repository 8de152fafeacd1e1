package models

import "strings"

// BlockCategory represents the variant family of a block.
type BlockCategory string

const (
	BlockCategoryInput       BlockCategory = "input"       // Collects end-user input (text, file, ...)
	BlockCategoryLogic       BlockCategory = "logic"       // Control flow (jump, wait, chat hand-off/close)
	BlockCategoryIntegration BlockCategory = "integration" // Forge blocks described by the registry
)

// Built-in input block types.
const (
	BlockTypeTextInput   = "input:text"
	BlockTypeNumberInput = "input:number"
	BlockTypeEmailInput  = "input:email"
	BlockTypeFileInput   = "input:file"
	BlockTypeChoiceInput = "input:choice"
)

// Built-in logic block types.
const (
	BlockTypeJump       = "logic:jump"        // Jump to another group
	BlockTypeWait       = "logic:wait"        // Timed wait before the next step
	BlockTypeAssignChat = "logic:assign_chat" // Hand the chat off to a human operator
	BlockTypeCloseChat  = "logic:close_chat"  // Close the conversation
)

// Block is one step inside a group. Type decides the variant; Options carries
// the variant-specific configuration. Integration block types are not listed
// here: they are whatever the forge registry has descriptors for.
type Block struct {
	ID             string         `json:"id"   validate:"required"`
	Type           string         `json:"type" validate:"required"`
	Options        map[string]any `json:"options,omitempty"`
	OutgoingEdgeID string         `json:"outgoing_edge_id,omitempty"`
}

// Category classifies the block by its type prefix. Anything that is neither
// an input nor a logic block is treated as an integration (forge) block; the
// forge registry decides whether the type actually exists.
func (b *Block) Category() BlockCategory {
	switch {
	case strings.HasPrefix(b.Type, "input:"):
		return BlockCategoryInput
	case strings.HasPrefix(b.Type, "logic:"):
		return BlockCategoryLogic
	default:
		return BlockCategoryIntegration
	}
}

func (b *Block) IsInputBlock() bool {
	return b.Category() == BlockCategoryInput
}

func (b *Block) IsLogicBlock() bool {
	return b.Category() == BlockCategoryLogic
}

// IsFileUploadBlock reports whether the block collects file uploads, a
// plan-gated capability.
func (b *Block) IsFileUploadBlock() bool {
	return b.Type == BlockTypeFileInput
}

// HasFileUploadBlocks scans groups for file-upload input blocks.
func HasFileUploadBlocks(groups []*Group) bool {
	for _, group := range groups {
		for _, block := range group.Blocks {
			if block.IsFileUploadBlock() {
				return true
			}
		}
	}

	return false
}
