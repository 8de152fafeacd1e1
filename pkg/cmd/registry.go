package cmd

import (
	"github.com/dukex/flowkit/pkg/forge"
)

// NewForgeRegistry builds the process-wide forge block catalog. Registration
// panics on duplicates, so a broken catalog fails at startup.
func NewForgeRegistry() *forge.Registry {
	registry := forge.NewRegistry()
	forge.RegisterDefaultBlocks(registry)

	return registry
}
