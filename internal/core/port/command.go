package port

import "imgopt/internal/core/domain"

type CommandRegistry interface {
	// Register adds a new command handler to the command registry.
	Register(handler domain.CommandResponder)
	// Get retrieves a registered command handler by its identifier or returns an error if not found.
	Get(command string) (domain.CommandResponder, error)
	// ListCommands returns all command identifiers currently registered.
	ListCommands() []string
}
