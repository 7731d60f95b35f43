package commands

import (
	"context"
)

// AppVersion is the version of the application, set at build time.
var AppVersion = "dev"

// VersionCommand replies with the application version.
type VersionCommand struct{}

// NewVersionCommand creates a new VersionCommand instance.
func NewVersionCommand() Command {
	return &VersionCommand{}
}

// Name returns the name of the command.
func (c *VersionCommand) Name() string {
	return "version"
}

// Description returns the description of the command.
func (c *VersionCommand) Description() string {
	return "Displays the current version of the bot."
}

// Execute runs the command.
func (c *VersionCommand) Execute(context.Context, Invocation) (string, error) {
	return "Version: " + AppVersion, nil
}
