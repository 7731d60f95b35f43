package commands

import (
	"sort"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// CommandManager looks commands up by name.
type CommandManager struct {
	commands map[string]Command
	logger   *zap.Logger
}

// CommandManagerParams holds dependencies for NewCommandManager.
type CommandManagerParams struct {
	fx.In

	Logger   *zap.Logger
	Commands []Command `group:"commands"`
}

// NewCommandManager indexes the provided commands. Nil entries are skipped and
// the first command registered under a name wins.
func NewCommandManager(params CommandManagerParams) *CommandManager {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &CommandManager{
		commands: make(map[string]Command, len(params.Commands)),
		logger:   logger,
	}
	for _, cmd := range params.Commands {
		if cmd == nil {
			continue
		}
		name := strings.ToLower(cmd.Name())
		if _, exists := cm.commands[name]; exists {
			logger.Warn("Duplicate command name, keeping the first", zap.String("command", name))
			continue
		}
		cm.commands[name] = cmd
	}

	logger.Info("Loaded chat commands", zap.Strings("commands", cm.Names()))
	return cm
}

// GetCommand retrieves a command by name, case-insensitively.
func (cm *CommandManager) GetCommand(name string) (Command, bool) {
	cmd, ok := cm.commands[strings.ToLower(name)]
	return cmd, ok
}

// Names returns the sorted command names.
func (cm *CommandManager) Names() []string {
	names := make([]string, 0, len(cm.commands))
	for name := range cm.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
