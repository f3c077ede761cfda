package commands

import (
	"strings"

	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

const commandModuleRoot = "jszoo.commands"

// CommandLogger returns a module-scoped logger for command handlers named
// jszoo.commands.<module>.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
