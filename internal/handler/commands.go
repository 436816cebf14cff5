package handler

import "strings"

const (
	CommandHelp  = "help"
	CommandImage = "image"
)

// matchCommand returns the command name when text starts with prefix
// followed by a known command. Anything after the name is ignored.
func matchCommand(text, prefix string) (string, bool) {
	if !strings.HasPrefix(text, prefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return "", false
	}

	switch name := fields[0]; name {
	case CommandHelp, CommandImage:
		return name, true
	default:
		return "", false
	}
}
