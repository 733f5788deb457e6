package models

import "strings"

// CommandType enumerates the chat commands the bot understands.
type CommandType string

const (
	CommandStock   CommandType = "stock"
	CommandLow     CommandType = "low"
	CommandHistory CommandType = "history"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed instruction extracted from WhatsApp text.
// Args keeps the original casing since item names are case-sensitive.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	tokens := strings.Fields(message)
	cmd := Command{Raw: message, Type: CommandUnknown}

	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandStock, CommandLow, CommandHistory, CommandHelp:
		cmd.Type = CommandType(head)
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
