package chat

import (
	"fmt"
	"strings"
)

// Command is one parsed user intent, either from a slash command or from the
// classifier's `COMMAND: <name> ARGS: <args>` reply.
type Command struct {
	Name string
	Args string
}

// ParseSlash parses inputs like "/goto example.com". Returns false when the
// input is not a slash command.
func ParseSlash(input string) (Command, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return Command{}, false
	}
	fields := strings.Fields(trimmed)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	args := strings.Join(fields[1:], " ")
	return Command{Name: name, Args: args}, true
}

// ParseClassifierReply extracts a Command from the classifier's reply
// protocol. The literal "None" argument means no argument was given.
func ParseClassifierReply(reply string) (Command, error) {
	idx := strings.Index(reply, "COMMAND:")
	if idx < 0 {
		return Command{}, fmt.Errorf("no COMMAND marker in reply %q", reply)
	}
	rest := reply[idx+len("COMMAND:"):]

	name := rest
	args := ""
	if argIdx := strings.Index(rest, "ARGS:"); argIdx >= 0 {
		name = rest[:argIdx]
		args = strings.TrimSpace(rest[argIdx+len("ARGS:"):])
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Command{}, fmt.Errorf("empty command in reply %q", reply)
	}
	if args == "None" {
		args = ""
	}
	return Command{Name: name, Args: args}, nil
}
