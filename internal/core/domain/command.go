package domain

import (
	"strings"
	"unicode"
)

// CommandObject is the structured view of a command invocation, created once
// per event and read by handlers and error formatting.
type CommandObject struct {
	Prefix  string
	Command string
	Args    string
	Match   []string
}

// Text returns the invocation as the user typed it, minus surrounding whitespace.
func (c CommandObject) Text() string {
	if c.Args == "" {
		return c.Prefix + c.Command
	}

	return c.Prefix + c.Command + " " + c.Args
}

// ParseCommand splits text starting with one of prefixes into a CommandObject.
// It reports false when text does not start with a prefix or holds no command word.
func ParseCommand(text, prefixes string) (CommandObject, bool) {
	if text == "" {
		return CommandObject{}, false
	}

	prefix, size := firstRune(text)
	if !strings.Contains(prefixes, prefix) {
		return CommandObject{}, false
	}

	rest := text[size:]
	command := ParseCommandWord(rest)
	if command == "" {
		return CommandObject{}, false
	}

	return CommandObject{
		Prefix:  prefix,
		Command: command,
		Args:    ParseCommandArgs(rest),
	}, true
}

// ParseCommandWord returns the first whitespace-delimited word of args.
func ParseCommandWord(args string) string {
	end := strings.IndexFunc(args, unicode.IsSpace)
	if end < 0 {
		return args
	}

	return args[:end]
}

// ParseCommandArgs discards the first word and returns the remainder verbatim,
// minus the whitespace separating it from the first word.
func ParseCommandArgs(args string) string {
	end := strings.IndexFunc(args, unicode.IsSpace)
	if end < 0 {
		return ""
	}

	return strings.TrimLeftFunc(args[end:], unicode.IsSpace)
}

func firstRune(s string) (string, int) {
	for i := range s {
		if i > 0 {
			return s[:i], i
		}
	}

	return s, len(s)
}
