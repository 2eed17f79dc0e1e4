// Package irc is the chat transport collaborator: a minimal IRC client that
// delivers inbound channel lines to the bot core and sends its replies,
// pacing outbound writes to stay under server flood limits.
package irc

import (
	"fmt"
	"strings"
)

// Message is one parsed IRC protocol line.
type Message struct {
	Prefix  string // server or nick!user@host, without the leading ":"
	Command string // e.g. "PRIVMSG", "PING", "001"
	Params  []string
}

// parseMessage parses a raw IRC line (without trailing CRLF).
func parseMessage(raw string) (Message, error) {
	var m Message
	rest := raw

	if strings.HasPrefix(rest, ":") {
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			return m, fmt.Errorf("irc line %q has prefix but no command", raw)
		}
		m.Prefix = rest[1:i]
		rest = rest[i+1:]
	}

	// A trailing parameter (": ...") may contain spaces.
	trailing := ""
	hasTrailing := false
	if i := strings.Index(rest, " :"); i >= 0 {
		trailing = rest[i+2:]
		rest = rest[:i]
		hasTrailing = true
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return m, fmt.Errorf("irc line %q has no command", raw)
	}
	m.Command = strings.ToUpper(fields[0])
	m.Params = fields[1:]
	if hasTrailing {
		m.Params = append(m.Params, trailing)
	}
	return m, nil
}

// senderNick extracts the nick from a "nick!user@host" prefix.
func senderNick(prefix string) string {
	if i := strings.IndexByte(prefix, '!'); i >= 0 {
		return prefix[:i]
	}
	return prefix
}

// stripAddress checks whether text is directed at nick ("nick: ..." or
// "nick, ...") and returns the remainder.
func stripAddress(text, nick string) (string, bool) {
	if len(text) <= len(nick) {
		return text, false
	}
	if !strings.EqualFold(text[:len(nick)], nick) {
		return text, false
	}
	rest := text[len(nick):]
	if rest[0] != ':' && rest[0] != ',' {
		return text, false
	}
	return strings.TrimSpace(rest[1:]), true
}
