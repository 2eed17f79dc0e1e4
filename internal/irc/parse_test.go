package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Message
	}{
		{
			name: "privmsg with trailing",
			raw:  ":alice!u@host PRIVMSG #w3c :see #73 for details",
			want: Message{
				Prefix:  "alice!u@host",
				Command: "PRIVMSG",
				Params:  []string{"#w3c", "see #73 for details"},
			},
		},
		{
			name: "ping without prefix",
			raw:  "PING :irc.example.org",
			want: Message{Command: "PING", Params: []string{"irc.example.org"}},
		},
		{
			name: "numeric reply",
			raw:  ":irc.example.org 001 ghurlbot :Welcome to IRC",
			want: Message{
				Prefix:  "irc.example.org",
				Command: "001",
				Params:  []string{"ghurlbot", "Welcome to IRC"},
			},
		},
		{
			name: "command is upcased",
			raw:  "ping server",
			want: Message{Command: "PING", Params: []string{"server"}},
		},
		{
			name: "no trailing",
			raw:  ":s JOIN #w3c",
			want: Message{Prefix: "s", Command: "JOIN", Params: []string{"#w3c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMessage(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMessageErrors(t *testing.T) {
	_, err := parseMessage(":prefixonly")
	assert.Error(t, err)

	_, err = parseMessage("")
	assert.Error(t, err)
}

func TestSenderNick(t *testing.T) {
	assert.Equal(t, "alice", senderNick("alice!u@host"))
	assert.Equal(t, "irc.example.org", senderNick("irc.example.org"))
}

func TestStripAddress(t *testing.T) {
	tests := []struct {
		text string
		nick string
		want string
		ok   bool
	}{
		{"ghurlbot: status?", "ghurlbot", "status?", true},
		{"ghurlbot, status?", "ghurlbot", "status?", true},
		{"GHURLBot:  status?", "ghurlbot", "status?", true},
		{"ghurlbot status?", "ghurlbot", "ghurlbot status?", false},
		{"ghurlbotty: hi", "ghurlbot", "ghurlbotty: hi", false},
		{"see #73", "ghurlbot", "see #73", false},
		{"ghurlbot", "ghurlbot", "ghurlbot", false},
	}

	for _, tt := range tests {
		got, ok := stripAddress(tt.text, tt.nick)
		assert.Equal(t, tt.ok, ok, "text %q", tt.text)
		assert.Equal(t, tt.want, got, "text %q", tt.text)
	}
}
