package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerIssueTokens(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Token
	}{
		{
			name: "bare issue reference",
			line: "see #73 for details",
			want: []Token{{Text: "#73", Kind: KindIssue}},
		},
		{
			name: "prefixed issue reference",
			line: "this is tracked in w3c/rdf-star#5 now",
			want: []Token{{Text: "w3c/rdf-star#5", Kind: KindIssue}},
		},
		{
			name: "repo-only prefix",
			line: "rdf-star#5",
			want: []Token{{Text: "rdf-star#5", Kind: KindIssue}},
		},
		{
			name: "multiple references left to right",
			line: "see #3 and #4 again",
			want: []Token{
				{Text: "#3", Kind: KindIssue},
				{Text: "#4", Kind: KindIssue},
			},
		},
		{
			name: "repeated token scanned twice",
			line: "see #3 and #3 again",
			want: []Token{
				{Text: "#3", Kind: KindIssue},
				{Text: "#3", Kind: KindIssue},
			},
		},
		{
			name: "punctuation boundaries are fine",
			line: "(#12), and [#13].",
			want: []Token{
				{Text: "#12", Kind: KindIssue},
				{Text: "#13", Kind: KindIssue},
			},
		},
		{
			name: "no digits means no token",
			line: "the # character alone",
			want: nil,
		},
		{
			name: "trailing word character rejects the candidate",
			line: "channel #12abc is not an issue",
			want: nil,
		},
		{
			name: "adjacent word characters join the prefix",
			line: "see xw3c/repo#5",
			want: []Token{{Text: "xw3c/repo#5", Kind: KindIssue}},
		},
		{
			name: "rejected candidate does not re-match mid-token",
			line: "channel #12abc and #13def",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewScanner(tt.line).Tokens()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScannerNameTokens(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Token
	}{
		{
			name: "bare name",
			line: "ask @bob about it",
			want: []Token{{Text: "@bob", Kind: KindName}},
		},
		{
			name: "hyphenated name",
			line: "@w3c-team should see this",
			want: []Token{{Text: "@w3c-team", Kind: KindName}},
		},
		{
			name: "email addresses are not names",
			line: "mail me at alice@example.org",
			want: nil,
		},
		{
			name: "mixed kinds in order",
			line: "@alice please look at #7",
			want: []Token{
				{Text: "@alice", Kind: KindName},
				{Text: "#7", Kind: KindIssue},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewScanner(tt.line).Tokens()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScannerIsRestartable(t *testing.T) {
	sc := NewScanner("see #3 and @bob")

	first := sc.Tokens()
	require.Len(t, first, 2)

	sc.Reset()
	second := sc.Tokens()
	assert.Equal(t, first, second)
}

func TestScannerNextConsumesWithoutOverlap(t *testing.T) {
	sc := NewScanner("#1 #2 #3")

	var texts []string
	for {
		tok, ok := sc.Next()
		if !ok {
			break
		}
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"#1", "#2", "#3"}, texts)
}
