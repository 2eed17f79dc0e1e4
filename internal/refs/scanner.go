// Package refs holds the reference-resolution engine: the scanner that lexes
// chat lines into candidate reference tokens, the resolver that maps tokens
// and issue prefixes to repository URLs, and the debounce policy that decides
// whether a token gets expanded again.
package refs

import "regexp"

// Kind classifies a scanned reference token.
type Kind int

const (
	// KindIssue is an issue or pull-request reference like "#73" or "org/repo#73".
	KindIssue Kind = iota
	// KindName is a person or team reference like "@handle".
	KindName
)

// Token is one candidate reference found in a line of text.
type Token struct {
	Text string
	Kind Kind
}

// candidateRe matches either an issue reference (optional owner/repo prefix,
// then #digits) or a name reference. Boundary checks happen separately since
// RE2 has no lookarounds.
var candidateRe = regexp.MustCompile(`([A-Za-z0-9/._-]*#[0-9]+)|(@[A-Za-z0-9_-]+)`)

// Scanner lexes one line of text into reference tokens, left to right,
// without overlap. It is restartable via Reset.
type Scanner struct {
	text string
	pos  int
}

// NewScanner creates a scanner over one line of text.
func NewScanner(text string) *Scanner {
	return &Scanner{text: text}
}

// Reset restarts the scanner at the beginning of the line.
func (s *Scanner) Reset() { s.pos = 0 }

// Next returns the next reference token, or false when the line is exhausted.
// A candidate only counts when it is preceded by a non-word character or
// start-of-line and followed by a non-word character or end-of-line, which
// keeps partial matches inside larger tokens (email addresses, identifiers)
// from being expanded.
func (s *Scanner) Next() (Token, bool) {
	for s.pos < len(s.text) {
		loc := candidateRe.FindStringSubmatchIndex(s.text[s.pos:])
		if loc == nil {
			s.pos = len(s.text)
			return Token{}, false
		}

		start := s.pos + loc[0]
		end := s.pos + loc[1]

		kind := KindIssue
		if loc[4] >= 0 { // second alternative matched
			kind = KindName
		}
		if s.bounded(start, end, kind) {
			s.pos = end
			return Token{Text: s.text[start:end], Kind: kind}, true
		}

		// Bad boundary: skip one byte into the candidate and rescan, so a
		// later candidate starting inside it can still be found.
		s.pos = start + 1
	}
	return Token{}, false
}

// Tokens scans the remainder of the line into a slice.
func (s *Scanner) Tokens() []Token {
	var out []Token
	for {
		tok, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}

// bounded checks the boundary rule. The preceding character must also not be
// part of the token's own alphabet: otherwise a candidate rejected at its
// real start ("xw3c/repo#5") would re-match further in and expand "repo#5".
func (s *Scanner) bounded(start, end int, kind Kind) bool {
	if start > 0 {
		prev := s.text[start-1]
		if isWordByte(prev) {
			return false
		}
		switch kind {
		case KindIssue:
			if prev == '/' || prev == '.' || prev == '-' || prev == '#' {
				return false
			}
		case KindName:
			if prev == '@' {
				return false
			}
		}
	}
	if end < len(s.text) && isWordByte(s.text[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
