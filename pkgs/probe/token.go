// Package probe implements the send-then-poll mail loop check: it sends a
// message tagged with a per-run correlation token, searches one or more IMAP
// mailboxes for that token and classifies where (if anywhere) it arrived.
package probe

import "github.com/google/uuid"

// HeaderName is the header field carrying the correlation token. The matcher
// looks for exactly this spelling.
const HeaderName = "X-Icinga-Test-Id"

// Token is the per-run correlation identifier, the canonical string form of
// a random UUID.
type Token string

// NewToken returns a fresh random token.
func NewToken() Token {
	return Token(uuid.NewString())
}

func (t Token) String() string { return string(t) }
