package probe

import (
	"bufio"
	"bytes"
	"strings"
)

// SearchMode selects which section of a fetched message is searched for the
// token header line.
type SearchMode int

const (
	// SearchHeader looks at the message header block.
	SearchHeader SearchMode = iota
	// SearchBody looks at everything after the header block, which is where
	// the line ends up when a filter wraps or forwards the original message.
	SearchBody
)

func (m SearchMode) String() string {
	if m == SearchBody {
		return "body"
	}
	return "header"
}

// Sections is a raw message split at the first blank line.
type Sections struct {
	Header []byte
	Body   []byte
}

// Split separates raw into header and body at the first empty line. CRLF
// line endings are expected; bare LF is accepted when no CRLF blank line
// exists. Without a blank line the whole input is treated as header.
func Split(raw []byte) Sections {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return Sections{Header: raw[:i], Body: raw[i+4:]}
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return Sections{Header: raw[:i], Body: raw[i+2:]}
	}
	return Sections{Header: raw}
}

// Section returns the part of s selected by mode.
func (s Sections) Section(mode SearchMode) []byte {
	if mode == SearchBody {
		return s.Body
	}
	return s.Header
}

// ExtractTokens returns the trimmed value of every line in section that
// starts with HeaderName followed by a colon.
func ExtractTokens(section []byte) []string {
	var tokens []string
	sc := bufio.NewScanner(bytes.NewReader(section))
	sc.Buffer(make([]byte, 0, 4096), len(section)+1)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, HeaderName) {
			continue
		}
		rest := strings.TrimLeft(line[len(HeaderName):], " \t")
		if !strings.HasPrefix(rest, ":") {
			continue
		}
		tokens = append(tokens, strings.TrimSpace(rest[1:]))
	}
	return tokens
}

// Match reports whether raw carries token in the section selected by mode.
func Match(raw []byte, token Token, mode SearchMode) bool {
	if token == "" {
		return false
	}
	for _, v := range ExtractTokens(Split(raw).Section(mode)) {
		if v == string(token) {
			return true
		}
	}
	return false
}
