package probe

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
)

func TestNewToken_Unique(t *testing.T) {
	seen := make(map[Token]bool)
	for i := 0; i < 100; i++ {
		tok := NewToken()
		if len(tok) != 36 {
			t.Fatalf("unexpected token form %q", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestMessage_TokenInHeader(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		tok := NewToken()
		raw, err := NewMessage("probe@example.com", "rcpt@example.com", tok, now).Bytes()
		if err != nil {
			t.Fatalf("Bytes() error: %v", err)
		}
		if !Match(raw, tok, SearchHeader) {
			t.Fatalf("token %s not found in rendered header:\n%s", tok, raw)
		}
		if Match(raw, tok, SearchBody) {
			t.Fatalf("token %s leaked into the body", tok)
		}
		if !bytes.Contains(raw, []byte("\r\n"+HeaderName+": "+string(tok)+"\r\n")) {
			t.Fatalf("header field name not written verbatim:\n%s", raw)
		}
	}
}

func TestMessage_Parse(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	msg := NewMessage("Probe <probe@example.com>", "rcpt@example.com", testToken, now)

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateReader() error: %v", err)
	}
	if got := mr.Header.Get("From"); got != "Probe <probe@example.com>" {
		t.Errorf("From = %q", got)
	}
	if got := mr.Header.Get("To"); got != "rcpt@example.com" {
		t.Errorf("To = %q", got)
	}
	if got, _ := mr.Header.Subject(); got != Subject {
		t.Errorf("Subject = %q", got)
	}
	if got := mr.Header.Get(HeaderName); got != string(testToken) {
		t.Errorf("%s = %q", HeaderName, got)
	}
	if got := mr.Header.Get("Message-Id"); !strings.HasSuffix(got, "@example.com>") {
		t.Errorf("Message-Id = %q", got)
	}
	if got, err := mr.Header.Date(); err != nil || !got.Equal(now) {
		t.Errorf("Date = %v, %v", got, err)
	}

	p, err := mr.NextPart()
	if err != nil {
		t.Fatalf("NextPart() error: %v", err)
	}
	body, err := io.ReadAll(p.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != Body {
		t.Errorf("body = %q", body)
	}
}

func TestMessage_AddressesNotValidated(t *testing.T) {
	msg := NewMessage("not an address", "also@@bad", testToken, time.Now())
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	if !bytes.Contains(raw, []byte("From: not an address\r\n")) {
		t.Errorf("From not passed through:\n%s", raw)
	}
}
