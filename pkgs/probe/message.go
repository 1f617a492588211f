package probe

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/emx-mail/checkmail/pkgs/email"
)

// Subject is the fixed subject of every probe message.
const Subject = "Mail test"

// Body is the fixed text of every probe message.
const Body = "Dear Icinga Monitoring Plugin,\n\n" +
	"I hope your overall health is at its best. Today I am writing you another e-mail. I'm afraid you will\n" +
	"take note of this email, maybe read out one or two bon mot and delete this mail. Maybe this is the way\n" +
	"of things and we cannot change anything. The main thing is that everything is fine. I will write to\n" +
	"you again very soon.\n\n" +
	"Greetings\n\n" +
	"The sender\n"

// Message is the outgoing probe mail. It is built once per run and not
// modified afterwards.
type Message struct {
	From      string
	To        string
	Subject   string
	Body      string
	Token     Token
	Date      time.Time
	MessageID string
}

// NewMessage builds the probe message for token. Addresses are used verbatim;
// rejecting malformed ones is left to the SMTP server.
func NewMessage(from, to string, token Token, now time.Time) *Message {
	return &Message{
		From:      from,
		To:        to,
		Subject:   Subject,
		Body:      Body,
		Token:     token,
		Date:      now,
		MessageID: email.GenerateMessageID(from),
	}
}

// WriteTo renders the message as RFC 5322 text.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(m.Date)
	h.Set("From", m.From)
	h.Set("To", m.To)
	h.SetSubject(m.Subject)
	h.Set("Message-Id", m.MessageID)
	h.Set(HeaderName, m.Token.String())
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	bw, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return 0, fmt.Errorf("failed to build message: %w", err)
	}
	if _, err := io.WriteString(bw, m.Body); err != nil {
		return 0, fmt.Errorf("failed to build message: %w", err)
	}
	if err := bw.Close(); err != nil {
		return 0, fmt.Errorf("failed to build message: %w", err)
	}

	return buf.WriteTo(w)
}

// Bytes returns the rendered message.
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
