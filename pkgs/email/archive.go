package email

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/emersion/go-mbox"
)

// MboxArchive appends matched probe messages to an mbox file so an operator
// can inspect the headers the mail pipeline added after the fact.
type MboxArchive struct {
	Path string
	// From is written to the mbox "From " separator line.
	From string

	now func() time.Time
}

// NewMboxArchive returns an archive writing to path.
func NewMboxArchive(path, from string) *MboxArchive {
	return &MboxArchive{Path: path, From: from, now: time.Now}
}

// Archive appends raw as one mbox message. The mailbox name is recorded in
// an X-Probe-Mailbox line prepended to the stored copy.
func (a *MboxArchive) Archive(mailbox string, raw []byte) error {
	from := a.From
	if from == "" {
		from = "MAILER-DAEMON"
	}
	now := time.Now
	if a.now != nil {
		now = a.now
	}

	var buf bytes.Buffer
	w := mbox.NewWriter(&buf)
	mw, err := w.CreateMessage(from, now())
	if err != nil {
		return fmt.Errorf("creating mbox message: %w", err)
	}
	if _, err := fmt.Fprintf(mw, "X-Probe-Mailbox: %s\r\n", mailbox); err != nil {
		return fmt.Errorf("writing mbox message: %w", err)
	}
	if _, err := mw.Write(raw); err != nil {
		return fmt.Errorf("writing mbox message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing mbox writer: %w", err)
	}

	f, err := os.OpenFile(a.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", a.Path, err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write archive %s: %w", a.Path, err)
	}
	return nil
}
