package probe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emx-mail/checkmail/pkgs/email"
)

// fakeSession is an in-memory FetchSession that records every call.
type fakeSession struct {
	mailboxes map[string][]fakeMessage
	calls     []string
	selected  string

	selectErr map[string]error
	fetchErr  error
}

type fakeMessage struct {
	uid     uint32
	raw     string
	deleted bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		mailboxes: map[string][]fakeMessage{"INBOX": nil, "Junk": nil},
		selectErr: map[string]error{},
	}
}

func (f *fakeSession) add(mailbox, raw string) uint32 {
	uid := uint32(len(f.mailboxes[mailbox]) + 1)
	f.mailboxes[mailbox] = append(f.mailboxes[mailbox], fakeMessage{uid: uid, raw: raw})
	return uid
}

func (f *fakeSession) Select(mailbox string) error {
	f.calls = append(f.calls, "select "+mailbox)
	if err := f.selectErr[mailbox]; err != nil {
		return err
	}
	if _, ok := f.mailboxes[mailbox]; !ok {
		return fmt.Errorf("%w: %q", email.ErrMailboxNotFound, mailbox)
	}
	f.selected = mailbox
	return nil
}

func (f *fakeSession) ListUIDs() ([]uint32, error) {
	f.calls = append(f.calls, "list")
	var uids []uint32
	for _, m := range f.mailboxes[f.selected] {
		uids = append(uids, m.uid)
	}
	return uids, nil
}

func (f *fakeSession) FetchRaw(uid uint32) ([]byte, error) {
	f.calls = append(f.calls, fmt.Sprintf("fetch %d", uid))
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	for _, m := range f.mailboxes[f.selected] {
		if m.uid == uid {
			return []byte(m.raw), nil
		}
	}
	return nil, fmt.Errorf("%w: no UID %d", email.ErrProtocol, uid)
}

func (f *fakeSession) MarkDeleted(uid uint32) error {
	f.calls = append(f.calls, fmt.Sprintf("delete %d", uid))
	msgs := f.mailboxes[f.selected]
	for i := range msgs {
		if msgs[i].uid == uid {
			msgs[i].deleted = true
		}
	}
	return nil
}

func (f *fakeSession) Expunge() error {
	f.calls = append(f.calls, "expunge")
	var kept []fakeMessage
	for _, m := range f.mailboxes[f.selected] {
		if !m.deleted {
			kept = append(kept, m)
		}
	}
	f.mailboxes[f.selected] = kept
	return nil
}

func (f *fakeSession) CloseMailbox() error {
	f.calls = append(f.calls, "close")
	f.selected = ""
	return nil
}

func (f *fakeSession) Logout() error {
	f.calls = append(f.calls, "logout")
	return nil
}

func (f *fakeSession) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// fakeSMTP records submitted messages.
type fakeSMTP struct {
	sendErr error
	sent    [][]byte
	closed  bool
}

func (f *fakeSMTP) SendRaw(from string, to []string, msg io.Reader) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	b, err := io.ReadAll(msg)
	if err != nil {
		return err
	}
	f.sent = append(f.sent, b)
	return nil
}

func (f *fakeSMTP) Close() error {
	f.closed = true
	return nil
}

// fakeTransport hands out the fake sessions and records dial order.
type fakeTransport struct {
	smtp    *fakeSMTP
	imap    *fakeSession
	smtpErr error
	imapErr error
	dials   []string

	// deliver copies every sent message into this mailbox of imap.
	deliver string
}

func (t *fakeTransport) DialSMTP(_ context.Context) (SendSession, error) {
	t.dials = append(t.dials, "smtp")
	if t.smtpErr != nil {
		return nil, t.smtpErr
	}
	return &deliveringSMTP{fakeSMTP: t.smtp, t: t}, nil
}

func (t *fakeTransport) DialIMAP(_ context.Context) (FetchSession, error) {
	t.dials = append(t.dials, "imap")
	if t.imapErr != nil {
		return nil, t.imapErr
	}
	return t.imap, nil
}

type deliveringSMTP struct {
	*fakeSMTP
	t *fakeTransport
}

func (d *deliveringSMTP) SendRaw(from string, to []string, msg io.Reader) error {
	if err := d.fakeSMTP.SendRaw(from, to, msg); err != nil {
		return err
	}
	if d.t.deliver != "" && d.t.imap != nil {
		d.t.imap.add(d.t.deliver, string(d.fakeSMTP.sent[len(d.fakeSMTP.sent)-1]))
	}
	return nil
}

// countingWait is a WaitFunc that records requested delays without sleeping.
type countingWait struct {
	delays []time.Duration
	err    error
}

func (w *countingWait) wait(_ context.Context, d time.Duration) error {
	w.delays = append(w.delays, d)
	return w.err
}

const testToken Token = "5b0f6f1e-0c1d-4f0e-8d2a-7c3b9e6a1f40"

func mailWithHeader(token Token) string {
	return "From: probe@example.com\r\n" +
		"To: rcpt@example.com\r\n" +
		"Subject: Mail test\r\n" +
		HeaderName + ": " + string(token) + "\r\n" +
		"\r\n" +
		"Dear Icinga Monitoring Plugin,\r\n"
}

func mailWithBodyToken(token Token) string {
	return "From: filter@example.com\r\n" +
		"Subject: [SPAM] Mail test\r\n" +
		"Content-Type: message/rfc822\r\n" +
		"\r\n" +
		"From: probe@example.com\r\n" +
		HeaderName + ": " + string(token) + "\r\n" +
		"\r\n" +
		"Dear Icinga Monitoring Plugin,\r\n"
}

const unrelatedMail = "From: someone@example.com\r\n" +
	"Subject: Newsletter\r\n" +
	"\r\n" +
	"Nothing to see here.\r\n"
