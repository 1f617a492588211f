package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emx-mail/checkmail/pkgs/email"
	"github.com/emx-mail/checkmail/pkgs/metrics"
)

// Retrieval defaults.
const (
	DefaultDelay   = 10 * time.Second
	DefaultRetries = 3
)

// FetchSession is the IMAP session the retrieval loop drives. Calls are made
// strictly in sequence: Select, ListUIDs, FetchRaw per UID, optionally
// MarkDeleted and Expunge, CloseMailbox; Logout once at the very end.
type FetchSession interface {
	Select(mailbox string) error
	ListUIDs() ([]uint32, error)
	FetchRaw(uid uint32) ([]byte, error)
	MarkDeleted(uid uint32) error
	Expunge() error
	CloseMailbox() error
	Logout() error
}

// Archiver receives a copy of the matched message before any cleanup.
type Archiver interface {
	Archive(mailbox string, raw []byte) error
}

// WaitFunc blocks for d, returning early with an error if ctx ends.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default WaitFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// MailboxTarget is the ordered list of mailboxes searched on every attempt.
// The first entry is always the primary inbox.
type MailboxTarget []string

// NewMailboxTarget returns INBOX followed by spam, if spam is set.
func NewMailboxTarget(spam string) MailboxTarget {
	t := MailboxTarget{email.InboxName}
	if spam != "" && spam != email.InboxName {
		t = append(t, spam)
	}
	return t
}

// RetrieverOptions configures a Retriever. Empty Mailboxes means INBOX only.
// Retries is taken as given: zero attempts make Retrieve report NotFound
// without selecting any mailbox.
type RetrieverOptions struct {
	Mailboxes MailboxTarget
	Mode      SearchMode
	Cleanup   bool
	Delay     time.Duration
	Retries   int

	Wait     WaitFunc
	Archiver Archiver
	Logger   *slog.Logger
	Metrics  metrics.Collector
}

// Retriever runs the polling loop over one IMAP session.
type Retriever struct {
	opts    RetrieverOptions
	logger  *slog.Logger
	metrics metrics.Collector

	passes  int
	matched string
}

// NewRetriever creates a Retriever.
func NewRetriever(opts RetrieverOptions) *Retriever {
	if len(opts.Mailboxes) == 0 {
		opts.Mailboxes = NewMailboxTarget("")
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Wait == nil {
		opts.Wait = Sleep
	}
	r := &Retriever{
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.metrics == nil {
		r.metrics = &metrics.NoopCollector{}
	}
	return r
}

// WorstCase is the longest time Retrieve can spend waiting: every attempt
// visits every mailbox and each visit is preceded by the delay. Callers
// supervising the probe should allow at least this much.
func (r *Retriever) WorstCase() time.Duration {
	return time.Duration(r.opts.Retries*len(r.opts.Mailboxes)) * r.opts.Delay
}

// Passes returns the number of mailbox examinations started so far.
func (r *Retriever) Passes() int { return r.passes }

// Matched returns the mailbox the token was found in, if any.
func (r *Retriever) Matched() string { return r.matched }

// Retrieve polls the mailboxes until the token is found or all attempts are
// used up. Any session error aborts the loop. The session is logged out
// before returning in every case.
func (r *Retriever) Retrieve(ctx context.Context, s FetchSession, token Token) (Outcome, error) {
	defer func() {
		if lerr := s.Logout(); lerr != nil {
			r.logger.Warn("IMAP logout failed", slog.String("error", lerr.Error()))
		}
	}()

	r.logger.Debug("starting retrieval",
		slog.Any("mailboxes", []string(r.opts.Mailboxes)),
		slog.Int("retries", r.opts.Retries),
		slog.Duration("delay", r.opts.Delay),
		slog.Duration("worst_case", r.WorstCase()),
		slog.String("mode", r.opts.Mode.String()),
	)

	for attempt := 1; attempt <= r.opts.Retries; attempt++ {
		for i, mailbox := range r.opts.Mailboxes {
			if err := r.opts.Wait(ctx, r.opts.Delay); err != nil {
				return Undefined, fmt.Errorf("interrupted before checking %s: %w", mailbox, err)
			}
			outcome, err := r.searchMailbox(s, mailbox, i == 0, token, attempt)
			if err != nil {
				return Undefined, err
			}
			if outcome.Terminal() {
				r.matched = mailbox
				return outcome, nil
			}
		}
	}

	return NotFound, nil
}

// searchMailbox performs one pass over a single mailbox and returns Found,
// FoundInSpam or NotFound.
func (r *Retriever) searchMailbox(s FetchSession, mailbox string, primary bool, token Token, attempt int) (Outcome, error) {
	log := r.logger.With(slog.String("mailbox", mailbox), slog.Int("attempt", attempt))
	log.Debug("checking mailbox")

	r.passes++
	r.metrics.SearchPass(mailbox)

	if err := s.Select(mailbox); err != nil {
		return Undefined, err
	}

	uids, err := s.ListUIDs()
	if err != nil {
		return Undefined, err
	}

	outcome := NotFound
	for _, uid := range uids {
		raw, err := s.FetchRaw(uid)
		if err != nil {
			return Undefined, err
		}
		r.metrics.MessageScanned(mailbox)

		if !Match(raw, token, r.opts.Mode) {
			log.Debug("expected token was not found in this message",
				slog.Uint64("uid", uint64(uid)),
				slog.Any("tokens", ExtractTokens(Split(raw).Section(r.opts.Mode))),
			)
			continue
		}

		log.Debug("expected token found", slog.Uint64("uid", uint64(uid)))
		outcome = FoundInSpam
		if primary {
			outcome = Found
		}

		if r.opts.Archiver != nil {
			if err := r.opts.Archiver.Archive(mailbox, raw); err != nil {
				log.Warn("failed to archive matched message", slog.String("error", err.Error()))
			}
		}

		if r.opts.Cleanup {
			log.Debug("marking message as deleted", slog.Uint64("uid", uint64(uid)))
			if err := s.MarkDeleted(uid); err != nil {
				return Undefined, err
			}
			r.metrics.MessageDeleted(mailbox)
		}
		break
	}

	if r.opts.Cleanup {
		if err := s.Expunge(); err != nil {
			return Undefined, err
		}
	}
	if err := s.CloseMailbox(); err != nil {
		return Undefined, err
	}

	return outcome, nil
}
