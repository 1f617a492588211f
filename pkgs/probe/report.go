package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/emx-mail/checkmail/pkgs/email"
)

// Classify names the error class of a fatal run error.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, email.ErrAuth):
		return "authentication"
	case errors.Is(err, email.ErrConnect):
		return "connection"
	case errors.Is(err, email.ErrSend):
		return "send"
	case errors.Is(err, email.ErrMailboxNotFound):
		return "mailbox"
	case errors.Is(err, email.ErrProtocol):
		return "protocol"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "interrupted"
	default:
		return "internal"
	}
}

// ExitCode returns the plugin exit status for r. Aborted runs are UNKNOWN so
// they stay distinguishable from a message that never arrived.
func (r Result) ExitCode() int {
	if r.Err != nil {
		return ExitUnknown
	}
	return r.Outcome.ExitCode()
}

// Status returns the one-line plugin output including performance data.
func (r Result) Status() string {
	return fmt.Sprintf("%s | duration=%.3fs passes=%d", r.summary(), r.Elapsed.Seconds(), r.Passes)
}

func (r Result) summary() string {
	if r.Err != nil {
		return fmt.Sprintf("UNKNOWN - %s error: %v", Classify(r.Err), r.Err)
	}
	switch r.Outcome {
	case Found:
		return "OK - Message found in " + email.InboxName
	case FoundInSpam:
		return "WARNING - Message found in spam folder " + r.Mailbox
	case NotFound:
		return "CRITICAL - Message not found"
	default:
		return "UNKNOWN - Undefined state"
	}
}
