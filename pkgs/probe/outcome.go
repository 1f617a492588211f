package probe

// Outcome is the classification of a probe run.
type Outcome int

const (
	// Undefined is the state before any search pass completed.
	Undefined Outcome = iota
	// Found means the message arrived in the primary inbox.
	Found
	// FoundInSpam means the message arrived in the spam mailbox.
	FoundInSpam
	// NotFound means every attempt on every mailbox came up empty.
	NotFound
)

// Monitoring plugin exit codes.
const (
	ExitOK       = 0
	ExitWarning  = 1
	ExitCritical = 2
	ExitUnknown  = 3
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "FOUND"
	case FoundInSpam:
		return "FOUND_IN_SPAM"
	case NotFound:
		return "NOT_FOUND"
	default:
		return "UNDEFINED"
	}
}

// Terminal reports whether o ends the retrieval loop early.
func (o Outcome) Terminal() bool {
	return o == Found || o == FoundInSpam
}

// ExitCode maps o to the plugin exit status.
func (o Outcome) ExitCode() int {
	switch o {
	case Found:
		return ExitOK
	case FoundInSpam:
		return ExitWarning
	case NotFound:
		return ExitCritical
	default:
		return ExitUnknown
	}
}
