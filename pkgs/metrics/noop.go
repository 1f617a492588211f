package metrics

import "time"

// NoopCollector is a no-op implementation of the Collector interface.
type NoopCollector struct{}

// MessageSent is a no-op.
func (n *NoopCollector) MessageSent() {}

// SearchPass is a no-op.
func (n *NoopCollector) SearchPass(mailbox string) {}

// MessageScanned is a no-op.
func (n *NoopCollector) MessageScanned(mailbox string) {}

// MessageDeleted is a no-op.
func (n *NoopCollector) MessageDeleted(mailbox string) {}

// RunCompleted is a no-op.
func (n *NoopCollector) RunCompleted(outcome string, passes int, elapsed time.Duration) {}

// RunFailed is a no-op.
func (n *NoopCollector) RunFailed(class string, passes int, elapsed time.Duration) {}
