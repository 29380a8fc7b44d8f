// Package notifications pushes operator-visible alerts. The loud channel for
// the failure modes that must never be silent, chiefly unprotected positions.
package notifications

// Notifier delivers alerts to the operator.
type Notifier interface {
	SendAlert(level, message string) error
}

// NopNotifier discards alerts; used when no channel is configured.
type NopNotifier struct{}

func (NopNotifier) SendAlert(level, message string) error { return nil }
