// Package notify delivers transient user-facing notifications. Nothing
// in the offline core blocks on a notification; every signal here is the
// toast-style, best-effort kind.
package notify

import "github.com/moniehq/moniesync/internal/logging"

// Notifier receives user-facing notifications.
type Notifier interface {
	// Success reports a completed or safely deferred action, e.g.
	// "saved offline, will sync when online".
	Success(message string)

	// Error reports a visible failure.
	Error(message string)

	// Info reports neutral status.
	Info(message string)
}

// LogNotifier writes notifications to the structured log. It is the
// default sink when no UI transport is attached.
type LogNotifier struct{}

func (LogNotifier) Success(message string) {
	logging.Info("notification", map[string]interface{}{"kind": "success", "message": message})
}

func (LogNotifier) Error(message string) {
	logging.Warn("notification", map[string]interface{}{"kind": "error", "message": message})
}

func (LogNotifier) Info(message string) {
	logging.Info("notification", map[string]interface{}{"kind": "info", "message": message})
}

// Multi fans a notification out to several sinks.
type Multi []Notifier

func (m Multi) Success(message string) {
	for _, n := range m {
		n.Success(message)
	}
}

func (m Multi) Error(message string) {
	for _, n := range m {
		n.Error(message)
	}
}

func (m Multi) Info(message string) {
	for _, n := range m {
		n.Info(message)
	}
}
