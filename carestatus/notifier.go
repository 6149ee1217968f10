package carestatus

import "log/slog"

// Notifier is the user-facing notification port. Success fires
// immediately after an optimistic mutation; Failure fires on rollback
// and on user-initiated refresh errors. Background refresh failures
// never reach it.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// SlogNotifier routes notifications to a structured logger. It is the
// default when the embedding UI does not supply its own port.
type SlogNotifier struct {
	Logger *slog.Logger
}

// Success logs an informational notification.
func (n SlogNotifier) Success(msg string) {
	n.logger().Info("notify", "kind", "success", "msg", msg)
}

// Failure logs an error notification.
func (n SlogNotifier) Failure(msg string) {
	n.logger().Warn("notify", "kind", "failure", "msg", msg)
}

func (n SlogNotifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

// NopNotifier discards every notification.
type NopNotifier struct{}

// Success implements Notifier.
func (NopNotifier) Success(string) {}

// Failure implements Notifier.
func (NopNotifier) Failure(string) {}
