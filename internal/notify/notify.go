// Package notify is the fire-and-forget side channel for user-facing
// notification events. Sinks are invoked by the API layer after a core
// operation finishes; a sink failure never affects the primary response.
package notify

import (
	"github.com/lmehdi/libraryms-server/internal/utils"
)

// Event is a desktop-style notification: a title, a message and optional
// presentation hints.
type Event struct {
	Title   string
	Message string
	Icon    string
	Sound   bool
}

// Notifier consumes notification events. Implementations must not block
// the caller and must swallow their own failures.
type Notifier interface {
	Notify(event Event)
}

// LogNotifier writes events to the application log asynchronously.
type LogNotifier struct {
	logger *utils.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *utils.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event without blocking the caller.
func (n *LogNotifier) Notify(event Event) {
	go n.logger.Info("notification: %s - %s", event.Title, event.Message)
}

// NopNotifier discards all events. Used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}
