/*
Package notify defines the outbound notification boundary.

Delivery is best effort and external to this system: the reminder job hands
a Notification to whatever Notifier is wired in and moves on. The default
implementation just logs; a push gateway implements the same interface.
*/
package notify

import (
	"context"
	"log"
)

// Notification is one message to one user.
type Notification struct {
	UserID string
	Title  string
	Body   string
}

// Notifier delivers notifications. Implementations must be safe for
// concurrent use; failures are the caller's to log and ignore.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the process log. Default backend.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	log.Printf("[Notify] user=%s title=%q body=%q", n.UserID, n.Title, n.Body)
	return nil
}
