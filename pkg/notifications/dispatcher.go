package notifications

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/presence"
	"golang.org/x/sync/errgroup"
)

// EventNotification is the event name clients listen on
const EventNotification = "notification"

// Kind tells the client how to render a notification
type Kind string

const (
	// KindInfo is a neutral notification
	KindInfo Kind = "info"
	// KindSuccess marks a finished piece of work
	KindSuccess Kind = "success"
)

// Event is the payload pushed to a client
type Event struct {
	Message   string    `json:"message"`
	Type      Kind      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// ConnectionLookup resolves the live connection of a user
type ConnectionLookup interface {
	Lookup(userID string) (presence.Connection, bool)
}

// Notifier pushes a message to a set of users
type Notifier interface {
	Notify(ctx context.Context, recipients []string, message string, kind Kind) int
}

// Dispatcher delivers events to recipients that are online at the moment of dispatch.
// Offline recipients and failed pushes are dropped.
type Dispatcher struct {
	Presence    ConnectionLookup
	Logger      logger.Interface
	SendTimeout time.Duration
	Now         func() time.Time
}

// NewDispatcher creates a Dispatcher with a five second send timeout
func NewDispatcher(lookup ConnectionLookup, logger logger.Interface) *Dispatcher {
	return &Dispatcher{
		Presence:    lookup,
		Logger:      logger,
		SendTimeout: 5 * time.Second,
		Now:         time.Now,
	}
}

// Notify pushes message to every distinct recipient and returns how many pushes succeeded
func (d *Dispatcher) Notify(ctx context.Context, recipients []string, message string, kind Kind) int {
	event := Event{Message: message, Type: kind, Timestamp: d.now()}

	var delivered int64
	var group errgroup.Group
	seen := make(map[string]struct{}, len(recipients))

	for _, recipient := range recipients {
		if _, ok := seen[recipient]; ok || recipient == "" {
			continue
		}
		seen[recipient] = struct{}{}

		conn, ok := d.Presence.Lookup(recipient)
		if !ok {
			d.Logger.Debug(fmt.Sprintf("Dropped notification for offline user %s", recipient))
			continue
		}

		recipient := recipient
		group.Go(func() error {
			sendCtx := ctx
			if d.SendTimeout > 0 {
				var cancel context.CancelFunc
				sendCtx, cancel = context.WithTimeout(ctx, d.SendTimeout)
				defer cancel()
			}

			err := conn.Send(sendCtx, EventNotification, event)
			if err != nil {
				d.Logger.Warning(fmt.Sprintf("Could not push notification to user %s", recipient), err)
				return nil
			}

			atomic.AddInt64(&delivered, 1)
			return nil
		})
	}

	_ = group.Wait()

	return int(delivered)
}

func (d *Dispatcher) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}
