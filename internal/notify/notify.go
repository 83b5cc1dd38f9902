// Package notify delivers user-visible notifications.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal/apperr"
)

// Notification is a short message shown to the user
type Notification struct {
	Title       string
	Description string
	Destructive bool // failure rather than information
}

// Notifier receives notifications
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to the Notifier interface
type Func func(n Notification)

// Notify calls f(n)
func (f Func) Notify(n Notification) {
	f(n)
}

// Console prints notifications as "Title: Description" lines
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console notifier writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Notify prints n, prefixing failures with "!"
func (c *Console) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := ""
	if n.Destructive {
		prefix = "! "
		log.Debug().Str("title", n.Title).Str("description", n.Description).Msg("Error notification")
	}
	fmt.Fprintf(c.out, "%s%s: %s\n", prefix, n.Title, n.Description)
}

// Error builds a destructive notification describing err
func Error(err error) Notification {
	title, desc := apperr.Describe(err)
	return Notification{Title: title, Description: desc, Destructive: true}
}

// Info builds an informational notification
func Info(title, description string) Notification {
	return Notification{Title: title, Description: description}
}

// Recorder keeps every notification it receives, for tests and replay
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

// Notify records n
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.notifications = append(r.notifications, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Notification, len(r.notifications))
	copy(result, r.notifications)
	return result
}
