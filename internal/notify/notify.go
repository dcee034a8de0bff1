// Package notify carries transient user-visible messages ("toasts") from the
// storefront stores to whatever surface displays them.
package notify

import (
	"fmt"
	"io"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelFailure Level = "failure"
	LevelWarning Level = "warning"
)

// Notification is one user-visible message.
type Notification struct {
	Level   Level
	Topic   string // collection or flow that raised it, e.g. "cart"
	Action  string
	Message string
	Err     error
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use: stores raise notifications from sync goroutines.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Notification) {})

// Writer prints notifications as single lines.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Notify(n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()

	mark := "ok"
	switch n.Level {
	case LevelFailure:
		mark = "!!"
	case LevelWarning:
		mark = "~~"
	}
	fmt.Fprintf(w.w, "[%s] %s\n", mark, n.Message)
}
