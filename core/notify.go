package core

// Notifier is any sink that can display user-visible messages.
// Calls are fire-and-forget: callers never depend on their outcome.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
func (nopNotifier) Info(string)    {}

// NopNotifier discards every message.
var NopNotifier Notifier = nopNotifier{}
