package ports

import "time"

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay. It lets timer-driven flows be
// driven by a fake clock in tests.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Notification is a user-facing message for the toast surface.
type Notification struct {
	Level   string
	Message string
}

// Notifier receives user-facing messages.
type Notifier interface {
	Notify(n Notification)
}
