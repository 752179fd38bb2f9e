package common

import "errors"

// ErrReentrant is returned when a funds-moving entry point is re-entered
// before the initiating call has finished.
var ErrReentrant = errors.New("reentrant call rejected")

// CallLock is a single mutual-exclusion flag guarding an engine's
// externally-funds-moving entry points. There is no queuing: a nested
// acquisition fails fast with ErrReentrant. The lock is not safe for use
// across goroutines; the execution model gives one call at a time.
type CallLock struct {
	held bool
}

// Acquire takes the lock, failing with ErrReentrant when it is already held.
func (l *CallLock) Acquire() error {
	if l == nil {
		return nil
	}
	if l.held {
		return ErrReentrant
	}
	l.held = true
	return nil
}

// Release returns the lock. Callers pair it with Acquire via defer so every
// exit path, including failures, releases the flag.
func (l *CallLock) Release() {
	if l == nil {
		return
	}
	l.held = false
}
