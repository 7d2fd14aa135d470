// Package syncx holds small synchronization helpers.
package syncx

import "sync/atomic"

// TryMutex is a non-blocking mutual exclusion lock. The zero value is unlocked.
//
// Unlike sync.Mutex it never waits: TryLock either acquires the lock or
// reports that another holder is active.
type TryMutex struct {
	held atomic.Bool
}

// TryLock acquires the lock if it is free. On success it returns a release
// function that must be called exactly once; extra calls are no-ops.
func (m *TryMutex) TryLock() (release func(), ok bool) {
	if !m.held.CompareAndSwap(false, true) {
		return nil, false
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			m.held.Store(false)
		}
	}, true
}

// Locked reports whether the lock is currently held.
func (m *TryMutex) Locked() bool {
	return m.held.Load()
}
