package store

import (
	"container/list"
	"context"
	"sync"
)

// waiter is one registration in the blocking-command wait queue. notify
// closes ch exactly once; closing rather than sending lets an arbitrary
// number of waiters on the same key wake from a single push without the
// pusher needing to know how many are registered.
type waiter struct {
	ch   chan struct{}
	once sync.Once
}

func (w *waiter) notify() {
	w.once.Do(func() { close(w.ch) })
}

// waiterRegistry is the blocking-command wait queue a Database holds per
// spec.md §4.5/§5: BLPOP/BRPOP/BRPOPLPUSH/BLMOVE register a waiter under
// each key they watch, release the database lock, and sleep on the
// waiter's channel; a subsequent push notifies every waiter on that key,
// and each one independently re-attempts its pop under the lock. The
// order in which woken waiters retry is whichever reacquires the lock
// first, not registration order. Grounded on the teacher's BlockingManager, but the
// actual "try again" retry loop lives in the command layer (the runtime),
// not here, per spec.md §5's requirement that blocking is a property of
// the connection's command loop rather than of the handler function.
type waiterRegistry struct {
	mu      sync.Mutex
	waiting map[string]*list.List // key -> list of *waiter, FIFO
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{waiting: make(map[string]*list.List)}
}

// Register adds a waiter for key and returns it along with a cancel func
// that must be called once the caller stops waiting (served, timed out,
// or the connection closed) to remove it from the FIFO in O(1).
func (r *waiterRegistry) Register(key string) (*waiter, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waiting[key] == nil {
		r.waiting[key] = list.New()
	}
	w := &waiter{ch: make(chan struct{})}
	elem := r.waiting[key].PushBack(w)
	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if l := r.waiting[key]; l != nil {
			l.Remove(elem)
			if l.Len() == 0 {
				delete(r.waiting, key)
			}
		}
	}
	return w, cancel
}

// notify wakes every waiter currently registered on key. Called by
// push-style mutations (RPUSH, LPUSH, the destination of RPOPLPUSH, ...)
// while the caller still holds whatever made the new data visible.
func (r *waiterRegistry) notify(key string) {
	r.mu.Lock()
	l := r.waiting[key]
	var woken []*waiter
	if l != nil {
		for e := l.Front(); e != nil; e = e.Next() {
			woken = append(woken, e.Value.(*waiter))
		}
	}
	r.mu.Unlock()
	for _, w := range woken {
		w.notify()
	}
}

// Wait blocks until ctx is done or w is notified. Callers loop: register,
// try the non-blocking operation, and if it fails, Wait then retry.
func (w *waiter) Wait(ctx context.Context) error {
	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done exposes the underlying notification channel so a caller blocking
// on several keys at once (BLPOP key1 key2 ...) can select across every
// registered waiter rather than only one.
func (w *waiter) Done() <-chan struct{} { return w.ch }

// Waiter is the exported alias command handlers use; the type itself
// stays unexported to keep construction funneled through Register.
type Waiter = waiter
