package command

import (
	"context"
	"time"

	"redisd/internal/resp"
	"redisd/internal/store"
)

// blockingTimeout parses a BLPOP/BRPOP/BRPOPLPUSH/BLMOVE timeout argument:
// a non-negative number of seconds (fractional allowed), 0 meaning block
// forever (spec.md §4.5).
func blockingTimeout(b []byte) (time.Duration, error) {
	secs, err := parseFloat(b)
	if err != nil || secs < 0 {
		return 0, store.ErrNotFloat
	}
	if secs == 0 {
		return 0, nil
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// waitOnKeys blocks until one of keys becomes ready or the deadline
// passes, retrying the registration each round so a waiter that was
// notified but lost the race (another connection popped first) goes
// back to sleep instead of busy-looping. The runtime (this loop), not
// any command handler, owns the wait per spec.md §5.
//
// Dispatch holds the database's lock for the handler's whole call, so
// this loop explicitly unlocks before sleeping and relocks before
// touching the keyspace again (try, or the next round's registration) —
// otherwise a blocked waiter would hold the database's single exclusive
// lock for the entire timeout, and the push that's supposed to wake it
// could never acquire that same lock to run.
func waitOnKeys(ctx context.Context, sess *Session, keys []string, timeout time.Duration, try func() (*resp.Reply, bool)) (*resp.Reply, error) {
	if reply, ok := try(); ok {
		return reply, nil
	}

	db := sess.DB()
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		waiters := make([]*store.Waiter, len(keys))
		cancels := make([]func(), len(keys))
		for i, k := range keys {
			waiters[i], cancels[i] = db.Waiters().Register(k)
		}
		cancelAll := func() {
			for _, c := range cancels {
				c()
			}
		}

		woken := make(chan struct{}, 1)
		stop := make(chan struct{})
		for _, w := range waiters {
			go func(w *store.Waiter) {
				select {
				case <-w.Done():
					select {
					case woken <- struct{}{}:
					default:
					}
				case <-stop:
				}
			}(w)
		}

		db.Unlock()
		select {
		case <-woken:
			cancelAll()
			close(stop)
			db.Lock()
			if reply, ok := try(); ok {
				return reply, nil
			}
			// Spurious: another waiter on the same key won the race.
			continue
		case <-deadline:
			cancelAll()
			close(stop)
			db.Lock()
			return resp.NilArray(), nil
		case <-ctx.Done():
			cancelAll()
			close(stop)
			db.Lock()
			return nil, ctx.Err()
		}
	}
}

func cmdBLPop(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return blockingPop(sess, args, true)
}

func cmdBRPop(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return blockingPop(sess, args, false)
}

func blockingPop(sess *Session, args [][]byte, front bool) (*resp.Reply, error) {
	timeout, err := blockingTimeout(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(args)-2)
	for i, k := range args[1 : len(args)-1] {
		keys[i] = string(k)
	}

	try := func() (*resp.Reply, bool) {
		for _, k := range keys {
			out := popCmd(sess, k, front, 1)
			if len(out) == 1 {
				return resp.Array(resp.BulkString(k), out[0]), true
			}
		}
		return nil, false
	}
	return waitOnKeys(context.Background(), sess, keys, timeout, try)
}

func cmdBRPopLPush(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	src, dst := string(args[1]), string(args[2])
	timeout, err := blockingTimeout(args[3])
	if err != nil {
		return nil, err
	}
	try := func() (*resp.Reply, bool) {
		reply, merr := moveOne(sess, src, dst, false, true)
		if merr != nil || resp.IsNilBulk(reply) {
			return nil, false
		}
		return reply, true
	}
	return waitOnKeys(context.Background(), sess, []string{src}, timeout, try)
}

func cmdBLMove(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	src, dst := string(args[1]), string(args[2])
	srcFront, err := parseDirection(args[3])
	if err != nil {
		return nil, err
	}
	dstFront, err := parseDirection(args[4])
	if err != nil {
		return nil, err
	}
	timeout, err := blockingTimeout(args[5])
	if err != nil {
		return nil, err
	}
	try := func() (*resp.Reply, bool) {
		reply, merr := moveOne(sess, src, dst, srcFront, dstFront)
		if merr != nil || resp.IsNilBulk(reply) {
			return nil, false
		}
		return reply, true
	}
	return waitOnKeys(context.Background(), sess, []string{src}, timeout, try)
}

func parseDirection(b []byte) (bool, error) {
	switch {
	case eqFold(b, "LEFT"):
		return true, nil
	case eqFold(b, "RIGHT"):
		return false, nil
	default:
		return false, store.ErrSyntax
	}
}
