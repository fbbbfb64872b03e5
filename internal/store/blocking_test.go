package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaiterRegistryNotifyWakesWaiter(t *testing.T) {
	r := newWaiterRegistry()
	w, cancel := r.Register("k")
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Wait(context.Background())
	}()

	r.notify("k")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestWaiterRegistryContextTimeout(t *testing.T) {
	r := newWaiterRegistry()
	w, cancel := r.Register("k")
	defer cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer ctxCancel()

	err := w.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaiterRegistryCancelRemovesFromQueue(t *testing.T) {
	r := newWaiterRegistry()
	_, cancel := r.Register("k")
	cancel()
	require.NotContains(t, r.waiting, "k")
	// notify on an empty queue must not panic
	r.notify("k")
}
