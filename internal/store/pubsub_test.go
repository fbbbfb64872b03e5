package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPubSubPublishToChannel(t *testing.T) {
	ps := newPubSub()
	sub := ps.NewSubscriber(4)
	ps.Subscribe(sub, "news")

	n := ps.Publish("news", []byte("hello"))
	require.Equal(t, 1, n)

	msg := <-sub.Inbox
	require.Equal(t, "news", msg.Channel)
	require.Equal(t, "hello", string(msg.Payload))
}

func TestPubSubPatternMatch(t *testing.T) {
	ps := newPubSub()
	sub := ps.NewSubscriber(4)
	ps.PSubscribe(sub, "news.*")

	n := ps.Publish("news.sports", []byte("x"))
	require.Equal(t, 1, n)
	msg := <-sub.Inbox
	require.Equal(t, "news.*", msg.Pattern)
}

func TestPubSubUnsubscribeAll(t *testing.T) {
	ps := newPubSub()
	sub := ps.NewSubscriber(4)
	ps.Subscribe(sub, "a")
	ps.Subscribe(sub, "b")
	require.Equal(t, 2, ps.SubscriptionCount(sub))

	ps.Remove(sub)
	require.Equal(t, 0, ps.SubscriptionCount(sub))
	require.Equal(t, 0, ps.Publish("a", []byte("x")))
}

func TestPubSubNumSubNumPat(t *testing.T) {
	ps := newPubSub()
	sub1 := ps.NewSubscriber(1)
	sub2 := ps.NewSubscriber(1)
	ps.Subscribe(sub1, "a")
	ps.Subscribe(sub2, "a")
	ps.PSubscribe(sub1, "x*")

	counts := ps.NumSub([]string{"a", "missing"})
	require.Equal(t, 2, counts["a"])
	require.Equal(t, 0, counts["missing"])
	require.Equal(t, 1, ps.NumPat())
}
