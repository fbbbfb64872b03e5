package command

import (
	"redisd/internal/resp"
	"redisd/internal/store"
)

func (d *Dispatcher) registerPubSub() {
	d.register("SUBSCRIBE", -2, false, true, cmdSubscribe)
	d.register("UNSUBSCRIBE", -1, false, true, cmdUnsubscribe)
	d.register("PSUBSCRIBE", -2, false, true, cmdPSubscribe)
	d.register("PUNSUBSCRIBE", -1, false, true, cmdPUnsubscribe)
	d.register("PUBLISH", 3, false, false, cmdPublish)
	d.register("PUBSUB", -2, false, false, cmdPubSub)
}

// subscriber returns sess's registered Subscriber, creating it (with a
// modestly buffered inbox so a slow client doesn't stall publishers) on
// first use.
func subscriber(sess *Session) *store.Subscriber {
	if sess.Subscriber == nil {
		sess.Subscriber = sess.Keyspace.PubSub().NewSubscriber(64)
	}
	return sess.Subscriber
}

func subscribeReply(kind string, channel string, count int) *resp.Reply {
	return resp.Array(resp.BulkString(kind), resp.BulkString(channel), resp.Integer(int64(count)))
}

func cmdSubscribe(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sub := subscriber(sess)
	ps := sess.Keyspace.PubSub()
	replies := make([]*resp.Reply, 0, len(args)-1)
	for _, ch := range args[1:] {
		ps.Subscribe(sub, string(ch))
		replies = append(replies, subscribeReply("subscribe", string(ch), ps.SubscriptionCount(sub)))
	}
	sess.SetSubscribeMode(true)
	return resp.Multi(replies...), nil
}

func cmdUnsubscribe(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sub := subscriber(sess)
	ps := sess.Keyspace.PubSub()
	channels := args[1:]
	if len(channels) == 0 {
		channels = byteSlices(ps.ChannelsOf(sub))
	}
	replies := make([]*resp.Reply, 0, len(channels))
	if len(channels) == 0 {
		replies = append(replies, subscribeReply("unsubscribe", "", ps.SubscriptionCount(sub)))
	}
	for _, ch := range channels {
		ps.Unsubscribe(sub, string(ch))
		replies = append(replies, subscribeReply("unsubscribe", string(ch), ps.SubscriptionCount(sub)))
	}
	if ps.SubscriptionCount(sub) == 0 {
		sess.SetSubscribeMode(false)
	}
	return resp.Multi(replies...), nil
}

func cmdPSubscribe(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sub := subscriber(sess)
	ps := sess.Keyspace.PubSub()
	replies := make([]*resp.Reply, 0, len(args)-1)
	for _, pat := range args[1:] {
		ps.PSubscribe(sub, string(pat))
		replies = append(replies, subscribeReply("psubscribe", string(pat), ps.SubscriptionCount(sub)))
	}
	sess.SetSubscribeMode(true)
	return resp.Multi(replies...), nil
}

func cmdPUnsubscribe(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sub := subscriber(sess)
	ps := sess.Keyspace.PubSub()
	patterns := args[1:]
	if len(patterns) == 0 {
		patterns = byteSlices(ps.PatternsOf(sub))
	}
	replies := make([]*resp.Reply, 0, len(patterns))
	if len(patterns) == 0 {
		replies = append(replies, subscribeReply("punsubscribe", "", ps.SubscriptionCount(sub)))
	}
	for _, pat := range patterns {
		ps.PUnsubscribe(sub, string(pat))
		replies = append(replies, subscribeReply("punsubscribe", string(pat), ps.SubscriptionCount(sub)))
	}
	if ps.SubscriptionCount(sub) == 0 {
		sess.SetSubscribeMode(false)
	}
	return resp.Multi(replies...), nil
}

func cmdPublish(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	n := sess.Keyspace.PubSub().Publish(string(args[1]), args[2])
	return resp.Integer(int64(n)), nil
}

func cmdPubSub(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	ps := sess.Keyspace.PubSub()
	switch sub := string(args[1]); {
	case eqFold(args[1], "CHANNELS"):
		pattern := ""
		if len(args) >= 3 {
			pattern = string(args[2])
		}
		channels := ps.ActiveChannels(pattern)
		items := make([]*resp.Reply, len(channels))
		for i, c := range channels {
			items[i] = resp.BulkString(c)
		}
		return resp.Array(items...), nil
	case eqFold(args[1], "NUMSUB"):
		channels := make([]string, len(args)-2)
		for i, c := range args[2:] {
			channels[i] = string(c)
		}
		counts := ps.NumSub(channels)
		items := make([]*resp.Reply, 0, len(channels)*2)
		for _, c := range channels {
			items = append(items, resp.BulkString(c), resp.Integer(int64(counts[c])))
		}
		return resp.Array(items...), nil
	case eqFold(args[1], "NUMPAT"):
		return resp.Integer(int64(ps.NumPat())), nil
	default:
		_ = sub
		return nil, store.ErrSyntax
	}
}

func byteSlices(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}
