package store

import "sync"

// Message is one published event delivered to a subscriber, shaped for
// direct RESP encoding by the connection layer (spec.md §4.4).
type Message struct {
	Pattern string // non-empty only for pattern-matched deliveries
	Channel string
	Payload []byte
}

// Subscriber is a connection's inbound mailbox plus its subscription
// bookkeeping. ID is process-unique so unsubscribe on
// disconnect is an O(1) map delete rather than a scan (spec.md §4.4).
type Subscriber struct {
	ID     uint64
	Inbox  chan *Message
	closed bool
}

// PubSub is the keyspace-wide exact-channel and glob-pattern subscriber
// registry, grounded on the teacher's PubSub/PatternTrie but simplified:
// subscriber IDs are uint64s assigned by the registry itself rather than
// caller-supplied strings, and pattern matching reuses globMatch instead
// of a regex translation layer.
type PubSub struct {
	mu       sync.Mutex
	nextID   uint64
	channels map[string]map[uint64]*Subscriber
	patterns map[string]map[uint64]*Subscriber
	subs     map[uint64]*Subscriber
	subChans map[uint64]map[string]bool
	subPats  map[uint64]map[string]bool
}

func newPubSub() *PubSub {
	return &PubSub{
		channels: make(map[string]map[uint64]*Subscriber),
		patterns: make(map[string]map[uint64]*Subscriber),
		subs:     make(map[uint64]*Subscriber),
		subChans: make(map[uint64]map[string]bool),
		subPats:  make(map[uint64]map[string]bool),
	}
}

// NewSubscriber registers a fresh subscriber with a buffered inbox and
// returns it. The caller (the connection layer) owns draining Inbox.
func (ps *PubSub) NewSubscriber(inboxSize int) *Subscriber {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.nextID++
	sub := &Subscriber{ID: ps.nextID, Inbox: make(chan *Message, inboxSize)}
	ps.subs[sub.ID] = sub
	return sub
}

func (ps *PubSub) Subscribe(sub *Subscriber, channel string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.channels[channel] == nil {
		ps.channels[channel] = make(map[uint64]*Subscriber)
	}
	ps.channels[channel][sub.ID] = sub
	if ps.subChans[sub.ID] == nil {
		ps.subChans[sub.ID] = make(map[string]bool)
	}
	ps.subChans[sub.ID][channel] = true
}

func (ps *PubSub) Unsubscribe(sub *Subscriber, channel string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if subs, ok := ps.channels[channel]; ok {
		delete(subs, sub.ID)
		if len(subs) == 0 {
			delete(ps.channels, channel)
		}
	}
	delete(ps.subChans[sub.ID], channel)
}

func (ps *PubSub) PSubscribe(sub *Subscriber, pattern string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.patterns[pattern] == nil {
		ps.patterns[pattern] = make(map[uint64]*Subscriber)
	}
	ps.patterns[pattern][sub.ID] = sub
	if ps.subPats[sub.ID] == nil {
		ps.subPats[sub.ID] = make(map[string]bool)
	}
	ps.subPats[sub.ID][pattern] = true
}

func (ps *PubSub) PUnsubscribe(sub *Subscriber, pattern string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if subs, ok := ps.patterns[pattern]; ok {
		delete(subs, sub.ID)
		if len(subs) == 0 {
			delete(ps.patterns, pattern)
		}
	}
	delete(ps.subPats[sub.ID], pattern)
}

// ChannelsOf / PatternsOf list a subscriber's current subscriptions, used
// for UNSUBSCRIBE/PUNSUBSCRIBE with no arguments and for CLIENT
// introspection.
func (ps *PubSub) ChannelsOf(sub *Subscriber) []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]string, 0, len(ps.subChans[sub.ID]))
	for c := range ps.subChans[sub.ID] {
		out = append(out, c)
	}
	return out
}

func (ps *PubSub) PatternsOf(sub *Subscriber) []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]string, 0, len(ps.subPats[sub.ID]))
	for p := range ps.subPats[sub.ID] {
		out = append(out, p)
	}
	return out
}

// SubscriptionCount is the total channel+pattern subscriptions held by
// sub, the count PUBLISH-adjacent commands echo back to the client.
func (ps *PubSub) SubscriptionCount(sub *Subscriber) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.subChans[sub.ID]) + len(ps.subPats[sub.ID])
}

// Remove tears down every subscription sub holds, used on disconnect.
func (ps *PubSub) Remove(sub *Subscriber) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for c := range ps.subChans[sub.ID] {
		if subs, ok := ps.channels[c]; ok {
			delete(subs, sub.ID)
			if len(subs) == 0 {
				delete(ps.channels, c)
			}
		}
	}
	for p := range ps.subPats[sub.ID] {
		if subs, ok := ps.patterns[p]; ok {
			delete(subs, sub.ID)
			if len(subs) == 0 {
				delete(ps.patterns, p)
			}
		}
	}
	delete(ps.subChans, sub.ID)
	delete(ps.subPats, sub.ID)
	delete(ps.subs, sub.ID)
}

// Publish delivers payload to every exact-channel and matching-pattern
// subscriber, dropping the message for any subscriber whose inbox is full
// rather than blocking the publisher. Returns the delivery count.
func (ps *PubSub) Publish(channel string, payload []byte) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	count := 0
	for _, sub := range ps.channels[channel] {
		select {
		case sub.Inbox <- &Message{Channel: channel, Payload: payload}:
			count++
		default:
		}
	}
	for pattern, subs := range ps.patterns {
		if !globMatch(pattern, channel) {
			continue
		}
		for _, sub := range subs {
			select {
			case sub.Inbox <- &Message{Pattern: pattern, Channel: channel, Payload: payload}:
				count++
			default:
			}
		}
	}
	return count
}

// NumSub returns subscriber counts for the given channels (PUBSUB NUMSUB).
func (ps *PubSub) NumSub(channels []string) map[string]int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make(map[string]int, len(channels))
	for _, c := range channels {
		out[c] = len(ps.channels[c])
	}
	return out
}

// NumPat returns the number of distinct patterns with subscribers
// (PUBSUB NUMPAT).
func (ps *PubSub) NumPat() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.patterns)
}

// ActiveChannels lists channels with at least one subscriber, optionally
// filtered by glob pattern (PUBSUB CHANNELS).
func (ps *PubSub) ActiveChannels(pattern string) []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]string, 0, len(ps.channels))
	for c := range ps.channels {
		if pattern == "" || globMatch(pattern, c) {
			out = append(out, c)
		}
	}
	return out
}
