package store

import (
	"sync"
	"time"
)

// entry pairs a keyspace Value with its optional expiration instant. The
// expirations index (spec.md §3 invariant: "the expirations map only
// contains keys that are still live") is kept implicitly here by deleting
// both together rather than as a second map, which removes the
// possibility of the two falling out of sync.
type entry struct {
	value   *Value
	expires time.Time // zero if the key has no TTL
}

func (e *entry) hasTTL() bool { return !e.expires.IsZero() }

// Database is one logical keyspace (spec.md §3). A Keyspace holds N of
// these (16 by default), each guarded by a single exclusive mutex
// (spec.md §5/§9). The lock is not taken by the methods below: it is
// held by the command dispatcher across an entire handler invocation
// (Lock/Unlock), so that fetching a container value and mutating its
// internals stays one critical section instead of two. Callers that
// reach into a Database outside of dispatch (the active-expiration
// sweep, or a handler touching a database other than the current one,
// e.g. FLUSHALL) must bracket their own calls with Lock/Unlock.
type Database struct {
	mu      sync.Mutex
	index   int
	keys    map[string]*entry
	waiters *waiterRegistry
}

// Lock and Unlock expose the database's single exclusive mutex. Command
// dispatch acquires it before invoking a handler and releases it after
// (spec.md §5: "command dispatch acquires the lock, executes the
// handler synchronously, and releases"); a handler that blocks (BLPOP
// and friends) unlocks around the wait and relocks before retrying so
// other connections can still make progress while it sleeps.
func (db *Database) Lock()   { db.mu.Lock() }
func (db *Database) Unlock() { db.mu.Unlock() }

func newDatabase(index int) *Database {
	return &Database{
		index:   index,
		keys:    make(map[string]*entry),
		waiters: newWaiterRegistry(),
	}
}

func (db *Database) Index() int { return db.index }

// expireIfNeeded deletes key if it carries a TTL that has passed. Callers
// hold db.mu. This is the single funnel both lazy (per-lookup) and active
// (background sweep) expiration go through, so the two can never disagree
// about whether a key is expired.
func (db *Database) expireIfNeeded(key string, now time.Time) bool {
	e, ok := db.keys[key]
	if !ok {
		return false
	}
	if !e.hasTTL() || e.expires.After(now) {
		return false
	}
	delete(db.keys, key)
	return true
}

// lookup returns the live entry for key, expiring it first if due. Callers
// hold db.mu.
func (db *Database) lookup(key string) (*entry, bool) {
	db.expireIfNeeded(key, time.Now())
	e, ok := db.keys[key]
	return e, ok
}

// Get returns the Value stored at key, or nil if absent or expired.
func (db *Database) Get(key string) *Value {
	e, ok := db.lookup(key)
	if !ok {
		return nil
	}
	return e.value
}

// GetOrCreate returns the existing Value at key if it has the expected
// kind, or creates one via makeFn, storing it without a TTL. Returns
// ErrWrongType if an existing value has a different kind.
func (db *Database) GetOrCreate(key string, kind Kind, makeFn func() *Value) (*Value, error) {
	if e, ok := db.lookup(key); ok {
		if e.value.Kind != kind {
			return nil, ErrWrongType
		}
		return e.value, nil
	}
	v := makeFn()
	db.keys[key] = &entry{value: v}
	return v, nil
}

// Set stores value at key unconditionally, clearing any previous TTL
// (matching SET's default TTL-clearing behavior from spec.md §4.1).
func (db *Database) Set(key string, value *Value) {
	db.keys[key] = &entry{value: value}
}

// SetKeepTTL stores value at key, preserving any existing TTL (SET ...
// KEEPTTL).
func (db *Database) SetKeepTTL(key string, value *Value) {
	var expires time.Time
	if e, ok := db.keys[key]; ok {
		expires = e.expires
	}
	db.keys[key] = &entry{value: value, expires: expires}
}

// DropIfEmpty removes key from the keyspace if its container value has
// become empty (spec.md §3 Lifecycles: an emptied container ceases to
// exist, same as DEL).
func (db *Database) DropIfEmpty(key string) {
	e, ok := db.keys[key]
	if ok && e.value.Empty() {
		delete(db.keys, key)
	}
}

// Del removes key, returning whether it existed (and was live).
func (db *Database) Del(key string) bool {
	_, ok := db.lookup(key)
	if ok {
		delete(db.keys, key)
	}
	return ok
}

// Exists reports whether key is present and live.
func (db *Database) Exists(key string) bool {
	_, ok := db.lookup(key)
	return ok
}

// Rename moves src's value (and TTL) to dst, overwriting dst if present.
// Returns false if src does not exist.
func (db *Database) Rename(src, dst string) bool {
	e, ok := db.lookup(src)
	if !ok {
		return false
	}
	delete(db.keys, src)
	db.keys[dst] = e
	return true
}

// RenameNX is Rename but refuses when dst already exists.
func (db *Database) RenameNX(src, dst string) (bool, bool) {
	if _, ok := db.lookup(src); !ok {
		return false, false
	}
	if _, ok := db.lookup(dst); ok {
		return false, true
	}
	e := db.keys[src]
	delete(db.keys, src)
	db.keys[dst] = e
	return true, true
}

// Copy duplicates src's value to dst. replace controls whether an
// existing dst is overwritten.
func (db *Database) Copy(src, dst string, replace bool) bool {
	e, ok := db.lookup(src)
	if !ok {
		return false
	}
	if _, exists := db.lookup(dst); exists && !replace {
		return false
	}
	db.keys[dst] = &entry{value: cloneValue(e.value), expires: e.expires}
	return true
}

// Expire sets key's TTL to now+ttl. Returns false if key does not exist.
func (db *Database) Expire(key string, ttl time.Duration) bool {
	e, ok := db.lookup(key)
	if !ok {
		return false
	}
	e.expires = time.Now().Add(ttl)
	return true
}

// ExpireAt sets key's TTL to an absolute instant.
func (db *Database) ExpireAt(key string, at time.Time) bool {
	e, ok := db.lookup(key)
	if !ok {
		return false
	}
	e.expires = at
	return true
}

// Persist clears key's TTL. Returns true if a TTL was actually removed.
func (db *Database) Persist(key string) bool {
	e, ok := db.lookup(key)
	if !ok || !e.hasTTL() {
		return false
	}
	e.expires = time.Time{}
	return true
}

// TTL returns key's remaining time-to-live, ok=false if the key has none
// or does not exist; exists reports whether the key is present at all.
func (db *Database) TTL(key string) (ttl time.Duration, hasTTL bool, exists bool) {
	e, ok := db.lookup(key)
	if !ok {
		return 0, false, false
	}
	if !e.hasTTL() {
		return 0, false, true
	}
	return time.Until(e.expires), true, true
}

// Keys returns every live key matching glob pattern pattern (KEYS).
func (db *Database) Keys(pattern string) []string {
	now := time.Now()
	out := make([]string, 0, len(db.keys))
	for k, e := range db.keys {
		if !e.hasTTL() || e.expires.After(now) {
			if pattern == "*" || globMatch(pattern, k) {
				out = append(out, k)
			}
		}
	}
	return out
}

// RandomKey returns an arbitrary live key, or "" if the database is
// empty.
func (db *Database) RandomKey() (string, bool) {
	now := time.Now()
	for k, e := range db.keys {
		if !e.hasTTL() || e.expires.After(now) {
			return k, true
		}
	}
	return "", false
}

// Size returns the number of live keys, expiring any due ones first.
func (db *Database) Size() int {
	now := time.Now()
	for k := range db.keys {
		db.expireIfNeeded(k, now)
	}
	return len(db.keys)
}

// Flush removes every key.
func (db *Database) Flush() {
	db.keys = make(map[string]*entry)
}

// ActiveExpireCycle sweeps up to budget keys, deleting expired ones, and
// returns how many were removed. It is driven on a timer by the server
// (spec.md §9's "active expiration" complement to lazy expiration), not
// by command handlers.
func (db *Database) ActiveExpireCycle(budget int) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := time.Now()
	removed := 0
	for k := range db.keys {
		if budget <= 0 {
			break
		}
		budget--
		if db.expireIfNeeded(k, now) {
			removed++
		}
	}
	return removed
}

// Type returns the kind name at key, or "" if absent.
func (db *Database) Type(key string) string {
	e, ok := db.lookup(key)
	if !ok {
		return ""
	}
	return e.value.Kind.String()
}

// Waiters exposes the database's blocking-command waiter registry.
func (db *Database) Waiters() *waiterRegistry { return db.waiters }

// Notify wakes any blocking-command waiters registered on key. Callers
// invoke this after a push-style mutation (RPUSH, LPUSH, ...) while still
// holding whatever lock guards the mutation's visibility, so a waiter
// woken here is guaranteed to observe the new element on its next Get.
func (db *Database) Notify(key string) {
	db.waiters.notify(key)
}

func cloneValue(v *Value) *Value {
	switch v.Kind {
	case KindString:
		return &Value{Kind: KindString, Str: newStringData(append([]byte(nil), v.Str.Bytes()...))}
	case KindList:
		nl := newListValue()
		for _, b := range v.List.ToSlice() {
			nl.List.PushBack(append([]byte(nil), b...))
		}
		return nl
	case KindSet:
		ns := newSetValue()
		for _, m := range v.Set.Members() {
			ns.Set.Add(append([]byte(nil), m...))
		}
		return ns
	case KindZSet:
		nz := newZSetValue()
		for _, m := range v.ZSet.MembersSortedByScore() {
			nz.ZSet.Add(m.Member, m.Score)
		}
		return nz
	case KindHash:
		nh := newHashValue()
		for f, val := range v.Hash {
			nh.Hash.Set([]byte(f), append([]byte(nil), val...))
		}
		return nh
	default:
		return v
	}
}

// Keyspace holds every logical database a server exposes (spec.md §3's
// "multi-database keyspace"). DefaultDatabaseCount matches stock Redis.
const DefaultDatabaseCount = 16

type Keyspace struct {
	dbs    []*Database
	pubsub *PubSub
}

func NewKeyspace(count int) *Keyspace {
	if count <= 0 {
		count = DefaultDatabaseCount
	}
	ks := &Keyspace{dbs: make([]*Database, count), pubsub: newPubSub()}
	for i := range ks.dbs {
		ks.dbs[i] = newDatabase(i)
	}
	return ks
}

func (ks *Keyspace) Count() int { return len(ks.dbs) }

// PubSub exposes the keyspace-wide publish/subscribe registry. Unlike the
// keyspace itself, subscriptions are not partitioned per logical database
// (spec.md §3: subscribers/psubscribers are fields of the outer record, not
// the per-database state), matching real Redis where SELECT never affects
// an existing subscription's channel.
func (ks *Keyspace) PubSub() *PubSub { return ks.pubsub }

// DB returns the logical database at index, or nil if out of range.
func (ks *Keyspace) DB(index int) *Database {
	if index < 0 || index >= len(ks.dbs) {
		return nil
	}
	return ks.dbs[index]
}

// ActiveExpireAll runs one active-expiration sweep across every database,
// spending the given per-database budget, and returns the total removed.
func (ks *Keyspace) ActiveExpireAll(perDBBudget int) int {
	total := 0
	for _, db := range ks.dbs {
		total += db.ActiveExpireCycle(perDBBudget)
	}
	return total
}
