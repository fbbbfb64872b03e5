package command

import (
	"time"

	"redisd/internal/resp"
	"redisd/internal/store"
)

func (d *Dispatcher) registerGeneric() {
	d.register("DEL", -2, true, false, cmdDel)
	d.register("UNLINK", -2, true, false, cmdDel) // no background reclaim distinction in this engine
	d.register("EXISTS", -2, false, false, cmdExists)
	d.register("EXPIRE", 3, true, false, cmdExpire)
	d.register("PEXPIRE", 3, true, false, cmdPExpire)
	d.register("EXPIREAT", 3, true, false, cmdExpireAt)
	d.register("PEXPIREAT", 3, true, false, cmdPExpireAt)
	d.register("PERSIST", 2, true, false, cmdPersist)
	d.register("TTL", 2, false, false, cmdTTL)
	d.register("PTTL", 2, false, false, cmdPTTL)
	d.register("TYPE", 2, false, false, cmdType)
	d.register("RENAME", 3, true, false, cmdRename)
	d.register("RENAMENX", 3, true, false, cmdRenameNX)
	d.register("COPY", -3, true, false, cmdCopy)
	d.register("KEYS", 2, false, false, cmdKeys)
	d.register("RANDOMKEY", 1, false, false, cmdRandomKey)
	d.register("DBSIZE", 1, false, false, cmdDBSize)
	d.register("FLUSHDB", -1, true, false, cmdFlushDB)
	d.register("FLUSHALL", -1, true, false, cmdFlushAll)
	d.register("SELECT", 2, false, false, cmdSelect)
}

func cmdDel(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	n := int64(0)
	for _, k := range args[1:] {
		if sess.DB().Del(string(k)) {
			n++
		}
	}
	return resp.Integer(n), nil
}

func cmdExists(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	n := int64(0)
	for _, k := range args[1:] {
		if sess.DB().Exists(string(k)) {
			n++
		}
	}
	return resp.Integer(n), nil
}

func cmdExpire(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	secs, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	ok := sess.DB().Expire(string(args[1]), time.Duration(secs)*time.Second)
	return resp.Integer(boolInt(ok)), nil
}

func cmdPExpire(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	ms, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	ok := sess.DB().Expire(string(args[1]), time.Duration(ms)*time.Millisecond)
	return resp.Integer(boolInt(ok)), nil
}

func cmdExpireAt(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	secs, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	ok := sess.DB().ExpireAt(string(args[1]), time.Unix(secs, 0))
	return resp.Integer(boolInt(ok)), nil
}

func cmdPExpireAt(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	ms, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	ok := sess.DB().ExpireAt(string(args[1]), time.UnixMilli(ms))
	return resp.Integer(boolInt(ok)), nil
}

func cmdPersist(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	ok := sess.DB().Persist(string(args[1]))
	return resp.Integer(boolInt(ok)), nil
}

func cmdTTL(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	ttl, hasTTL, exists := sess.DB().TTL(string(args[1]))
	switch {
	case !exists:
		return resp.Integer(-2), nil
	case !hasTTL:
		return resp.Integer(-1), nil
	default:
		secs := int64(ttl / time.Second)
		if ttl%time.Second != 0 {
			secs++
		}
		return resp.Integer(secs), nil
	}
}

func cmdPTTL(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	ttl, hasTTL, exists := sess.DB().TTL(string(args[1]))
	switch {
	case !exists:
		return resp.Integer(-2), nil
	case !hasTTL:
		return resp.Integer(-1), nil
	default:
		return resp.Integer(int64(ttl / time.Millisecond)), nil
	}
}

func cmdType(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	t := sess.DB().Type(string(args[1]))
	if t == "" {
		t = "none"
	}
	return resp.Simple(t), nil
}

func cmdRename(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	if !sess.DB().Rename(string(args[1]), string(args[2])) {
		return nil, store.ErrNoSuchKey
	}
	return resp.Simple("OK"), nil
}

func cmdRenameNX(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	ok, srcExists := sess.DB().RenameNX(string(args[1]), string(args[2]))
	if !srcExists {
		return nil, store.ErrNoSuchKey
	}
	return resp.Integer(boolInt(ok)), nil
}

func cmdCopy(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	replace := false
	for _, a := range args[3:] {
		if eqFold(a, "REPLACE") {
			replace = true
			continue
		}
		return nil, store.ErrSyntax
	}
	ok := sess.DB().Copy(string(args[1]), string(args[2]), replace)
	return resp.Integer(boolInt(ok)), nil
}

func cmdKeys(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	keys := sess.DB().Keys(string(args[1]))
	items := make([]*resp.Reply, len(keys))
	for i, k := range keys {
		items[i] = resp.BulkString(k)
	}
	return resp.Array(items...), nil
}

func cmdRandomKey(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	k, ok := sess.DB().RandomKey()
	if !ok {
		return resp.NilBulk(), nil
	}
	return resp.BulkString(k), nil
}

func cmdDBSize(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return resp.Integer(int64(sess.DB().Size())), nil
}

func cmdFlushDB(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sess.DB().Flush()
	return resp.Simple("OK"), nil
}

// cmdFlushAll touches every logical database, not just the current one
// Dispatch already holds the lock for: the current database is flushed
// directly (the lock is already held across this whole call), every
// other database is locked individually around its own Flush.
func cmdFlushAll(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	cur := sess.DB()
	for i := 0; i < sess.Keyspace.Count(); i++ {
		db := sess.Keyspace.DB(i)
		if db == cur {
			db.Flush()
			continue
		}
		db.Lock()
		db.Flush()
		db.Unlock()
	}
	return resp.Simple("OK"), nil
}

func cmdSelect(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	idx, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	if idx < 0 || int(idx) >= sess.Keyspace.Count() {
		return nil, store.ErrOutOfRange
	}
	sess.DBIndex = int(idx)
	return resp.Simple("OK"), nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
