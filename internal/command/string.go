package command

import (
	"strconv"
	"time"

	"redisd/internal/resp"
	"redisd/internal/store"
)

func (d *Dispatcher) registerString() {
	d.register("SET", -3, true, false, cmdSet)
	d.register("SETNX", 3, true, false, cmdSetNX)
	d.register("SETEX", 4, true, false, cmdSetEX)
	d.register("PSETEX", 4, true, false, cmdPSetEX)
	d.register("GET", 2, false, false, cmdGet)
	d.register("GETSET", 3, true, false, cmdGetSet)
	d.register("GETDEL", 2, true, false, cmdGetDel)
	d.register("GETEX", -2, true, false, cmdGetEx)
	d.register("APPEND", 3, true, false, cmdAppend)
	d.register("STRLEN", 2, false, false, cmdStrlen)
	d.register("INCR", 2, true, false, cmdIncr)
	d.register("DECR", 2, true, false, cmdDecr)
	d.register("INCRBY", 3, true, false, cmdIncrBy)
	d.register("DECRBY", 3, true, false, cmdDecrBy)
	d.register("INCRBYFLOAT", 3, true, false, cmdIncrByFloat)
	d.register("GETRANGE", 4, false, false, cmdGetRange)
	d.register("SETRANGE", 4, true, false, cmdSetRange)
	d.register("SETBIT", 4, true, false, cmdSetBit)
	d.register("GETBIT", 3, false, false, cmdGetBit)
	d.register("MSET", -3, true, false, cmdMSet)
	d.register("MSETNX", -3, true, false, cmdMSetNX)
	d.register("MGET", -2, false, false, cmdMGet)
}

func cmdSet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	val := args[2]

	var ttl time.Duration
	hasTTL := false
	keepTTL := false
	nx, xx := false, false

	for i := 3; i < len(args); i++ {
		switch {
		case eqFold(args[i], "NX"):
			nx = true
		case eqFold(args[i], "XX"):
			xx = true
		case eqFold(args[i], "KEEPTTL"):
			keepTTL = true
		case eqFold(args[i], "EX"):
			i++
			if i >= len(args) {
				return nil, store.ErrSyntax
			}
			secs, err := parseInt(args[i])
			if err != nil {
				return nil, err
			}
			ttl, hasTTL = time.Duration(secs)*time.Second, true
		case eqFold(args[i], "PX"):
			i++
			if i >= len(args) {
				return nil, store.ErrSyntax
			}
			ms, err := parseInt(args[i])
			if err != nil {
				return nil, err
			}
			ttl, hasTTL = time.Duration(ms)*time.Millisecond, true
		default:
			return nil, store.ErrSyntax
		}
	}

	exists := sess.DB().Exists(key)
	if nx && exists {
		return resp.NilBulk(), nil
	}
	if xx && !exists {
		return resp.NilBulk(), nil
	}

	v := newStringValueViaDB(val)
	if keepTTL {
		sess.DB().SetKeepTTL(key, v)
	} else {
		sess.DB().Set(key, v)
		if hasTTL {
			sess.DB().Expire(key, ttl)
		}
	}
	return resp.Simple("OK"), nil
}

func cmdSetNX(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	if sess.DB().Exists(string(args[1])) {
		return resp.Integer(0), nil
	}
	sess.DB().Set(string(args[1]), newStringValueViaDB(args[2]))
	return resp.Integer(1), nil
}

func cmdSetEX(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	secs, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	sess.DB().Set(string(args[1]), newStringValueViaDB(args[3]))
	sess.DB().Expire(string(args[1]), time.Duration(secs)*time.Second)
	return resp.Simple("OK"), nil
}

func cmdPSetEX(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	ms, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	sess.DB().Set(string(args[1]), newStringValueViaDB(args[3]))
	sess.DB().Expire(string(args[1]), time.Duration(ms)*time.Millisecond)
	return resp.Simple("OK"), nil
}

func cmdGet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindString)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.NilBulk(), nil
	}
	return resp.Bulk(v.Str.Bytes()), nil
}

func cmdGetSet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindString)
	if err != nil {
		return nil, err
	}
	sess.DB().Set(string(args[1]), newStringValueViaDB(args[2]))
	if v == nil {
		return resp.NilBulk(), nil
	}
	return resp.Bulk(v.Str.Bytes()), nil
}

func cmdGetDel(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindString)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.NilBulk(), nil
	}
	sess.DB().Del(string(args[1]))
	return resp.Bulk(v.Str.Bytes()), nil
}

func cmdGetEx(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindString)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.NilBulk(), nil
	}
	for i := 2; i < len(args); i++ {
		switch {
		case eqFold(args[i], "PERSIST"):
			sess.DB().Persist(string(args[1]))
		case eqFold(args[i], "EX"):
			i++
			secs, perr := parseInt(args[i])
			if perr != nil {
				return nil, perr
			}
			sess.DB().Expire(string(args[1]), time.Duration(secs)*time.Second)
		case eqFold(args[i], "PX"):
			i++
			ms, perr := parseInt(args[i])
			if perr != nil {
				return nil, perr
			}
			sess.DB().Expire(string(args[1]), time.Duration(ms)*time.Millisecond)
		default:
			return nil, store.ErrSyntax
		}
	}
	return resp.Bulk(v.Str.Bytes()), nil
}

func cmdAppend(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindString)
	if err != nil {
		return nil, err
	}
	if v == nil {
		sess.DB().Set(key, newStringValueViaDB(args[2]))
		return resp.Integer(int64(len(args[2]))), nil
	}
	combined := append(append([]byte(nil), v.Str.Bytes()...), args[2]...)
	sess.DB().SetKeepTTL(key, newStringValueViaDB(combined))
	return resp.Integer(int64(len(combined))), nil
}

func cmdStrlen(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindString)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(v.Str.Len())), nil
}

func incrByHelper(sess *Session, key string, delta int64) (int64, error) {
	v, err := fetchTyped(sess, key, store.KindString)
	if err != nil {
		return 0, err
	}
	cur := int64(0)
	if v != nil {
		n, ok := v.Str.Int64()
		if !ok {
			return 0, store.ErrNotInteger
		}
		cur = n
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, store.ErrOverflow
	}
	sess.DB().SetKeepTTL(key, newStringValueViaDB([]byte(strconv.FormatInt(next, 10))))
	return next, nil
}

func cmdIncr(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	n, err := incrByHelper(sess, string(args[1]), 1)
	if err != nil {
		return nil, err
	}
	return resp.Integer(n), nil
}

func cmdDecr(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	n, err := incrByHelper(sess, string(args[1]), -1)
	if err != nil {
		return nil, err
	}
	return resp.Integer(n), nil
}

func cmdIncrBy(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	delta, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	n, err := incrByHelper(sess, string(args[1]), delta)
	if err != nil {
		return nil, err
	}
	return resp.Integer(n), nil
}

func cmdDecrBy(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	delta, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	n, err := incrByHelper(sess, string(args[1]), -delta)
	if err != nil {
		return nil, err
	}
	return resp.Integer(n), nil
}

func cmdIncrByFloat(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	delta, err := parseFloat(args[2])
	if err != nil {
		return nil, err
	}
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindString)
	if err != nil {
		return nil, err
	}
	cur := 0.0
	if v != nil {
		f, ferr := strconv.ParseFloat(string(v.Str.Bytes()), 64)
		if ferr != nil {
			return nil, store.ErrNotFloat
		}
		cur = f
	}
	next := cur + delta
	out := strconv.FormatFloat(next, 'f', -1, 64)
	sess.DB().SetKeepTTL(key, newStringValueViaDB([]byte(out)))
	return resp.BulkString(out), nil
}

func cmdGetRange(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindString)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.BulkString(""), nil
	}
	start, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return nil, err
	}
	b := v.Str.Bytes()
	s, e, ok := clampRange(int(start), int(stop), len(b))
	if !ok {
		return resp.BulkString(""), nil
	}
	return resp.Bulk(append([]byte(nil), b[s:e+1]...)), nil
}

// clampRange applies GETRANGE/SETRANGE-style inclusive negative-index
// clamping over a byte length rather than an element count.
func clampRange(start, stop, length int) (int, int, bool) {
	if length == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += length
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += length
		if stop < 0 {
			stop = 0
		}
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop || start >= length {
		return 0, 0, false
	}
	return start, stop, true
}

func cmdSetRange(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	offset, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, store.ErrOutOfRange
	}
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindString)
	if err != nil {
		return nil, err
	}
	var cur []byte
	if v != nil {
		cur = append([]byte(nil), v.Str.Bytes()...)
	}
	patch := args[3]
	end := int(offset) + len(patch)
	if end > len(cur) {
		grown := make([]byte, end)
		copy(grown, cur)
		cur = grown
	}
	copy(cur[offset:], patch)
	sess.DB().SetKeepTTL(key, newStringValueViaDB(cur))
	return resp.Integer(int64(len(cur))), nil
}

func cmdSetBit(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	offset, err := parseInt(args[2])
	if err != nil || offset < 0 {
		return nil, store.ErrOutOfRange
	}
	bitVal, err := parseInt(args[3])
	if err != nil || (bitVal != 0 && bitVal != 1) {
		return nil, store.ErrOutOfRange
	}
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindString)
	if err != nil {
		return nil, err
	}
	var cur []byte
	if v != nil {
		cur = append([]byte(nil), v.Str.Bytes()...)
	}
	byteIdx := int(offset / 8)
	bitIdx := uint(7 - offset%8)
	if byteIdx >= len(cur) {
		grown := make([]byte, byteIdx+1)
		copy(grown, cur)
		cur = grown
	}
	old := (cur[byteIdx] >> bitIdx) & 1
	if bitVal == 1 {
		cur[byteIdx] |= 1 << bitIdx
	} else {
		cur[byteIdx] &^= 1 << bitIdx
	}
	sess.DB().SetKeepTTL(key, newStringValueViaDB(cur))
	return resp.Integer(int64(old)), nil
}

func cmdGetBit(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	offset, err := parseInt(args[2])
	if err != nil || offset < 0 {
		return nil, store.ErrOutOfRange
	}
	v, err := fetchTyped(sess, string(args[1]), store.KindString)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	b := v.Str.Bytes()
	byteIdx := int(offset / 8)
	if byteIdx >= len(b) {
		return resp.Integer(0), nil
	}
	bitIdx := uint(7 - offset%8)
	return resp.Integer(int64((b[byteIdx] >> bitIdx) & 1)), nil
}

func cmdMSet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	if (len(args)-1)%2 != 0 {
		return nil, store.ErrSyntax
	}
	for i := 1; i < len(args); i += 2 {
		sess.DB().Set(string(args[i]), newStringValueViaDB(args[i+1]))
	}
	return resp.Simple("OK"), nil
}

func cmdMSetNX(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	if (len(args)-1)%2 != 0 {
		return nil, store.ErrSyntax
	}
	for i := 1; i < len(args); i += 2 {
		if sess.DB().Exists(string(args[i])) {
			return resp.Integer(0), nil
		}
	}
	for i := 1; i < len(args); i += 2 {
		sess.DB().Set(string(args[i]), newStringValueViaDB(args[i+1]))
	}
	return resp.Integer(1), nil
}

func cmdMGet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	items := make([]*resp.Reply, 0, len(args)-1)
	for _, k := range args[1:] {
		v := sess.DB().Get(string(k))
		if v == nil || v.Kind != store.KindString {
			items = append(items, resp.NilBulk())
			continue
		}
		items = append(items, resp.Bulk(v.Str.Bytes()))
	}
	return resp.Array(items...), nil
}
