package command

import (
	"redisd/internal/resp"
	"redisd/internal/store"
)

func (d *Dispatcher) registerList() {
	d.register("LPUSH", -3, true, false, cmdLPush)
	d.register("RPUSH", -3, true, false, cmdRPush)
	d.register("LPUSHX", -3, true, false, cmdLPushX)
	d.register("RPUSHX", -3, true, false, cmdRPushX)
	d.register("LPOP", -2, true, false, cmdLPop)
	d.register("RPOP", -2, true, false, cmdRPop)
	d.register("LLEN", 2, false, false, cmdLLen)
	d.register("LINDEX", 3, false, false, cmdLIndex)
	d.register("LSET", 4, true, false, cmdLSet)
	d.register("LRANGE", 4, false, false, cmdLRange)
	d.register("LREM", 4, true, false, cmdLRem)
	d.register("LTRIM", 4, true, false, cmdLTrim)
	d.register("LINSERT", 5, true, false, cmdLInsert)
	d.register("RPOPLPUSH", 3, true, false, cmdRPopLPush)
	d.register("BLPOP", -3, true, false, cmdBLPop)
	d.register("BRPOP", -3, true, false, cmdBRPop)
	d.register("BRPOPLPUSH", 4, true, false, cmdBRPopLPush)
	d.register("BLMOVE", 6, true, false, cmdBLMove)
}

func cmdLPush(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return pushCmd(sess, args, true)
}

func cmdRPush(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return pushCmd(sess, args, false)
}

func pushCmd(sess *Session, args [][]byte, front bool) (*resp.Reply, error) {
	key := string(args[1])
	v, err := sess.DB().GetOrCreate(key, store.KindList, store.NewListValue)
	if err != nil {
		return nil, err
	}
	for _, val := range args[2:] {
		if front {
			v.List.PushFront(append([]byte(nil), val...))
		} else {
			v.List.PushBack(append([]byte(nil), val...))
		}
	}
	sess.DB().Notify(key)
	return resp.Integer(int64(v.List.Len())), nil
}

func cmdLPushX(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return pushXCmd(sess, args, true)
}

func cmdRPushX(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return pushXCmd(sess, args, false)
}

func pushXCmd(sess *Session, args [][]byte, front bool) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindList)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	for _, val := range args[2:] {
		if front {
			v.List.PushFront(append([]byte(nil), val...))
		} else {
			v.List.PushBack(append([]byte(nil), val...))
		}
	}
	sess.DB().Notify(key)
	return resp.Integer(int64(v.List.Len())), nil
}

func popCmd(sess *Session, key string, front bool, count int) []*resp.Reply {
	v, err := fetchTyped(sess, key, store.KindList)
	if err != nil || v == nil {
		return nil
	}
	out := make([]*resp.Reply, 0, count)
	for i := 0; i < count; i++ {
		var b []byte
		var ok bool
		if front {
			b, ok = v.List.PopFront()
		} else {
			b, ok = v.List.PopBack()
		}
		if !ok {
			break
		}
		out = append(out, resp.Bulk(b))
	}
	sess.DB().DropIfEmpty(key)
	return out
}

func cmdLPop(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return popWithOptionalCount(sess, args, true)
}

func cmdRPop(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return popWithOptionalCount(sess, args, false)
}

func popWithOptionalCount(sess *Session, args [][]byte, front bool) (*resp.Reply, error) {
	key := string(args[1])
	if len(args) == 2 {
		out := popCmd(sess, key, front, 1)
		if len(out) == 0 {
			return resp.NilBulk(), nil
		}
		return out[0], nil
	}
	count, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	out := popCmd(sess, key, front, int(count))
	if out == nil {
		return resp.NilArray(), nil
	}
	return resp.Array(out...), nil
}

func cmdLLen(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindList)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(v.List.Len())), nil
}

func cmdLIndex(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindList)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.NilBulk(), nil
	}
	idx, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	b, ok := v.List.Index(int(idx))
	if !ok {
		return resp.NilBulk(), nil
	}
	return resp.Bulk(b), nil
}

func cmdLSet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindList)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, store.ErrNoSuchKey
	}
	idx, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	if !v.List.Set(int(idx), append([]byte(nil), args[3]...)) {
		return nil, store.ErrOutOfRange
	}
	return resp.Simple("OK"), nil
}

func cmdLRange(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindList)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Array(), nil
	}
	start, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return nil, err
	}
	vals := v.List.Range(int(start), int(stop))
	items := make([]*resp.Reply, len(vals))
	for i, b := range vals {
		items[i] = resp.Bulk(b)
	}
	return resp.Array(items...), nil
}

func cmdLRem(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindList)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	count, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	removed := v.List.Remove(int(count), args[3])
	sess.DB().DropIfEmpty(key)
	return resp.Integer(int64(removed)), nil
}

func cmdLTrim(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindList)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Simple("OK"), nil
	}
	start, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return nil, err
	}
	v.List.Trim(int(start), int(stop))
	sess.DB().DropIfEmpty(key)
	return resp.Simple("OK"), nil
}

func cmdLInsert(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindList)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	var before bool
	switch {
	case eqFold(args[2], "BEFORE"):
		before = true
	case eqFold(args[2], "AFTER"):
		before = false
	default:
		return nil, store.ErrSyntax
	}
	n := v.List.Insert(before, args[3], append([]byte(nil), args[4]...))
	return resp.Integer(int64(n)), nil
}

func cmdRPopLPush(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return moveOne(sess, string(args[1]), string(args[2]), false, true)
}

// moveOne pops one element from src (tail if !srcFront) and pushes it
// onto dst (head if dstFront), the shared core of RPOPLPUSH/BLMOVE.
func moveOne(sess *Session, src, dst string, srcFront, dstFront bool) (*resp.Reply, error) {
	sv, err := fetchTyped(sess, src, store.KindList)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return resp.NilBulk(), nil
	}
	var b []byte
	var ok bool
	if srcFront {
		b, ok = sv.List.PopFront()
	} else {
		b, ok = sv.List.PopBack()
	}
	if !ok {
		return resp.NilBulk(), nil
	}
	sess.DB().DropIfEmpty(src)

	dv, err := sess.DB().GetOrCreate(dst, store.KindList, store.NewListValue)
	if err != nil {
		return nil, err
	}
	if dstFront {
		dv.List.PushFront(b)
	} else {
		dv.List.PushBack(b)
	}
	sess.DB().Notify(dst)
	return resp.Bulk(b), nil
}
