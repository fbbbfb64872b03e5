package command

import (
	"redisd/internal/resp"
	"redisd/internal/store"
)

func (d *Dispatcher) registerSet() {
	d.register("SADD", -3, true, false, cmdSAdd)
	d.register("SREM", -3, true, false, cmdSRem)
	d.register("SISMEMBER", 3, false, false, cmdSIsMember)
	d.register("SMISMEMBER", -3, false, false, cmdSMIsMember)
	d.register("SMEMBERS", 2, false, false, cmdSMembers)
	d.register("SCARD", 2, false, false, cmdSCard)
	d.register("SPOP", -2, true, false, cmdSPop)
	d.register("SRANDMEMBER", -2, false, false, cmdSRandMember)
	d.register("SMOVE", 4, true, false, cmdSMove)
	d.register("SUNION", -2, false, false, cmdSUnion)
	d.register("SINTER", -2, false, false, cmdSInter)
	d.register("SDIFF", -2, false, false, cmdSDiff)
	d.register("SUNIONSTORE", -3, true, false, cmdSUnionStore)
	d.register("SINTERSTORE", -3, true, false, cmdSInterStore)
	d.register("SDIFFSTORE", -3, true, false, cmdSDiffStore)
}

func cmdSAdd(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := sess.DB().GetOrCreate(key, store.KindSet, store.NewSetValue)
	if err != nil {
		return nil, err
	}
	added := int64(0)
	for _, m := range args[2:] {
		if v.Set.Add(append([]byte(nil), m...)) {
			added++
		}
	}
	return resp.Integer(added), nil
}

func cmdSRem(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	removed := int64(0)
	for _, m := range args[2:] {
		if v.Set.Remove(m) {
			removed++
		}
	}
	sess.DB().DropIfEmpty(key)
	return resp.Integer(removed), nil
}

func cmdSIsMember(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	return resp.Integer(boolInt(v.Set.IsMember(args[2]))), nil
}

func cmdSMIsMember(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindSet)
	if err != nil {
		return nil, err
	}
	items := make([]*resp.Reply, len(args)-2)
	for i, m := range args[2:] {
		present := v != nil && v.Set.IsMember(m)
		items[i] = resp.Integer(boolInt(present))
	}
	return resp.Array(items...), nil
}

func cmdSMembers(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Array(), nil
	}
	return bulkArray(v.Set.Members()), nil
}

func cmdSCard(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(v.Set.Len())), nil
}

func cmdSPop(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		if len(args) == 3 {
			return resp.Array(), nil
		}
		return resp.NilBulk(), nil
	}
	count := 1
	wantArray := len(args) == 3
	if wantArray {
		n, perr := parseInt(args[2])
		if perr != nil {
			return nil, perr
		}
		count = int(n)
	}
	popped := v.Set.Pop(count)
	sess.DB().DropIfEmpty(key)
	if !wantArray {
		if len(popped) == 0 {
			return resp.NilBulk(), nil
		}
		return resp.Bulk(popped[0]), nil
	}
	return bulkArray(popped), nil
}

func cmdSRandMember(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindSet)
	if err != nil {
		return nil, err
	}
	if len(args) == 2 {
		if v == nil {
			return resp.NilBulk(), nil
		}
		picked := v.Set.RandomDistinct(1)
		if len(picked) == 0 {
			return resp.NilBulk(), nil
		}
		return resp.Bulk(picked[0]), nil
	}
	n, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Array(), nil
	}
	if n < 0 {
		return bulkArray(v.Set.RandomWithRepeats(int(-n))), nil
	}
	return bulkArray(v.Set.RandomDistinct(int(n))), nil
}

func cmdSMove(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	src, dst, member := string(args[1]), string(args[2]), args[3]
	sv, err := fetchTyped(sess, src, store.KindSet)
	if err != nil {
		return nil, err
	}
	if sv == nil || !sv.Set.IsMember(member) {
		return resp.Integer(0), nil
	}
	dv, err := sess.DB().GetOrCreate(dst, store.KindSet, store.NewSetValue)
	if err != nil {
		return nil, err
	}
	sv.Set.Remove(member)
	dv.Set.Add(append([]byte(nil), member...))
	sess.DB().DropIfEmpty(src)
	return resp.Integer(1), nil
}

func gatherSets(sess *Session, keys [][]byte) ([]*store.SetData, error) {
	sets := make([]*store.SetData, len(keys))
	for i, k := range keys {
		v, err := fetchTyped(sess, string(k), store.KindSet)
		if err != nil {
			return nil, err
		}
		if v != nil {
			sets[i] = v.Set
		}
	}
	return sets, nil
}

func cmdSUnion(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sets, err := gatherSets(sess, args[1:])
	if err != nil {
		return nil, err
	}
	result := setCombine(sets, combineUnion)
	return bulkArray(result.Members()), nil
}

func cmdSInter(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sets, err := gatherSets(sess, args[1:])
	if err != nil {
		return nil, err
	}
	result := setCombine(sets, combineIntersect)
	return bulkArray(result.Members()), nil
}

func cmdSDiff(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sets, err := gatherSets(sess, args[1:])
	if err != nil {
		return nil, err
	}
	result := setCombine(sets, combineDiff)
	return bulkArray(result.Members()), nil
}

type combineMode int

const (
	combineUnion combineMode = iota
	combineIntersect
	combineDiff
)

// setCombine applies the requested set operation across sets, tolerating
// a nil entry (an absent key behaves as an empty set).
func setCombine(sets []*store.SetData, mode combineMode) *store.SetData {
	empty := store.NewSetValue().Set
	first := empty
	if len(sets) > 0 && sets[0] != nil {
		first = sets[0]
	}
	rest := make([]*store.SetData, 0, len(sets)-1)
	for _, s := range sets[1:] {
		if s == nil {
			s = empty
		}
		rest = append(rest, s)
	}
	switch mode {
	case combineIntersect:
		return first.Intersect(rest...)
	case combineDiff:
		return first.Diff(rest...)
	default:
		return first.Union(rest...)
	}
}

func storeCmd(sess *Session, dst string, result *store.SetData) *resp.Reply {
	if result.Len() == 0 {
		sess.DB().Del(dst)
		return resp.Integer(0)
	}
	sess.DB().Set(dst, &store.Value{Kind: store.KindSet, Set: result})
	return resp.Integer(int64(result.Len()))
}

func cmdSUnionStore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sets, err := gatherSets(sess, args[2:])
	if err != nil {
		return nil, err
	}
	return storeCmd(sess, string(args[1]), setCombine(sets, combineUnion)), nil
}

func cmdSInterStore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sets, err := gatherSets(sess, args[2:])
	if err != nil {
		return nil, err
	}
	return storeCmd(sess, string(args[1]), setCombine(sets, combineIntersect)), nil
}

func cmdSDiffStore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sets, err := gatherSets(sess, args[2:])
	if err != nil {
		return nil, err
	}
	return storeCmd(sess, string(args[1]), setCombine(sets, combineDiff)), nil
}

func bulkArray(vals [][]byte) *resp.Reply {
	items := make([]*resp.Reply, len(vals))
	for i, v := range vals {
		items[i] = resp.Bulk(v)
	}
	return resp.Array(items...)
}
