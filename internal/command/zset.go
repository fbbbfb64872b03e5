package command

import (
	"strconv"

	"redisd/internal/resp"
	"redisd/internal/store"
)

func (d *Dispatcher) registerZSet() {
	d.register("ZADD", -4, true, false, cmdZAdd)
	d.register("ZREM", -3, true, false, cmdZRem)
	d.register("ZSCORE", 3, false, false, cmdZScore)
	d.register("ZMSCORE", -3, false, false, cmdZMScore)
	d.register("ZRANK", 3, false, false, cmdZRank)
	d.register("ZREVRANK", 3, false, false, cmdZRevRank)
	d.register("ZCARD", 2, false, false, cmdZCard)
	d.register("ZRANGE", -4, false, false, cmdZRange)
	d.register("ZREVRANGE", -4, false, false, cmdZRevRange)
	d.register("ZRANGEBYSCORE", -4, false, false, cmdZRangeByScore)
	d.register("ZREVRANGEBYSCORE", -4, false, false, cmdZRevRangeByScore)
	d.register("ZRANGEBYLEX", -4, false, false, cmdZRangeByLex)
	d.register("ZREVRANGEBYLEX", -4, false, false, cmdZRevRangeByLex)
	d.register("ZLEXCOUNT", 4, false, false, cmdZLexCount)
	d.register("ZINCRBY", 4, true, false, cmdZIncrBy)
	d.register("ZCOUNT", 4, false, false, cmdZCount)
	d.register("ZPOPMIN", -2, true, false, cmdZPopMin)
	d.register("ZPOPMAX", -2, true, false, cmdZPopMax)
	d.register("ZREMRANGEBYSCORE", 4, true, false, cmdZRemRangeByScore)
	d.register("ZREMRANGEBYRANK", 4, true, false, cmdZRemRangeByRank)
	d.register("ZUNIONSTORE", -4, true, false, cmdZUnionStore)
	d.register("ZINTERSTORE", -4, true, false, cmdZInterStore)
}

func cmdZAdd(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	i := 2
	nx, xx, ch, incr := false, false, false, false
loop:
	for i < len(args) {
		switch {
		case eqFold(args[i], "NX"):
			nx = true
			i++
		case eqFold(args[i], "XX"):
			xx = true
			i++
		case eqFold(args[i], "CH"):
			ch = true
			i++
		case eqFold(args[i], "INCR"):
			incr = true
			i++
		case eqFold(args[i], "GT"), eqFold(args[i], "LT"):
			i++ // accepted for syntax compatibility; not distinctly enforced
		default:
			break loop
		}
	}
	pairs := args[i:]
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return nil, store.ErrSyntax
	}
	if incr && len(pairs) != 2 {
		return nil, store.ErrSyntax
	}

	v, err := sess.DB().GetOrCreate(key, store.KindZSet, store.NewZSetValue)
	if err != nil {
		return nil, err
	}

	added, changed := int64(0), int64(0)
	var incrResult float64
	var incrOK bool
	for p := 0; p < len(pairs); p += 2 {
		score, serr := parseFloat(pairs[p])
		if serr != nil {
			return nil, serr
		}
		member := string(pairs[p+1])
		old, existed := v.ZSet.Score(member)
		if nx && existed {
			continue
		}
		if xx && !existed {
			continue
		}
		if incr {
			incrResult = v.ZSet.IncrBy(member, score)
			incrOK = true
			if !existed {
				added++
			}
			continue
		}
		if v.ZSet.Add(member, score) {
			added++
			changed++
		} else if existed && old != score {
			changed++
		}
	}

	if incr {
		if !incrOK {
			return resp.NilBulk(), nil
		}
		return resp.BulkString(strconv.FormatFloat(incrResult, 'f', -1, 64)), nil
	}
	if ch {
		return resp.Integer(changed), nil
	}
	return resp.Integer(added), nil
}

func cmdZRem(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindZSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	removed := int64(0)
	for _, m := range args[2:] {
		if v.ZSet.Remove(string(m)) {
			removed++
		}
	}
	sess.DB().DropIfEmpty(key)
	return resp.Integer(removed), nil
}

func cmdZScore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindZSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.NilBulk(), nil
	}
	s, ok := v.ZSet.Score(string(args[2]))
	if !ok {
		return resp.NilBulk(), nil
	}
	return resp.BulkString(formatScore(s)), nil
}

func cmdZMScore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindZSet)
	if err != nil {
		return nil, err
	}
	items := make([]*resp.Reply, len(args)-2)
	for i, m := range args[2:] {
		if v == nil {
			items[i] = resp.NilBulk()
			continue
		}
		s, ok := v.ZSet.Score(string(m))
		if !ok {
			items[i] = resp.NilBulk()
			continue
		}
		items[i] = resp.BulkString(formatScore(s))
	}
	return resp.Array(items...), nil
}

func rankCmd(sess *Session, key, member string, reverse bool) (*resp.Reply, error) {
	v, err := fetchTyped(sess, key, store.KindZSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.NilBulk(), nil
	}
	r, ok := v.ZSet.Rank(member, reverse)
	if !ok {
		return resp.NilBulk(), nil
	}
	return resp.Integer(int64(r)), nil
}

func cmdZRank(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return rankCmd(sess, string(args[1]), string(args[2]), false)
}

func cmdZRevRank(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return rankCmd(sess, string(args[1]), string(args[2]), true)
}

func cmdZCard(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindZSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(v.ZSet.Len())), nil
}

func zMembersReply(ms []store.ZMember, withScores bool) *resp.Reply {
	items := make([]*resp.Reply, 0, len(ms)*2)
	for _, m := range ms {
		items = append(items, resp.BulkString(m.Member))
		if withScores {
			items = append(items, resp.BulkString(formatScore(m.Score)))
		}
	}
	return resp.Array(items...)
}

func rangeByRankCmd(sess *Session, args [][]byte, reverse bool) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindZSet)
	if err != nil {
		return nil, err
	}
	withScores := false
	for _, a := range args[4:] {
		if eqFold(a, "WITHSCORES") {
			withScores = true
		} else {
			return nil, store.ErrSyntax
		}
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
	return zMembersReply(v.ZSet.RangeByRank(int(start), int(stop), reverse), withScores), nil
}

func cmdZRange(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return rangeByRankCmd(sess, args, false)
}

func cmdZRevRange(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return rangeByRankCmd(sess, args, true)
}

// parseBound parses a ZRANGEBYSCORE-style endpoint: "-inf"/"+inf" map to
// Unbounded, a "(" prefix to Excluded, anything else to Included.
func parseBound(b []byte) (store.Bound, error) {
	s := string(b)
	if s == "-inf" || s == "+inf" || s == "inf" {
		return store.Unbounded(), nil
	}
	if len(s) > 0 && s[0] == '(' {
		f, err := parseFloat([]byte(s[1:]))
		if err != nil {
			return store.Bound{}, err
		}
		return store.Excluded(f), nil
	}
	f, err := parseFloat(b)
	if err != nil {
		return store.Bound{}, err
	}
	return store.Included(f), nil
}

func rangeByScoreCmd(sess *Session, args [][]byte, reverse bool) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindZSet)
	if err != nil {
		return nil, err
	}
	lo, hi := args[2], args[3]
	if reverse {
		lo, hi = args[3], args[2]
	}
	min, err := parseBound(lo)
	if err != nil {
		return nil, err
	}
	max, err := parseBound(hi)
	if err != nil {
		return nil, err
	}
	withScores := false
	offset, count := 0, -1
	for i := 4; i < len(args); i++ {
		switch {
		case eqFold(args[i], "WITHSCORES"):
			withScores = true
		case eqFold(args[i], "LIMIT"):
			if i+2 >= len(args) {
				return nil, store.ErrSyntax
			}
			o, operr := parseInt(args[i+1])
			if operr != nil {
				return nil, operr
			}
			c, cerr := parseInt(args[i+2])
			if cerr != nil {
				return nil, cerr
			}
			offset, count = int(o), int(c)
			i += 2
		default:
			return nil, store.ErrSyntax
		}
	}
	if v == nil {
		return resp.Array(), nil
	}
	return zMembersReply(v.ZSet.RangeByScore(min, max, offset, count, reverse), withScores), nil
}

func cmdZRangeByScore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return rangeByScoreCmd(sess, args, false)
}

func cmdZRevRangeByScore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return rangeByScoreCmd(sess, args, true)
}

func parseLexBound(b []byte, isMin bool) (store.LexBound, error) {
	s := string(b)
	switch {
	case s == "-":
		return store.LexUnboundedMin(), nil
	case s == "+":
		return store.LexUnboundedMax(), nil
	case len(s) > 0 && s[0] == '[':
		return store.LexInclusive(s[1:]), nil
	case len(s) > 0 && s[0] == '(':
		return store.LexExclusive(s[1:]), nil
	default:
		return store.LexBound{}, store.ErrSyntax
	}
}

func rangeByLexCmd(sess *Session, args [][]byte, reverse bool) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindZSet)
	if err != nil {
		return nil, err
	}
	lo, hi := args[2], args[3]
	if reverse {
		lo, hi = args[3], args[2]
	}
	min, err := parseLexBound(lo, true)
	if err != nil {
		return nil, err
	}
	max, err := parseLexBound(hi, false)
	if err != nil {
		return nil, err
	}
	offset, count := 0, -1
	for i := 4; i < len(args); i++ {
		if eqFold(args[i], "LIMIT") && i+2 < len(args) {
			o, _ := parseInt(args[i+1])
			c, _ := parseInt(args[i+2])
			offset, count = int(o), int(c)
			i += 2
			continue
		}
		return nil, store.ErrSyntax
	}
	if v == nil {
		return resp.Array(), nil
	}
	return zMembersReply(v.ZSet.RangeByLex(min, max, offset, count, reverse), false), nil
}

func cmdZRangeByLex(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return rangeByLexCmd(sess, args, false)
}

func cmdZRevRangeByLex(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return rangeByLexCmd(sess, args, true)
}

func cmdZLexCount(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindZSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	min, err := parseLexBound(args[2], true)
	if err != nil {
		return nil, err
	}
	max, err := parseLexBound(args[3], false)
	if err != nil {
		return nil, err
	}
	return resp.Integer(int64(v.ZSet.LexCount(min, max))), nil
}

func cmdZIncrBy(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	delta, err := parseFloat(args[2])
	if err != nil {
		return nil, err
	}
	v, err := sess.DB().GetOrCreate(string(args[1]), store.KindZSet, store.NewZSetValue)
	if err != nil {
		return nil, err
	}
	next := v.ZSet.IncrBy(string(args[3]), delta)
	return resp.BulkString(formatScore(next)), nil
}

func cmdZCount(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindZSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	min, err := parseBound(args[2])
	if err != nil {
		return nil, err
	}
	max, err := parseBound(args[3])
	if err != nil {
		return nil, err
	}
	return resp.Integer(int64(v.ZSet.CountByScore(min, max))), nil
}

func popMinMaxCmd(sess *Session, args [][]byte, max bool) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindZSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Array(), nil
	}
	count := 1
	if len(args) == 3 {
		n, perr := parseInt(args[2])
		if perr != nil {
			return nil, perr
		}
		count = int(n)
	}
	var out []store.ZMember
	if max {
		out = v.ZSet.PopMax(count)
	} else {
		out = v.ZSet.PopMin(count)
	}
	sess.DB().DropIfEmpty(key)
	return zMembersReply(out, true), nil
}

func cmdZPopMin(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return popMinMaxCmd(sess, args, false)
}

func cmdZPopMax(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return popMinMaxCmd(sess, args, true)
}

func cmdZRemRangeByScore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindZSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	min, err := parseBound(args[2])
	if err != nil {
		return nil, err
	}
	max, err := parseBound(args[3])
	if err != nil {
		return nil, err
	}
	n := v.ZSet.RemoveRangeByScore(min, max)
	sess.DB().DropIfEmpty(key)
	return resp.Integer(int64(n)), nil
}

func cmdZRemRangeByRank(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindZSet)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	start, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return nil, err
	}
	n := v.ZSet.RemoveRangeByRank(int(start), int(stop))
	sess.DB().DropIfEmpty(key)
	return resp.Integer(int64(n)), nil
}

// parseStoreArgs handles the shared ZUNIONSTORE/ZINTERSTORE grammar:
// dest numkeys key [key ...] [WEIGHTS w [w ...]] [AGGREGATE SUM|MIN|MAX].
func parseStoreArgs(args [][]byte) (dest string, keys []string, weights []float64, mode store.Aggregate, err error) {
	dest = string(args[1])
	numKeys, perr := parseInt(args[2])
	if perr != nil {
		return "", nil, nil, 0, perr
	}
	if int(numKeys) < 1 || 3+int(numKeys) > len(args) {
		return "", nil, nil, 0, store.ErrSyntax
	}
	keys = make([]string, numKeys)
	for i := range keys {
		keys[i] = string(args[3+i])
	}
	weights = make([]float64, numKeys)
	for i := range weights {
		weights[i] = 1
	}
	mode = store.AggSum

	i := 3 + int(numKeys)
	for i < len(args) {
		switch {
		case eqFold(args[i], "WEIGHTS"):
			i++
			for w := 0; w < len(keys); w++ {
				if i >= len(args) {
					return "", nil, nil, 0, store.ErrSyntax
				}
				f, ferr := parseFloat(args[i])
				if ferr != nil {
					return "", nil, nil, 0, ferr
				}
				weights[w] = f
				i++
			}
		case eqFold(args[i], "AGGREGATE"):
			i++
			if i >= len(args) {
				return "", nil, nil, 0, store.ErrSyntax
			}
			switch {
			case eqFold(args[i], "SUM"):
				mode = store.AggSum
			case eqFold(args[i], "MIN"):
				mode = store.AggMin
			case eqFold(args[i], "MAX"):
				mode = store.AggMax
			default:
				return "", nil, nil, 0, store.ErrSyntax
			}
			i++
		default:
			return "", nil, nil, 0, store.ErrSyntax
		}
	}
	return dest, keys, weights, mode, nil
}

func gatherZSets(sess *Session, keys []string) ([]*store.ZSetData, error) {
	sets := make([]*store.ZSetData, len(keys))
	for i, k := range keys {
		v, err := fetchTyped(sess, k, store.KindZSet)
		if err != nil {
			return nil, err
		}
		if v != nil {
			sets[i] = v.ZSet
		} else {
			sets[i] = store.NewZSetValue().ZSet
		}
	}
	return sets, nil
}

func cmdZUnionStore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	dest, keys, weights, mode, err := parseStoreArgs(args)
	if err != nil {
		return nil, err
	}
	sets, err := gatherZSets(sess, keys)
	if err != nil {
		return nil, err
	}
	result := store.ZUnionStore(sets, weights, mode)
	return zStoreResult(sess, dest, result), nil
}

func cmdZInterStore(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	dest, keys, weights, mode, err := parseStoreArgs(args)
	if err != nil {
		return nil, err
	}
	sets, err := gatherZSets(sess, keys)
	if err != nil {
		return nil, err
	}
	result := store.ZInterStore(sets, weights, mode)
	return zStoreResult(sess, dest, result), nil
}

func zStoreResult(sess *Session, dest string, result *store.ZSetData) *resp.Reply {
	if result.Len() == 0 {
		sess.DB().Del(dest)
		return resp.Integer(0)
	}
	sess.DB().Set(dest, &store.Value{Kind: store.KindZSet, ZSet: result})
	return resp.Integer(int64(result.Len()))
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
