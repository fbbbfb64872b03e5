package command

import (
	"math/rand"
	"strconv"

	"redisd/internal/resp"
	"redisd/internal/store"
)

// randomField/randomFieldsDistinct/randomFieldsWithRepeats mirror
// SetData's RandomDistinct/RandomWithRepeats for HRANDFIELD, since
// HashData exposes no such helper of its own.
func randomField(fields []string) string {
	return fields[rand.Intn(len(fields))]
}

func randomFieldsDistinct(fields []string, count int) []string {
	all := append([]string(nil), fields...)
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if count > len(all) {
		count = len(all)
	}
	return all[:count]
}

func randomFieldsWithRepeats(fields []string, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = fields[rand.Intn(len(fields))]
	}
	return out
}

func (d *Dispatcher) registerHash() {
	d.register("HSET", -4, true, false, cmdHSet)
	d.register("HSETNX", 4, true, false, cmdHSetNX)
	d.register("HGET", 3, false, false, cmdHGet)
	d.register("HMSET", -4, true, false, cmdHMSet)
	d.register("HMGET", -3, false, false, cmdHMGet)
	d.register("HDEL", -3, true, false, cmdHDel)
	d.register("HEXISTS", 3, false, false, cmdHExists)
	d.register("HLEN", 2, false, false, cmdHLen)
	d.register("HSTRLEN", 3, false, false, cmdHStrLen)
	d.register("HKEYS", 2, false, false, cmdHKeys)
	d.register("HVALS", 2, false, false, cmdHVals)
	d.register("HGETALL", 2, false, false, cmdHGetAll)
	d.register("HINCRBY", 4, true, false, cmdHIncrBy)
	d.register("HINCRBYFLOAT", 4, true, false, cmdHIncrByFloat)
	d.register("HRANDFIELD", -2, false, false, cmdHRandField)
}

func cmdHSet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	pairs := args[2:]
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return nil, store.ErrSyntax
	}
	v, err := sess.DB().GetOrCreate(string(args[1]), store.KindHash, store.NewHashValue)
	if err != nil {
		return nil, err
	}
	added := int64(0)
	for p := 0; p < len(pairs); p += 2 {
		if v.Hash.Set(pairs[p], append([]byte(nil), pairs[p+1]...)) {
			added++
		}
	}
	return resp.Integer(added), nil
}

func cmdHMSet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	if _, err := cmdHSet(d, sess, args); err != nil {
		return nil, err
	}
	return resp.Simple("OK"), nil
}

func cmdHSetNX(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := sess.DB().GetOrCreate(string(args[1]), store.KindHash, store.NewHashValue)
	if err != nil {
		return nil, err
	}
	if _, exists := v.Hash.Get(args[2]); exists {
		return resp.Integer(0), nil
	}
	v.Hash.Set(args[2], append([]byte(nil), args[3]...))
	return resp.Integer(1), nil
}

func cmdHGet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindHash)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.NilBulk(), nil
	}
	val, ok := v.Hash.Get(args[2])
	if !ok {
		return resp.NilBulk(), nil
	}
	return resp.Bulk(val), nil
}

func cmdHMGet(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindHash)
	if err != nil {
		return nil, err
	}
	items := make([]*resp.Reply, len(args)-2)
	for i, f := range args[2:] {
		if v == nil {
			items[i] = resp.NilBulk()
			continue
		}
		val, ok := v.Hash.Get(f)
		if !ok {
			items[i] = resp.NilBulk()
			continue
		}
		items[i] = resp.Bulk(val)
	}
	return resp.Array(items...), nil
}

func cmdHDel(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	key := string(args[1])
	v, err := fetchTyped(sess, key, store.KindHash)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	removed := int64(0)
	for _, f := range args[2:] {
		if v.Hash.Del(f) {
			removed++
		}
	}
	sess.DB().DropIfEmpty(key)
	return resp.Integer(removed), nil
}

func cmdHExists(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindHash)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	_, ok := v.Hash.Get(args[2])
	return resp.Integer(boolInt(ok)), nil
}

func cmdHLen(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindHash)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(len(v.Hash))), nil
}

func cmdHStrLen(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindHash)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Integer(0), nil
	}
	val, ok := v.Hash.Get(args[2])
	if !ok {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(len(val))), nil
}

func cmdHKeys(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindHash)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Array(), nil
	}
	items := make([]*resp.Reply, 0, len(v.Hash))
	for f := range v.Hash {
		items = append(items, resp.BulkString(f))
	}
	return resp.Array(items...), nil
}

func cmdHVals(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindHash)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Array(), nil
	}
	items := make([]*resp.Reply, 0, len(v.Hash))
	for _, val := range v.Hash {
		items = append(items, resp.Bulk(val))
	}
	return resp.Array(items...), nil
}

func cmdHGetAll(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindHash)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return resp.Array(), nil
	}
	items := make([]*resp.Reply, 0, len(v.Hash)*2)
	for f, val := range v.Hash {
		items = append(items, resp.BulkString(f), resp.Bulk(val))
	}
	return resp.Array(items...), nil
}

func cmdHIncrBy(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	delta, err := parseInt(args[3])
	if err != nil {
		return nil, err
	}
	v, err := sess.DB().GetOrCreate(string(args[1]), store.KindHash, store.NewHashValue)
	if err != nil {
		return nil, err
	}
	cur := int64(0)
	if raw, ok := v.Hash.Get(args[2]); ok {
		cur, err = parseInt(raw)
		if err != nil {
			return nil, err
		}
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return nil, store.ErrOverflow
	}
	v.Hash.Set(args[2], []byte(strconv.FormatInt(next, 10)))
	return resp.Integer(next), nil
}

func cmdHIncrByFloat(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	delta, err := parseFloat(args[3])
	if err != nil {
		return nil, err
	}
	v, err := sess.DB().GetOrCreate(string(args[1]), store.KindHash, store.NewHashValue)
	if err != nil {
		return nil, err
	}
	cur := 0.0
	if raw, ok := v.Hash.Get(args[2]); ok {
		cur, err = parseFloat(raw)
		if err != nil {
			return nil, err
		}
	}
	next := cur + delta
	out := strconv.FormatFloat(next, 'f', -1, 64)
	v.Hash.Set(args[2], []byte(out))
	return resp.BulkString(out), nil
}

func cmdHRandField(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v, err := fetchTyped(sess, string(args[1]), store.KindHash)
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0)
	if v != nil {
		for f := range v.Hash {
			fields = append(fields, f)
		}
	}
	if len(args) == 2 {
		if len(fields) == 0 {
			return resp.NilBulk(), nil
		}
		return resp.BulkString(randomField(fields)), nil
	}
	n, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	withValues := false
	if len(args) == 4 {
		if !eqFold(args[3], "WITHVALUES") {
			return nil, store.ErrSyntax
		}
		withValues = true
	}
	if len(fields) == 0 {
		return resp.Array(), nil
	}
	var picked []string
	if n < 0 {
		picked = randomFieldsWithRepeats(fields, int(-n))
	} else {
		picked = randomFieldsDistinct(fields, int(n))
	}
	items := make([]*resp.Reply, 0, len(picked)*2)
	for _, f := range picked {
		items = append(items, resp.BulkString(f))
		if withValues {
			val, _ := v.Hash.Get([]byte(f))
			items = append(items, resp.Bulk(val))
		}
	}
	return resp.Array(items...), nil
}
