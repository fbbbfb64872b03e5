package store

import "sort"

// ZSetData is a SortedSet value: a skiplist for ordered range/rank queries
// plus a membership map for O(1) ZSCORE/ZRANK lookups (spec.md §3/§4.2's
// dual-index requirement).
type ZSetData struct {
	sl      *Skiplist
	members map[string]float64
}

func newZSetData() *ZSetData {
	return &ZSetData{sl: newSkiplist(), members: make(map[string]float64)}
}

func (z *ZSetData) Len() int { return len(z.members) }

func (z *ZSetData) Score(member string) (float64, bool) {
	s, ok := z.members[member]
	return s, ok
}

// Add sets member's score, inserting it if new. Returns whether the
// member was newly added (for ZADD's added-count return value).
func (z *ZSetData) Add(member string, score float64) bool {
	if _, exists := z.members[member]; exists {
		z.sl.Remove(member, z.members[member])
		z.sl.Insert(member, score)
		z.members[member] = score
		return false
	}
	z.sl.Insert(member, score)
	z.members[member] = score
	return true
}

// IncrBy adds delta to member's score (inserting at delta if absent) and
// returns the new score.
func (z *ZSetData) IncrBy(member string, delta float64) float64 {
	cur := z.members[member]
	next := cur + delta
	z.Add(member, next)
	return next
}

func (z *ZSetData) Remove(member string) bool {
	score, exists := z.members[member]
	if !exists {
		return false
	}
	z.sl.Remove(member, score)
	delete(z.members, member)
	return true
}

func (z *ZSetData) Rank(member string, reverse bool) (int, bool) {
	score, exists := z.members[member]
	if !exists {
		return 0, false
	}
	r := z.sl.RankOf(member, score)
	if r < 0 {
		return 0, false
	}
	if reverse {
		r = z.Len() - 1 - r
	}
	return r, true
}

func (z *ZSetData) RangeByRank(start, stop int, reverse bool) []ZMember {
	return z.sl.RangeByRank(start, stop, reverse)
}

func (z *ZSetData) RangeByScore(min, max Bound, offset, count int, reverse bool) []ZMember {
	if reverse {
		return z.sl.RangeByScoreRev(min, max, offset, count)
	}
	return z.sl.RangeByScore(min, max, offset, count)
}

func (z *ZSetData) CountByScore(min, max Bound) int {
	return z.sl.CountByScore(min, max)
}

// RemoveRangeByScore deletes every member scoring within [min,max] and
// returns how many were removed.
func (z *ZSetData) RemoveRangeByScore(min, max Bound) int {
	victims := z.sl.RangeByScore(min, max, 0, -1)
	for _, v := range victims {
		z.Remove(v.Member)
	}
	return len(victims)
}

// RemoveRangeByRank deletes members within the inclusive rank range and
// returns how many were removed.
func (z *ZSetData) RemoveRangeByRank(start, stop int) int {
	victims := z.sl.RangeByRank(start, stop, false)
	for _, v := range victims {
		z.Remove(v.Member)
	}
	return len(victims)
}

// PopMin/PopMax remove and return up to count members from the low/high
// end of the score ordering (spec.md-supplemented ZPOPMIN/ZPOPMAX).
func (z *ZSetData) PopMin(count int) []ZMember {
	out := z.sl.RangeByRank(0, count-1, false)
	for _, m := range out {
		z.Remove(m.Member)
	}
	return out
}

func (z *ZSetData) PopMax(count int) []ZMember {
	out := z.sl.RangeByRank(0, count-1, true)
	for _, m := range out {
		z.Remove(m.Member)
	}
	return out
}

// RangeByLex returns members within a lexicographic range at equal scores
// (ZRANGEBYLEX requires every member in the range to share one score; the
// caller is responsible for that precondition). min/max use LexBound.
func (z *ZSetData) RangeByLex(min, max LexBound, offset, count int, reverse bool) []ZMember {
	all := z.sl.RangeByRank(0, z.Len()-1, false)
	filtered := make([]ZMember, 0, len(all))
	for _, m := range all {
		if min.allows(m.Member, true) && max.allows(m.Member, false) {
			filtered = append(filtered, m)
		}
	}
	if reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}
	if offset > len(filtered) {
		offset = len(filtered)
	}
	filtered = filtered[offset:]
	if count >= 0 && count < len(filtered) {
		filtered = filtered[:count]
	}
	return filtered
}

func (z *ZSetData) LexCount(min, max LexBound) int {
	return len(z.RangeByLex(min, max, 0, -1, false))
}

// LexBound is ZRANGEBYLEX's range endpoint: "-"/"+" unbounded, "[x"
// inclusive, "(x" exclusive (spec.md supplemented feature).
type LexBound struct {
	unbounded bool
	plus      bool
	inclusive bool
	value     string
}

func LexUnboundedMin() LexBound { return LexBound{unbounded: true, plus: false} }
func LexUnboundedMax() LexBound { return LexBound{unbounded: true, plus: true} }
func LexInclusive(v string) LexBound { return LexBound{inclusive: true, value: v} }
func LexExclusive(v string) LexBound { return LexBound{inclusive: false, value: v} }

// allows reports whether member satisfies this bound acting as a lower
// (isLower=true) or upper bound.
func (b LexBound) allows(member string, isLower bool) bool {
	if b.unbounded {
		return b.plus != isLower
	}
	if isLower {
		if b.inclusive {
			return member >= b.value
		}
		return member > b.value
	}
	if b.inclusive {
		return member <= b.value
	}
	return member < b.value
}

// ZUnionStore/ZInterStore aggregation modes (spec.md-supplemented).
type Aggregate int

const (
	AggSum Aggregate = iota
	AggMin
	AggMax
)

func aggregate(mode Aggregate, scores []float64, weights []float64) float64 {
	switch mode {
	case AggMin:
		m := scores[0] * weights[0]
		for i := 1; i < len(scores); i++ {
			if v := scores[i] * weights[i]; v < m {
				m = v
			}
		}
		return m
	case AggMax:
		m := scores[0] * weights[0]
		for i := 1; i < len(scores); i++ {
			if v := scores[i] * weights[i]; v > m {
				m = v
			}
		}
		return m
	default:
		sum := 0.0
		for i, s := range scores {
			sum += s * weights[i]
		}
		return sum
	}
}

// ZUnionStore computes the weighted union of sets, aggregating tied
// members per mode.
func ZUnionStore(sets []*ZSetData, weights []float64, mode Aggregate) *ZSetData {
	result := newZSetData()
	seen := map[string]bool{}
	for si, s := range sets {
		if s == nil {
			continue
		}
		for member := range s.members {
			if seen[member] {
				continue
			}
			seen[member] = true
			scores := make([]float64, 0, len(sets))
			ws := make([]float64, 0, len(sets))
			for sj, other := range sets {
				if other == nil {
					continue
				}
				if sc, ok := other.Score(member); ok {
					scores = append(scores, sc)
					ws = append(ws, weights[sj])
				}
			}
			_ = si
			result.Add(member, aggregate(mode, scores, ws))
		}
	}
	return result
}

// ZInterStore computes the weighted intersection of sets.
func ZInterStore(sets []*ZSetData, weights []float64, mode Aggregate) *ZSetData {
	result := newZSetData()
	if len(sets) == 0 || sets[0] == nil {
		return result
	}
	for member := range sets[0].members {
		scores := make([]float64, 0, len(sets))
		present := true
		for i, other := range sets {
			if other == nil {
				present = false
				break
			}
			sc, ok := other.Score(member)
			if !ok {
				present = false
				break
			}
			scores = append(scores, sc*weights[i])
		}
		if present {
			result.Add(member, aggregate(mode, scores, onesLike(scores)))
		}
	}
	return result
}

func onesLike(xs []float64) []float64 {
	ones := make([]float64, len(xs))
	for i := range ones {
		ones[i] = 1
	}
	return ones
}

// MembersSortedByScore returns every (member, score) pair in ascending
// score order, used by DUMP to produce a deterministic payload.
func (z *ZSetData) MembersSortedByScore() []ZMember {
	out := make([]ZMember, 0, len(z.members))
	for m, s := range z.members {
		out = append(out, ZMember{Member: m, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	return out
}
