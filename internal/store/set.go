package store

import (
	"math/rand"
	"strconv"
)

// SetData is a Set value with two mutually exclusive encodings (spec.md
// §3): IntSet while every member is a canonically-formatted integer,
// HashSet once any non-integer member is added. Promotion rewrites every
// existing integer member as its decimal octet form into the hash-set
// representation before inserting the triggering member.
type SetData struct {
	isInt bool
	ints  map[int64]struct{}
	strs  map[string]struct{}
}

func newSetData() *SetData {
	return &SetData{isInt: true, ints: make(map[int64]struct{})}
}

func (s *SetData) Len() int {
	if s.isInt {
		return len(s.ints)
	}
	return len(s.strs)
}

func (s *SetData) promote() {
	if !s.isInt {
		return
	}
	strs := make(map[string]struct{}, len(s.ints))
	for n := range s.ints {
		strs[strconv.FormatInt(n, 10)] = struct{}{}
	}
	s.isInt = false
	s.ints = nil
	s.strs = strs
}

// Add inserts member, promoting the encoding first if necessary. Returns
// true if the member was new.
func (s *SetData) Add(member []byte) bool {
	if s.isInt {
		if n, ok := parseCanonicalInt64(member); ok {
			if _, exists := s.ints[n]; exists {
				return false
			}
			s.ints[n] = struct{}{}
			return true
		}
		s.promote()
	}
	key := string(member)
	if _, exists := s.strs[key]; exists {
		return false
	}
	s.strs[key] = struct{}{}
	return true
}

func (s *SetData) Remove(member []byte) bool {
	if s.isInt {
		n, ok := parseCanonicalInt64(member)
		if !ok {
			return false
		}
		if _, exists := s.ints[n]; !exists {
			return false
		}
		delete(s.ints, n)
		return true
	}
	key := string(member)
	if _, exists := s.strs[key]; !exists {
		return false
	}
	delete(s.strs, key)
	return true
}

func (s *SetData) IsMember(member []byte) bool {
	if s.isInt {
		n, ok := parseCanonicalInt64(member)
		if !ok {
			return false
		}
		_, exists := s.ints[n]
		return exists
	}
	_, exists := s.strs[string(member)]
	return exists
}

// Members returns every member as an octet string, in no particular order.
func (s *SetData) Members() [][]byte {
	out := make([][]byte, 0, s.Len())
	if s.isInt {
		for n := range s.ints {
			out = append(out, []byte(strconv.FormatInt(n, 10)))
		}
		return out
	}
	for m := range s.strs {
		out = append(out, []byte(m))
	}
	return out
}

// RandomDistinct returns up to count distinct members chosen uniformly
// among subsets of that size (spec.md §4.2 SRANDMEMBER without
// duplicates). If count >= Len, every member is returned.
func (s *SetData) RandomDistinct(count int) [][]byte {
	all := s.Members()
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if count > len(all) {
		count = len(all)
	}
	return all[:count]
}

// RandomWithRepeats returns exactly count members chosen independently and
// uniformly at random, with repetition (spec.md §4.2 SRANDMEMBER with
// allow_dup).
func (s *SetData) RandomWithRepeats(count int) [][]byte {
	all := s.Members()
	if len(all) == 0 {
		return nil
	}
	out := make([][]byte, count)
	for i := range out {
		out[i] = all[rand.Intn(len(all))]
	}
	return out
}

// Pop removes and returns up to count distinct random members.
func (s *SetData) Pop(count int) [][]byte {
	chosen := s.RandomDistinct(count)
	for _, m := range chosen {
		s.Remove(m)
	}
	return chosen
}

// combine folds f(a, b) pairwise; callers always get back a fresh
// HashSet-encoded SetData regardless of the operand encodings, matching
// spec.md §4.2's "result is always returned as a HashSet" contract.
func combine(sets []*SetData, f func(member []byte, present []bool) bool) *SetData {
	result := newSetData()
	seen := map[string]bool{}
	for _, s := range sets {
		if s == nil {
			continue
		}
		for _, m := range s.Members() {
			key := string(m)
			if seen[key] {
				continue
			}
			seen[key] = true
			present := make([]bool, len(sets))
			for i, other := range sets {
				present[i] = other != nil && other.IsMember(m)
			}
			if f(m, present) {
				result.Add(m)
			}
		}
	}
	result.promote()
	return result
}

// Union returns the union of receiver and others as a HashSet.
func (s *SetData) Union(others ...*SetData) *SetData {
	all := append([]*SetData{s}, others...)
	return combine(all, func(_ []byte, _ []bool) bool { return true })
}

// Intersect returns the members present in every set.
func (s *SetData) Intersect(others ...*SetData) *SetData {
	all := append([]*SetData{s}, others...)
	return combine(all, func(_ []byte, present []bool) bool {
		for _, p := range present {
			if !p {
				return false
			}
		}
		return true
	})
}

// Diff returns members in the receiver that are absent from every other
// set.
func (s *SetData) Diff(others ...*SetData) *SetData {
	result := newSetData()
	for _, m := range s.Members() {
		in := false
		for _, o := range others {
			if o != nil && o.IsMember(m) {
				in = true
				break
			}
		}
		if !in {
			result.Add(m)
		}
	}
	result.promote()
	return result
}
