package store

import (
	"strconv"
)

// StringData holds a String value's content plus the encoding variant
// from spec.md §3: Integer when the content round-trips through a signed
// 64-bit decimal under 32 bytes, Bytes otherwise. The distinction is an
// internal space optimization; OBJECT ENCODING is the only client-visible
// trace of it.
type StringData struct {
	isInt bool
	i     int64
	b     []byte
}

func newStringData(b []byte) *StringData {
	if n, ok := parseCanonicalInt64(b); ok && len(b) < 32 {
		return &StringData{isInt: true, i: n}
	}
	return &StringData{b: b}
}

func stringDataFromInt(n int64) *StringData {
	return &StringData{isInt: true, i: n}
}

// Bytes materializes the current content as an octet string.
func (s *StringData) Bytes() []byte {
	if s.isInt {
		return strconv.AppendInt(nil, s.i, 10)
	}
	return s.b
}

// Len returns the octet length of the content without materializing it
// when integer-encoded.
func (s *StringData) Len() int {
	if s.isInt {
		return len(strconv.FormatInt(s.i, 10))
	}
	return len(s.b)
}

// Int64 returns the integer value and true if the string is (or can be
// read as) a signed 64-bit integer, regardless of current encoding.
func (s *StringData) Int64() (int64, bool) {
	if s.isInt {
		return s.i, true
	}
	if len(s.b) == 0 || len(s.b) > 20 {
		return 0, false
	}
	n, ok := parseInt64(s.b)
	return n, ok
}

func (s *StringData) encoding() string {
	if s.isInt {
		return "int"
	}
	if len(s.b) <= 44 {
		return "embstr"
	}
	return "raw"
}

// parseCanonicalInt64 parses b as a signed decimal integer with no leading
// zeros, no leading '+', and no embedded whitespace (spec.md §3 invariant
// 4, reused here for the string-integer encoding heuristic in invariant 5).
func parseCanonicalInt64(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	i := 0
	neg := false
	if b[0] == '-' {
		neg = true
		i++
	}
	if i >= len(b) {
		return 0, false
	}
	if b[i] == '0' && len(b)-i > 1 {
		return 0, false // leading zero
	}
	if neg && b[i] == '0' {
		return 0, false // "-0" is not the canonical form of zero
	}
	for j := i; j < len(b); j++ {
		if b[j] < '0' || b[j] > '9' {
			return 0, false
		}
	}
	n, ok := parseInt64(b)
	if !ok {
		return 0, false
	}
	_ = neg
	return n, true
}

func parseInt64(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
