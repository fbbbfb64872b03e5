package command

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/klauspost/compress/s2"

	"redisd/internal/resp"
	"redisd/internal/store"
)

func (d *Dispatcher) registerDump() {
	d.register("DUMP", 2, false, false, cmdDump)
}

// RDB-style object type bytes and the DUMP footer version, per spec.md §6.
const (
	rdbTypeString = 0
	rdbTypeList   = 1
	rdbTypeSet    = 2
	rdbTypeZSet   = 3
	rdbTypeHash   = 4

	dumpVersion = 7

	// compressMinLen is the shortest string this encoder will even try to
	// compress; below it the two length-prefix bytes a compressed special
	// encoding costs aren't worth it.
	compressMinLen = 20
)

func cmdDump(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	v := sess.DB().Get(string(args[1]))
	if v == nil {
		return resp.NilBulk(), nil
	}
	return resp.Bulk(dumpValue(v)), nil
}

// dumpValue encodes v as a DUMP payload: a type byte, the type-specific
// body, and a little-endian 2-byte version footer (spec.md §6). Grounded
// on the teacher's internal/rdb/rdb.go length-prefix writer
// (writeLengthToWriter), repurposed here from whole-file RDB serialization
// to a single detached-object payload.
func dumpValue(v *store.Value) []byte {
	var buf []byte
	switch v.Kind {
	case store.KindString:
		buf = append(buf, rdbTypeString)
		buf = appendString(buf, v.Str.Bytes())
	case store.KindList:
		items := v.List.ToSlice()
		buf = append(buf, rdbTypeList)
		buf = appendLength(buf, len(items))
		for _, it := range items {
			buf = appendString(buf, it)
		}
	case store.KindSet:
		members := v.Set.Members()
		buf = append(buf, rdbTypeSet)
		buf = appendLength(buf, len(members))
		for _, m := range members {
			buf = appendString(buf, m)
		}
	case store.KindZSet:
		members := v.ZSet.MembersSortedByScore()
		buf = append(buf, rdbTypeZSet)
		buf = appendLength(buf, len(members))
		for _, m := range members {
			buf = appendString(buf, []byte(m.Member))
			buf = appendScore(buf, m.Score)
		}
	case store.KindHash:
		buf = append(buf, rdbTypeHash)
		buf = appendLength(buf, len(v.Hash))
		for field, val := range v.Hash {
			buf = appendString(buf, []byte(field))
			buf = appendString(buf, val)
		}
	}
	footer := make([]byte, 2)
	binary.LittleEndian.PutUint16(footer, dumpVersion)
	return append(buf, footer...)
}

// appendLength writes n using the 6-bit/14-bit/32-bit length-prefix
// scheme from spec.md §6.
func appendLength(buf []byte, n int) []byte {
	switch {
	case n < 1<<6:
		return append(buf, byte(n))
	case n < 1<<14:
		return append(buf, byte(0x40|(n>>8)), byte(n))
	default:
		buf = append(buf, 0x80)
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		return append(buf, b...)
	}
}

// appendString writes b as a length-prefixed string, preferring the
// special integer encoding when b's content is a decimal int32, then
// falling back to an s2-compressed special encoding for long strings that
// actually shrink, otherwise a plain length-prefixed string.
func appendString(buf []byte, b []byte) []byte {
	if n, ok := parseInt32Decimal(b); ok {
		return appendIntString(buf, n)
	}
	if len(b) >= compressMinLen {
		compressed := s2.Encode(nil, b)
		if len(compressed) < len(b) {
			buf = append(buf, 0xc3)
			buf = appendLength(buf, len(compressed))
			buf = appendLength(buf, len(b))
			return append(buf, compressed...)
		}
	}
	buf = appendLength(buf, len(b))
	return append(buf, b...)
}

func appendIntString(buf []byte, n int32) []byte {
	switch {
	case n >= math.MinInt8 && n <= math.MaxInt8:
		return append(buf, 0xc0, byte(int8(n)))
	case n >= math.MinInt16 && n <= math.MaxInt16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(int16(n)))
		return append(append(buf, 0xc1), b...)
	default:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(n))
		return append(append(buf, 0xc2), b...)
	}
}

func parseInt32Decimal(b []byte) (int32, bool) {
	if len(b) == 0 || len(b) > 11 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	// Round-trip check so "007" (parses but isn't canonical) keeps its
	// literal octets rather than being silently renumbered.
	if strconv.FormatInt(n, 10) != string(b) {
		return 0, false
	}
	return int32(n), true
}

// appendScore encodes a sorted-set score using the sentinel bytes and
// absolute-value-decimal convention spec.md §6 specifies: 253 for NaN,
// 254 for +Inf, 255 for -Inf, otherwise a length-prefixed decimal string
// of the score's magnitude with the sign folded into a leading '-' (kept
// inside the decimal string itself rather than as a separate flag byte,
// since nothing else in this payload format needs to distinguish them).
func appendScore(buf []byte, score float64) []byte {
	switch {
	case math.IsNaN(score):
		return append(buf, 253)
	case math.IsInf(score, 1):
		return append(buf, 254)
	case math.IsInf(score, -1):
		return append(buf, 255)
	default:
		s := strconv.FormatFloat(score, 'g', 17, 64)
		return append(appendLength(buf, len(s)), s...)
	}
}
