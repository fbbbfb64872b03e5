package resp

import "strconv"

// Reply is any of the five RESP response shapes, or a nested Array of
// Replies. Construct one with the helpers below rather than building the
// struct directly.
type Reply struct {
	kind  replyKind
	i     int64
	s     string
	bytes []byte
	nilB  bool
	items []*Reply
	nilA  bool
}

type replyKind int

const (
	kindSimple replyKind = iota
	kindError
	kindInteger
	kindBulk
	kindArray
	kindMulti
)

func Simple(s string) *Reply  { return &Reply{kind: kindSimple, s: s} }
func Error(s string) *Reply   { return &Reply{kind: kindError, s: s} }
func Integer(i int64) *Reply  { return &Reply{kind: kindInteger, i: i} }
func NilBulk() *Reply         { return &Reply{kind: kindBulk, nilB: true} }
func Bulk(b []byte) *Reply    { return &Reply{kind: kindBulk, bytes: b} }
func BulkString(s string) *Reply { return &Reply{kind: kindBulk, bytes: []byte(s)} }

func NilArray() *Reply { return &Reply{kind: kindArray, nilA: true} }
func Array(items ...*Reply) *Reply {
	return &Reply{kind: kindArray, items: items}
}

// Multi bundles several independent top-level replies that must be
// written back-to-back on the wire as distinct RESP values rather than
// nested inside one array. SUBSCRIBE/UNSUBSCRIBE/PSUBSCRIBE/PUNSUBSCRIBE
// with several arguments each produce one confirmation array per
// channel/pattern (spec.md §4.4); this lets a single handler invocation
// still return "the reply" for that command.
func Multi(items ...*Reply) *Reply {
	return &Reply{kind: kindMulti, items: items}
}

// Encode serializes the reply into RESP wire bytes, appending to dst.
func Encode(dst []byte, r *Reply) []byte {
	if r == nil {
		return append(dst, "$-1\r\n"...)
	}
	switch r.kind {
	case kindSimple:
		dst = append(dst, '+')
		dst = append(dst, r.s...)
		return append(dst, "\r\n"...)
	case kindError:
		dst = append(dst, '-')
		dst = append(dst, r.s...)
		return append(dst, "\r\n"...)
	case kindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, r.i, 10)
		return append(dst, "\r\n"...)
	case kindBulk:
		if r.nilB {
			return append(dst, "$-1\r\n"...)
		}
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(r.bytes)), 10)
		dst = append(dst, "\r\n"...)
		dst = append(dst, r.bytes...)
		return append(dst, "\r\n"...)
	case kindArray:
		if r.nilA {
			return append(dst, "*-1\r\n"...)
		}
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(r.items)), 10)
		dst = append(dst, "\r\n"...)
		for _, item := range r.items {
			dst = Encode(dst, item)
		}
		return dst
	case kindMulti:
		for _, item := range r.items {
			dst = Encode(dst, item)
		}
		return dst
	}
	return dst
}

// Bytes is a convenience wrapper around Encode for callers that don't want
// to manage a reusable buffer.
func Bytes(r *Reply) []byte {
	return Encode(nil, r)
}

// IsNilBulk reports whether r is a nil bulk reply, letting callers
// distinguish "key absent" from a real (possibly empty) payload without
// inspecting wire bytes.
func IsNilBulk(r *Reply) bool {
	return r != nil && r.kind == kindBulk && r.nilB
}
