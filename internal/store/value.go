// Package store implements the polymorphic value model and the
// multi-database keyspace that commands operate on.
package store

// Kind tags the variant a Value currently holds.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindSet
	KindZSet
	KindHash
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindZSet:
		return "zset"
	case KindHash:
		return "hash"
	default:
		return "none"
	}
}

// Value is a tagged union over the five data types a key can hold. Only
// the field matching Kind is populated; the rest are nil.
type Value struct {
	Kind   Kind
	Str    *StringData
	List   *ListData
	Set    *SetData
	ZSet   *ZSetData
	Hash   HashData
}

func newStringValue(b []byte) *Value {
	return &Value{Kind: KindString, Str: newStringData(b)}
}

// NewStringValue constructs a String-kind Value, auto-detecting the
// int/embstr/raw encoding (spec.md §3). Exported for the command layer,
// which is the only package outside store that needs to create bare
// string values.
func NewStringValue(b []byte) *Value { return newStringValue(b) }

// NewListValue, NewSetValue, NewZSetValue, and NewHashValue construct
// empty container values; the command layer passes these as the
// zero-value factory to Database.GetOrCreate.
func NewListValue() *Value { return newListValue() }
func NewSetValue() *Value  { return newSetValue() }
func NewZSetValue() *Value { return newZSetValue() }
func NewHashValue() *Value { return newHashValue() }

func newListValue() *Value {
	return &Value{Kind: KindList, List: newListData()}
}

func newSetValue() *Value {
	return &Value{Kind: KindSet, Set: newSetData()}
}

func newZSetValue() *Value {
	return &Value{Kind: KindZSet, ZSet: newZSetData()}
}

func newHashValue() *Value {
	return &Value{Kind: KindHash, Hash: HashData{}}
}

// Empty reports whether a container-typed value has no elements left and
// should be removed from the keyspace (policy from spec.md §3 Lifecycles).
func (v *Value) Empty() bool {
	switch v.Kind {
	case KindList:
		return v.List.Len() == 0
	case KindSet:
		return v.Set.Len() == 0
	case KindZSet:
		return v.ZSet.Len() == 0
	case KindHash:
		return len(v.Hash) == 0
	default:
		return false
	}
}

// ObjectEncoding reports the OBJECT ENCODING name for the value.
func (v *Value) ObjectEncoding() string {
	switch v.Kind {
	case KindString:
		return v.Str.encoding()
	case KindList:
		return "linkedlist"
	case KindSet:
		if v.Set.isInt {
			return "intset"
		}
		return "hashtable"
	case KindZSet:
		return "skiplist"
	case KindHash:
		return "hashtable"
	default:
		return ""
	}
}
