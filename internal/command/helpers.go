package command

import (
	"strconv"
	"strings"

	"redisd/internal/store"
)

func parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, store.ErrNotInteger
	}
	return n, nil
}

func parseFloat(b []byte) (float64, error) {
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, store.ErrNotFloat
	}
	return n, nil
}

func eqFold(a []byte, s string) bool {
	return strings.EqualFold(string(a), s)
}

func newStringValueViaDB(b []byte) *store.Value { return store.NewStringValue(b) }

// fetchTyped resolves key's value, requiring it to be absent or of kind.
// Returns (nil, nil) when absent so callers can apply their own
// empty-value semantics (e.g. GET returning nil bulk).
func fetchTyped(sess *Session, key string, kind store.Kind) (*store.Value, error) {
	v := sess.DB().Get(key)
	if v == nil {
		return nil, nil
	}
	if v.Kind != kind {
		return nil, store.ErrWrongType
	}
	return v, nil
}
