package command

import (
	"errors"

	"redisd/internal/store"
)

// mapErrorText converts a store-level sentinel error into the exact
// client-visible RESP error string (spec.md §7). Errors not recognized
// here (a handler's own ad hoc errors.New) pass through verbatim, so a
// handler only needs to wrap one of the store sentinels when it wants the
// canonical text.
func mapErrorText(err error) string {
	switch {
	case errors.Is(err, store.ErrWrongType):
		return store.ErrWrongType.Error()
	case errors.Is(err, store.ErrNotInteger):
		return store.ErrNotInteger.Error()
	case errors.Is(err, store.ErrNotFloat):
		return store.ErrNotFloat.Error()
	case errors.Is(err, store.ErrOverflow):
		return store.ErrOverflow.Error()
	case errors.Is(err, store.ErrNaN):
		return store.ErrNaN.Error()
	case errors.Is(err, store.ErrOutOfRange):
		return store.ErrOutOfRange.Error()
	case errors.Is(err, store.ErrNoSuchKey):
		return store.ErrNoSuchKey.Error()
	case errors.Is(err, store.ErrSyntax):
		return store.ErrSyntax.Error()
	default:
		return "ERR " + err.Error()
	}
}
