package store

import "errors"

// Errors returned by value-model operations; the command layer maps these
// onto the client-visible RESP error taxonomy (spec.md §7).
var (
	ErrWrongType   = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrNotInteger  = errors.New("ERR value is not an integer or out of range")
	ErrNotFloat    = errors.New("ERR value is not a valid float")
	ErrOverflow    = errors.New("ERR increment or decrement would overflow")
	ErrNaN         = errors.New("ERR resulting score is not a number (NaN)")
	ErrOutOfRange  = errors.New("ERR index out of range")
	ErrNoSuchKey   = errors.New("ERR no such key")
	ErrSyntax      = errors.New("ERR syntax error")
)
