package analysis

import (
	"encoding/json"
	"errors"
)

// ErrorKind names the fatal failure classes of a run.
type ErrorKind string

const (
	KindEngineUnavailable ErrorKind = "engine_unavailable"
	KindInvalidGame       ErrorKind = "invalid_game"
	KindCanceled          ErrorKind = "canceled"
)

// Error is a run failure that produced no report.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// MarshalJSON renders {"kind": ..., "message": ...}.
func (e *Error) MarshalJSON() ([]byte, error) {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return json.Marshal(struct {
		Kind    ErrorKind `json:"kind"`
		Message string    `json:"message"`
	}{e.Kind, msg})
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
