package frame

import (
	"errors"
	"fmt"
)

// ErrKind classifies frame failures so callers can map them onto their own
// error surface without string matching.
type ErrKind uint8

const (
	KindUnknown ErrKind = iota
	// KindSchema covers unknown attributes and operations that need a label
	// while none is set.
	KindSchema
	// KindBounds covers row indexes outside [0, rows), split ratios outside
	// [0, 1] and k values exceeding the reference row count.
	KindBounds
	// KindIO covers unreadable or unwritable sources.
	KindIO
)

type Error struct {
	kind ErrKind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Kind() ErrKind {
	return e.kind
}

// KindOf reports the ErrKind carried anywhere in err's chain.
func KindOf(err error) ErrKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return KindUnknown
}

var (
	// ErrNotNormalized is returned by Renormalize before Normalize has run.
	ErrNotNormalized = &Error{kind: KindSchema, msg: "frame has no normalization parameters"}
	// ErrAlreadyNormalized guards against re-running Normalize, which would
	// recompute bounds from the already scaled data.
	ErrAlreadyNormalized = &Error{kind: KindSchema, msg: "frame is already normalized"}
)

func SchemaErrf(format string, args ...interface{}) *Error {
	return &Error{kind: KindSchema, msg: fmt.Sprintf(format, args...)}
}

func BoundsErrf(format string, args ...interface{}) *Error {
	return &Error{kind: KindBounds, msg: fmt.Sprintf(format, args...)}
}

func IOErr(msg string, err error) *Error {
	return &Error{kind: KindIO, msg: msg, err: err}
}
