package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type ErrorTag string

const (
	LexErrorTag       ErrorTag = "LexError"
	SyntaxErrorTag    ErrorTag = "SyntaxError"
	RecursionErrorTag ErrorTag = "RecursionError"
	ValueErrorTag     ErrorTag = "ValueError"
)

// NoPos is used for errors that are not bound to a source offset.
const NoPos = -1

type Exception interface {
	error
	Exception() any
}

type Error struct {
	Tag   ErrorTag
	Err   error
	Pos   int
	Extra map[string]any
}

var _ Exception = (*Error)(nil)

func NewError(tag ErrorTag, pos int, format string, args ...any) *Error {
	return &Error{
		Tag: tag,
		Err: fmt.Errorf(format, args...),
		Pos: pos,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}

	var b strings.Builder
	b.WriteString(string(e.Tag))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Exception() any {
	tags := []any{e.Tag}
	for err := e.Err; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok {
			tags = append(tags, e.Tag)
		}
	}

	o := map[string]any{
		"tags": tags,
	}
	if e.Err != nil {
		o["message"] = e.Err.Error()
	}
	if e.Pos != NoPos {
		o["position"] = e.Pos
	}
	if len(e.Extra) != 0 {
		o = lo.Assign(o, e.Extra)
	}
	return o
}

// IsTagged reports whether err or any error it wraps is a *Error with the tag.
func IsTagged(err error, tag ErrorTag) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok && e.Tag == tag {
			return true
		}
	}
	return false
}
