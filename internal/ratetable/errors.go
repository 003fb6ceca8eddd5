package ratetable

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every failure of a build run unwraps to one of these, so
// callers can classify with errors.Is regardless of which stage raised it.
var (
	ErrInvalidToken          = errors.New("invalid token")
	ErrMalformedBandSequence = errors.New("malformed band sequence")
	ErrReferentialIntegrity  = errors.New("referential integrity violation")
	ErrDuplicateKey          = errors.New("duplicate key")
)

// FieldError locates a failure inside a source file.
type FieldError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *FieldError) Error() string {
	var b strings.Builder
	b.WriteString(e.File)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *FieldError) Unwrap() error { return e.Err }

// BandSequenceError reports a band table whose bands cannot be turned into
// contiguous face-amount ranges.
type BandSequenceError struct {
	BandTable string
	Band      int
	Line      int
	Reason    string
}

func (e *BandSequenceError) Error() string {
	msg := fmt.Sprintf("%v: band table %q band %d: %s", ErrMalformedBandSequence, e.BandTable, e.Band, e.Reason)
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	return msg
}

func (e *BandSequenceError) Unwrap() error { return ErrMalformedBandSequence }

// IntegrityError reports a foreign-key value with no matching rows on the
// other side of the relationship.
type IntegrityError struct {
	Table  string // table holding the dangling value
	Column string
	Value  string
	Ref    string // table.column that should contain Value
	Owner  string // optional owning key, e.g. the plan code of a description
}

func (e *IntegrityError) Error() string {
	msg := fmt.Sprintf("%v: %s.%s=%q has no match in %s", ErrReferentialIntegrity, e.Table, e.Column, e.Value, e.Ref)
	if e.Owner != "" {
		msg += fmt.Sprintf(" (%s)", e.Owner)
	}
	return msg
}

func (e *IntegrityError) Unwrap() error { return ErrReferentialIntegrity }

// DuplicateKeyError reports a primary-key collision. Lines are source lines
// when the duplicate was caught before the store was touched.
type DuplicateKeyError struct {
	Table string
	Key   []any
	File  string
	Lines []int
	Err   error // backend error, when raised by the store
}

func (e *DuplicateKeyError) Error() string {
	msg := fmt.Sprintf("%v: %s key %v", ErrDuplicateKey, e.Table, e.Key)
	if e.File != "" {
		msg += " in " + e.File
	}
	if len(e.Lines) > 0 {
		msg += fmt.Sprintf(" lines %v", e.Lines)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DuplicateKeyError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDuplicateKey, e.Err}
	}
	return []error{ErrDuplicateKey}
}
