// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import "fmt"

// Kind identifies one of the closed set of ways a read or a validation of a
// PE32+ image can fail. Every error this package returns carries exactly one
// Kind; there are no others.
type Kind int

const (
	// KindMisaligned is returned when a typed read lands on a position that
	// is not aligned for the target type.
	KindMisaligned Kind = iota

	// KindInsufficientBuffer is returned when a read would cross the end of
	// the backing slice.
	KindInsufficientBuffer

	// KindMalformed is returned when a validator or decoder rejects a field
	// value. The Error's Detail names the offending entity and value.
	KindMalformed

	// KindInvalidFileFormat is returned when the optional header magic
	// indicates a non-PE32+ image (PE32 or unknown).
	KindInvalidFileFormat

	// KindDataDirectoryEmpty is returned when a requested data directory has
	// size zero.
	KindDataDirectoryEmpty

	// KindSectionEmpty is returned when no section backs the RVA of a
	// requested data directory.
	KindSectionEmpty
)

func (k Kind) String() string {
	switch k {
	case KindMisaligned:
		return "misaligned"
	case KindInsufficientBuffer:
		return "insufficient buffer"
	case KindMalformed:
		return "malformed"
	case KindInvalidFileFormat:
		return "invalid file format"
	case KindDataDirectoryEmpty:
		return "data directory empty"
	case KindSectionEmpty:
		return "section empty"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every operation in this package. Its
// Kind is one of the closed set of Kind* constants; Detail carries a
// human-readable description for KindMalformed and must not be relied upon
// for anything other than display.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("pe32plus: %s", e.Kind)
	}
	return fmt.Sprintf("pe32plus: %s: %s", e.Kind, e.Detail)
}

// Is lets callers use errors.Is(err, pe32plus.ErrMisaligned) and friends
// without caring about the Detail payload.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for use with errors.Is. Their Detail field is always
// empty; errors returned by the package itself may carry a populated Detail
// but still compare equal under errors.Is.
var (
	ErrMisaligned          = &Error{Kind: KindMisaligned}
	ErrInsufficientBuffer  = &Error{Kind: KindInsufficientBuffer}
	ErrMalformed           = &Error{Kind: KindMalformed}
	ErrInvalidFileFormat   = &Error{Kind: KindInvalidFileFormat}
	ErrDataDirectoryEmpty  = &Error{Kind: KindDataDirectoryEmpty}
	ErrSectionEmpty        = &Error{Kind: KindSectionEmpty}
)

func errMisaligned() error {
	return &Error{Kind: KindMisaligned}
}

func errInsufficientBuffer() error {
	return &Error{Kind: KindInsufficientBuffer}
}

func errMalformed(format string, args ...any) error {
	return &Error{Kind: KindMalformed, Detail: fmt.Sprintf(format, args...)}
}

func errInvalidFileFormat() error {
	return &Error{Kind: KindInvalidFileFormat}
}

func errDataDirectoryEmpty() error {
	return &Error{Kind: KindDataDirectoryEmpty}
}

func errSectionEmpty() error {
	return &Error{Kind: KindSectionEmpty}
}
