// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import (
	"bytes"
	"unicode/utf8"
	"unsafe"
)

// ByteReader is a bounds-checked, alignment-aware cursor over a borrowed
// byte slice. It never copies the slice it is given; every typed read it
// hands back aliases the original buffer.
//
// When constructed with a relative base (NewReaderRel), positions passed to
// the *RVA methods and to AdvanceRel are addresses in the image's virtual
// address space; they are translated to slice indices by subtracting the
// base. Without a relative base, those same positions are absolute slice
// indices (base 0).
//
// A ByteReader is not safe for concurrent use: its cursor is mutable state.
type ByteReader struct {
	data    []byte
	pos     int
	base    uint32
	hasBase bool
}

// NewReader returns a ByteReader over data with its cursor at zero and no
// relative base: all positions are absolute indices into data.
func NewReader(data []byte) *ByteReader {
	return &ByteReader{data: data}
}

// NewReaderRel returns a ByteReader over data with its cursor at zero and
// base as its relative base: an RVA v maps to slice index v-base.
func NewReaderRel(data []byte, base uint32) *ByteReader {
	return &ByteReader{data: data, base: base, hasBase: true}
}

// Bytes returns the entire backing slice of r.
func (r *ByteReader) Bytes() []byte {
	return r.data
}

// Remaining returns the backing slice from the current cursor to its end.
func (r *ByteReader) Remaining() []byte {
	if r.pos > len(r.data) {
		return nil
	}
	return r.data[r.pos:]
}

// RelBase returns the relative base set by NewReaderRel, and whether one was
// set at all.
func (r *ByteReader) RelBase() (uint32, bool) {
	return r.base, r.hasBase
}

// indexOf converts an RVA (or, when no relative base is set, an absolute
// position) to a slice index.
func (r *ByteReader) indexOf(pos uint32) int {
	if !r.hasBase {
		return int(pos)
	}
	return int(pos) - int(r.base)
}

// AdvanceRel moves the cursor to the slice position corresponding to RVA v.
func (r *ByteReader) AdvanceRel(v uint32) *ByteReader {
	r.pos = r.indexOf(v)
	return r
}

// AdvanceCur moves the cursor forward by delta bytes relative to its
// current position.
func (r *ByteReader) AdvanceCur(delta int) *ByteReader {
	r.pos += delta
	return r
}

// SliceAtRVA returns the sub-slice of r starting at the slice index that RVA
// p resolves to. It returns ErrInsufficientBuffer if that index is outside
// the backing slice.
func (r *ByteReader) SliceAtRVA(p uint32) ([]byte, error) {
	idx := r.indexOf(p)
	if idx < 0 || idx > len(r.data) {
		return nil, errInsufficientBuffer()
	}
	return r.data[idx:], nil
}

// readFixed interprets the leading sizeof(T) bytes of b as a *T in place,
// after checking that b is large enough and correctly aligned for T.
func readFixed[T any](b []byte) (*T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(b) < size {
		return nil, errInsufficientBuffer()
	}
	if size > 0 {
		align := unsafe.Alignof(zero)
		if uintptr(unsafe.Pointer(unsafe.SliceData(b)))%align != 0 {
			return nil, errMisaligned()
		}
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(b))), nil
}

// ReadT reads a T at r's current cursor, advancing the cursor by sizeof(T)
// on success. The returned pointer aliases r's backing slice.
func ReadT[T any](r *ByteReader) (*T, error) {
	if r.pos < 0 || r.pos > len(r.data) {
		return nil, errInsufficientBuffer()
	}
	v, err := readFixed[T](r.data[r.pos:])
	if err != nil {
		return nil, err
	}
	r.pos += int(unsafe.Sizeof(*v))
	return v, nil
}

// ReadAtRVA reads a T at the slice position that RVA p resolves to, without
// moving r's cursor.
func ReadAtRVA[T any](r *ByteReader, p uint32) (*T, error) {
	b, err := r.SliceAtRVA(p)
	if err != nil {
		return nil, err
	}
	return readFixed[T](b)
}

// strFromBytes returns the NUL-terminated UTF-8 string at the start of b,
// as a zero-copy view into b. It fails with KindMalformed if b holds no NUL
// byte or the bytes preceding it are not valid UTF-8.
func strFromBytes(b []byte) (string, error) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", errMalformed("string has no null terminator")
	}
	if i == 0 {
		return "", nil
	}
	if !utf8.Valid(b[:i]) {
		return "", errMalformed("string is not valid utf-8")
	}
	return unsafe.String(unsafe.SliceData(b), i), nil
}

// stringAtRVA resolves a NUL-terminated UTF-8 string starting at RVA p.
func stringAtRVA(r *ByteReader, p uint32) (string, error) {
	b, err := r.SliceAtRVA(p)
	if err != nil {
		return "", err
	}
	return strFromBytes(b)
}

// alignUp rounds v up to the next multiple of pow2, which must be a power
// of two.
func alignUp(v, pow2 uint32) uint32 {
	return (v + pow2 - 1) &^ (pow2 - 1)
}
