// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import (
	"errors"
	"testing"
)

func TestReadTBounds(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	r := NewReader(data)

	v, err := ReadT[uint32](r)
	if err != nil {
		t.Fatalf("ReadT[uint32] failed: %v", err)
	}
	if *v != 0x04030201 {
		t.Errorf("ReadT[uint32] = %#x, want %#x", *v, 0x04030201)
	}

	if _, err := ReadT[uint64](r); !errors.Is(err, ErrInsufficientBuffer) {
		t.Errorf("ReadT[uint64] error = %v, want ErrInsufficientBuffer", err)
	}
}

func TestReadAtRVA(t *testing.T) {
	data := make([]byte, 16)
	data[8] = 0xef
	data[9] = 0xbe

	r := NewReaderRel(data, 0x1000)
	v, err := ReadAtRVA[uint16](r, 0x1008)
	if err != nil {
		t.Fatalf("ReadAtRVA failed: %v", err)
	}
	if *v != 0xbeef {
		t.Errorf("ReadAtRVA = %#x, want %#x", *v, 0xbeef)
	}

	if _, err := ReadAtRVA[uint16](r, 0x2000); !errors.Is(err, ErrInsufficientBuffer) {
		t.Errorf("ReadAtRVA out of range error = %v, want ErrInsufficientBuffer", err)
	}
}

func TestStringAtRVA(t *testing.T) {
	data := append([]byte("hello"), 0, 'x')
	r := NewReader(data)

	s, err := stringAtRVA(r, 0)
	if err != nil {
		t.Fatalf("stringAtRVA failed: %v", err)
	}
	if s != "hello" {
		t.Errorf("stringAtRVA = %q, want %q", s, "hello")
	}

	noNul := []byte("noterm")
	if _, err := stringAtRVA(NewReader(noNul), 0); !errors.Is(err, ErrMalformed) {
		t.Errorf("stringAtRVA without terminator error = %v, want ErrMalformed", err)
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		v, pow2, want uint32
	}{
		{0, 0x200, 0},
		{1, 0x200, 0x200},
		{0x200, 0x200, 0x200},
		{0x201, 0x200, 0x400},
	}
	for _, tt := range tests {
		if got := alignUp(tt.v, tt.pow2); got != tt.want {
			t.Errorf("alignUp(%#x, %#x) = %#x, want %#x", tt.v, tt.pow2, got, tt.want)
		}
	}
}
