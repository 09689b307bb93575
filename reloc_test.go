// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import (
	"encoding/binary"
	"testing"

	"github.com/binlens/pe32plus/internal/petest"
)

// buildRelocSection lays out two relocation blocks at RVA 0x1000: one
// targeting page 0x2000 with a HighLow and an Absolute (padding) entry,
// one targeting page 0x3000 with a Dir64 and an Absolute (padding) entry.
func buildRelocSection() []byte {
	buf := make([]byte, 24)
	le := binary.LittleEndian

	le.PutUint32(buf[0:], 0x2000)
	le.PutUint32(buf[4:], 12) // block_size: 8-byte head + two 16-bit entries
	le.PutUint16(buf[8:], (0x3<<12)|0x123)
	le.PutUint16(buf[10:], 0)

	le.PutUint32(buf[12:], 0x3000)
	le.PutUint32(buf[16:], 12) // block_size: 8-byte head + two 16-bit entries
	le.PutUint16(buf[20:], (0xA<<12)|0x001)
	le.PutUint16(buf[22:], 0)

	return buf
}

func TestRelocationTableIteration(t *testing.T) {
	data := buildRelocSection()
	v, err := Parse(petest.NewImage().
		AddSection(".reloc", SectionFlagCntInitData|SectionFlagDiscardable|SectionFlagRead, data).
		AddSection(".rdata", SectionFlagCntInitData|SectionFlagRead, make([]byte, 16)).
		SetDirectory(petest.DirBaseReloc, 0x1000, uint32(len(data))).
		Bytes())
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	relocs, err := v.Relocations()
	if err != nil {
		t.Fatalf("Relocations() failed: %v", err)
	}

	block, err := relocs.Next()
	if err != nil || block == nil {
		t.Fatalf("Next() block #1 = (%v, %v), want a block", block, err)
	}
	if block.PageRVA() != 0x2000 || block.EntryCount() != 2 {
		t.Errorf("block #1 = page %#x count %d, want page 0x2000 count 2", block.PageRVA(), block.EntryCount())
	}

	r, err := block.Next()
	if err != nil || r == nil || r.Kind != RelocationHighLow || r.Offset != 0x123 {
		t.Fatalf("block #1 entry #1 = (%+v, %v), want HighLow(0x123)", r, err)
	}
	r, err = block.Next()
	if err != nil || r == nil || r.Kind != RelocationAbsolute || r.Offset != 0 {
		t.Fatalf("block #1 entry #2 = (%+v, %v), want Absolute(0)", r, err)
	}
	r, err = block.Next()
	if err != nil || r != nil {
		t.Fatalf("block #1 entry #3 = (%v, %v), want (nil, nil)", r, err)
	}

	block, err = relocs.Next()
	if err != nil || block == nil {
		t.Fatalf("Next() block #2 = (%v, %v), want a block", block, err)
	}
	if block.PageRVA() != 0x3000 || block.EntryCount() != 2 {
		t.Errorf("block #2 = page %#x count %d, want page 0x3000 count 2", block.PageRVA(), block.EntryCount())
	}
	r, err = block.Next()
	if err != nil || r == nil || r.Kind != RelocationDir64 || r.Offset != 1 {
		t.Fatalf("block #2 entry #1 = (%+v, %v), want Dir64(1)", r, err)
	}

	block, err = relocs.Next()
	if err != nil || block != nil {
		t.Fatalf("Next() block #3 = (%v, %v), want (nil, nil)", block, err)
	}
}

// buildRelocSectionWithOverlongTrailer appends, after the two well-formed
// blocks buildRelocSection lays out, one more block head whose block_size
// claims far more entry bytes than remain in the section — the padding
// pattern real linkers leave when the base relocation directory's declared
// Size rounds up past the last real block.
func buildRelocSectionWithOverlongTrailer() []byte {
	buf := buildRelocSection()
	le := binary.LittleEndian

	trailer := make([]byte, 8)
	le.PutUint32(trailer[0:], 0x4000)
	le.PutUint32(trailer[4:], 1000) // far larger than any bytes left after it

	return append(buf, trailer...)
}

func TestRelocationTableOverlongTrailingBlockEndsTable(t *testing.T) {
	data := buildRelocSectionWithOverlongTrailer()
	v, err := Parse(petest.NewImage().
		AddSection(".reloc", SectionFlagCntInitData|SectionFlagDiscardable|SectionFlagRead, data).
		AddSection(".rdata", SectionFlagCntInitData|SectionFlagRead, make([]byte, 16)).
		SetDirectory(petest.DirBaseReloc, 0x1000, uint32(len(data))).
		Bytes())
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	relocs, err := v.Relocations()
	if err != nil {
		t.Fatalf("Relocations() failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		block, err := relocs.Next()
		if err != nil || block == nil {
			t.Fatalf("Next() block #%d = (%v, %v), want a well-formed block", i+1, block, err)
		}
		for {
			r, err := block.Next()
			if err != nil {
				t.Fatalf("block #%d entry read failed: %v", i+1, err)
			}
			if r == nil {
				break
			}
		}
	}

	block, err := relocs.Next()
	if err != nil || block != nil {
		t.Fatalf("Next() on overlong trailing block = (%v, %v), want (nil, nil), not an error", block, err)
	}
}

func TestRelocationFromEntryUnknownType(t *testing.T) {
	_, err := relocationFromEntry(relocationEntry(0xB000))
	if err == nil {
		t.Fatalf("relocationFromEntry(kind 0xB) = nil error, want malformed")
	}
}
