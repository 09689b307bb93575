// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import (
	"errors"
	"unsafe"
)

// RelocationKind is the type of a single base relocation entry, as defined
// by the IMAGE_REL_BASED_* constants.
type RelocationKind int

// Relocation kinds. Values other than these ten are rejected as malformed;
// this package applies no relocations, it only decodes them.
const (
	RelocationAbsolute RelocationKind = iota
	RelocationHigh
	RelocationLow
	RelocationHighLow
	RelocationHighAdj
	RelocationMipsArmRiscv
	RelocationThumbRiscv
	RelocationRiscvLoong
	RelocationJmpAddr
	RelocationDir64
)

// Relocation is a single decoded base relocation entry: its kind and the
// low 12 bits of offset into the owning block's page.
type Relocation struct {
	Kind   RelocationKind
	Offset uint16
}

// RelocationHead is the fixed 8-byte header of a base relocation block.
type RelocationHead struct {
	PageRVA   uint32
	BlockSize uint32
}

// relocationEntry is a single 16-bit base relocation record: a 4-bit type
// in the high nibble and a 12-bit page offset in the rest.
type relocationEntry uint16

func (e relocationEntry) offset() uint16 {
	return uint16(e) & 0x0fff
}

func (e relocationEntry) kind() uint16 {
	return uint16(e) >> 12
}

func relocationFromEntry(e relocationEntry) (Relocation, error) {
	switch e.kind() {
	case 0x0:
		return Relocation{RelocationAbsolute, e.offset()}, nil
	case 0x1:
		return Relocation{RelocationHigh, e.offset()}, nil
	case 0x2:
		return Relocation{RelocationLow, e.offset()}, nil
	case 0x3:
		return Relocation{RelocationHighLow, e.offset()}, nil
	case 0x4:
		return Relocation{RelocationHighAdj, e.offset()}, nil
	case 0x5:
		return Relocation{RelocationMipsArmRiscv, e.offset()}, nil
	case 0x7:
		return Relocation{RelocationThumbRiscv, e.offset()}, nil
	case 0x8:
		return Relocation{RelocationRiscvLoong, e.offset()}, nil
	case 0x9:
		return Relocation{RelocationJmpAddr, e.offset()}, nil
	case 0xA:
		return Relocation{RelocationDir64, e.offset()}, nil
	default:
		return Relocation{}, errMalformed("RelocationEntry has invalid type (%d)", e.kind())
	}
}

// RelocationBlock is a lazy, forward-only iterator over a single base
// relocation block's entries. Call Next repeatedly until it returns (nil,
// nil); an unrecognized relocation type ends iteration with an error.
type RelocationBlock struct {
	head *RelocationHead
	data *ByteReader
}

func newRelocationBlock(data []byte, head *RelocationHead) *RelocationBlock {
	return &RelocationBlock{head: head, data: NewReader(data)}
}

// PageRVA returns the block's page_rva field.
func (b *RelocationBlock) PageRVA() uint32 {
	return b.head.PageRVA
}

// EntryCount returns the number of entries the block's block_size field
// implies. Relocation entries are always 16 bits, independent of target
// machine architecture.
func (b *RelocationBlock) EntryCount() int {
	return (int(b.head.BlockSize) - int(unsafe.Sizeof(RelocationHead{}))) / 2
}

// Next returns the block's next relocation entry, or (nil, nil) once the
// block is exhausted.
func (b *RelocationBlock) Next() (*Relocation, error) {
	entry, err := ReadT[relocationEntry](b.data)
	if err != nil {
		if errors.Is(err, ErrInsufficientBuffer) {
			return nil, nil
		}
		return nil, err
	}

	r, err := relocationFromEntry(*entry)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RelocationTable is a lazy, forward-only iterator over the base
// relocation directory, yielding one RelocationBlock per page.
type RelocationTable struct {
	data *ByteReader
}

func newRelocationTable(r *ByteReader, _ DataDirectory) *RelocationTable {
	return &RelocationTable{data: r}
}

// Next returns an iterator over the next relocation block, or (nil, nil)
// once the zero-sized or misaligned block_size sentinel that terminates
// the table is reached.
func (t *RelocationTable) Next() (*RelocationBlock, error) {
	head, err := ReadT[RelocationHead](t.data)
	if err != nil {
		if errors.Is(err, ErrInsufficientBuffer) {
			return nil, nil
		}
		return nil, err
	}

	if head.BlockSize == 0 || head.BlockSize%4 != 0 {
		return nil, nil
	}

	headSize := int(unsafe.Sizeof(RelocationHead{}))
	length := int(head.BlockSize) - headSize
	if length < 0 {
		return nil, errMalformed("RelocationHead has block_size (%d) smaller than its own header", head.BlockSize)
	}

	// The base relocation directory's declared Size commonly pads past the
	// last real block (trailing zero bytes read back as a zero-sized or
	// misaligned block_size, already handled above); a block_size that would
	// overrun the remaining bytes is the same kind of padding artifact, not
	// malformed data, so it ends the table rather than erroring.
	remaining := t.data.Remaining()
	if length > len(remaining) {
		return nil, nil
	}

	blockData := remaining[:length]
	t.data.AdvanceCur(length)
	return newRelocationBlock(blockData, head), nil
}
