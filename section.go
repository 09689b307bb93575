// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import "unicode/utf8"

// Section characteristics flags. Used with Section.HasFlag.
const (
	SectionFlagCntCode         = 0x00000020
	SectionFlagCntInitData     = 0x00000040
	SectionFlagCntUninitData   = 0x00000080
	SectionFlagGPRel           = 0x00008000
	SectionFlagNRelocOvfl      = 0x01000000
	SectionFlagDiscardable     = 0x02000000
	SectionFlagNotCached       = 0x04000000
	SectionFlagNotPaged        = 0x08000000
	SectionFlagShared          = 0x10000000
	SectionFlagExecute         = 0x20000000
	SectionFlagRead            = 0x40000000
	SectionFlagWrite           = 0x80000000
)

// SectionHeader is a single entry of the section table, a byte-exact mirror
// of the on-disk IMAGE_SECTION_HEADER layout.
type SectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// validate rejects a SectionHeader whose name isn't valid UTF-8, whose raw
// data size or address isn't a multiple of fileAlignment, or which carries
// neither a virtual range nor a raw range.
func (h *SectionHeader) validate(fileAlignment uint32) error {
	if !utf8.Valid(h.Name[:]) {
		return errMalformed("SectionHeader has non utf-8 name")
	}

	if h.SizeOfRawData%fileAlignment != 0 {
		return errMalformed("SectionHeader has invalid size of raw data (%#08x)", h.SizeOfRawData)
	}

	if h.PointerToRawData%fileAlignment != 0 {
		return errMalformed("SectionHeader has invalid address of raw data (%#08x)", h.PointerToRawData)
	}

	if (h.VirtualSize == 0 && h.SizeOfRawData == 0) ||
		(h.VirtualAddress == 0 && h.PointerToRawData == 0) {
		return errMalformed("SectionHeader has invalid section size or address")
	}

	return nil
}

// name returns the section's NUL-padded 8-byte name, trimmed of trailing
// NUL bytes.
func (h *SectionHeader) name() string {
	n := len(h.Name)
	for n > 0 && h.Name[n-1] == 0 {
		n--
	}
	return string(h.Name[:n])
}

// Section pairs a borrowed section header with an optional byte reader over
// that section's raw on-disk data. A section with SizeOfRawData == 0 is
// empty and never backs an RVA lookup.
type Section struct {
	header *SectionHeader
	data   *ByteReader
}

// parseSection slices image's raw data for header's section, if any, and
// wraps it in a relative ByteReader so RVAs within the section resolve
// correctly.
func parseSection(image []byte, header *SectionHeader) (Section, error) {
	if header.SizeOfRawData == 0 {
		return Section{header: header}, nil
	}

	start := int(header.PointerToRawData)
	end := start + int(header.SizeOfRawData)
	if start < 0 || end > len(image) || start > end {
		return Section{}, errInsufficientBuffer()
	}

	return Section{
		header: header,
		data:   NewReaderRel(image[start:end], header.VirtualAddress),
	}, nil
}

// Header returns the section's header.
func (s *Section) Header() *SectionHeader {
	return s.header
}

// Name returns the section's name.
func (s *Section) Name() string {
	return s.header.name()
}

// Data returns a ByteReader over the section's raw data, or nil if the
// section is empty.
func (s *Section) Data() *ByteReader {
	return s.data
}

// Empty reports whether the section has no raw data.
func (s *Section) Empty() bool {
	return s.data == nil
}

// HasFlag reports whether flag is set in the section's characteristics.
func (s *Section) HasFlag(flag uint32) bool {
	return s.header.Characteristics&flag != 0
}

// addrKind distinguishes an RVA from a file offset when testing section
// membership.
type addrKind int

const (
	addrRVA addrKind = iota
	addrFilePointer
)

// containsAddr reports whether addr (of the given kind) lies within the
// section's virtual range (for RVAs) or raw-data range (for file offsets).
func (s *Section) containsAddr(kind addrKind, addr uint32) bool {
	var base, size uint32
	switch kind {
	case addrRVA:
		base, size = s.header.VirtualAddress, s.header.VirtualSize
	case addrFilePointer:
		base, size = s.header.PointerToRawData, s.header.SizeOfRawData
	}
	return addr >= base && addr < base+size
}
