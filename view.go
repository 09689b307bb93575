// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import "unsafe"

// View is an immutable, zero-copy view over a PE32+ image. Every field a
// View exposes aliases the byte slice it was built from; a View never
// outlives the caller's ownership of that slice.
//
// A View is fully validated at construction: DOSHeader, NTHeader, and every
// SectionHeader have already passed their validate() checks by the time
// Parse returns one. A View is safe to read from multiple goroutines
// concurrently (it is never mutated after construction); the iterators it
// hands out are not, since each holds a mutable cursor.
type View struct {
	image     []byte
	dosHeader *DOSHeader
	ntHeader  *NTHeader
	sections  []Section
}

// Parse validates and builds a View over data without copying it. data must
// outlive the returned View.
func Parse(data []byte) (*View, error) {
	r := NewReader(data)

	dosHeader, err := ReadT[DOSHeader](r)
	if err != nil {
		return nil, err
	}
	if err := dosHeader.validate(); err != nil {
		return nil, err
	}

	r.AdvanceRel(dosHeader.AddressOfNewEXEHeader)
	ntHeader, err := ReadT[NTHeader](r)
	if err != nil {
		return nil, err
	}
	if err := ntHeader.validate(); err != nil {
		return nil, err
	}

	sectionTableOffset := dosHeader.AddressOfNewEXEHeader +
		uint32(unsafe.Sizeof(ntHeader.Signature)) +
		uint32(unsafe.Sizeof(ntHeader.FileHeader)) +
		uint32(ntHeader.FileHeader.SizeOfOptionalHeader)
	r.AdvanceRel(sectionTableOffset)

	numSections := int(ntHeader.FileHeader.NumberOfSections)
	sections := make([]Section, 0, numSections)
	for i := 0; i < numSections; i++ {
		header, err := ReadT[SectionHeader](r)
		if err != nil {
			return nil, err
		}
		if err := header.validate(ntHeader.OptionalHeader.FileAlignment); err != nil {
			return nil, err
		}
		section, err := parseSection(data, header)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	return &View{
		image:     data,
		dosHeader: dosHeader,
		ntHeader:  ntHeader,
		sections:  sections,
	}, nil
}

// DOSHeader returns the image's DOS header.
func (v *View) DOSHeader() *DOSHeader {
	return v.dosHeader
}

// NTHeader returns the image's NT header.
func (v *View) NTHeader() *NTHeader {
	return v.ntHeader
}

// Sections returns the image's section table, in on-disk order.
func (v *View) Sections() []Section {
	return v.sections
}

// HasFlag reports whether flag is set in the file header's characteristics.
func (v *View) HasFlag(flag uint16) bool {
	return v.ntHeader.FileHeader.Characteristics&flag != 0
}

// Directory returns the entry-th data directory and true, or a zero value
// and false if entry is out of range or the directory is empty.
func (v *View) Directory(entry DirectoryEntry) (DataDirectory, bool) {
	if entry < 0 || int(entry) >= int(numberOfDirectoryEntries) ||
		int(entry) >= int(v.ntHeader.OptionalHeader.NumberOfRvaAndSizes) {
		return DataDirectory{}, false
	}
	dd := v.ntHeader.OptionalHeader.DataDirectory[entry]
	if dd.Size == 0 {
		return DataDirectory{}, false
	}
	return dd, true
}

// sectionByAddr returns the first non-empty section, in section-table order,
// containing addr of the given kind, or nil. Overlapping sections are not
// detected. Empty sections are skipped for both RVA and file-pointer
// queries: an empty section has no raw data to back either kind of address.
func (v *View) sectionByAddr(kind addrKind, addr uint32) *Section {
	for i := range v.sections {
		s := &v.sections[i]
		if s.Empty() {
			continue
		}
		if s.containsAddr(kind, addr) {
			return s
		}
	}
	return nil
}

// SectionByRVA returns the section containing rva, or nil.
func (v *View) SectionByRVA(rva uint32) *Section {
	return v.sectionByAddr(addrRVA, rva)
}

// SectionByFileOffset returns the section containing the file offset off, or
// nil.
func (v *View) SectionByFileOffset(off uint32) *Section {
	return v.sectionByAddr(addrFilePointer, off)
}

// SectionByName returns the first section named name, or nil.
func (v *View) SectionByName(name string) *Section {
	for i := range v.sections {
		if v.sections[i].Name() == name {
			return &v.sections[i]
		}
	}
	return nil
}

// directoryBytes resolves entry's data directory to a ByteReader over its
// bytes and returns the directory alongside it. The certificate table is the
// sole file-offset-addressed directory and is resolved directly against the
// image. Every other directory is RVA-addressed and resolved against the
// section that contains it: the import directory runs to the end of that
// section (it is zero-terminated, not length-prefixed — the ILT and name
// data that its descriptors point to may lie past dd.Size),
// while export/relocation directories are sliced to dd.Size.
func (v *View) directoryBytes(entry DirectoryEntry) (*ByteReader, DataDirectory, error) {
	dd, ok := v.Directory(entry)
	if !ok {
		return nil, DataDirectory{}, errDataDirectoryEmpty()
	}

	if entry == DirectoryEntryCertificate {
		start := int(dd.VirtualAddress)
		end := start + int(dd.Size)
		if start < 0 || end > len(v.image) || start > end {
			return nil, dd, errInsufficientBuffer()
		}
		return NewReader(v.image[start:end]), dd, nil
	}

	sec := v.sectionByAddr(addrRVA, dd.VirtualAddress)
	if sec == nil {
		return nil, dd, errSectionEmpty()
	}
	b, err := sec.Data().SliceAtRVA(dd.VirtualAddress)
	if err != nil {
		return nil, dd, err
	}

	if entry == DirectoryEntryImport {
		return NewReaderRel(b, dd.VirtualAddress), dd, nil
	}

	if len(b) < int(dd.Size) {
		return nil, dd, errInsufficientBuffer()
	}
	return NewReaderRel(b[:dd.Size], dd.VirtualAddress), dd, nil
}

// Exports returns an iterator over the image's export directory.
func (v *View) Exports() (*ExportTable, error) {
	r, dd, err := v.directoryBytes(DirectoryEntryExport)
	if err != nil {
		return nil, err
	}
	return newExportTable(r, dd)
}

// Imports returns an iterator over the image's import directory.
func (v *View) Imports() (*ImportTable, error) {
	r, _, err := v.directoryBytes(DirectoryEntryImport)
	if err != nil {
		return nil, err
	}
	return newImportTable(r), nil
}

// Relocations returns an iterator over the image's base relocation
// directory.
func (v *View) Relocations() (*RelocationTable, error) {
	r, dd, err := v.directoryBytes(DirectoryEntryBaseReloc)
	if err != nil {
		return nil, err
	}
	return newRelocationTable(r, dd), nil
}

// Certificates returns an iterator over the image's certificate directory.
func (v *View) Certificates() (*CertificateTable, error) {
	r, dd, err := v.directoryBytes(DirectoryEntryCertificate)
	if err != nil {
		return nil, err
	}
	return newCertificateTable(r, dd), nil
}
