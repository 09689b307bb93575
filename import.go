// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

// ImportKind distinguishes an import-by-name entry from an import-by-
// ordinal one.
type ImportKind int

const (
	// ImportName is a hint/name pair identifying the imported symbol.
	ImportName ImportKind = iota
	// ImportOrdinal is a bare ordinal value.
	ImportOrdinal
)

// Import is a single entry of a module's import lookup table.
type Import struct {
	Kind    ImportKind
	Hint    uint16 // valid when Kind == ImportName
	Name    string // valid when Kind == ImportName
	Ordinal uint16 // valid when Kind == ImportOrdinal
}

// ImportDirectoryEntry is a single entry of the import directory table,
// describing one imported module.
type ImportDirectoryEntry struct {
	LookupRVA      uint32
	TimeDateStamp  uint32
	ForwarderChain uint32
	NameRVA        uint32
	AddressRVA     uint32
}

// ImportEntry is a single 64-bit Import Lookup Table (ILT) entry. Its top
// bit flags an import-by-ordinal; the low 32 bits otherwise hold an RVA to
// a Hint/Name table entry.
type ImportEntry uint64

// Value returns the low 32 bits of the entry: either an ordinal or an RVA
// to a Hint/Name table entry, depending on IsOrdinal.
func (e ImportEntry) Value() uint32 {
	return uint32(e & 0x00000000ffffffff)
}

// IsOrdinal reports whether the entry imports by ordinal rather than by
// name.
func (e ImportEntry) IsOrdinal() bool {
	return e>>63 == 1
}

// ImportModule is a lazy, forward-only iterator over a single imported
// module's Import Lookup Table.
type ImportModule struct {
	data *ByteReader
	dir  *ImportDirectoryEntry
}

func newImportModule(data []byte, base uint32, dir *ImportDirectoryEntry) *ImportModule {
	r := NewReaderRel(data, base)
	r.AdvanceRel(dir.LookupRVA)
	return &ImportModule{data: r, dir: dir}
}

// TimeDateStamp returns the module entry's time_date_stamp field.
func (m *ImportModule) TimeDateStamp() uint32 {
	return m.dir.TimeDateStamp
}

// Forwarder returns the module entry's forwarder_chain field.
func (m *ImportModule) Forwarder() uint32 {
	return m.dir.ForwarderChain
}

// AddressRVA returns the module entry's address_rva field, the RVA of the
// module's Import Address Table.
func (m *ImportModule) AddressRVA() uint32 {
	return m.dir.AddressRVA
}

// Name resolves the imported module's name.
func (m *ImportModule) Name() (string, error) {
	return stringAtRVA(m.data, m.dir.NameRVA)
}

// Next returns the module's next import entry, or (nil, nil) once the
// zero-valued sentinel entry that terminates the Import Lookup Table is
// reached.
func (m *ImportModule) Next() (*Import, error) {
	entry, err := ReadT[ImportEntry](m.data)
	if err != nil {
		return nil, err
	}
	if *entry == ImportEntry(0) {
		return nil, nil
	}

	if entry.IsOrdinal() {
		return &Import{Kind: ImportOrdinal, Ordinal: uint16(entry.Value())}, nil
	}

	hint, err := ReadAtRVA[uint16](m.data, entry.Value())
	if err != nil {
		return nil, err
	}
	name, err := stringAtRVA(m.data, entry.Value()+2)
	if err != nil {
		return nil, err
	}
	return &Import{Kind: ImportName, Hint: *hint, Name: name}, nil
}

// ImportTable is a lazy, forward-only iterator over the import directory,
// yielding one ImportModule per imported module.
type ImportTable struct {
	data *ByteReader
}

func newImportTable(r *ByteReader) *ImportTable {
	return &ImportTable{data: r}
}

// Next returns an iterator over the next module's imports, or (nil, nil)
// once the zero-valued sentinel entry that terminates the Import Directory
// Table is reached.
func (t *ImportTable) Next() (*ImportModule, error) {
	dir, err := ReadT[ImportDirectoryEntry](t.data)
	if err != nil {
		return nil, err
	}
	if *dir == (ImportDirectoryEntry{}) {
		return nil, nil
	}

	base, _ := t.data.RelBase()
	return newImportModule(t.data.Bytes(), base, dir), nil
}
