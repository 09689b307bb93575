// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

// ExportValueKind distinguishes a normal export from a forwarded one.
type ExportValueKind int

const (
	// ExportValueRVA is a normal, in-module export: RVA points at the
	// exported function.
	ExportValueRVA ExportValueKind = iota
	// ExportValueForward is a forwarded export: Forward names the target
	// module and function ("OtherDll.OtherFunc").
	ExportValueForward
)

// ExportValue is the value of a single export entry.
type ExportValue struct {
	Kind    ExportValueKind
	RVA     uint32 // valid when Kind == ExportValueRVA
	Forward string // valid when Kind == ExportValueForward
}

// Export is one entry of the export table.
type Export struct {
	Value   ExportValue
	Ordinal uint16
	Name    string // zero value if HasName is false
	HasName bool
}

// ExportDirectoryTable is the export directory table header, the fixed
// record at the start of the export directory that describes the Export
// Address Table (EAT), Export Name Pointer Table (ENPT), and Export
// Ordinal Table (EOT) that follow it.
type ExportDirectoryTable struct {
	Characteristics uint32
	TimeDateStamp   uint32
	MajorVersion    uint16
	MinorVersion    uint16
	NameRVA         uint32
	OrdinalBase     uint32
	NumOfFuncs      uint32
	NumOfNames      uint32
	FunctionRVA     uint32
	NamesRVA        uint32
	OrdinalsRVA     uint32
}

// validate rejects an ExportDirectoryTable with a non-zero reserved field,
// fewer functions than names, or exactly one of its name/ordinal table RVAs
// set to zero (both must be present, or both absent).
func (t *ExportDirectoryTable) validate() error {
	if t.Characteristics != 0 {
		return errMalformed("ExportDirectoryTable has non zero reserved field 'characteristics'")
	}

	if t.NumOfFuncs < t.NumOfNames {
		return errMalformed("ExportDirectoryTable has invalid number of functions or names")
	}

	if (t.NamesRVA == 0) != (t.OrdinalsRVA == 0) {
		return errMalformed("ExportDirectoryTable has invalid rva to name or ordinal table")
	}

	return nil
}

// ExportTable is a lazy, forward-only iterator over the export directory.
// Call Next repeatedly until it returns (nil, nil); a non-nil error ends
// iteration.
type ExportTable struct {
	data      *ByteReader
	dir       DataDirectory
	table     *ExportDirectoryTable
	funcIndex uint16
	nameIndex uint32
}

func newExportTable(r *ByteReader, dir DataDirectory) (*ExportTable, error) {
	return &ExportTable{data: r, dir: dir}, nil
}

// directoryTable parses and validates the ExportDirectoryTable on first
// call, caching it and advancing the reader to the first EAT entry. Later
// calls return the cached table without touching the reader again.
func (t *ExportTable) directoryTable() (*ExportDirectoryTable, error) {
	if t.table != nil {
		return t.table, nil
	}

	edt, err := ReadT[ExportDirectoryTable](t.data)
	if err != nil {
		return nil, err
	}
	if err := edt.validate(); err != nil {
		return nil, err
	}
	t.data.AdvanceRel(edt.FunctionRVA)
	t.table = edt
	return edt, nil
}

// TimeDateStamp returns the export directory table's time_date_stamp field.
func (t *ExportTable) TimeDateStamp() (uint32, error) {
	edt, err := t.directoryTable()
	if err != nil {
		return 0, err
	}
	return edt.TimeDateStamp, nil
}

// FuncCount returns the export directory table's num_of_funcs field.
func (t *ExportTable) FuncCount() (uint32, error) {
	edt, err := t.directoryTable()
	if err != nil {
		return 0, err
	}
	return edt.NumOfFuncs, nil
}

// NameCount returns the export directory table's num_of_names field.
func (t *ExportTable) NameCount() (uint32, error) {
	edt, err := t.directoryTable()
	if err != nil {
		return 0, err
	}
	return edt.NumOfNames, nil
}

// Next returns the next export entry, or (nil, nil) once every EAT entry
// has been visited.
func (t *ExportTable) Next() (*Export, error) {
	edt, err := t.directoryTable()
	if err != nil {
		return nil, err
	}
	if edt.NumOfFuncs <= uint32(t.funcIndex) {
		return nil, nil
	}

	rva, err := ReadT[uint32](t.data)
	if err != nil {
		return nil, err
	}

	ordinal, err := ReadAtRVA[uint16](t.data, edt.OrdinalsRVA+t.nameIndex*2)
	if err != nil {
		return nil, err
	}

	var name string
	hasName := uint32(t.funcIndex) == uint32(*ordinal)
	if hasName {
		nameRVA, err := ReadAtRVA[uint32](t.data, edt.NamesRVA+t.nameIndex*4)
		if err != nil {
			return nil, err
		}
		name, err = stringAtRVA(t.data, *nameRVA)
		if err != nil {
			return nil, err
		}
	}

	t.funcIndex++
	if hasName {
		t.nameIndex++
	}

	var value ExportValue
	if t.dir.containsRVA(*rva) {
		fwd, err := stringAtRVA(t.data, *rva)
		if err != nil {
			return nil, err
		}
		value = ExportValue{Kind: ExportValueForward, Forward: fwd}
	} else {
		value = ExportValue{Kind: ExportValueRVA, RVA: *rva}
	}

	return &Export{
		Value:   value,
		Ordinal: uint16(edt.OrdinalBase) + t.funcIndex - 1,
		Name:    name,
		HasName: hasName,
	}, nil
}
