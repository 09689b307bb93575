// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import (
	"errors"
	"testing"

	"github.com/binlens/pe32plus/internal/petest"
)

func validTwoSectionImage() *petest.Builder {
	return petest.NewImage().
		AddSection(".text", SectionFlagCntCode|SectionFlagExecute|SectionFlagRead, make([]byte, 64)).
		AddSection(".data", SectionFlagCntInitData|SectionFlagRead|SectionFlagWrite, make([]byte, 64))
}

func TestNTHeaderValidate(t *testing.T) {
	tests := []struct {
		name    string
		build   func() []byte
		wantErr error
	}{
		{
			name:  "valid",
			build: func() []byte { return validTwoSectionImage().Bytes() },
		},
		{
			name:    "bad signature",
			build:   func() []byte { return validTwoSectionImage().WithBadNTSignature().Bytes() },
			wantErr: ErrMalformed,
		},
		{
			name: "unknown machine",
			build: func() []byte {
				return validTwoSectionImage().WithMachine(0xffff).Bytes()
			},
			wantErr: ErrMalformed,
		},
		{
			name: "too few sections",
			build: func() []byte {
				return petest.NewImage().AddSection(".text", 0, make([]byte, 16)).Bytes()
			},
			wantErr: ErrMalformed,
		},
		{
			name: "file alignment too small",
			build: func() []byte {
				return validTwoSectionImage().WithFileAlignment(0x100).Bytes()
			},
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.build())
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want kind %v", err, tt.wantErr)
			}
		})
	}
}

func TestViewHasFlag(t *testing.T) {
	v, err := Parse(validTwoSectionImage().Bytes())
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if !v.HasFlag(ImageFileExecutableImage) {
		t.Fatalf("HasFlag(ImageFileExecutableImage) = false, want true")
	}
	if v.HasFlag(ImageFileDLL) {
		t.Fatalf("HasFlag(ImageFileDLL) = true, want false")
	}
}
