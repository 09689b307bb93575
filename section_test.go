// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import (
	"testing"
)

func TestViewSections(t *testing.T) {
	text := make([]byte, 128)
	for i := range text {
		text[i] = byte(i)
	}

	v, err := Parse(validTwoSectionImage().Bytes())
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	sections := v.Sections()
	if len(sections) != 2 {
		t.Fatalf("len(Sections()) = %d, want 2", len(sections))
	}

	if got := sections[0].Name(); got != ".text" {
		t.Errorf("Sections()[0].Name() = %q, want %q", got, ".text")
	}
	if !sections[0].HasFlag(SectionFlagExecute) {
		t.Errorf("Sections()[0].HasFlag(SectionFlagExecute) = false, want true")
	}
	if sections[0].Empty() {
		t.Errorf("Sections()[0].Empty() = true, want false")
	}

	if got := v.SectionByName(".data"); got == nil || got.Name() != ".data" {
		t.Errorf("SectionByName(.data) = %v, want a section named .data", got)
	}

	if got := v.SectionByName("nope"); got != nil {
		t.Errorf("SectionByName(nope) = %v, want nil", got)
	}

	textRVA := sections[0].Header().VirtualAddress
	if got := v.SectionByRVA(textRVA); got == nil || got.Name() != ".text" {
		t.Errorf("SectionByRVA(%#x) = %v, want the .text section", textRVA, got)
	}
}
