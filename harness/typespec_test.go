// BSD 2-Clause License
//
// Copyright (c) 2020, Andrea Giacomo Baldan
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
//
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
// FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
// DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
// CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
// OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package harness

import "testing"

func TestParseTypeSpecScalars(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
	}{
		{"int", KindInt},
		{"Integer", KindInt},
		{"long", KindLong},
		{"double", KindDouble},
		{"boolean", KindBool},
		{"char", KindChar},
		{"String", KindString},
		{"void", KindVoid},
		{"ListNode", KindListNode},
		{"TreeNode", KindTreeNode},
		{"Node", KindGraphNode},
	}
	for _, tt := range tests {
		spec, err := ParseTypeSpec(tt.raw)
		if err != nil {
			t.Errorf("ParseTypeSpec(%q): %v", tt.raw, err)
			continue
		}
		if spec.Kind != tt.kind {
			t.Errorf("ParseTypeSpec(%q).Kind = %v, want %v", tt.raw, spec.Kind, tt.kind)
		}
	}
}

func TestParseTypeSpecNested(t *testing.T) {
	spec, err := ParseTypeSpec("int[][]")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Kind != KindArray || spec.Elem.Kind != KindArray || spec.Elem.Elem.Kind != KindInt {
		t.Errorf("int[][] parsed as %+v", spec)
	}

	spec, err = ParseTypeSpec("List<List<Integer>>")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Kind != KindList || spec.Elem.Kind != KindList || spec.Elem.Elem.Kind != KindInt {
		t.Errorf("List<List<Integer>> parsed as %+v", spec)
	}

	spec, err = ParseTypeSpec("ListNode[]")
	if err != nil {
		t.Fatal(err)
	}
	if !spec.IsCustomDS() || spec.BaseDS() != "ListNode" {
		t.Errorf("ListNode[] should bottom out in ListNode, got %+v", spec)
	}
}

func TestParseTypeSpecRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "Foo", "List<Foo>", "Map<String,Integer>"} {
		if _, err := ParseTypeSpec(raw); err == nil {
			t.Errorf("expected ParseTypeSpec(%q) to fail", raw)
		}
	}
}
