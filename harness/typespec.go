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

import (
	"fmt"
	"strings"
)

// Kind enumerates the shapes a declared parameter or return type can
// take. The generators switch on this instead of re-parsing the raw
// type string at every site.
type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindLong
	KindDouble
	KindFloat
	KindBool
	KindChar
	KindString
	KindArray
	KindList
	KindListNode
	KindTreeNode
	KindGraphNode
)

type TypeSpec struct {
	Kind Kind
	// Elem is set for KindArray and KindList.
	Elem *TypeSpec
	// Raw is the declared type string as it appeared in the metadata,
	// usable verbatim as a Java declaration.
	Raw string
}

var scalarKinds = map[string]Kind{
	"void":      KindVoid,
	"int":       KindInt,
	"Integer":   KindInt,
	"long":      KindLong,
	"Long":      KindLong,
	"double":    KindDouble,
	"Double":    KindDouble,
	"float":     KindFloat,
	"Float":     KindFloat,
	"boolean":   KindBool,
	"Boolean":   KindBool,
	"char":      KindChar,
	"Character": KindChar,
	"String":    KindString,
	"ListNode":  KindListNode,
	"TreeNode":  KindTreeNode,
	"Node":      KindGraphNode,
}

// ParseTypeSpec turns a language-style declared type such as "int[][]"
// or "List<List<Integer>>" into its TypeSpec.
func ParseTypeSpec(raw string) (*TypeSpec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty type")
	}
	if strings.HasSuffix(s, "[]") {
		elem, err := ParseTypeSpec(s[:len(s)-2])
		if err != nil {
			return nil, fmt.Errorf("array type %q: %w", raw, err)
		}
		return &TypeSpec{Kind: KindArray, Elem: elem, Raw: s}, nil
	}
	if strings.HasPrefix(s, "List<") && strings.HasSuffix(s, ">") {
		elem, err := ParseTypeSpec(s[len("List<") : len(s)-1])
		if err != nil {
			return nil, fmt.Errorf("list type %q: %w", raw, err)
		}
		return &TypeSpec{Kind: KindList, Elem: elem, Raw: s}, nil
	}
	if kind, ok := scalarKinds[s]; ok {
		return &TypeSpec{Kind: kind, Raw: s}, nil
	}
	return nil, fmt.Errorf("unsupported type %q", raw)
}

// IsCustomDS reports whether the spec bottoms out in one of the linked
// structures the harness must provide support code for.
func (t *TypeSpec) IsCustomDS() bool {
	switch t.Kind {
	case KindListNode, KindTreeNode, KindGraphNode:
		return true
	case KindArray, KindList:
		return t.Elem.IsCustomDS()
	}
	return false
}

// BaseDS returns the custom structure name a spec bottoms out in, or "".
func (t *TypeSpec) BaseDS() string {
	switch t.Kind {
	case KindListNode:
		return "ListNode"
	case KindTreeNode:
		return "TreeNode"
	case KindGraphNode:
		return "Node"
	case KindArray, KindList:
		return t.Elem.BaseDS()
	}
	return ""
}
