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
	"encoding/json"
	"strings"
	"testing"

	"github.com/codehive/execengine/submission"
)

func twoSumMeta() *submission.QuestionMetadata {
	return &submission.QuestionMetadata{
		PackageName:  "com.example.q1",
		FunctionName: "twoSum",
		ReturnType:   "int[]",
		Parameters: []submission.Parameter{
			{Name: "nums", Type: "int[]"},
			{Name: "target", Type: "int"},
		},
		QuestionType: submission.FunctionCall,
	}
}

func fileByName(t *testing.T, files []File, name string) File {
	t.Helper()
	for _, f := range files {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no file %q in %v", name, fileNames(files))
	return File{}
}

func fileNames(files []File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

func TestJavaGenerateFunctionCall(t *testing.T) {
	g := &JavaGenerator{}
	cases := []submission.TestCase{
		{Input: json.RawMessage(`{"nums":[2,7,11,15],"target":9}`)},
		{Input: json.RawMessage(`{"nums":[3,3],"target":6}`)},
	}
	files, err := g.Generate(twoSumMeta(), "class Solution { public int[] twoSum(int[] nums, int target) { return null; } }", cases)
	if err != nil {
		t.Fatal(err)
	}

	main := fileByName(t, files, "com/example/q1/Main.java")
	if !strings.HasPrefix(main.Content, "package com.example.q1;") {
		t.Error("Main.java missing package declaration")
	}
	for _, want := range []string{
		"runCase0(solution);",
		"runCase1(solution);",
		`TEST_CASE_RESULT: 0,`,
		`TEST_CASE_RESULT: 1,`,
		"solution.twoSum(nums, target)",
		`{\"nums\":[2,7,11,15],\"target\":9}`,
	} {
		if !strings.Contains(main.Content, want) {
			t.Errorf("Main.java missing %q", want)
		}
	}

	sol := fileByName(t, files, "com/example/q1/Solution.java")
	if !strings.Contains(sol.Content, "import java.util.*;") {
		t.Error("Solution.java should import java.util.*")
	}

	support := fileByName(t, files, "com/example/q1/JsonSupport.java")
	if !strings.Contains(support.Content, "errorInfo") {
		t.Error("JsonSupport.java missing errorInfo")
	}
	// Plain array types go through gson, no structure helpers emitted.
	if strings.Contains(support.Content, "buildListNode") {
		t.Error("unexpected ListNode helpers for an int[] question")
	}
}

func TestJavaGenerateEmitsRequiredStructures(t *testing.T) {
	g := &JavaGenerator{}
	meta := &submission.QuestionMetadata{
		PackageName:  "q",
		FunctionName: "reverseList",
		ReturnType:   "ListNode",
		Parameters:   []submission.Parameter{{Name: "head", Type: "ListNode"}},
		QuestionType: submission.FunctionCall,
	}
	cases := []submission.TestCase{{Input: json.RawMessage(`{"head":[1,2,3]}`)}}

	files, err := g.Generate(meta, "class Solution { public ListNode reverseList(ListNode head) { return head; } }", cases)
	if err != nil {
		t.Fatal(err)
	}
	ds := fileByName(t, files, "q/ListNode.java")
	if !strings.Contains(ds.Content, "class ListNode") {
		t.Error("ListNode.java missing class definition")
	}
	support := fileByName(t, files, "q/JsonSupport.java")
	for _, want := range []string{"buildListNode", "convertListNodeToJson"} {
		if !strings.Contains(support.Content, want) {
			t.Errorf("JsonSupport.java missing %q", want)
		}
	}
}

func TestJavaGenerateSkipsUserDefinedStructure(t *testing.T) {
	g := &JavaGenerator{}
	meta := &submission.QuestionMetadata{
		PackageName:  "q",
		FunctionName: "reverseList",
		ReturnType:   "ListNode",
		Parameters:   []submission.Parameter{{Name: "head", Type: "ListNode"}},
		QuestionType: submission.FunctionCall,
	}
	code := "class ListNode { int val; ListNode next; }\n" +
		"class Solution { public ListNode reverseList(ListNode head) { return head; } }"
	files, err := g.Generate(meta, code, []submission.TestCase{{Input: json.RawMessage(`{"head":[1]}`)}})
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if f.Name == "q/ListNode.java" {
			t.Error("harness should not duplicate a user-defined ListNode")
		}
	}
}

func TestJavaUserImportHoisting(t *testing.T) {
	code := "import java.util.stream.*;\n\nclass Solution {}"
	src := javaUserSource("q", code)
	pkgIdx := strings.Index(src, "package q;")
	impIdx := strings.Index(src, "import java.util.stream.*;")
	clsIdx := strings.Index(src, "class Solution")
	if pkgIdx != 0 || impIdx < 0 || clsIdx < 0 || !(pkgIdx < impIdx && impIdx < clsIdx) {
		t.Errorf("imports not hoisted between package and class:\n%s", src)
	}
	if strings.Count(src, "import java.util.*;") != 1 {
		t.Errorf("java.util.* should appear exactly once:\n%s", src)
	}
}

func TestJavaGenerateDesignClass(t *testing.T) {
	g := &JavaGenerator{}
	meta := &submission.QuestionMetadata{
		PackageName:  "q",
		QuestionType: submission.DesignClass,
		FunctionName: "MinStack",
	}
	input := json.RawMessage(`[["MinStack","push","top"],[[],[5],[]]]`)
	code := "class MinStack { public MinStack() {} public void push(int x) {} public int top() { return 0; } }"

	files, err := g.Generate(meta, code, []submission.TestCase{{Input: input}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ForLanguage(submission.LangJava); !ok {
		t.Fatal("java generator not registered")
	}

	fileByName(t, files, "q/MinStack.java")
	runner := fileByName(t, files, "q/DesignRunner.java")
	for _, want := range []string{"selectConstructor", "$PREV", "Class.forName"} {
		if !strings.Contains(runner.Content, want) {
			t.Errorf("DesignRunner.java missing %q", want)
		}
	}
	main := fileByName(t, files, "q/Main.java")
	if !strings.Contains(main.Content, `DesignRunner.run(\"q.MinStack\"`) &&
		!strings.Contains(main.Content, `DesignRunner.run("q.MinStack"`) {
		t.Errorf("Main.java should invoke DesignRunner with the qualified class name:\n%s", main.Content)
	}
}

func TestJavaEntryPoint(t *testing.T) {
	g := &JavaGenerator{}
	if got := g.EntryPoint(twoSumMeta()); got != "com.example.q1.Main" {
		t.Errorf("entry point: got %q", got)
	}
	if got := g.EntryPoint(&submission.QuestionMetadata{}); got != "Main" {
		t.Errorf("default-package entry point: got %q", got)
	}
}

func TestJavaVoidReturnSerializesMutatedParameter(t *testing.T) {
	g := &JavaGenerator{}
	meta := &submission.QuestionMetadata{
		PackageName:  "q",
		FunctionName: "sortColors",
		ReturnType:   "void",
		Parameters:   []submission.Parameter{{Name: "nums", Type: "int[]"}},
		QuestionType: submission.FunctionCall,
	}
	files, err := g.Generate(meta, "class Solution { public void sortColors(int[] nums) {} }",
		[]submission.TestCase{{Input: json.RawMessage(`{"nums":[2,0,1]}`)}})
	if err != nil {
		t.Fatal(err)
	}
	main := fileByName(t, files, "q/Main.java")
	if !strings.Contains(main.Content, "JsonSupport.GSON.toJson(nums)") {
		t.Errorf("void return should serialize the mutated parameter:\n%s", main.Content)
	}
}
