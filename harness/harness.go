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

// Harness generates, per submission, the source files that wrap the
// user's solution: decode each test case input, invoke the solution,
// time it, serialize the result and emit one TEST_CASE_RESULT line per
// case on stdout. One generator exists per language; both handle the
// plain function-call shape and the design-class operation-sequence
// shape.

package harness

import (
	"fmt"
	"strings"

	"github.com/codehive/execengine/submission"
)

// File is one generated source file, named relative to the submission
// directory, with the package path already folded into the name.
type File struct {
	Name    string
	Content string
}

type Generator interface {
	// Generate returns the harness files for a submission: the Main
	// entry, the user's source (package declaration prepended where the
	// language requires it) and any custom data structure support.
	Generate(meta *submission.QuestionMetadata, code string, cases []submission.TestCase) ([]File, error)

	// EntryPoint is the language-appropriate handle the sandbox invokes:
	// a fully-qualified class name for Java, a relative script path for
	// Python.
	EntryPoint(meta *submission.QuestionMetadata) string
}

var generators = map[submission.Language]Generator{
	submission.LangJava:   &JavaGenerator{},
	submission.LangPython: &PythonGenerator{},
}

// ForLanguage looks up the registered generator for a language tag.
func ForLanguage(lang submission.Language) (Generator, bool) {
	g, ok := generators[lang]
	return g, ok
}

// packageDir converts a dotted package name to a relative directory,
// e.g. "com.example.q1" -> "com/example/q1". An empty package maps to
// the submission root.
func packageDir(pkg string) string {
	if pkg == "" {
		return ""
	}
	return strings.ReplaceAll(pkg, ".", "/")
}

func inPackageDir(pkg, name string) string {
	dir := packageDir(pkg)
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// splitImports separates import lines from the rest of a source body,
// line by line, so the generators can hoist them above the user code
// and merge them with the standard imports every harness provides.
func splitImports(code string) (imports []string, body string) {
	var rest []string
	for _, line := range strings.Split(code, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "import ") {
			imports = append(imports, strings.TrimSpace(line))
		} else {
			rest = append(rest, line)
		}
	}
	return imports, strings.Join(rest, "\n")
}

// definesClass reports whether user code already declares the named
// class, in which case the harness must not duplicate its definition.
func definesClass(code, name string) bool {
	return strings.Contains(code, "class "+name+" ") ||
		strings.Contains(code, "class "+name+"{") ||
		strings.Contains(code, "class "+name+":") ||
		strings.Contains(code, "class "+name+"(")
}

// designClassName extracts the user class name for a DESIGN_CLASS
// question: the first operation name is the constructor.
func designClassName(cases []submission.TestCase) (string, error) {
	for _, c := range cases {
		ops, _, err := decodeDesignInput(c.Input)
		if err != nil {
			return "", err
		}
		if len(ops) > 0 {
			return ops[0], nil
		}
	}
	return "", fmt.Errorf("design-class submission has no operations")
}

// requiredStructures resolves the set of custom structures the harness
// must provide, from the explicit metadata list plus any referenced by
// parameter or return types.
func requiredStructures(meta *submission.QuestionMetadata) (map[string]bool, error) {
	required := map[string]bool{}
	for _, name := range meta.CustomDataStructures {
		switch name {
		case "ListNode", "TreeNode", "Node":
			required[name] = true
		default:
			return nil, fmt.Errorf("unknown custom data structure %q", name)
		}
	}
	specs, err := parameterSpecs(meta)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if ds := spec.BaseDS(); ds != "" {
			required[ds] = true
		}
	}
	if meta.ReturnType != "" {
		ret, err := ParseTypeSpec(meta.ReturnType)
		if err != nil {
			return nil, err
		}
		if ds := ret.BaseDS(); ds != "" {
			required[ds] = true
		}
	}
	return required, nil
}

func parameterSpecs(meta *submission.QuestionMetadata) ([]*TypeSpec, error) {
	specs := make([]*TypeSpec, len(meta.Parameters))
	for i, p := range meta.Parameters {
		spec, err := ParseTypeSpec(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		specs[i] = spec
	}
	return specs, nil
}

// mutationIndex is the parameter whose post-call state is serialized
// for void return types, defaulting to the first parameter.
func mutationIndex(meta *submission.QuestionMetadata) int {
	if meta.MutationTarget != nil && *meta.MutationTarget >= 0 &&
		*meta.MutationTarget < len(meta.Parameters) {
		return *meta.MutationTarget
	}
	return 0
}
