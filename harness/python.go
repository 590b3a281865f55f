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

	"github.com/codehive/execengine/submission"
)

// PythonGenerator emits a main.py harness, the user's source and a
// support module. Python needs no compile stage and no package
// declaration; the files still live under the packageName directory so
// both languages share one layout.
type PythonGenerator struct{}

func (g *PythonGenerator) EntryPoint(meta *submission.QuestionMetadata) string {
	return inPackageDir(meta.PackageName, "main.py")
}

func (g *PythonGenerator) Generate(meta *submission.QuestionMetadata, code string,
	cases []submission.TestCase) ([]File, error) {
	required, err := requiredStructures(meta)
	if err != nil {
		return nil, err
	}
	if meta.QuestionType == submission.DesignClass {
		return g.generateDesign(meta, code, cases, required)
	}
	return g.generateFunction(meta, code, cases, required)
}

func (g *PythonGenerator) generateFunction(meta *submission.QuestionMetadata, code string,
	cases []submission.TestCase, required map[string]bool) ([]File, error) {
	specs, err := parameterSpecs(meta)
	if err != nil {
		return nil, err
	}
	ret, err := ParseTypeSpec(meta.ReturnType)
	if err != nil {
		return nil, fmt.Errorf("return type: %w", err)
	}

	var blocks []string
	for i, c := range cases {
		block, err := pyFunctionCase(i, meta, specs, ret, c)
		if err != nil {
			return nil, fmt.Errorf("test case %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}

	var main strings.Builder
	main.WriteString("import json\nimport time\n\n")
	main.WriteString("import support\n")
	main.WriteString("from solution import Solution\n\n")
	main.WriteString(strings.Join(blocks, "\n\n"))
	main.WriteString("\n\ndef main():\n")
	main.WriteString("    solution = Solution()\n")
	for i := range cases {
		fmt.Fprintf(&main, "    run_case_%d(solution)\n", i)
	}
	if len(cases) == 0 {
		main.WriteString("    pass\n")
	}
	main.WriteString("\n\nif __name__ == \"__main__\":\n    main()\n")

	return []File{
		{Name: inPackageDir(meta.PackageName, "main.py"), Content: main.String()},
		{Name: inPackageDir(meta.PackageName, "solution.py"), Content: pyUserSource(code, required)},
		{Name: inPackageDir(meta.PackageName, "support.py"),
			Content: pySupport(required, false)},
	}, nil
}

func (g *PythonGenerator) generateDesign(meta *submission.QuestionMetadata, code string,
	cases []submission.TestCase, required map[string]bool) ([]File, error) {
	className, err := designClassName(cases)
	if err != nil {
		return nil, err
	}

	var blocks []string
	for i, c := range cases {
		ops, args, err := decodeDesignInput(c.Input)
		if err != nil {
			return nil, fmt.Errorf("test case %d: %w", i, err)
		}
		opsJSON, argsJSON := designArrays(ops, args)
		var b strings.Builder
		fmt.Fprintf(&b, "def run_case_%d():\n", i)
		b.WriteString("    started = time.time()\n")
		b.WriteString("    try:\n")
		fmt.Fprintf(&b, "        ops = json.loads(%s)\n", pyStringLiteral(opsJSON))
		fmt.Fprintf(&b, "        arg_lists = json.loads(%s)\n", pyStringLiteral(argsJSON))
		fmt.Fprintf(&b, "        output = support.run_design(%s, ops, arg_lists)\n", className)
		b.WriteString("        elapsed = int((time.time() - started) * 1000)\n")
		fmt.Fprintf(&b, "        print(\"TEST_CASE_RESULT: %d,%%s,%%d,\" %% (output, elapsed))\n", i)
		b.WriteString("    except Exception as e:\n")
		b.WriteString("        elapsed = int((time.time() - started) * 1000)\n")
		fmt.Fprintf(&b, "        print(\"TEST_CASE_RESULT: %d,,%%d,%%s\" %% (elapsed, support.error_info(e)))\n", i)
		blocks = append(blocks, b.String())
	}

	var main strings.Builder
	main.WriteString("import json\nimport time\n\n")
	main.WriteString("import support\n")
	fmt.Fprintf(&main, "from %s import %s\n\n", className, className)
	main.WriteString(strings.Join(blocks, "\n\n"))
	main.WriteString("\n\ndef main():\n")
	for i := range cases {
		fmt.Fprintf(&main, "    run_case_%d()\n", i)
	}
	if len(cases) == 0 {
		main.WriteString("    pass\n")
	}
	main.WriteString("\n\nif __name__ == \"__main__\":\n    main()\n")

	return []File{
		{Name: inPackageDir(meta.PackageName, "main.py"), Content: main.String()},
		{Name: inPackageDir(meta.PackageName, className+".py"), Content: pyUserSource(code, required)},
		{Name: inPackageDir(meta.PackageName, "support.py"),
			Content: pySupport(required, true)},
	}, nil
}

func pyFunctionCase(idx int, meta *submission.QuestionMetadata,
	specs []*TypeSpec, ret *TypeSpec, c submission.TestCase) (string, error) {
	input, err := decodeFunctionInput(c.Input)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "def run_case_%d(solution):\n", idx)
	b.WriteString("    started = time.time()\n")
	b.WriteString("    try:\n")
	fmt.Fprintf(&b, "        data = json.loads(%s)\n", pyStringLiteral(string(c.Input)))

	var argNames []string
	for i, p := range meta.Parameters {
		if _, ok := input[p.Name]; !ok {
			return "", fmt.Errorf("input is missing parameter %q", p.Name)
		}
		src := fmt.Sprintf("data[%s]", pyStringLiteral(p.Name))
		fmt.Fprintf(&b, "        %s = %s\n", p.Name, pyDecodeExpr(specs[i], src))
		argNames = append(argNames, p.Name)
	}

	call := fmt.Sprintf("solution.%s(%s)", meta.FunctionName, strings.Join(argNames, ", "))
	var outExpr string
	if ret.Kind == KindVoid {
		target := mutationIndex(meta)
		if len(specs) == 0 {
			return "", fmt.Errorf("void return with no parameters")
		}
		fmt.Fprintf(&b, "        %s\n", call)
		outExpr = pySerializeExpr(specs[target], meta.Parameters[target].Name)
	} else {
		fmt.Fprintf(&b, "        result = %s\n", call)
		outExpr = pySerializeExpr(ret, "result")
	}
	b.WriteString("        elapsed = int((time.time() - started) * 1000)\n")
	fmt.Fprintf(&b, "        print(\"TEST_CASE_RESULT: %d,%%s,%%d,\" %% (%s, elapsed))\n", idx, outExpr)
	b.WriteString("    except Exception as e:\n")
	b.WriteString("        elapsed = int((time.time() - started) * 1000)\n")
	fmt.Fprintf(&b, "        print(\"TEST_CASE_RESULT: %d,,%%d,%%s\" %% (elapsed, support.error_info(e)))\n", idx)
	return b.String(), nil
}

// pyDecodeExpr maps a decoded-JSON value to the harness-level shape.
// Plain scalars, arrays and lists pass through as native values; only
// the linked structures need building.
func pyDecodeExpr(t *TypeSpec, src string) string {
	switch t.Kind {
	case KindListNode:
		return fmt.Sprintf("support.build_list_node(%s)", src)
	case KindTreeNode:
		return fmt.Sprintf("support.build_tree_node(%s)", src)
	case KindGraphNode:
		return fmt.Sprintf("support.build_node(%s)", src)
	case KindArray, KindList:
		switch t.Elem.Kind {
		case KindListNode:
			return fmt.Sprintf("support.build_list_node_seq(%s)", src)
		case KindTreeNode:
			return fmt.Sprintf("support.build_tree_node_seq(%s)", src)
		}
	}
	return src
}

func pySerializeExpr(t *TypeSpec, expr string) string {
	switch t.Kind {
	case KindInt, KindLong, KindDouble, KindFloat, KindBool, KindChar:
		return fmt.Sprintf("support.serialize_scalar(%s)", expr)
	case KindString:
		return fmt.Sprintf("support.to_json(%s)", expr)
	case KindListNode:
		return fmt.Sprintf("support.convert_list_node(%s)", expr)
	case KindTreeNode:
		return fmt.Sprintf("support.convert_tree_node(%s)", expr)
	case KindGraphNode:
		return fmt.Sprintf("support.convert_node(%s)", expr)
	case KindArray, KindList:
		switch t.Elem.Kind {
		case KindListNode:
			return fmt.Sprintf("support.convert_list_node_seq(%s)", expr)
		case KindTreeNode:
			return fmt.Sprintf("support.convert_tree_node_seq(%s)", expr)
		}
	}
	return fmt.Sprintf("support.to_json(%s)", expr)
}

// pySupport assembles the support module with only the structure blocks
// a submission needs, plus the design runner for DESIGN_CLASS.
func pySupport(required map[string]bool, design bool) string {
	var b strings.Builder
	b.WriteString(pySupportBase)
	if required["ListNode"] {
		b.WriteString(pyListNodeBlock)
	}
	if required["TreeNode"] {
		b.WriteString(pyTreeNodeBlock)
	}
	if required["Node"] {
		b.WriteString(pyGraphNodeBlock)
	}
	if design {
		b.WriteString(pyDesignBlockHead)
		if required["ListNode"] {
			b.WriteString("    if isinstance(value, ListNode):\n        return convert_list_node(value)\n")
		}
		if required["TreeNode"] {
			b.WriteString("    if isinstance(value, TreeNode):\n        return convert_tree_node(value)\n")
		}
		if required["Node"] {
			b.WriteString("    if isinstance(value, Node):\n        return convert_node(value)\n")
		}
		b.WriteString(pyDesignBlockTail)
	}
	return b.String()
}

// pyUserSource passes the user's code through nearly untouched; Python
// needs no package declaration. When custom structures are in play the
// support module is star-imported above the user code so type
// annotations such as "head: ListNode" resolve.
func pyUserSource(code string, required map[string]bool) string {
	var b strings.Builder
	if len(required) > 0 {
		b.WriteString("from support import *\n\n")
	}
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// pyStringLiteral renders s as a quoted Python string literal.
func pyStringLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
