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
	"sort"
	"strings"

	"github.com/codehive/execengine/submission"
)

// JavaGenerator emits a gson-based Main harness plus the user's
// solution and any support classes. The container contract puts gson on
// the classpath under /app/libs.
type JavaGenerator struct{}

// javaGen accumulates per-submission state: which JsonSupport helpers
// the generated code references and whether list decoding needs
// gson's TypeToken import.
type javaGen struct {
	helpers        map[string]bool
	needsTypeToken bool
}

func (g *JavaGenerator) EntryPoint(meta *submission.QuestionMetadata) string {
	if meta.PackageName == "" {
		return "Main"
	}
	return meta.PackageName + ".Main"
}

func (g *JavaGenerator) Generate(meta *submission.QuestionMetadata, code string,
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

func (g *JavaGenerator) generateFunction(meta *submission.QuestionMetadata, code string,
	cases []submission.TestCase, required map[string]bool) ([]File, error) {
	specs, err := parameterSpecs(meta)
	if err != nil {
		return nil, err
	}
	ret, err := ParseTypeSpec(meta.ReturnType)
	if err != nil {
		return nil, fmt.Errorf("return type: %w", err)
	}

	st := newJavaGen(required)
	var blocks []string
	for i, c := range cases {
		block, err := st.functionCase(i, meta, specs, ret, c)
		if err != nil {
			return nil, fmt.Errorf("test case %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}

	var main strings.Builder
	main.WriteString(javaPackageDecl(meta.PackageName))
	main.WriteString("import java.util.*;\n")
	main.WriteString("import com.google.gson.*;\n")
	if st.needsTypeToken {
		main.WriteString("import com.google.gson.reflect.TypeToken;\n")
	}
	main.WriteString("\npublic class Main {\n\n")
	main.WriteString("    public static void main(String[] args) {\n")
	main.WriteString("        Solution solution = new Solution();\n")
	for i := range cases {
		fmt.Fprintf(&main, "        runCase%d(solution);\n", i)
	}
	main.WriteString("    }\n\n")
	main.WriteString(strings.Join(blocks, "\n"))
	main.WriteString("}\n")

	files := []File{
		{Name: inPackageDir(meta.PackageName, "Main.java"), Content: main.String()},
		{Name: inPackageDir(meta.PackageName, "Solution.java"),
			Content: javaUserSource(meta.PackageName, code)},
		{Name: inPackageDir(meta.PackageName, "JsonSupport.java"),
			Content: st.jsonSupport(meta.PackageName)},
	}
	return append(files, javaDSFiles(meta.PackageName, code, required)...), nil
}

func (g *JavaGenerator) generateDesign(meta *submission.QuestionMetadata, code string,
	cases []submission.TestCase, required map[string]bool) ([]File, error) {
	className, err := designClassName(cases)
	if err != nil {
		return nil, err
	}
	st := newJavaGen(required)

	fqcn := className
	if meta.PackageName != "" {
		fqcn = meta.PackageName + "." + className
	}

	var blocks []string
	for i, c := range cases {
		ops, args, err := decodeDesignInput(c.Input)
		if err != nil {
			return nil, fmt.Errorf("test case %d: %w", i, err)
		}
		opsJSON, argsJSON := designArrays(ops, args)
		var b strings.Builder
		fmt.Fprintf(&b, "    private static void runCase%d() {\n", i)
		b.WriteString("        long started = System.currentTimeMillis();\n")
		b.WriteString("        try {\n")
		fmt.Fprintf(&b, "            JsonArray ops = JsonParser.parseString(%s).getAsJsonArray();\n",
			javaStringLiteral(opsJSON))
		fmt.Fprintf(&b, "            JsonArray argLists = JsonParser.parseString(%s).getAsJsonArray();\n",
			javaStringLiteral(argsJSON))
		fmt.Fprintf(&b, "            String output = DesignRunner.run(%s, ops, argLists);\n",
			javaStringLiteral(fqcn))
		b.WriteString("            long elapsed = System.currentTimeMillis() - started;\n")
		fmt.Fprintf(&b, "            System.out.println(\"TEST_CASE_RESULT: %d,\" + output + \",\" + elapsed + \",\");\n", i)
		b.WriteString("        } catch (Throwable t) {\n")
		b.WriteString("            long elapsed = System.currentTimeMillis() - started;\n")
		fmt.Fprintf(&b, "            System.out.println(\"TEST_CASE_RESULT: %d,,\" + elapsed + \",\" + JsonSupport.errorInfo(unwrap(t)));\n", i)
		b.WriteString("        }\n")
		b.WriteString("    }\n")
		blocks = append(blocks, b.String())
	}

	var main strings.Builder
	main.WriteString(javaPackageDecl(meta.PackageName))
	main.WriteString("import java.util.*;\n")
	main.WriteString("import com.google.gson.*;\n")
	main.WriteString("\npublic class Main {\n\n")
	main.WriteString("    public static void main(String[] args) {\n")
	for i := range cases {
		fmt.Fprintf(&main, "        runCase%d();\n", i)
	}
	main.WriteString("    }\n\n")
	// Reflective calls wrap the user exception; report the cause.
	main.WriteString("    private static Throwable unwrap(Throwable t) {\n")
	main.WriteString("        if (t instanceof java.lang.reflect.InvocationTargetException && t.getCause() != null) {\n")
	main.WriteString("            return t.getCause();\n")
	main.WriteString("        }\n")
	main.WriteString("        return t;\n")
	main.WriteString("    }\n\n")
	main.WriteString(strings.Join(blocks, "\n"))
	main.WriteString("}\n")

	files := []File{
		{Name: inPackageDir(meta.PackageName, "Main.java"), Content: main.String()},
		{Name: inPackageDir(meta.PackageName, className+".java"),
			Content: javaUserSource(meta.PackageName, code)},
		{Name: inPackageDir(meta.PackageName, "DesignRunner.java"),
			Content: javaDesignRunner(meta.PackageName, required)},
		{Name: inPackageDir(meta.PackageName, "JsonSupport.java"),
			Content: st.jsonSupport(meta.PackageName)},
	}
	return append(files, javaDSFiles(meta.PackageName, code, required)...), nil
}

func newJavaGen(required map[string]bool) *javaGen {
	st := &javaGen{helpers: map[string]bool{}}
	// The harness provides decoder, encoder and list encoder for every
	// required structure regardless of static references; the design
	// runner resolves them at run time.
	if required["ListNode"] {
		st.need("buildListNode", "convertListNodeToJson", "convertListNodeListToJson")
	}
	if required["TreeNode"] {
		st.need("buildTreeNode", "convertTreeNodeToJson", "convertTreeNodeListToJson")
	}
	if required["Node"] {
		st.need("buildNode", "convertNodeToJson")
	}
	return st
}

func (st *javaGen) need(names ...string) {
	for _, name := range names {
		if st.helpers[name] {
			continue
		}
		st.helpers[name] = true
		st.need(javaHelperDeps[name]...)
	}
}

func (st *javaGen) functionCase(idx int, meta *submission.QuestionMetadata,
	specs []*TypeSpec, ret *TypeSpec, c submission.TestCase) (string, error) {
	input, err := decodeFunctionInput(c.Input)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "    private static void runCase%d(Solution solution) {\n", idx)
	b.WriteString("        long started = System.currentTimeMillis();\n")
	b.WriteString("        try {\n")
	fmt.Fprintf(&b, "            JsonObject input = JsonParser.parseString(%s).getAsJsonObject();\n",
		javaStringLiteral(string(c.Input)))

	var argNames []string
	for i, p := range meta.Parameters {
		if _, ok := input[p.Name]; !ok {
			return "", fmt.Errorf("input is missing parameter %q", p.Name)
		}
		src := fmt.Sprintf("input.get(%s)", javaStringLiteral(p.Name))
		expr, err := st.decodeExpr(specs[i], src)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "            %s %s = %s;\n", specs[i].Raw, p.Name, expr)
		argNames = append(argNames, p.Name)
	}

	call := fmt.Sprintf("solution.%s(%s)", meta.FunctionName, strings.Join(argNames, ", "))
	var outExpr string
	if ret.Kind == KindVoid {
		// The mutated parameter is the observable output.
		target := mutationIndex(meta)
		if len(specs) == 0 {
			return "", fmt.Errorf("void return with no parameters")
		}
		fmt.Fprintf(&b, "            %s;\n", call)
		outExpr, err = st.serializeExpr(specs[target], meta.Parameters[target].Name)
	} else {
		fmt.Fprintf(&b, "            %s result = %s;\n", ret.Raw, call)
		outExpr, err = st.serializeExpr(ret, "result")
	}
	if err != nil {
		return "", err
	}
	b.WriteString("            long elapsed = System.currentTimeMillis() - started;\n")
	fmt.Fprintf(&b, "            System.out.println(\"TEST_CASE_RESULT: %d,\" + %s + \",\" + elapsed + \",\");\n",
		idx, outExpr)
	b.WriteString("        } catch (Throwable t) {\n")
	b.WriteString("            long elapsed = System.currentTimeMillis() - started;\n")
	fmt.Fprintf(&b, "            System.out.println(\"TEST_CASE_RESULT: %d,,\" + elapsed + \",\" + JsonSupport.errorInfo(t));\n", idx)
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	return b.String(), nil
}

func (st *javaGen) decodeExpr(t *TypeSpec, src string) (string, error) {
	switch t.Kind {
	case KindInt:
		return src + ".getAsInt()", nil
	case KindLong:
		return src + ".getAsLong()", nil
	case KindDouble:
		return src + ".getAsDouble()", nil
	case KindFloat:
		return src + ".getAsFloat()", nil
	case KindBool:
		return src + ".getAsBoolean()", nil
	case KindChar:
		return src + ".getAsString().charAt(0)", nil
	case KindString:
		return fmt.Sprintf("JsonSupport.GSON.fromJson(%s, String.class)", src), nil
	case KindListNode:
		st.need("buildListNode")
		return fmt.Sprintf("JsonSupport.buildListNode(%s)", src), nil
	case KindTreeNode:
		st.need("buildTreeNode")
		return fmt.Sprintf("JsonSupport.buildTreeNode(%s)", src), nil
	case KindGraphNode:
		st.need("buildNode")
		return fmt.Sprintf("JsonSupport.buildNode(%s)", src), nil
	case KindArray:
		switch t.Elem.Kind {
		case KindListNode:
			st.need("toListNodeArray")
			return fmt.Sprintf("JsonSupport.toListNodeArray(%s)", src), nil
		case KindTreeNode:
			st.need("toTreeNodeArray")
			return fmt.Sprintf("JsonSupport.toTreeNodeArray(%s)", src), nil
		case KindGraphNode:
			return "", fmt.Errorf("arrays of Node are not supported")
		}
		return fmt.Sprintf("JsonSupport.GSON.fromJson(%s, %s.class)", src, t.Raw), nil
	case KindList:
		switch t.Elem.Kind {
		case KindListNode:
			st.need("toListNodeList")
			return fmt.Sprintf("JsonSupport.toListNodeList(%s)", src), nil
		case KindTreeNode:
			st.need("toTreeNodeList")
			return fmt.Sprintf("JsonSupport.toTreeNodeList(%s)", src), nil
		case KindGraphNode:
			return "", fmt.Errorf("lists of Node are not supported")
		}
		st.needsTypeToken = true
		return fmt.Sprintf("JsonSupport.GSON.fromJson(%s, new TypeToken<%s>(){}.getType())",
			src, t.Raw), nil
	}
	return "", fmt.Errorf("cannot decode type %q", t.Raw)
}

func (st *javaGen) serializeExpr(t *TypeSpec, expr string) (string, error) {
	switch t.Kind {
	case KindInt, KindLong, KindDouble, KindFloat, KindBool, KindChar:
		return fmt.Sprintf("String.valueOf(%s)", expr), nil
	case KindString:
		return fmt.Sprintf("JsonSupport.GSON.toJson(%s)", expr), nil
	case KindListNode:
		st.need("convertListNodeToJson")
		return fmt.Sprintf("JsonSupport.convertListNodeToJson(%s)", expr), nil
	case KindTreeNode:
		st.need("convertTreeNodeToJson")
		return fmt.Sprintf("JsonSupport.convertTreeNodeToJson(%s)", expr), nil
	case KindGraphNode:
		st.need("convertNodeToJson")
		return fmt.Sprintf("JsonSupport.convertNodeToJson(%s)", expr), nil
	case KindArray:
		switch t.Elem.Kind {
		case KindListNode:
			st.need("convertListNodeArrayToJson")
			return fmt.Sprintf("JsonSupport.convertListNodeArrayToJson(%s)", expr), nil
		case KindTreeNode:
			st.need("convertTreeNodeArrayToJson")
			return fmt.Sprintf("JsonSupport.convertTreeNodeArrayToJson(%s)", expr), nil
		case KindGraphNode:
			return "", fmt.Errorf("arrays of Node are not supported")
		}
		return fmt.Sprintf("JsonSupport.GSON.toJson(%s)", expr), nil
	case KindList:
		switch t.Elem.Kind {
		case KindListNode:
			st.need("convertListNodeListToJson")
			return fmt.Sprintf("JsonSupport.convertListNodeListToJson(%s)", expr), nil
		case KindTreeNode:
			st.need("convertTreeNodeListToJson")
			return fmt.Sprintf("JsonSupport.convertTreeNodeListToJson(%s)", expr), nil
		case KindGraphNode:
			return "", fmt.Errorf("lists of Node are not supported")
		}
		return fmt.Sprintf("JsonSupport.GSON.toJson(%s)", expr), nil
	}
	return "", fmt.Errorf("cannot serialize type %q", t.Raw)
}

func (st *javaGen) jsonSupport(pkg string) string {
	var b strings.Builder
	b.WriteString(javaPackageDecl(pkg))
	b.WriteString("import java.util.*;\n")
	b.WriteString("import com.google.gson.*;\n")
	b.WriteString("\nclass JsonSupport {\n\n")
	b.WriteString("    static final Gson GSON = new Gson();\n\n")
	b.WriteString("    static String errorInfo(Throwable t) {\n")
	b.WriteString("        String msg = String.valueOf(t.getMessage()).replace(\"\\n\", \" \").replace(\"\\r\", \" \");\n")
	b.WriteString("        return t.getClass().getSimpleName() + \": \" + msg;\n")
	b.WriteString("    }\n")
	for _, name := range javaHelperOrder {
		if st.helpers[name] {
			b.WriteString("\n")
			b.WriteString(javaHelperBodies[name])
			b.WriteString("\n")
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func javaDesignRunner(pkg string, required map[string]bool) string {
	var coerce, serialize strings.Builder
	if required["ListNode"] {
		coerce.WriteString("        if (type == ListNode.class) return JsonSupport.buildListNode(e);\n")
		serialize.WriteString("        if (v instanceof ListNode) return JsonSupport.convertListNodeToJson((ListNode) v);\n")
	}
	if required["TreeNode"] {
		coerce.WriteString("        if (type == TreeNode.class) return JsonSupport.buildTreeNode(e);\n")
		serialize.WriteString("        if (v instanceof TreeNode) return JsonSupport.convertTreeNodeToJson((TreeNode) v);\n")
	}
	if required["Node"] {
		coerce.WriteString("        if (type == Node.class) return JsonSupport.buildNode(e);\n")
		serialize.WriteString("        if (v instanceof Node) return JsonSupport.convertNodeToJson((Node) v);\n")
	}

	var b strings.Builder
	b.WriteString(javaPackageDecl(pkg))
	b.WriteString(`import java.lang.reflect.*;
import java.util.*;
import com.google.gson.*;

class DesignRunner {

    static String run(String className, JsonArray ops, JsonArray argLists) throws Exception {
        Class<?> cls = Class.forName(className);
        JsonArray ctorArgs = argLists.get(0).getAsJsonArray();
        Constructor<?> ctor = selectConstructor(cls, ctorArgs);
        if (ctor == null) {
            throw new NoSuchMethodException(className + " constructor of arity " + ctorArgs.size());
        }
        Object instance = ctor.newInstance(coerceAll(ctor.getParameterTypes(), ctorArgs, null));
        List<String> results = new ArrayList<>();
        results.add("null");
        String prev = null;
        for (int i = 1; i < ops.size(); i++) {
            String name = ops.get(i).getAsString();
            JsonArray callArgs = argLists.get(i).getAsJsonArray();
            Method method = selectMethod(cls, name, callArgs);
            if (method == null) {
                throw new NoSuchMethodException(className + "." + name + " of arity " + callArgs.size());
            }
            Object ret = method.invoke(instance, coerceAll(method.getParameterTypes(), callArgs, prev));
            String encoded = method.getReturnType() == void.class ? "null" : serialize(ret);
            results.add(encoded);
            prev = encoded;
        }
        return "[" + String.join(",", results) + "]";
    }

    private static Constructor<?> selectConstructor(Class<?> cls, JsonArray args) {
        for (Constructor<?> c : cls.getDeclaredConstructors()) {
            if (c.getParameterCount() != args.size()) continue;
            if (!compatible(c.getParameterTypes(), args)) continue;
            c.setAccessible(true);
            return c;
        }
        return null;
    }

    private static Method selectMethod(Class<?> cls, String name, JsonArray args) {
        for (Method m : cls.getMethods()) {
            if (!m.getName().equals(name)) continue;
            if (m.getParameterCount() != args.size()) continue;
            if (!compatible(m.getParameterTypes(), args)) continue;
            return m;
        }
        return null;
    }

    // A JSON null can never feed a primitive parameter; the mismatch
    // eliminates the candidate.
    private static boolean compatible(Class<?>[] types, JsonArray args) {
        for (int i = 0; i < types.length; i++) {
            if (args.get(i).isJsonNull() && types[i].isPrimitive()) return false;
        }
        return true;
    }

    private static Object[] coerceAll(Class<?>[] types, JsonArray args, String prev) {
        Object[] out = new Object[types.length];
        for (int i = 0; i < types.length; i++) out[i] = coerce(types[i], args.get(i), prev);
        return out;
    }

    private static Object coerce(Class<?> type, JsonElement e, String prev) {
        if (e.isJsonPrimitive() && e.getAsJsonPrimitive().isString()
                && e.getAsString().equals("$PREV")) {
            e = JsonParser.parseString(prev == null ? "null" : prev);
        }
        if (e.isJsonNull()) return null;
        if (type == int.class || type == Integer.class) return e.getAsInt();
        if (type == long.class || type == Long.class) return e.getAsLong();
        if (type == double.class || type == Double.class) return e.getAsDouble();
        if (type == float.class || type == Float.class) return e.getAsFloat();
        if (type == boolean.class || type == Boolean.class) return e.getAsBoolean();
        if (type == char.class || type == Character.class) return e.getAsString().charAt(0);
        if (type == String.class) return e.getAsString();
`)
	b.WriteString(coerce.String())
	b.WriteString(`        return JsonSupport.GSON.fromJson(e, type);
    }

    private static String serialize(Object v) {
        if (v == null) return "null";
        if (v instanceof Character) return String.valueOf(v);
`)
	b.WriteString(serialize.String())
	b.WriteString(`        return JsonSupport.GSON.toJson(v);
    }
}
`)
	return b.String()
}

// javaUserSource prepends the package declaration and hoists the user's
// import lines above the class body so standard containers are always
// in scope.
func javaUserSource(pkg, code string) string {
	imports, body := splitImports(code)
	var b strings.Builder
	b.WriteString(javaPackageDecl(pkg))
	b.WriteString("import java.util.*;\n")
	for _, imp := range dedupImports(imports, "import java.util.*;") {
		b.WriteString(imp)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimLeft(body, "\n"))
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

func javaDSFiles(pkg, code string, required map[string]bool) []File {
	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)
	var files []File
	for _, name := range names {
		if definesClass(code, name) {
			// User code already carries its own definition.
			continue
		}
		files = append(files, File{
			Name:    inPackageDir(pkg, name+".java"),
			Content: javaPackageDecl(pkg) + javaDSClasses[name],
		})
	}
	return files
}

func javaPackageDecl(pkg string) string {
	if pkg == "" {
		return ""
	}
	return "package " + pkg + ";\n\n"
}

func dedupImports(imports []string, drop ...string) []string {
	seen := map[string]bool{}
	for _, d := range drop {
		seen[d] = true
	}
	var out []string
	for _, imp := range imports {
		if seen[imp] {
			continue
		}
		seen[imp] = true
		out = append(out, imp)
	}
	return out
}

// javaStringLiteral renders s as a quoted Java string literal.
func javaStringLiteral(s string) string {
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
