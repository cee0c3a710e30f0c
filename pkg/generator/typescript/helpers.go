package typescript

import (
	"fmt"
	"strings"

	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/render"
)

// tsReserved lists words that cannot name parameters. Class members may use any
// word, so operation names such as delete and void are left alone.
var tsReserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "do": true, "else": true,
	"enum": true, "export": true, "extends": true, "false": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "instanceof": true,
	"new": true, "null": true, "return": true, "super": true, "switch": true,
	"this": true, "throw": true, "true": true, "try": true, "typeof": true,
	"var": true, "while": true, "with": true,
	// generated members
	"params": true, "encode": true, "json": true,
}

// formatTSDoc formats a string as a JSDoc block at the given indentation
func formatTSDoc(indent, s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "*/", "*\\/")
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 1 {
		return indent + "/** " + strings.TrimSpace(lines[0]) + " */"
	}
	result := []string{indent + "/**"}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			result = append(result, indent+" *")
		} else {
			result = append(result, indent+" * "+line)
		}
	}
	result = append(result, indent+" */")
	return strings.Join(result, "\n")
}

// relativeModule returns the import specifier of a src-root module as seen from a
// file in dir.
func relativeModule(dir, module string) string {
	if dir == "" {
		return "./" + module
	}
	return strings.Repeat("../", len(strings.Split(dir, "/"))) + module
}

// tsImports renders the import statements of the artifacts o references.
func tsImports(o ir.Output, imports []render.Import) []string {
	out := make([]string, 0, len(imports))
	for _, imp := range imports {
		out = append(out, fmt.Sprintf("import { %s } from '%s';", strings.Join(imp.Names, ", "), relativeModule(o.Dir, imp.Module)))
	}
	return out
}

// propertyAccess renders the member access of a wire property.
func propertyAccess(wire string) string {
	if q := quoteTSPropertyName(wire); q != wire {
		return "[" + q + "]"
	}
	return "." + wire
}

// tsPath renders the request path of a method as a TypeScript string expression.
func tsPath(m *ir.Method) string {
	var b strings.Builder
	interpolated := false
	for _, s := range render.PathSegments(m.Path, m.PathParams) {
		if s.Param != nil {
			interpolated = true
			b.WriteString("${rt.pathEscape(" + s.Param.Name + ")}")
			continue
		}
		b.WriteString(s.Literal)
	}
	switch {
	case b.Len() == 0:
		return "'/'"
	case interpolated:
		return "`" + b.String() + "`"
	}
	return "'" + b.String() + "'"
}

// paramsOf returns the params type a method takes, following batch delegates.
func paramsOf(m *ir.Method) string {
	if m.Batch != nil {
		return m.Batch.Params
	}
	return m.Params
}

// responseOf returns the response type a method returns, following batch delegates.
func responseOf(m *ir.Method) string {
	if m.Batch != nil {
		return m.Batch.Response
	}
	return m.Response
}

// tsArgs renders the parameter list of a service method.
func tsArgs(m *ir.Method) string {
	var args []string
	for _, p := range m.PathParams {
		args = append(args, p.Name+": "+p.Type)
	}
	if p := paramsOf(m); p != "" {
		if m.ParamsRequired {
			args = append(args, "params: "+p)
		} else {
			args = append(args, "params?: "+p)
		}
	}
	return strings.Join(args, ", ")
}

// tsCallArgs renders the arguments forwarding a method's parameters.
func tsCallArgs(m *ir.Method) string {
	var args []string
	for _, p := range m.PathParams {
		args = append(args, p.Name)
	}
	if paramsOf(m) != "" {
		args = append(args, "params")
	}
	return strings.Join(args, ", ")
}

// Page describes how a paginated method's response is walked.
type Page struct {
	List   *ir.Field
	Cursor *ir.Field
	Item   string
}

// pageable returns the paging description of m, or nil when m cannot be iterated.
func pageable(svc *ir.Service, m *ir.Method) *Page {
	if m.Batch != nil || m.ResponseKind != ir.ResponsePaginated {
		return nil
	}
	for _, r := range svc.Responses {
		if r.Name != m.Response {
			continue
		}
		var list, cursor *ir.Field
		for _, f := range r.Fields {
			switch f.WireName {
			case "list":
				list = f
			case "next_offset":
				cursor = f
			}
		}
		if list == nil || cursor == nil || list.Container != "list" {
			return nil
		}
		return &Page{List: list, Cursor: cursor, Item: list.Base}
	}
	return nil
}

// enumUnion renders the string literal union of an enum's values.
func enumUnion(e *ir.Enum) string {
	parts := make([]string, 0, len(e.Values))
	for _, v := range e.Values {
		parts = append(parts, "'"+strings.ReplaceAll(v.API, "'", "\\'")+"'")
	}
	return strings.Join(parts, " | ")
}
