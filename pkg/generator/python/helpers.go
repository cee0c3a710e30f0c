package python

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/render"
)

var pyReserved = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true, "assert": true,
	"async": true, "await": true, "break": true, "class": true, "continue": true,
	"def": true, "del": true, "elif": true, "else": true, "except": true,
	"finally": true, "for": true, "from": true, "global": true, "if": true,
	"import": true, "in": true, "is": true, "lambda": true, "nonlocal": true,
	"not": true, "or": true, "pass": true, "raise": true, "return": true,
	"try": true, "while": true, "with": true, "yield": true,
	// builtins used in annotations
	"list": true, "dict": true, "str": true, "int": true, "float": true, "bool": true,
	// generated members
	"self": true, "params": true, "encode": true, "to_json": true, "from_dict": true,
}

// formatDocstring formats a string for use in Python docstrings
func formatDocstring(s string) string {
	if s == "" {
		return ""
	}
	// Replace any */ with *\/ to avoid breaking docstrings
	s = strings.ReplaceAll(s, "*/", "*\\/")
	s = strings.ReplaceAll(s, `"""`, `\"\"\"`)
	// Ensure proper indentation
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var result []string
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i > 0 && line != "" {
			line = "    " + line
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
}

// formatPythonComment formats a string as a run of # comment lines
func formatPythonComment(s string) string {
	if s == "" {
		return ""
	}
	var result []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			result = append(result, "#")
		} else {
			result = append(result, "# "+line)
		}
	}
	return strings.Join(result, "\n")
}

var invalidModuleChars = regexp.MustCompile(`[^a-z0-9_]`)

// sanitizeModuleName ensures the package name is a valid Python module name
func sanitizeModuleName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	name = invalidModuleChars.ReplaceAllString(name, "")
	if len(name) > 0 && name[0] >= '0' && name[0] <= '9' {
		name = "pkg_" + name
	}
	if name == "" {
		name = "client"
	}
	return name
}

// relativeModule returns the relative import of a package-root module as seen from
// a file in dir.
func relativeModule(dir, module string) string {
	depth := 0
	if dir != "" {
		depth = len(strings.Split(dir, "/"))
	}
	return strings.Repeat(".", depth+1) + strings.ReplaceAll(module, "/", ".")
}

// pyImports renders the from-import lines of the artifacts o references.
func pyImports(o ir.Output, imports []render.Import) []string {
	out := make([]string, 0, len(imports))
	for _, imp := range imports {
		out = append(out, fmt.Sprintf("from %s import %s", relativeModule(o.Dir, imp.Module), strings.Join(imp.Names, ", ")))
	}
	return out
}

// pyPath renders the request path of a method as a Python string expression.
func pyPath(m *ir.Method) string {
	segs := render.PathSegments(m.Path, m.PathParams)
	var b strings.Builder
	interpolated := false
	for _, s := range segs {
		switch {
		case s.Param != nil:
			interpolated = true
			b.WriteString("{_rt.path_escape(" + s.Param.Name + ")}")
		default:
			b.WriteString(s.Literal)
		}
	}
	if b.Len() == 0 {
		return `"/"`
	}
	if interpolated {
		return `f"` + b.String() + `"`
	}
	return `"` + b.String() + `"`
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

// pyArgs renders the parameter list of a service method.
func pyArgs(m *ir.Method) string {
	args := []string{"self"}
	for _, p := range m.PathParams {
		args = append(args, p.Name+": "+p.Type)
	}
	if p := paramsOf(m); p != "" {
		if m.ParamsRequired {
			args = append(args, "params: "+p)
		} else {
			args = append(args, "params: Optional["+p+"] = None")
		}
	}
	return strings.Join(args, ", ")
}

// pyCallArgs renders the arguments forwarding a method's parameters.
func pyCallArgs(m *ir.Method) string {
	var args []string
	for _, p := range m.PathParams {
		args = append(args, p.Name)
	}
	if paramsOf(m) != "" {
		args = append(args, "params")
	}
	return strings.Join(args, ", ")
}

// pyDecode renders the expression converting the raw JSON member of f, read from
// the dict named data, into its declared type.
func pyDecode(f *ir.Field) string {
	raw := fmt.Sprintf("data.get(%q)", f.WireName)
	var conv string
	switch {
	case f.Ref != "" && (f.Shape == "SubResource" || f.Shape == "ListOfSubResource" || f.Shape == "PlainObject"):
		conv = f.Base + ".from_dict"
	case f.Shape == "LocalEnum" || f.Shape == "GlobalEnum":
		conv = f.Base
	default:
		return raw
	}
	switch f.Container {
	case "list":
		return "_rt.decode_list(" + raw + ", " + conv + ")"
	case "map":
		return "_rt.decode_map(" + raw + ", " + conv + ")"
	}
	return "_rt.decode(" + raw + ", " + conv + ")"
}

// orderedFields returns required fields first, the order dataclasses need for
// fields without defaults.
func orderedFields(fields []*ir.Field) []*ir.Field {
	out := make([]*ir.Field, 0, len(fields))
	for _, f := range fields {
		if f.Required {
			out = append(out, f)
		}
	}
	for _, f := range fields {
		if !f.Required {
			out = append(out, f)
		}
	}
	return out
}

// pyMember derives a member name from a method name, dropping the trailing
// underscore that escapes reserved words: list_ becomes list_iter.
func pyMember(method, suffix string) string {
	return strings.TrimSuffix(method, "_") + "_" + suffix
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
