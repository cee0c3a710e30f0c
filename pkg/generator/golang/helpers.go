package golang

import (
	"regexp"
	"sort"
	"strings"

	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/render"
)

var goReserved = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	// generated package members
	"ctx": true, "params": true, "client": true, "request": true, "transport": true,
}

// formatGoComment formats a string as a proper Go comment, handling multiline descriptions
func formatGoComment(s string) string {
	if s == "" {
		return ""
	}

	// Split into lines and prefix each with //
	lines := strings.Split(s, "\n")
	var result []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			result = append(result, "//")
		} else {
			result = append(result, "// "+line)
		}
	}

	return strings.Join(result, "\n")
}

// sanitizePackageName ensures the package name is valid for Go
func sanitizePackageName(name string) string {
	// Extract the last part of the package name if it looks like a module path
	parts := strings.Split(name, "/")
	if len(parts) > 0 {
		name = parts[len(parts)-1]
	}

	// Convert to lowercase and replace invalid characters
	name = strings.ToLower(name)
	name = regexp.MustCompile(`[^a-z0-9_]`).ReplaceAllString(name, "")

	// Ensure it doesn't start with a number
	if len(name) > 0 && name[0] >= '0' && name[0] <= '9' {
		name = "pkg" + name
	}

	// Ensure it's not empty
	if name == "" {
		name = "client"
	}

	return name
}

// goImports returns the import paths a rendered artifact needs.
func goImports(a *ir.Artifact) []string {
	set := map[string]bool{}
	usesJSON := func(t string) {
		if strings.Contains(t, "json.RawMessage") {
			set["encoding/json"] = true
		}
	}
	fields := func(fs []*ir.Field) {
		for _, f := range fs {
			usesJSON(f.Type)
		}
	}
	models := func(ms []*ir.Model) {
		for _, m := range ms {
			if m == nil {
				continue
			}
			fields(m.Fields)
			if len(m.Enums) > 0 {
				set["encoding/json"] = true
			}
			if m.CustomFields != nil || m.ConsentFields != nil {
				set["encoding/json"] = true
				set[RuntimeModule+"/runtime/fields"] = true
			}
		}
	}

	switch a.Kind {
	case ir.KindModel:
		models(append([]*ir.Model{a.Model}, a.Model.SubModels...))
	case ir.KindService:
		set["context"] = true
		if len(a.Service.Params) > 0 {
			set["net/url"] = true
			set[RuntimeModule+"/runtime/form"] = true
		}
		for _, r := range a.Service.Responses {
			fields(r.Fields)
			models(append([]*ir.Model{r.Item}, r.SubModels...))
			if len(r.Enums) > 0 {
				set["encoding/json"] = true
			}
		}
		for _, m := range a.Service.Methods {
			if pageable(a.Service, m) != nil {
				set["iter"] = true
				set[RuntimeModule+"/runtime/paging"] = true
			}
		}
		for _, p := range a.Service.Params {
			if p.CustomFields != nil || p.ConsentFields != nil {
				set[RuntimeModule+"/runtime/fields"] = true
			}
			for _, b := range p.Builders {
				if b.CustomFields != nil || b.ConsentFields != nil {
					set[RuntimeModule+"/runtime/fields"] = true
				}
			}
			for _, s := range allSetters(p) {
				usesJSON(s.Type)
			}
		}
	case ir.KindEnums:
		set["encoding/json"] = true
	case ir.KindFilters:
		set[RuntimeModule+"/runtime/form"] = true
	case ir.KindClient:
		for _, p := range []string{"bytes", "context", "encoding/json", "fmt", "io", "net/http", "net/url", "strings"} {
			set[p] = true
		}
		set[RuntimeModule+"/runtime/form"] = true
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	// standard library first, then the runtime
	sort.Slice(out, func(i, j int) bool {
		si, sj := !strings.Contains(out[i], "."), !strings.Contains(out[j], ".")
		if si != sj {
			return si
		}
		return out[i] < out[j]
	})
	return out
}

func allSetters(p *ir.Params) []*ir.Setter {
	out := append([]*ir.Setter(nil), p.Setters...)
	for _, b := range p.Builders {
		out = append(out, b.Setters...)
	}
	return out
}

// goPath renders the request path of a method as a Go string expression.
func goPath(m *ir.Method) string {
	var parts []string
	for _, s := range render.PathSegments(m.Path, m.PathParams) {
		switch {
		case s.Param != nil:
			parts = append(parts, "pathEscape("+s.Param.Name+")")
		case s.Literal != "":
			parts = append(parts, `"`+s.Literal+`"`)
		}
	}
	if len(parts) == 0 {
		return `"/"`
	}
	return strings.Join(parts, " + ")
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

// methodArgs renders the parameter list of a service method.
func methodArgs(m *ir.Method) string {
	args := []string{"ctx context.Context"}
	for _, p := range m.PathParams {
		args = append(args, p.Name+" "+p.Type)
	}
	if p := paramsOf(m); p != "" {
		args = append(args, "params *"+p)
	}
	return strings.Join(args, ", ")
}

// callArgs renders the arguments forwarding a method's parameters.
func callArgs(m *ir.Method) string {
	args := []string{"ctx"}
	for _, p := range m.PathParams {
		args = append(args, p.Name)
	}
	if paramsOf(m) != "" {
		args = append(args, "params")
	}
	return strings.Join(args, ", ")
}

// fieldByWire finds the field with the given wire name.
func fieldByWire(fields []*ir.Field, wire string) *ir.Field {
	for _, f := range fields {
		if f.WireName == wire {
			return f
		}
	}
	return nil
}

// Page describes how a paginated method's response is walked.
type Page struct {
	Response *ir.Response
	List     *ir.Field
	Cursor   *ir.Field
	Item     string
}

// pageable returns the paging description of m, or nil when m cannot be iterated.
func pageable(svc *ir.Service, m *ir.Method) *Page {
	if m.Batch != nil || m.ResponseKind != ir.ResponsePaginated {
		return nil
	}
	var resp *ir.Response
	for _, r := range svc.Responses {
		if r.Name == m.Response {
			resp = r
		}
	}
	if resp == nil {
		return nil
	}
	list := fieldByWire(resp.Fields, "list")
	cursor := fieldByWire(resp.Fields, "next_offset")
	if list == nil || cursor == nil || list.Container != "list" {
		return nil
	}
	return &Page{Response: resp, List: list, Cursor: cursor, Item: list.Base}
}

// cursorExpr renders the expression reading the next offset of a response value r.
func cursorExpr(p *Page) string {
	if p.Cursor.Nullable {
		return "deref(r." + p.Cursor.Name + ")"
	}
	return "r." + p.Cursor.Name
}

// elemType returns the parameter type of a value setter: the element type for lists.
func elemType(s *ir.Setter) string {
	if s.List {
		return "..." + s.Base
	}
	return s.Type
}

// knownOf returns the constants of an enum's declared values.
func knownOf(e *ir.Enum) []string {
	var out []string
	for _, v := range e.Values {
		if !v.Unknown {
			out = append(out, v.Name)
		}
	}
	return out
}

// unknownOf returns the sentinel constant of an enum.
func unknownOf(e *ir.Enum) string {
	for _, v := range e.Values {
		if v.Unknown {
			return v.Name
		}
	}
	return `""`
}
