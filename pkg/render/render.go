// Package render executes backend templates over planned artifacts and computes the
// cross-file symbol imports that module-based targets need.
package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/naming"
)

// File is one rendered output file, relative to the client's output directory.
type File struct {
	Path    string
	Content []byte
}

// Templates is a parsed template set.
type Templates struct {
	t *template.Template
}

// Parse parses every template in fsys matching pattern. Sprig functions are available,
// with funcs taking precedence.
func Parse(fsys fs.FS, pattern string, funcs template.FuncMap) (*Templates, error) {
	fm := sprig.TxtFuncMap()
	for k, v := range BaseFuncs() {
		fm[k] = v
	}
	for k, v := range funcs {
		fm[k] = v
	}
	t, err := template.New("").Funcs(fm).ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Templates{t: t}, nil
}

// Execute renders the named template.
func (t *Templates) Execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// BaseFuncs are the helpers shared by every backend.
func BaseFuncs() template.FuncMap {
	return template.FuncMap{
		"pascal":   naming.ToPascal,
		"camel":    naming.ToCamel,
		"snake":    naming.ToSnake,
		"kebab":    naming.ToKebab,
		"upper1":   upperFirst,
		"lines":    func(s string) []string { return strings.Split(strings.TrimSpace(s), "\n") },
		"isFilter": func(s *ir.Setter) bool { return s.Kind == ir.SetterFilter },
		"isSort":   func(s *ir.Setter) bool { return s.Kind == ir.SetterSort },
		"isNested": func(s *ir.Setter) bool { return s.Kind == ir.SetterNested },
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var pathToken = regexp.MustCompile(`\{([^{}]+)\}`)

// PathSegments splits a path template into literal and parameter parts. Parameters
// are matched to params by wire name, in path order.
func PathSegments(path string, params []*ir.PathParam) []Segment {
	byWire := make(map[string]*ir.PathParam, len(params))
	for _, p := range params {
		byWire[p.WireName] = p
	}
	var out []Segment
	last := 0
	for _, m := range pathToken.FindAllStringSubmatchIndex(path, -1) {
		if m[0] > last {
			out = append(out, Segment{Literal: path[last:m[0]]})
		}
		out = append(out, Segment{Param: byWire[path[m[2]:m[3]]]})
		last = m[1]
	}
	if last < len(path) {
		out = append(out, Segment{Literal: path[last:]})
	}
	return out
}

// Segment is one part of a path template: either a literal or a parameter.
type Segment struct {
	Literal string
	Param   *ir.PathParam
}

// Interpolate renders a path with each parameter replaced by param(p).
func Interpolate(path string, params []*ir.PathParam, param func(p *ir.PathParam) string) string {
	var b strings.Builder
	for _, s := range PathSegments(path, params) {
		if s.Param == nil {
			b.WriteString(s.Literal)
			continue
		}
		b.WriteString(param(s.Param))
	}
	return b.String()
}
