package golang

import (
	"embed"
	"fmt"
	"go/format"
	"path"
	"text/template"

	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/config"
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/naming"
	"github.com/blimu-dev/resourcegen/pkg/planner"
	"github.com/blimu-dev/resourcegen/pkg/render"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
)

//go:embed templates/*
var templatesFS embed.FS

// RuntimeModule is the module generated Go SDKs import their runtime helpers from.
const RuntimeModule = "github.com/blimu-dev/resourcegen"

// GoGenerator renders planned artifacts as a single Go package.
type GoGenerator struct{}

// NewGoGenerator creates a new Go generator
func NewGoGenerator() *GoGenerator {
	return &GoGenerator{}
}

// GetType returns the generator type identifier
func (g *GoGenerator) GetType() string {
	return "go"
}

// Capabilities returns the Go type and naming table.
func (g *GoGenerator) Capabilities() *resolve.Capabilities {
	return &resolve.Capabilities{
		Language:        "go",
		FileExt:         ".go",
		FileCase:        naming.Snake,
		Dirs:            map[ir.Kind]string{},
		FieldCase:       naming.Pascal,
		MethodCase:      naming.Pascal,
		ParamCase:       naming.Camel,
		EnumConstCase:   naming.Pascal,
		EnumConstPrefix: true,
		Primitives: map[classify.PrimitiveKind]string{
			classify.String:        "string",
			classify.Boolean:       "bool",
			classify.Int32:         "int32",
			classify.Int64:         "int64",
			classify.WideInt:       "int64",
			classify.Double:        "float64",
			classify.Decimal:       "string",
			classify.Timestamp:     "int64",
			classify.UnknownFormat: "int32",
			classify.JSONObject:    "json.RawMessage",
			classify.JSONArray:     "json.RawMessage",
		},
		List:             "[]%s",
		Map:              "map[string]%s",
		Nullable:         "*%s",
		ScalarUnion:      "any",
		UnknownEnumValue: "_unknown",
		UnknownEnumConst: "Unknown",
		Reserved:         goReserved,
	}
}

// templateFor maps artifact kinds to their template.
var templateFor = map[ir.Kind]string{
	ir.KindModel:   "model.go.gotmpl",
	ir.KindService: "service.go.gotmpl",
	ir.KindEnums:   "enums.go.gotmpl",
	ir.KindFilters: "filters.go.gotmpl",
	ir.KindClient:  "client.go.gotmpl",
}

// Generate renders every planned artifact plus the go.mod and README.
func (g *GoGenerator) Generate(client config.Client, plan *planner.Result) ([]render.File, error) {
	tmpl, err := render.Parse(templatesFS, "templates/*.gotmpl", g.funcMap(client))
	if err != nil {
		return nil, err
	}

	pkg := sanitizePackageName(client.PackageName)
	var files []render.File
	for _, o := range plan.Outputs {
		name, ok := templateFor[o.Artifact.Kind]
		if !ok {
			return nil, fmt.Errorf("go: no template for %s artifacts", o.Artifact.Kind)
		}
		content, err := tmpl.Execute(name, map[string]any{
			"Client":   client,
			"Package":  pkg,
			"Artifact": o.Artifact,
		})
		if err != nil {
			return nil, err
		}
		p := path.Join(o.Dir, o.File)
		if content, err = format.Source(content); err != nil {
			return nil, fmt.Errorf("go: format %s: %w", p, err)
		}
		files = append(files, render.File{Path: p, Content: content})
	}

	data := map[string]any{"Client": client, "Package": pkg, "Outputs": plan.Outputs}
	for _, extra := range []struct{ tmpl, file string }{
		{"go.mod.gotmpl", "go.mod"},
		{"README.md.gotmpl", "README.md"},
	} {
		content, err := tmpl.Execute(extra.tmpl, data)
		if err != nil {
			return nil, err
		}
		files = append(files, render.File{Path: extra.file, Content: content})
	}
	return files, nil
}

func (g *GoGenerator) funcMap(client config.Client) template.FuncMap {
	return template.FuncMap{
		"goComment":  formatGoComment,
		"goImports":  goImports,
		"goPath":     goPath,
		"methodArgs": methodArgs,
		"callArgs":   callArgs,
		"paramsOf":   paramsOf,
		"responseOf": responseOf,
		"pageable":   pageable,
		"cursorExpr": cursorExpr,
		"elemType":   elemType,
		"knownOf":    knownOf,
		"unknownOf":  unknownOf,
		"baseURL":    func() string { return client.DefaultBaseURL },
		"moduleName": func() string {
			if client.ModuleName != "" {
				return client.ModuleName
			}
			return sanitizePackageName(client.PackageName)
		},
	}
}
