package typescript

import (
	"embed"
	"fmt"
	"path"
	"strings"
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

// TypeScriptGenerator implements the Generator interface for TypeScript
type TypeScriptGenerator struct{}

// NewTypeScriptGenerator creates a new TypeScript generator
func NewTypeScriptGenerator() *TypeScriptGenerator {
	return &TypeScriptGenerator{}
}

// GetType returns the generator type identifier
func (g *TypeScriptGenerator) GetType() string {
	return "typescript"
}

// Capabilities returns the TypeScript type and naming table. Models are interfaces
// keyed by wire names; nested enums live in a namespace merged with their owner.
func (g *TypeScriptGenerator) Capabilities() *resolve.Capabilities {
	return &resolve.Capabilities{
		Language: "typescript",
		FileExt:  ".ts",
		FileCase: naming.Kebab,
		Dirs: map[ir.Kind]string{
			ir.KindModel:   "models",
			ir.KindEnums:   "models",
			ir.KindService: "services",
		},
		FieldCase:     naming.Snake,
		MethodCase:    naming.Camel,
		ParamCase:     naming.Camel,
		EnumConstCase: naming.Pascal,
		Primitives: map[classify.PrimitiveKind]string{
			classify.String:        "string",
			classify.Boolean:       "boolean",
			classify.Int32:         "number",
			classify.Int64:         "number",
			classify.WideInt:       "number",
			classify.Double:        "number",
			classify.Decimal:       "string",
			classify.Timestamp:     "number",
			classify.UnknownFormat: "number",
			classify.JSONObject:    "Record<string, unknown>",
			classify.JSONArray:     "unknown[]",
		},
		List:             "%s[]",
		Map:              "Record<string, %s>",
		Nullable:         "%s | null",
		ScalarUnion:      "string | number | boolean",
		Qualifier:        ".",
		UnknownEnumValue: "_unknown",
		UnknownEnumConst: "Unknown",
		Reserved:         tsReserved,
	}
}

var templateFor = map[ir.Kind]string{
	ir.KindModel:   "model.ts.gotmpl",
	ir.KindService: "service.ts.gotmpl",
	ir.KindEnums:   "enums.ts.gotmpl",
	ir.KindFilters: "filters.ts.gotmpl",
	ir.KindClient:  "client.ts.gotmpl",
}

// Generate renders the planned artifacts into an npm package with sources under src/.
func (g *TypeScriptGenerator) Generate(client config.Client, plan *planner.Result) ([]render.File, error) {
	caps := g.Capabilities()
	symbols := render.NewSymbols(plan.Outputs, caps)
	tmpl, err := render.Parse(templatesFS, "templates/*.gotmpl", funcMap())
	if err != nil {
		return nil, err
	}

	var files []render.File
	emit := func(name, file string, data map[string]any) error {
		content, err := tmpl.Execute(name, data)
		if err != nil {
			return err
		}
		files = append(files, render.File{Path: file, Content: content})
		return nil
	}

	for _, o := range plan.Outputs {
		name, ok := templateFor[o.Artifact.Kind]
		if !ok {
			return nil, fmt.Errorf("typescript: no template for %s artifacts", o.Artifact.Kind)
		}
		data := map[string]any{
			"Client":   client,
			"Artifact": o.Artifact,
			"Runtime":  relativeModule(o.Dir, "runtime"),
			"Imports":  tsImports(o, symbols.Imports(o)),
		}
		if err := emit(name, path.Join("src", o.Dir, o.File), data); err != nil {
			return nil, err
		}
	}

	data := map[string]any{"Client": client, "Package": packageName(client), "Outputs": plan.Outputs}
	for _, extra := range []struct{ tmpl, file string }{
		{"runtime.ts.gotmpl", "src/runtime.ts"},
		{"index.ts.gotmpl", "src/index.ts"},
		{"package.json.gotmpl", "package.json"},
		{"tsconfig.json.gotmpl", "tsconfig.json"},
		{"README.md.gotmpl", "README.md"},
	} {
		if err := emit(extra.tmpl, extra.file, data); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// packageName returns the npm package name: the module name when set, else the
// package name.
func packageName(client config.Client) string {
	if client.ModuleName != "" {
		return client.ModuleName
	}
	return strings.ToLower(client.PackageName)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"tsDoc":      formatTSDoc,
		"tsProp":     quoteTSPropertyName,
		"tsAccess":   propertyAccess,
		"tsPath":     tsPath,
		"tsArgs":     tsArgs,
		"tsCallArgs": tsCallArgs,
		"paramsOf":   paramsOf,
		"responseOf": responseOf,
		"pageable":   pageable,
		"enumUnion":  enumUnion,
		"needsSpace": func(m *ir.Model) bool {
			return len(m.Enums) > 0 || m.CustomFields != nil || m.ConsentFields != nil
		},
	}
}

// quoteTSPropertyName quotes TypeScript property names that contain special characters
func quoteTSPropertyName(name string) string {
	// Check if the name contains characters that require quoting
	needsQuoting := false
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_' || char == '$') {
			needsQuoting = true
			break
		}
	}

	// Also quote if the name starts with a number
	if len(name) > 0 && name[0] >= '0' && name[0] <= '9' {
		needsQuoting = true
	}

	if needsQuoting || name == "" {
		return `"` + name + `"`
	}
	return name
}
