package python

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

// PythonGenerator implements the Generator interface for Python
type PythonGenerator struct{}

// NewPythonGenerator creates a new Python generator
func NewPythonGenerator() *PythonGenerator {
	return &PythonGenerator{}
}

// GetType returns the generator type identifier
func (g *PythonGenerator) GetType() string {
	return "python"
}

// Capabilities returns the Python type and naming table. Nested enums are inner
// classes of their owner.
func (g *PythonGenerator) Capabilities() *resolve.Capabilities {
	return &resolve.Capabilities{
		Language: "python",
		FileExt:  ".py",
		FileCase: naming.Snake,
		Dirs: map[ir.Kind]string{
			ir.KindModel:   "models",
			ir.KindEnums:   "models",
			ir.KindService: "services",
		},
		FieldCase:     naming.Snake,
		MethodCase:    naming.Snake,
		ParamCase:     naming.Snake,
		EnumConstCase: naming.UpperSnake,
		Primitives: map[classify.PrimitiveKind]string{
			classify.String:        "str",
			classify.Boolean:       "bool",
			classify.Int32:         "int",
			classify.Int64:         "int",
			classify.WideInt:       "int",
			classify.Double:        "float",
			classify.Decimal:       "str",
			classify.Timestamp:     "int",
			classify.UnknownFormat: "int",
			classify.JSONObject:    "dict[str, Any]",
			classify.JSONArray:     "list[Any]",
		},
		List:               "list[%s]",
		Map:                "dict[str, %s]",
		Nullable:           "Optional[%s]",
		NullableContainers: true,
		ScalarUnion:        "Any",
		Qualifier:          ".",
		UnknownEnumValue:   "_unknown",
		UnknownEnumConst:   "UNKNOWN",
		Reserved:           pyReserved,
	}
}

var templateFor = map[ir.Kind]string{
	ir.KindModel:   "model.py.gotmpl",
	ir.KindService: "service.py.gotmpl",
	ir.KindEnums:   "enums.py.gotmpl",
	ir.KindFilters: "filters.py.gotmpl",
	ir.KindClient:  "client.py.gotmpl",
}

// Generate renders the planned artifacts into a Python package named after the
// client's package name.
func (g *PythonGenerator) Generate(client config.Client, plan *planner.Result) ([]render.File, error) {
	caps := g.Capabilities()
	symbols := render.NewSymbols(plan.Outputs, caps)
	tmpl, err := render.Parse(templatesFS, "templates/*.gotmpl", funcMap())
	if err != nil {
		return nil, err
	}

	pkg := sanitizeModuleName(client.PackageName)
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
			return nil, fmt.Errorf("python: no template for %s artifacts", o.Artifact.Kind)
		}
		data := map[string]any{
			"Client":   client,
			"Artifact": o.Artifact,
			"Root":     relativeModule(o.Dir, ""),
			"Imports":  pyImports(o, symbols.Imports(o)),
		}
		if err := emit(name, path.Join(pkg, o.Dir, o.File), data); err != nil {
			return nil, err
		}
	}

	data := map[string]any{
		"Client":       client,
		"Package":      pkg,
		"Outputs":      plan.Outputs,
		"ClientModule": clientModule(plan.Outputs),
	}
	for _, extra := range []struct{ tmpl, file string }{
		{"_runtime.py.gotmpl", path.Join(pkg, "_runtime.py")},
		{"__init__.py.gotmpl", path.Join(pkg, "__init__.py")},
		{"package_init.py.gotmpl", path.Join(pkg, "models", "__init__.py")},
		{"package_init.py.gotmpl", path.Join(pkg, "services", "__init__.py")},
		{"py.typed.gotmpl", path.Join(pkg, "py.typed")},
		{"pyproject.toml.gotmpl", "pyproject.toml"},
		{"README.md.gotmpl", "README.md"},
	} {
		if err := emit(extra.tmpl, extra.file, data); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// clientModule returns the module declaring the client class.
func clientModule(outputs []ir.Output) string {
	for _, o := range outputs {
		if o.Artifact.Kind == ir.KindClient {
			return strings.TrimSuffix(o.File, ".py")
		}
	}
	return "client"
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"docstring":  formatDocstring,
		"pyComment":  formatPythonComment,
		"pyPath":     pyPath,
		"pyArgs":     pyArgs,
		"pyCallArgs": pyCallArgs,
		"pyDecode":   pyDecode,
		"pyFields":   orderedFields,
		"paramsOf":   paramsOf,
		"responseOf": responseOf,
		"pageable":   pageable,
		"pyMember":   pyMember,
	}
}
