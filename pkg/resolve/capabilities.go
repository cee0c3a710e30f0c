// Package resolve maps attribute shapes to target-language types and keeps the
// registry of named artifacts shared by every resource in a generation run.
package resolve

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/naming"
)

// Capabilities is the per-target table a language backend hands to the engine.
type Capabilities struct {
	Language string
	// FileExt is appended to artifact file names, including the dot.
	FileExt  string
	FileCase naming.Case
	// Dirs places artifact kinds in sub-directories of the output directory.
	Dirs map[ir.Kind]string

	FieldCase     naming.Case
	MethodCase    naming.Case
	ParamCase     naming.Case
	EnumConstCase naming.Case
	// EnumConstPrefix prefixes enum constants with the enum type name (flat namespaces).
	EnumConstPrefix bool

	Primitives map[classify.PrimitiveKind]string
	// List, Map and Nullable are fmt patterns with a single %s for the element type.
	List     string
	Map      string
	Nullable string
	// NullableContainers applies Nullable to list and map types too.
	NullableContainers bool
	// ScalarUnion is the value type of consent-field maps.
	ScalarUnion string

	// Qualifier joins an owning artifact and a nested enum ("." for nested types,
	// "" for flat names).
	Qualifier           string
	GlobalEnumNamespace string
	// UnknownEnumValue is the sentinel wire value appended to every enum.
	UnknownEnumValue string
	UnknownEnumConst string

	// FlattenNestedParams renders nested parameter objects as qualified setters on
	// the parent builder instead of separate nested builders.
	FlattenNestedParams bool
	Reserved            map[string]bool
}

// Validate reports capability tables missing entries the resolver needs.
func (c *Capabilities) Validate() error {
	if c.Language == "" {
		return fmt.Errorf("capabilities: language is required")
	}
	kinds := []classify.PrimitiveKind{
		classify.String, classify.Boolean, classify.Int32, classify.Int64, classify.WideInt,
		classify.Double, classify.Decimal, classify.Timestamp, classify.UnknownFormat,
		classify.JSONObject, classify.JSONArray,
	}
	for _, k := range kinds {
		if c.Primitives[k] == "" {
			return fmt.Errorf("capabilities %s: no type for primitive %s", c.Language, k)
		}
	}
	for name, pattern := range map[string]string{"list": c.List, "map": c.Map, "nullable": c.Nullable} {
		if strings.Count(pattern, "%s") != 1 {
			return fmt.Errorf("capabilities %s: %s pattern %q must contain one %%s", c.Language, name, pattern)
		}
	}
	return nil
}

// Ident applies a case convention and makes the result a legal identifier.
func (c *Capabilities) Ident(cs naming.Case, name string) string {
	id := cs.Apply(name)
	if id == "" {
		return "_"
	}
	if unicode.IsDigit(rune(id[0])) {
		id = "_" + id
	}
	if c.Reserved[id] {
		id += "_"
	}
	return id
}

// TypeName returns a PascalCase artifact name.
func (c *Capabilities) TypeName(name string) string {
	return c.Ident(naming.Pascal, name)
}

// FieldName returns the field identifier for a wire name.
func (c *Capabilities) FieldName(wire string) string {
	return c.Ident(c.FieldCase, wire)
}

// MethodName returns the method identifier for a name.
func (c *Capabilities) MethodName(name string) string {
	return c.Ident(c.MethodCase, name)
}

// FileName returns the file name of an artifact.
func (c *Capabilities) FileName(name string) string {
	return c.FileCase.Apply(name) + c.FileExt
}

// Module returns the extension-less output path of an artifact, used as the import
// identity between artifacts.
func (c *Capabilities) Module(kind ir.Kind, name string) string {
	return path.Join(c.Dirs[kind], c.FileCase.Apply(name))
}

// ListOf wraps an element type in the target's ordered container.
func (c *Capabilities) ListOf(elem string) string {
	return fmt.Sprintf(c.List, elem)
}

// MapOf returns a string-keyed map of the value type.
func (c *Capabilities) MapOf(value string) string {
	return fmt.Sprintf(c.Map, value)
}

// NullableOf marks a type as nullable.
func (c *Capabilities) NullableOf(t string) string {
	return fmt.Sprintf(c.Nullable, t)
}

// EnumType returns the reference to a local enum nested under owner.
func (c *Capabilities) EnumType(owner, name string) string {
	if owner == "" {
		return c.GlobalEnumType(name)
	}
	return owner + c.Qualifier + name
}

// GlobalEnumType returns the reference to a global enum.
func (c *Capabilities) GlobalEnumType(name string) string {
	if c.GlobalEnumNamespace == "" {
		return name
	}
	return c.GlobalEnumNamespace + "." + name
}

// EnumConst returns the constant identifier of an enum value.
func (c *Capabilities) EnumConst(enum, value string) string {
	if c.EnumConstPrefix {
		return enum + c.Ident(naming.Pascal, value)
	}
	return c.Ident(c.EnumConstCase, value)
}

// EnumName returns the local name of the enum declared for an attribute.
func EnumName(attr string) string {
	n := naming.ToPascal(attr)
	if strings.HasSuffix(n, "Enum") {
		return n
	}
	return n + "Enum"
}
