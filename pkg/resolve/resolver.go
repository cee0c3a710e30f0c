package resolve

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/naming"
	"github.com/blimu-dev/resourcegen/pkg/spec"
)

// Container is the container-ness of a resolved type.
type Container int

const (
	None Container = iota
	List
	Map
)

func (c Container) String() string {
	switch c {
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return ""
	}
}

// TypeDescriptor is the resolved target type of an attribute.
type TypeDescriptor struct {
	// Name is the full type expression, e.g. "[]CustomerBalance".
	Name string
	// Base is the element type for containers, the type itself otherwise.
	Base      string
	Nullable  bool
	Container Container
	// Ref is the referenced artifact name when the type is a generated artifact.
	Ref string
	// Legacy is set when an unknown string format fell back to the integer type.
	Legacy bool
	// Entry is the registry entry behind Ref; nil for primitives and resource models.
	Entry *Entry
	// Resource is the referenced top-level resource id.
	Resource string
}

// Resolver turns shapes into type descriptors using a capability table and a
// populated registry. It is safe for concurrent use once the registry is complete.
type Resolver struct {
	caps          *Capabilities
	registry      *Registry
	strictFormats bool
}

// NewResolver returns a resolver for one target.
func NewResolver(caps *Capabilities, registry *Registry, strictFormats bool) *Resolver {
	return &Resolver{caps: caps, registry: registry, strictFormats: strictFormats}
}

// Capabilities returns the resolver's capability table.
func (r *Resolver) Capabilities() *Capabilities { return r.caps }

// Registry returns the resolver's artifact registry.
func (r *Resolver) Registry() *Registry { return r.registry }

// KeyFor builds the registry key of an attribute under ctx.
func KeyFor(kind ArtifactKind, ctx classify.Context, attr string) Key {
	return Key{Kind: kind, Resource: ctx.Resource, Path: ctx.Scope + "/" + ctx.Key(attr)}
}

// ModelName returns the model artifact name of a top-level resource.
func ModelName(resourceID string) string {
	return naming.ToPascal(resourceID)
}

// Resolve maps a shape of the attribute named attr to its non-nullable type.
func (r *Resolver) Resolve(shape classify.Shape, ctx classify.Context, attr string) TypeDescriptor {
	var d TypeDescriptor
	switch s := shape.(type) {
	case classify.Primitive:
		d = r.primitive(s.Type)
		if s.List {
			d = r.list(d)
		}
	case classify.LocalEnum:
		d = r.ref(KeyFor(KindEnum, ctx, attr), func(e *Entry) string { return r.caps.EnumType(e.Owner, e.Name) })
		if s.List {
			d = r.list(d)
		}
	case classify.GlobalEnum:
		d = r.ref(KeyFor(KindEnum, ctx, attr), func(e *Entry) string { return r.caps.GlobalEnumType(e.Name) })
		if s.List {
			d = r.list(d)
		}
	case classify.SubResource:
		d = r.target(s.Target, KeyFor(KindSubModel, ctx, attr))
	case classify.ListOfSubResource:
		d = r.list(r.target(s.Target, KeyFor(KindSubModel, ctx, attr)))
	case classify.Filter:
		d = r.ref(KeyFor(KindFilter, ctx, attr), nil)
	case classify.SortSpec:
		d = r.ref(KeyFor(KindSort, ctx, attr), nil)
	case classify.CompositeArrayBody:
		d = r.ref(KeyFor(KindBuilder, ctx, attr), nil)
	case classify.PlainObject:
		if len(s.Fields) == 0 {
			return r.primitive(classify.JSONObject)
		}
		if e, ok := r.registry.Lookup(KeyFor(KindBuilder, ctx, attr)); ok {
			d = TypeDescriptor{Name: e.Name, Base: e.Name, Ref: e.Name, Entry: e}
		} else {
			d = r.ref(KeyFor(KindSubModel, ctx, attr), nil)
		}
	}
	if d.Name == "" {
		d = r.primitive(classify.JSONObject)
	}
	return d
}

// Field resolves the type of an attribute member, marking optional members nullable.
func (r *Resolver) Field(a *spec.Attribute, shape classify.Shape, ctx classify.Context) TypeDescriptor {
	d := r.Resolve(shape, ctx, a.Name)
	nullable := !a.Required || (a.Schema != nil && a.Schema.Nullable)
	if nullable && (d.Container == None || r.caps.NullableContainers) {
		d.Nullable = true
		d.Name = r.caps.NullableOf(d.Name)
	}
	return d
}

// Primitive returns the target type of a primitive kind.
func (r *Resolver) Primitive(kind classify.PrimitiveKind) TypeDescriptor {
	return r.primitive(kind)
}

func (r *Resolver) primitive(kind classify.PrimitiveKind) TypeDescriptor {
	if kind == classify.UnknownFormat && r.strictFormats {
		kind = classify.String
	}
	name := r.caps.Primitives[kind]
	return TypeDescriptor{Name: name, Base: name, Legacy: kind == classify.UnknownFormat}
}

func (r *Resolver) list(d TypeDescriptor) TypeDescriptor {
	d.Container = List
	d.Name = r.caps.ListOf(d.Name)
	return d
}

func (r *Resolver) target(t classify.Target, key Key) TypeDescriptor {
	if t.Resource != "" {
		name := ModelName(t.Resource)
		return TypeDescriptor{Name: name, Base: name, Ref: name, Resource: t.Resource}
	}
	return r.ref(key, nil)
}

func (r *Resolver) ref(key Key, render func(*Entry) string) TypeDescriptor {
	e, ok := r.registry.Lookup(key)
	if !ok {
		return TypeDescriptor{}
	}
	name := e.Name
	if render != nil {
		name = render(e)
	}
	return TypeDescriptor{Name: name, Base: name, Ref: name, Entry: e}
}

// Fingerprint returns a structural digest of an attribute list. Two sub-resources,
// builders or filters with equal fingerprints can share one artifact.
func Fingerprint(fields []*spec.Attribute) string {
	var b strings.Builder
	writeFields(&b, fields, 0)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// FingerprintOf digests an arbitrary shape.
func FingerprintOf(shape classify.Shape) string {
	var b strings.Builder
	writeShape(&b, shape, 0)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

const maxFingerprintDepth = 16

func writeFields(b *strings.Builder, fields []*spec.Attribute, depth int) {
	sorted := append([]*spec.Attribute(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	b.WriteString("{")
	for _, f := range sorted {
		b.WriteString(f.Name)
		if f.Required {
			b.WriteString("!")
		}
		b.WriteString(":")
		writeShape(b, classify.Classify(f, classify.Context{}), depth+1)
		b.WriteString(";")
	}
	b.WriteString("}")
}

func writeShape(b *strings.Builder, shape classify.Shape, depth int) {
	b.WriteString(shape.Kind().String())
	if depth > maxFingerprintDepth {
		return
	}
	switch s := shape.(type) {
	case classify.Primitive:
		b.WriteString("(" + s.Type.String())
		if s.List {
			b.WriteString("[]")
		}
		b.WriteString(")")
	case classify.LocalEnum:
		writeValues(b, s.Values, s.List)
	case classify.GlobalEnum:
		b.WriteString("(" + s.Name + ")")
		writeValues(b, s.Values, s.List)
	case classify.SubResource:
		b.WriteString("(" + s.Target.Resource + ")")
		writeFields(b, s.Fields, depth)
	case classify.ListOfSubResource:
		b.WriteString("(" + s.Target.Resource + ")")
		writeFields(b, s.Fields, depth)
	case classify.Filter:
		b.WriteString("(" + s.Value.String())
		for _, op := range s.Operators {
			b.WriteString("," + string(op))
		}
		b.WriteString(")")
		writeValues(b, s.Enum, false)
	case classify.SortSpec:
		b.WriteString("(" + strings.Join(s.Fields, ",") + ")")
	case classify.CompositeArrayBody:
		writeFields(b, s.Fields, depth)
	case classify.PlainObject:
		writeFields(b, s.Fields, depth)
	}
}

func writeValues(b *strings.Builder, values []spec.EnumValue, list bool) {
	b.WriteString("[")
	for _, v := range values {
		b.WriteString(v.API)
		if v.Deprecated {
			b.WriteString("~")
		}
		b.WriteString(",")
	}
	b.WriteString("]")
	if list {
		b.WriteString("[]")
	}
}
