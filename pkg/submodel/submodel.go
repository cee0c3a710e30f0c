// Package submodel decomposes nested request parameters into setters and nested
// builders, including index-addressed setters for composite-array bodies.
package submodel

import (
	"strings"

	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/customfield"
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/naming"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
	"github.com/blimu-dev/resourcegen/pkg/spec"
)

// BlankIndex is the composite-array policy for absent indices.
type BlankIndex string

const (
	BlankIndexError BlankIndex = "error"
	BlankIndexEmpty BlankIndex = "empty"
)

// ParamsName returns the params artifact name of an operation.
func ParamsName(resource, method string) string {
	return naming.Qualify(resource, method) + "Params"
}

// BuilderName returns the nested builder name of attr under params.
func BuilderName(params, attr string) string {
	base := strings.TrimSuffix(params, "Params")
	return naming.Qualify(base, attr) + "Params"
}

// FormKey returns the bracketed form key of name under the ancestor path,
// e.g. FormKey([]string{"billing_address"}, "city") is "billing_address[city]".
func FormKey(path []string, name string) string {
	if len(path) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(path[0])
	for _, p := range path[1:] {
		b.WriteString("[" + p + "]")
	}
	b.WriteString("[" + name + "]")
	return b.String()
}

// Flattener turns an operation's request attributes into a params description.
type Flattener struct {
	Resolver *resolve.Resolver
	// Flatten renders nested objects as qualified setters on the parent builder
	// (single-level request-parameter mode) instead of distinct nested builders.
	Flatten bool
}

// Params fills p with the setters and nested builders of attrs.
func (f *Flattener) Params(p *ir.Params, attrs []*spec.Attribute, ctx classify.Context) {
	p.Setters = append(p.Setters, f.setters(p, attrs, ctx, "")...)
}

// setters resolves attrs at one level. prefix is the qualified parent name in
// flattened mode.
func (f *Flattener) setters(p *ir.Params, attrs []*spec.Attribute, ctx classify.Context, prefix string) []*ir.Setter {
	caps := f.Resolver.Capabilities()
	var out []*ir.Setter
	for _, a := range attrs {
		shape := classify.Classify(a, ctx)
		name := a.Name
		if prefix != "" {
			name = prefix + "_" + a.Name
		}
		s := &ir.Setter{
			Name:       caps.MethodName(name),
			WireName:   a.Name,
			Key:        FormKey(ctx.Path, a.Name),
			Shape:      shape.Kind().String(),
			Required:   a.Required,
			Deprecated: a.Deprecated,
		}

		switch sh := shape.(type) {
		case classify.Filter:
			s.Kind = ir.SetterFilter
			s.Target = f.lookup(resolve.KeyFor(resolve.KindFilter, ctx, a.Name))
		case classify.SortSpec:
			s.Kind = ir.SetterSort
			s.Target = f.lookup(resolve.KeyFor(resolve.KindSort, ctx, a.Name))
		case classify.PlainObject:
			if len(sh.Fields) == 0 {
				continue
			}
			out = append(out, f.nested(p, s, a, sh.Fields, ctx, name)...)
			continue
		case classify.SubResource:
			if len(sh.Fields) == 0 {
				continue
			}
			out = append(out, f.nested(p, s, a, sh.Fields, ctx, name)...)
			continue
		case classify.CompositeArrayBody:
			s.Kind = ir.SetterNested
			s.Target = f.indexed(p, a, sh.Fields, ctx)
		case classify.ListOfSubResource:
			s.Kind = ir.SetterNested
			s.Target = f.indexed(p, a, sh.Fields, ctx)
		default:
			s.Kind = ir.SetterValue
			d := f.Resolver.Resolve(shape, ctx, a.Name)
			s.Type, s.Base, s.List = d.Name, d.Base, d.Container == resolve.List
		}
		out = append(out, s)
	}
	return out
}

// nested handles object children: qualified setters on the parent in flattened
// mode, a distinct nested builder otherwise.
func (f *Flattener) nested(p *ir.Params, s *ir.Setter, a *spec.Attribute, fields []*spec.Attribute, ctx classify.Context, name string) []*ir.Setter {
	child := ctx.Child(a.Name)
	if f.Flatten {
		return f.setters(p, fields, child, name)
	}
	b := &ir.Builder{
		Name:     f.lookup(resolve.KeyFor(resolve.KindBuilder, ctx, a.Name)),
		WireName: a.Name,
		Key:      s.Key,
	}
	if b.Name == "" {
		b.Name = BuilderName(p.Name, a.Name)
	}
	p.Builders = append(p.Builders, b)
	b.Setters = f.setters(p, fields, child, "")
	caps := f.Resolver.Capabilities()
	if a.Ext.CustomFields {
		b.CustomFields = customfield.Custom(caps, false)
		b.CustomFields.Getter = ""
	}
	if a.Ext.ConsentFields {
		b.ConsentFields = customfield.Consent(caps, false)
		b.ConsentFields.Getter, b.ConsentFields.BoolGetter = "", ""
	}
	s.Kind = ir.SetterNested
	s.Target = b.Name
	return []*ir.Setter{s}
}

// indexed builds the index-addressed builder of a composite-array body. Every child
// setter takes the element index; list-typed children set one element.
func (f *Flattener) indexed(p *ir.Params, a *spec.Attribute, fields []*spec.Attribute, ctx classify.Context) string {
	caps := f.Resolver.Capabilities()
	b := &ir.Builder{
		Name:     f.lookup(resolve.KeyFor(resolve.KindBuilder, ctx, a.Name)),
		WireName: a.Name,
		Key:      FormKey(ctx.Path, a.Name),
		Indexed:  true,
	}
	if b.Name == "" {
		b.Name = BuilderName(p.Name, a.Name)
	}
	p.Builders = append(p.Builders, b)

	child := ctx.Child(a.Name)
	for _, c := range fields {
		shape := classify.Classify(c, child)
		var d resolve.TypeDescriptor
		switch shape.Kind() {
		case classify.KindPrimitive, classify.KindLocalEnum, classify.KindGlobalEnum:
			d = f.Resolver.Resolve(shape, child, c.Name)
		default:
			d = f.Resolver.Primitive(classify.JSONObject)
		}
		b.Setters = append(b.Setters, &ir.Setter{
			Name:       caps.MethodName(c.Name),
			WireName:   c.Name,
			Key:        FormKey(child.Path, c.Name),
			Kind:       ir.SetterIndexed,
			Type:       d.Base,
			Base:       d.Base,
			Shape:      shape.Kind().String(),
			Required:   c.Required,
			Deprecated: c.Deprecated,
		})
	}
	return b.Name
}

func (f *Flattener) lookup(key resolve.Key) string {
	if e, ok := f.Resolver.Registry().Lookup(key); ok {
		return e.Name
	}
	return ""
}
