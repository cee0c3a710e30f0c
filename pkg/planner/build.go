package planner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/customfield"
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/naming"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
	"github.com/blimu-dev/resourcegen/pkg/spec"
	"github.com/blimu-dev/resourcegen/pkg/submodel"
)

// resourceBuilder resolves the artifacts of one resource. It only reads the shared
// run state, so builders of different resources run in parallel.
type resourceBuilder struct {
	*run
	resource *spec.Resource
	diags    []Diagnostic
}

func (r *run) newResourceBuilder(res *spec.Resource) *resourceBuilder {
	return &resourceBuilder{run: r, resource: res}
}

func (b *resourceBuilder) warn(artifact, format string, args ...any) {
	b.diags = append(b.diags, Diagnostic{
		Severity: SeverityWarning,
		Resource: b.resource.ID,
		Artifact: artifact,
		Message:  fmt.Sprintf(format, args...),
	})
}

// outputs returns the model artifact (when the resource declares attributes or owns
// enums) followed by the service artifact (when it has operations).
func (b *resourceBuilder) outputs() []ir.Output {
	var out []ir.Output
	model := b.model()
	if model != nil {
		out = append(out, b.output(ir.KindModel, model.Name, model))
	}
	if svc := b.service(model); svc != nil {
		out = append(out, b.output(ir.KindService, svc.Name, svc))
	}
	return out
}

func (b *resourceBuilder) output(kind ir.Kind, name string, a *ir.Artifact) ir.Output {
	return b.run.output(kind, name, a)
}

// imports collects the modules an artifact references.
type imports struct {
	self string
	set  map[string]bool
}

func newImports(self string) *imports {
	return &imports{self: self, set: map[string]bool{}}
}

func (im *imports) add(module string) {
	if module != "" && module != im.self {
		im.set[module] = true
	}
}

func (im *imports) sorted() []string {
	return sortedKeys(im.set)
}

// note records the import and legacy-format diagnostic of a resolved type.
func (b *resourceBuilder) note(im *imports, d resolve.TypeDescriptor, artifact string, ctx classify.Context, attr string) {
	if d.Legacy {
		b.warn(artifact, "%s: unknown string format mapped to the integer fallback", ctx.Key(attr))
	}
	switch {
	case d.Resource != "":
		im.add(b.caps.Module(ir.KindModel, b.modelName(d.Resource)))
	case d.Entry != nil:
		im.add(b.moduleOf(d.Entry))
	}
}

// owns reports whether key is the first registration of e, which is where a shared
// artifact is emitted.
func owns(e *resolve.Entry, key resolve.Key) bool {
	return e != nil && len(e.Keys) > 0 && e.Keys[0] == key
}

func fieldsOf(shape classify.Shape) []*spec.Attribute {
	switch s := shape.(type) {
	case classify.SubResource:
		return s.Fields
	case classify.ListOfSubResource:
		return s.Fields
	case classify.PlainObject:
		return s.Fields
	case classify.CompositeArrayBody:
		return s.Fields
	}
	return nil
}

// fields resolves attrs into typed members. Sub-models first registered at this
// level are built too and returned in depth-first order.
func (b *resourceBuilder) fields(im *imports, artifact string, attrs []*spec.Attribute, ctx classify.Context) ([]*ir.Field, []*ir.Model) {
	var fields []*ir.Field
	var subs []*ir.Model
	for _, a := range attrs {
		shape := classify.Classify(a, ctx)
		d := b.res.Field(a, shape, ctx)
		b.note(im, d, artifact, ctx, a.Name)
		fields = append(fields, &ir.Field{
			Name:       b.caps.FieldName(a.Name),
			WireName:   a.Name,
			Type:       d.Name,
			Base:       d.Base,
			Shape:      shape.Kind().String(),
			Container:  d.Container.String(),
			Nullable:   d.Nullable,
			Required:   a.Required,
			Deprecated: a.Deprecated,
			Ref:        d.Ref,
		})

		e := d.Entry
		if e == nil || e.Kind != resolve.KindSubModel || !owns(e, resolve.KeyFor(resolve.KindSubModel, ctx, a.Name)) {
			continue
		}
		m := &ir.Model{Name: e.Name, WireName: a.Name, Deprecated: a.Deprecated}
		if a.Schema != nil {
			m.Description = a.Schema.Description
		}
		var nested []*ir.Model
		m.Fields, nested = b.fields(im, artifact, fieldsOf(shape), ctx.Child(a.Name).WithOwner(e.Name))
		m.Enums = b.enums(e.Name)
		subs = append(subs, m)
		subs = append(subs, nested...)
	}
	return fields, subs
}

// enums builds the enums nested under owner.
func (b *resourceBuilder) enums(owner string) []*ir.Enum {
	var out []*ir.Enum
	for _, e := range b.reg.Owned(owner) {
		out = append(out, b.caps.Enum(e))
	}
	return out
}

// model builds the resource model artifact, or nil when there is nothing to emit.
func (b *resourceBuilder) model() *ir.Artifact {
	name := b.modelName(b.resource.ID)
	enums := b.enums(name)
	if len(b.resource.Attributes) == 0 && len(enums) == 0 {
		return nil
	}
	im := newImports(b.caps.Module(ir.KindModel, name))
	m := &ir.Model{
		Name:       name,
		WireName:   b.resource.ID,
		Deprecated: b.resource.Deprecated,
		Enums:      enums,
	}
	m.Fields, m.SubModels = b.fields(im, name, b.resource.Attributes, b.modelContext(b.resource))
	customfield.InjectModel(m, b.resource.Flags.CustomFields, b.resource.Flags.ConsentFields, b.caps)

	return &ir.Artifact{
		Kind:     ir.KindModel,
		Name:     name,
		Resource: b.resource.ID,
		Imports:  im.sorted(),
		Model:    m,
	}
}

// service builds the service artifact, or nil when the resource has no planned
// operations.
func (b *resourceBuilder) service(model *ir.Artifact) *ir.Artifact {
	plans := b.ops[b.resource.ID]
	if len(plans) == 0 {
		return nil
	}
	name := ServiceName(b.resource.ID)
	im := newImports(b.caps.Module(ir.KindService, name))
	svc := &ir.Service{Name: name, Resource: b.resource.ID}
	if model != nil {
		svc.Model = model.Name
		im.add(b.caps.Module(ir.KindModel, model.Name))
	}

	emitted := map[string]bool{}
	for _, o := range plans {
		m := b.method(o)
		svc.Methods = append(svc.Methods, m)
		if m.Transport == ir.TransportSubDomain {
			im.add(b.caps.Module(ir.KindEnums, enumsArtifact))
		}
		if o.params != nil && !emitted[o.params.Name] {
			emitted[o.params.Name] = true
			svc.Params = append(svc.Params, b.params(im, o))
		}
		if o.response != nil && !emitted[o.response.Name] {
			emitted[o.response.Name] = true
			svc.Responses = append(svc.Responses, b.response(im, o))
		}
	}

	return &ir.Artifact{
		Kind:     ir.KindService,
		Name:     name,
		Resource: b.resource.ID,
		Imports:  im.sorted(),
		Service:  svc,
	}
}

// method builds the service member of an operation.
func (b *resourceBuilder) method(o *opPlan) *ir.Method {
	op := o.op
	path := op.Path
	if o.batch {
		path = o.batchPath
	}
	m := &ir.Method{
		Name:         b.caps.MethodName(o.name),
		Operation:    op.MethodName,
		PathName:     PathName(b.resource.ID, path),
		HTTPMethod:   strings.ToUpper(op.HTTPMethod),
		Path:         op.Path,
		PathParams:   b.pathParams(op),
		Summary:      op.Summary,
		ResponseKind: o.respKind,
		Transport:    ir.TransportDefault,
		Idempotent:   op.Idempotent,
		JSONInput:    op.JSONInput,
		Deprecated:   op.Deprecated,
	}
	if o.params != nil {
		m.Params = o.params.Name
		m.ParamsRequired = anyRequired(o.paramAttrs)
	}
	if o.response != nil {
		m.Response = o.response.Name
	}
	if op.SubDomain != "" && b.subDomain != nil {
		m.Transport = ir.TransportSubDomain
		m.SubDomainType = b.subDomain.TypeName
		for _, v := range b.subDomain.Values {
			if v.API == op.SubDomain {
				m.SubDomain = v.Name
			}
		}
	}
	if o.batch {
		m.Batch = &ir.Batch{Path: o.batchPath, PathID: op.BatchPathID}
		if d := b.delegate(o); d != nil {
			m.Batch.Delegate = b.caps.MethodName(d.name)
			m.ResponseKind = d.respKind
			if d.params != nil {
				m.Batch.Params = d.params.Name
			}
			if d.response != nil {
				m.Batch.Response = d.response.Name
			}
		}
	}
	return m
}

// delegate finds the non-batch operation a batch wrapper forwards to.
func (b *resourceBuilder) delegate(o *opPlan) *opPlan {
	var candidate *opPlan
	for _, p := range b.ops[b.resource.ID] {
		if p.batch || p.op.Path != o.batchPath {
			continue
		}
		if strings.EqualFold(p.op.HTTPMethod, o.op.HTTPMethod) {
			return p
		}
		if candidate == nil {
			candidate = p
		}
	}
	return candidate
}

func anyRequired(attrs []*spec.Attribute) bool {
	for _, a := range attrs {
		if a.Required {
			return true
		}
	}
	return false
}

var pathToken = regexp.MustCompile(`\{([^{}]+)\}`)

// pathParams turns every {token} of the path into a positional parameter.
func (b *resourceBuilder) pathParams(op *spec.Operation) []*ir.PathParam {
	ctx := classify.NewContext(b.resource.ID, b.run)
	var out []*ir.PathParam
	for _, m := range pathToken.FindAllStringSubmatch(op.Path, -1) {
		token := m[1]
		typ := b.res.Primitive(classify.String).Name
		if a := find(op.PathParams, token); a != nil {
			if shape, ok := classify.Classify(a, ctx).(classify.Primitive); ok && !shape.List {
				typ = b.res.Primitive(shape.Type).Name
			}
		}
		out = append(out, &ir.PathParam{
			Name:     b.caps.Ident(b.caps.ParamCase, token),
			WireName: token,
			Type:     typ,
		})
	}
	return out
}

// PathName derives a method name from the last literal path segment, prefixed with
// the resource id when the segment does not mention the resource.
func PathName(resourceID, path string) string {
	var tail string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && !strings.HasPrefix(seg, "{") {
			tail = seg
		}
	}
	if tail == "" {
		return naming.ToCamel(resourceID)
	}
	if !naming.Contains(tail, naming.Singular(resourceID)) {
		return naming.ToCamel(resourceID + "_" + tail)
	}
	return naming.ToCamel(tail)
}

// params builds the input builder of an operation.
func (b *resourceBuilder) params(im *imports, o *opPlan) *ir.Params {
	p := &ir.Params{
		Name:       o.params.Name,
		Operation:  o.op.MethodName,
		BlankIndex: string(b.blankFor(b.resource.ID)),
		JSON:       o.op.JSONInput,
	}
	ctx := classify.NewContext(b.resource.ID, b.run).WithScope(o.scope).WithOwner(b.modelName(b.resource.ID))
	f := &submodel.Flattener{Resolver: b.res, Flatten: b.flat}
	f.Params(p, o.paramAttrs, ctx)
	b.noteParams(im, p.Name, o.paramAttrs, ctx)

	consent := b.resource.Flags.ConsentFields && o.op.RequestBody != nil
	customfield.InjectParams(p, o.op.CustomFieldsSupported, consent, b.caps)
	return p
}

// noteParams walks request attributes the way the flattener does and records the
// imports and diagnostics of every leaf type.
func (b *resourceBuilder) noteParams(im *imports, artifact string, attrs []*spec.Attribute, ctx classify.Context) {
	for _, a := range attrs {
		shape := classify.Classify(a, ctx)
		switch shape.(type) {
		case classify.Filter, classify.SortSpec:
			im.add(b.caps.Module(ir.KindFilters, filtersArtifact))
		case classify.Primitive, classify.LocalEnum, classify.GlobalEnum:
			b.note(im, b.res.Resolve(shape, ctx, a.Name), artifact, ctx, a.Name)
		default:
			b.noteParams(im, artifact, fieldsOf(shape), ctx.Child(a.Name))
		}
	}
}

// response builds the response artifact of an operation.
func (b *resourceBuilder) response(im *imports, o *opPlan) *ir.Response {
	resp := &ir.Response{Name: o.response.Name, Kind: o.respKind, Fallback: o.fallback}
	ctx := classify.NewContext(b.resource.ID, b.run).WithScope(o.scope + scopeResponse).WithOwner(resp.Name)

	resp.Fields, resp.SubModels = b.fields(im, resp.Name, o.respAttrs, ctx)
	resp.Enums = b.enums(resp.Name)

	if o.respKind == ir.ResponsePaginated {
		resp.Cursor = b.caps.FieldName("next_offset")
		if o.item != nil {
			// an item shared with an earlier response stays declared there
			for i, m := range resp.SubModels {
				if m.Name == o.item.Name {
					resp.Item = m
					resp.SubModels = append(resp.SubModels[:i:i], resp.SubModels[i+1:]...)
					break
				}
			}
		}
	}
	return resp
}
