package planner

import (
	"sort"
	"strconv"
	"strings"

	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/filter"
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/naming"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
	"github.com/blimu-dev/resourcegen/pkg/spec"
	"github.com/blimu-dev/resourcegen/pkg/submodel"
)

// Registry scopes. Every tree of a resource gets its own scope so equal attribute
// paths in the model and in operations never share a key.
const (
	scopeModel    = "model"
	scopeOp       = "op:"
	scopeResponse = "/response"
)

// Response fallbacks.
const (
	fallbackProperties = "properties"
	fallbackRequired   = "required"
	fallbackEmpty      = "empty"
)

// opPlan is what discovery learned about one operation.
type opPlan struct {
	op *spec.Operation
	// name is the method name, the path-derived one when an earlier operation of
	// the resource already took the declared name.
	name  string
	scope string

	params     *resolve.Entry
	paramAttrs []*spec.Attribute

	response  *resolve.Entry
	respKind  ir.ResponseKind
	respAttrs []*spec.Attribute
	fallback  string
	// item is the element sub-model of a paginated list.
	item *resolve.Entry

	batch     bool
	batchPath string
}

// discover registers every artifact name in a fixed order: global enums, resource
// models, model trees, operations, then the sub-domain enum.
func (r *run) discover() {
	for _, e := range r.spec.GlobalEnums {
		key := resolve.Key{Kind: resolve.KindEnum, Path: "global/" + e.Name}
		r.globalEnum(key, e.Name, e.Values, "")
	}
	for _, res := range r.resources {
		key := resolve.Key{Kind: resolve.KindModel, Resource: res.ID, Path: scopeModel}
		e := r.reg.Register(key, resolve.Candidate{
			Name:        resolve.ModelName(res.ID),
			Resource:    res.ID,
			Fingerprint: "resource:" + res.ID,
		})
		r.warnQualified(e)
	}
	for _, res := range r.resources {
		r.walk(res.Attributes, r.modelContext(res))
	}
	for _, op := range r.spec.Operations {
		if !op.HasIdentity() {
			r.logger.Debug("operation skipped: no resource id or method name", "method", op.HTTPMethod, "path", op.Path)
		}
	}
	for _, res := range r.resources {
		r.discoverOperations(res)
	}
	r.registerSubDomains()
	r.indexModules()
}

func (r *run) modelContext(res *spec.Resource) classify.Context {
	return classify.NewContext(res.ID, r).WithScope(scopeModel).WithOwner(r.modelName(res.ID))
}

// modelName returns the registered model name of a resource.
func (r *run) modelName(id string) string {
	if e, ok := r.reg.Lookup(resolve.Key{Kind: resolve.KindModel, Resource: id, Path: scopeModel}); ok {
		return e.Name
	}
	return resolve.ModelName(id)
}

func (r *run) warnQualified(e *resolve.Entry) {
	if e == nil || !e.Qualified() || r.warned[e] {
		return
	}
	r.warned[e] = true
	r.diag(SeverityWarning, e.Resource, e.Name, "%s name %q is taken; qualified as %q", e.Kind, e.Requested, e.Name)
}

func enumFingerprint(values []spec.EnumValue) string {
	return resolve.FingerprintOf(classify.LocalEnum{Values: values})
}

// globalEnum registers a global enum. Identical enums reached from several places
// share one artifact.
func (r *run) globalEnum(key resolve.Key, name string, values []spec.EnumValue, resource string) *resolve.Entry {
	e := r.reg.Register(key, resolve.Candidate{
		Name:        resolve.EnumName(name),
		Resource:    resource,
		Fingerprint: enumFingerprint(values),
		Data:        resolve.EnumData{Values: values, Global: true},
	})
	r.warnQualified(e)
	return e
}

// walk registers the enums and sub-models of a model or response tree.
func (r *run) walk(attrs []*spec.Attribute, ctx classify.Context) {
	for _, a := range attrs {
		key := func(kind resolve.ArtifactKind) resolve.Key { return resolve.KeyFor(kind, ctx, a.Name) }

		switch s := classify.Classify(a, ctx).(type) {
		case classify.LocalEnum:
			owner := ctx.Owner()
			if meta := r.lookupResource(s.Owner); meta != nil {
				owner = r.modelName(meta.ID)
			}
			e := r.reg.Register(key(resolve.KindEnum), resolve.Candidate{
				Name:        resolve.EnumName(a.Name),
				Owner:       owner,
				Resource:    ctx.Resource,
				Fingerprint: enumFingerprint(s.Values),
				Data:        resolve.EnumData{Values: s.Values},
			})
			r.warnQualified(e)
		case classify.GlobalEnum:
			name := s.Name
			if name == "" {
				name = a.Name
			}
			r.globalEnum(key(resolve.KindEnum), name, s.Values, ctx.Resource)
		case classify.SubResource:
			r.subModel(a, s.Target, s.Fields, ctx)
		case classify.ListOfSubResource:
			r.subModel(a, s.Target, s.Fields, ctx)
		case classify.PlainObject:
			if len(s.Fields) > 0 {
				r.subModel(a, classify.Target{Name: a.Name, Attribute: a.Name}, s.Fields, ctx)
			}
		case classify.CompositeArrayBody:
			if len(s.Fields) > 0 {
				r.subModel(a, classify.Target{Name: a.Name, Attribute: a.Name}, s.Fields, ctx)
			}
		}
	}
}

// subModel registers an inline or component sub-resource and walks its fields.
// Explicit and component names win over the anonymous <Owner><Singular(attr)> name.
// References to top-level resources register nothing.
func (r *run) subModel(a *spec.Attribute, t classify.Target, fields []*spec.Attribute, ctx classify.Context) {
	if t.Resource != "" {
		return
	}
	name := naming.Qualify(ctx.Owner(), naming.Singular(t.Attribute))
	switch {
	case t.Explicit:
		name = naming.ToPascal(t.Name)
	case a.Ref != "":
		name = naming.ToPascal(a.Ref)
	}
	e := r.reg.Register(resolve.KeyFor(resolve.KindSubModel, ctx, a.Name), resolve.Candidate{
		Name:        name,
		Resource:    ctx.Resource,
		Fingerprint: resolve.Fingerprint(fields),
		Data:        fields,
	})
	r.warnQualified(e)
	r.walk(fields, ctx.Child(a.Name).WithOwner(e.Name))
}

// discoverOperations plans the operations of one resource.
func (r *run) discoverOperations(res *spec.Resource) {
	scopes := map[string]int{}
	taken := map[string]bool{}
	for _, op := range res.Operations {
		if !op.HasIdentity() {
			continue
		}
		name := op.MethodName
		if taken[naming.ToCamel(name)] {
			name = PathName(res.ID, op.Path)
			r.diag(SeverityInfo, res.ID, name, "method name %q is taken; using %q from %s", op.MethodName, name, op.Path)
		}
		taken[naming.ToCamel(name)] = true

		scope := scopeOp + name
		if n := scopes[scope]; n > 0 {
			scope += "#" + strconv.Itoa(n)
		}
		scopes[scopeOp+name]++

		o := &opPlan{op: op, name: name, scope: scope}
		r.ops[res.ID] = append(r.ops[res.ID], o)

		if path, ok := Debatch(op); ok {
			o.batch, o.batchPath = true, path
			continue
		}

		o.paramAttrs = paramAttributes(op)
		if len(o.paramAttrs) > 0 {
			o.params = r.reg.Register(resolve.Key{Kind: resolve.KindParams, Resource: res.ID, Path: scope}, resolve.Candidate{
				Name:        submodel.ParamsName(res.ID, name),
				Resource:    res.ID,
				Fingerprint: "params:" + res.ID + "/" + scope,
			})
			r.warnQualified(o.params)
			ctx := classify.NewContext(res.ID, r).WithScope(scope).WithOwner(r.modelName(res.ID))
			r.walkParams(o.paramAttrs, ctx, o.params.Name)
		}
		r.discoverResponse(res, o)
	}
}

// Debatch reports whether op is a batch wrapper and returns the path of the
// operation it delegates to. Both the /batch/ prefix and the batch path id are needed.
func Debatch(op *spec.Operation) (string, bool) {
	if op.BatchPathID == "" || !strings.HasPrefix(op.Path, "/batch/") {
		return "", false
	}
	return strings.TrimPrefix(op.Path, "/batch"), true
}

// paramAttributes returns the query parameters followed by the request body fields.
func paramAttributes(op *spec.Operation) []*spec.Attribute {
	attrs := append([]*spec.Attribute(nil), op.QueryParams...)
	if op.RequestBody != nil {
		attrs = append(attrs, op.RequestBody.Children...)
	}
	return attrs
}

// walkParams registers the filters, sorts, enums and nested builders of request
// attributes. builder is the name nested builders are derived from.
func (r *run) walkParams(attrs []*spec.Attribute, ctx classify.Context, builder string) {
	for _, a := range attrs {
		key := func(kind resolve.ArtifactKind) resolve.Key { return resolve.KeyFor(kind, ctx, a.Name) }

		switch s := classify.Classify(a, ctx).(type) {
		case classify.Filter:
			e := r.reg.Register(key(resolve.KindFilter), resolve.Candidate{
				Name:        filter.Name(a.Name),
				Resource:    ctx.Resource,
				Fingerprint: resolve.FingerprintOf(s),
				Data:        s,
			})
			r.warnQualified(e)
		case classify.SortSpec:
			e := r.reg.Register(key(resolve.KindSort), resolve.Candidate{
				Name:        filter.SortName(ctx.Resource),
				Resource:    ctx.Resource,
				Fingerprint: resolve.FingerprintOf(s),
				Data:        s,
			})
			r.warnQualified(e)
		case classify.LocalEnum:
			r.paramEnum(a, s, ctx)
		case classify.GlobalEnum:
			name := s.Name
			if name == "" {
				name = a.Name
			}
			r.globalEnum(key(resolve.KindEnum), name, s.Values, ctx.Resource)
		case classify.PlainObject:
			r.nestedBuilder(a, s.Fields, ctx, builder, false)
		case classify.SubResource:
			r.nestedBuilder(a, s.Fields, ctx, builder, false)
		case classify.CompositeArrayBody:
			r.nestedBuilder(a, s.Fields, ctx, builder, true)
		case classify.ListOfSubResource:
			r.nestedBuilder(a, s.Fields, ctx, builder, true)
		}
	}
}

// nestedBuilder registers the builder of an object parameter. In flattened mode only
// indexed builders exist; plain objects become qualified setters on the parent.
func (r *run) nestedBuilder(a *spec.Attribute, fields []*spec.Attribute, ctx classify.Context, builder string, indexed bool) {
	if len(fields) == 0 {
		return
	}
	next := builder
	if indexed || !r.flat {
		key := resolve.KeyFor(resolve.KindBuilder, ctx, a.Name)
		e := r.reg.Register(key, resolve.Candidate{
			Name:        submodel.BuilderName(builder, a.Name),
			Resource:    ctx.Resource,
			Fingerprint: "builder:" + key.String(),
		})
		r.warnQualified(e)
		next = e.Name
	}
	r.walkParams(fields, ctx.Child(a.Name), next)
}

// paramEnum names a request enum. It reuses the resource enum at the same path when
// one exists; otherwise it becomes a schema-less enum on the resource model whose
// values are the union over every operation.
func (r *run) paramEnum(a *spec.Attribute, s classify.LocalEnum, ctx classify.Context) {
	key := resolve.KeyFor(resolve.KindEnum, ctx, a.Name)
	res := r.index[ctx.Resource]
	if meta := r.lookupResource(a.Ext.MetaModelName); meta != nil {
		res = meta
	}
	if res == nil {
		return
	}
	if e := r.modelEnum(res, ctx.Path, a.Name); e != nil {
		r.reg.Alias(key, e)
		return
	}

	name := resolve.EnumName(a.Name)
	if parent := ctx.Parent(); parent != "" {
		name = resolve.EnumName(naming.Qualify(parent, a.Name))
	}
	owner := r.modelName(res.ID)
	shared := resolve.Key{Kind: resolve.KindEnum, Resource: res.ID, Path: "schemaless/" + name}
	if e, ok := r.reg.Lookup(shared); ok {
		data, _ := e.Data.(resolve.EnumData)
		data.Values = resolve.MergeValues(data.Values, s.Values)
		e.Data = data
		r.reg.Alias(key, e)
		return
	}
	e := r.reg.Register(shared, resolve.Candidate{
		Name:        name,
		Owner:       owner,
		Resource:    res.ID,
		Fingerprint: "schemaless:" + res.ID + "/" + name,
		Data:        resolve.EnumData{Values: s.Values},
	})
	r.warnQualified(e)
	r.reg.Alias(key, e)
}

// modelEnum returns the enum registered for the model attribute at path/name.
func (r *run) modelEnum(res *spec.Resource, path []string, name string) *resolve.Entry {
	ctx := r.modelContext(res)
	attrs := res.Attributes
	for _, p := range path {
		a := find(attrs, p)
		if a == nil {
			return nil
		}
		ctx = ctx.Child(p)
		attrs = a.Children
	}
	if a := find(attrs, name); a == nil || a.Enum == nil {
		return nil
	}
	if e, ok := r.reg.Lookup(resolve.KeyFor(resolve.KindEnum, ctx, name)); ok {
		return e
	}
	return nil
}

func find(attrs []*spec.Attribute, name string) *spec.Attribute {
	for _, a := range attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// discoverResponse classifies the success response and registers its artifacts.
func (r *run) discoverResponse(res *spec.Resource, o *opPlan) {
	resp := o.op.SuccessResponse()
	if resp == nil || resp.Status == "204" || resp.Schema == nil {
		o.respKind = ir.ResponseEmpty
		return
	}

	base := naming.Qualify(res.ID, o.name)
	ctx := classify.NewContext(res.ID, r).WithScope(o.scope + scopeResponse)
	name := base + "Response"

	if Paginated(resp.Body) {
		o.respKind = ir.ResponsePaginated
		o.respAttrs, o.fallback = resp.Body.Children, fallbackProperties
		o.response = r.registerResponse(res, o, name)
		list := resp.Body.Child("list")
		if s, ok := classify.Classify(list, ctx).(classify.ListOfSubResource); ok && s.Target.Resource == "" {
			o.item = r.reg.Register(resolve.KeyFor(resolve.KindSubModel, ctx, list.Name), resolve.Candidate{
				Name:        base + "Item",
				Resource:    res.ID,
				Fingerprint: resolve.Fingerprint(s.Fields),
				Data:        s.Fields,
			})
			r.warnQualified(o.item)
		}
		r.walk(o.respAttrs, ctx.WithOwner(o.response.Name))
		return
	}

	o.respKind = ir.ResponseSimple
	o.respAttrs, o.fallback = r.responseAttributes(resp)
	if o.fallback == fallbackEmpty {
		name = r.modelName(res.ID) + "Response"
	}
	o.response = r.registerResponse(res, o, name)
	r.walk(o.respAttrs, ctx.WithOwner(o.response.Name))
}

func (r *run) registerResponse(res *spec.Resource, o *opPlan, name string) *resolve.Entry {
	fp := "response:" + res.ID + "/" + o.scope
	if o.fallback == fallbackEmpty {
		fp = "response:" + res.ID + "/empty"
	}
	e := r.reg.Register(resolve.Key{Kind: resolve.KindResponse, Resource: res.ID, Path: o.scope}, resolve.Candidate{
		Name:        name,
		Resource:    res.ID,
		Fingerprint: fp,
	})
	r.warnQualified(e)
	return e
}

// Paginated reports whether a response body is an offset-paginated list: a list
// array next to a next_offset cursor.
func Paginated(body *spec.Attribute) bool {
	if body == nil {
		return false
	}
	list := body.Child("list")
	return list != nil && list.IsArray() && body.Child("next_offset") != nil
}

// responseAttributes applies the fallback chain: declared properties, then the
// resources named by required fields, then nothing.
func (r *run) responseAttributes(resp *spec.Response) ([]*spec.Attribute, string) {
	if resp.Body != nil && len(resp.Body.Children) > 0 {
		return resp.Body.Children, fallbackProperties
	}
	var attrs []*spec.Attribute
	for _, name := range resp.Schema.Required {
		target := r.index[name]
		if target == nil {
			continue
		}
		schema := &spec.Schema{Type: "object", Name: resolve.ModelName(target.ID)}
		for _, a := range target.Attributes {
			schema.Properties = append(schema.Properties, &spec.Property{Name: a.Name, Schema: a.Schema})
		}
		attrs = append(attrs, &spec.Attribute{
			Name:            name,
			Required:        true,
			Schema:          schema,
			Children:        target.Attributes,
			SubResourceName: target.ID,
		})
	}
	if len(attrs) > 0 {
		return attrs, fallbackRequired
	}
	return nil, fallbackEmpty
}

// registerSubDomains collects the sub-domain identifiers of every planned operation
// into one shared enum.
func (r *run) registerSubDomains() {
	seen := map[string]bool{}
	var names []string
	for _, res := range r.resources {
		for _, o := range r.ops[res.ID] {
			if sd := o.op.SubDomain; sd != "" && !seen[sd] {
				seen[sd] = true
				names = append(names, sd)
			}
		}
	}
	if len(names) == 0 {
		return
	}
	sort.Strings(names)
	values := make([]spec.EnumValue, len(names))
	for i, n := range names {
		values[i] = spec.EnumValue{API: n}
	}
	e := r.globalEnum(resolve.Key{Kind: resolve.KindEnum, Path: "subdomain"}, "sub_domain", values, "")
	r.subDomain = r.caps.Enum(e)
}

// indexModules records which module emits every model, sub-model and response name.
// Resource builders use it to compute imports.
func (r *run) indexModules() {
	for _, e := range r.reg.Entries(resolve.KindModel, resolve.KindSubModel, resolve.KindResponse) {
		r.modules[e.Name] = r.moduleOf(e)
	}
}

// moduleOf returns the module that emits an entry.
func (r *run) moduleOf(e *resolve.Entry) string {
	switch e.Kind {
	case resolve.KindModel:
		return r.caps.Module(ir.KindModel, e.Name)
	case resolve.KindSubModel:
		if len(e.Keys) > 0 && strings.HasPrefix(e.Keys[0].Path, scopeModel+"/") {
			return r.caps.Module(ir.KindModel, r.modelName(e.Resource))
		}
		return r.serviceModule(e.Resource)
	case resolve.KindEnum:
		if e.Owner == "" {
			return r.caps.Module(ir.KindEnums, enumsArtifact)
		}
		return r.modules[e.Owner]
	case resolve.KindFilter, resolve.KindSort:
		return r.caps.Module(ir.KindFilters, filtersArtifact)
	default:
		return r.serviceModule(e.Resource)
	}
}

// ServiceName returns the service artifact name of a resource.
func ServiceName(resourceID string) string {
	return naming.ToPascal(resourceID) + "Service"
}

func (r *run) serviceModule(resourceID string) string {
	return r.caps.Module(ir.KindService, ServiceName(resourceID))
}
