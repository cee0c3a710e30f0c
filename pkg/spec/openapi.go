package spec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/resourcegen/pkg/naming"
)

// Vendor extensions read from the OpenAPI document.
const (
	ExtResourceID            = "x-cb-resource-id"
	ExtOperationMethodName   = "x-cb-operation-method-name"
	ExtIsListOperation       = "x-cb-is-list-operation"
	ExtBatchPathID           = "x-cb-batch-operation-path-id"
	ExtSubDomain             = "x-cb-operation-sub-domain-name"
	ExtCustomFieldsSupported = "x-cb-is-custom-fields-supported"
	ExtConsentFieldsSupport  = "x-cb-is-consent-fields-supported"
	ExtIdempotent            = "x-cb-is-idempotent"
	ExtJSONInput             = "x-cb-is-operation-needs-json-input"
	ExtFilterParameter       = "x-cb-is-filter-parameter"
	ExtCompositeArrayBody    = "x-cb-is-composite-array-request-body"
	ExtGlobalEnum            = "x-cb-is-global-enum"
	ExtGlobalEnumReference   = "x-cb-global-enum-reference"
	ExtMetaModelName         = "x-cb-meta-model-name"
	ExtMoneyColumn           = "x-cb-is-money-column"
	ExtSubResource           = "x-cb-is-sub-resource"
	ExtSubResourceName       = "x-cb-sub-resource-name"
	ExtDeprecatedEnumValues  = "x-cb-deprecated-enum-values"
)

const componentPrefix = "#/components/schemas/"

type converter struct {
	doc       *openapi3.T
	memo      map[*openapi3.Schema]*Schema
	resources map[string]string // component name -> resource id
}

// FromOpenAPI builds the normalized description from a loaded OpenAPI document.
// Structural problems (dangling $refs, enum nodes with properties) are fatal.
func FromOpenAPI(doc *openapi3.T) (*Spec, error) {
	if doc == nil {
		return nil, &Error{Code: InvalidSchema, Message: "spec: nil document"}
	}
	c := &converter{
		doc:       doc,
		memo:      make(map[*openapi3.Schema]*Schema),
		resources: make(map[string]string),
	}
	out := &Spec{Schemas: make(map[string]*Schema)}
	if doc.Info != nil {
		out.Title = doc.Info.Title
		out.Version = doc.Info.Version
	}

	// Component schemas first so shared nodes keep their component names.
	var names []string
	if doc.Components != nil {
		for name := range doc.Components.Schemas {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sr := doc.Components.Schemas[name]
		if sr != nil && sr.Value != nil {
			if id := extString(sr.Value.Extensions, ExtResourceID); id != "" {
				c.resources[name] = id
			}
		}
	}
	for _, name := range names {
		s, err := c.schema(doc.Components.Schemas[name], componentPrefix+name)
		if err != nil {
			return nil, err
		}
		if s == nil {
			continue
		}
		s.Name = name
		s.Ref = componentPrefix + name
		out.Schemas[name] = s
	}

	for _, name := range names {
		s := out.Schemas[name]
		if s == nil {
			continue
		}
		if id, ok := c.resources[name]; ok {
			r, err := c.resource(id, name, s, doc.Components.Schemas[name].Value)
			if err != nil {
				return nil, err
			}
			out.Resources = append(out.Resources, r)
			continue
		}
		if len(s.Enum) > 0 && s.Ext.IsGlobalEnum {
			out.GlobalEnums = append(out.GlobalEnums, enumOf(name, s, true))
		}
	}
	sort.SliceStable(out.Resources, func(i, j int) bool { return out.Resources[i].ID < out.Resources[j].ID })

	ops, err := c.operations()
	if err != nil {
		return nil, err
	}
	out.Operations = ops
	for _, op := range ops {
		if op.ResourceID == "" {
			continue
		}
		r := out.Resource(op.ResourceID)
		if r == nil {
			// Operation-only resources still get a (possibly empty) artifact.
			r = &Resource{ID: op.ResourceID, Name: naming.ToPascal(op.ResourceID)}
			out.Resources = append(out.Resources, r)
			sort.SliceStable(out.Resources, func(i, j int) bool { return out.Resources[i].ID < out.Resources[j].ID })
		}
		r.Operations = append(r.Operations, op)
		if op.JSONInput {
			r.Flags.JSONActions = true
		}
	}
	return out, nil
}

func (c *converter) resource(id, name string, s *Schema, raw *openapi3.Schema) (*Resource, error) {
	if s.Type != "" && s.Type != "object" {
		return nil, &Error{Code: InvalidSchema, Message: fmt.Sprintf("spec: resource %q is not an object schema", id), Pointer: componentPrefix + name}
	}
	r := &Resource{
		ID:         id,
		Name:       name,
		Deprecated: s.Deprecated,
		Flags: ResourceFlags{
			CustomFields:  extBool(raw.Extensions, ExtCustomFieldsSupported),
			ConsentFields: extBool(raw.Extensions, ExtConsentFieldsSupport),
		},
	}
	attrs, err := c.children(s, []*Schema{s}, componentPrefix+name)
	if err != nil {
		return nil, err
	}
	r.Attributes = attrs
	return r, nil
}

// schema converts a kin-openapi schema reference, following $refs.
func (c *converter) schema(sr *openapi3.SchemaRef, pointer string) (*Schema, error) {
	if sr == nil {
		return nil, nil
	}
	if sr.Value == nil {
		if sr.Ref != "" {
			return nil, &Error{Code: MissingReference, Message: "spec: unresolved reference " + sr.Ref, Pointer: pointer}
		}
		return nil, nil
	}
	if s, ok := c.memo[sr.Value]; ok {
		return s, nil
	}
	v := sr.Value
	s := &Schema{
		Type:        schemaType(v),
		Format:      v.Format,
		Description: strings.TrimSpace(v.Description),
		Required:    append([]string(nil), v.Required...),
		Deprecated:  v.Deprecated,
		Nullable:    v.Nullable || (v.Type != nil && v.Type.Includes("null")),
		Ext:         extensions(v.Extensions),
	}
	if sr.Ref != "" {
		s.Ref = sr.Ref
		s.Name = RefName(sr.Ref)
	}
	c.memo[v] = s

	for _, e := range v.Enum {
		s.Enum = append(s.Enum, fmt.Sprint(e))
	}
	if v.Items != nil {
		items, err := c.schema(v.Items, pointer+"/items")
		if err != nil {
			return nil, err
		}
		s.Items = items
	}
	if v.AdditionalProperties.Schema != nil || (v.AdditionalProperties.Has != nil && *v.AdditionalProperties.Has) {
		s.AdditionalProperties = true
	}

	props := make(map[string]*openapi3.SchemaRef, len(v.Properties))
	for n, p := range v.Properties {
		props[n] = p
	}
	// allOf members contribute their properties to the node
	for _, member := range v.AllOf {
		if member == nil || member.Value == nil {
			if member != nil && member.Ref != "" {
				return nil, &Error{Code: MissingReference, Message: "spec: unresolved reference " + member.Ref, Pointer: pointer + "/allOf"}
			}
			continue
		}
		for n, p := range member.Value.Properties {
			if _, ok := props[n]; !ok {
				props[n] = p
			}
		}
		s.Required = append(s.Required, member.Value.Required...)
		if s.Type == "" && len(member.Value.Properties) > 0 {
			s.Type = "object"
		}
	}

	// deterministic order
	names := make([]string, 0, len(props))
	for n := range props {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		ps, err := c.schema(props[n], pointer+"/properties/"+n)
		if err != nil {
			return nil, err
		}
		if ps == nil {
			continue
		}
		s.Properties = append(s.Properties, &Property{Name: n, Schema: ps})
	}
	if s.Type == "" && len(s.Properties) > 0 {
		s.Type = "object"
	}
	return s, nil
}

// children builds the attribute list for an object node (or an array's item node).
// stack holds the schemas on the current path and stops recursive expansion.
func (c *converter) children(s *Schema, stack []*Schema, pointer string) ([]*Attribute, error) {
	node := s
	if s.Type == "array" && s.Items != nil {
		node = s.Items
	}
	out := make([]*Attribute, 0, len(node.Properties))
	for _, p := range node.Properties {
		a, err := c.attribute(p.Name, p.Schema, node.IsRequired(p.Name), stack, pointer+"/properties/"+p.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (c *converter) attribute(name string, s *Schema, required bool, stack []*Schema, pointer string) (*Attribute, error) {
	a := &Attribute{
		Name:       name,
		Required:   required,
		Deprecated: s.Deprecated,
		Schema:     s,
		Ext:        s.Ext,
	}
	node := s
	if s.Type == "array" && s.Items != nil {
		node = s.Items
		mergeItemExtensions(&a.Ext, node.Ext)
	}
	if node.Name != "" {
		a.Ref = node.Name
	}

	switch {
	case len(s.Enum) > 0:
		a.Enum = enumOf(name, s, a.Ext.IsGlobalEnum)
	case node != s && len(node.Enum) > 0:
		a.Enum = enumOf(name, node, a.Ext.IsGlobalEnum)
	}
	if a.Enum != nil && a.Enum.Global && a.Enum.Reference == "" && node.Name != "" {
		a.Enum.Name = node.Name
		a.Enum.Reference = node.Ref
	}

	switch {
	case a.Ext.SubResourceName != "":
		a.SubResourceName = a.Ext.SubResourceName
	case a.Ref != "" && (node.Type == "object" || len(node.Properties) > 0):
		if id, ok := c.resources[a.Ref]; ok {
			a.SubResourceName = id
		} else {
			a.SubResourceName = naming.ToSnake(a.Ref)
		}
	case a.Ext.IsSubResource:
		a.SubResourceName = name
	}

	for _, seen := range stack {
		if seen == node {
			return a, nil
		}
	}
	kids, err := c.children(s, append(stack, node), pointer)
	if err != nil {
		return nil, err
	}
	a.Children = kids
	if len(a.Children) > 0 && a.Enum != nil {
		return nil, &Error{Code: InvalidNode, Message: fmt.Sprintf("spec: attribute %q declares both properties and an enum", name), Pointer: pointer}
	}
	return a, nil
}

func mergeItemExtensions(dst *Extensions, items Extensions) {
	dst.IsSubResource = dst.IsSubResource || items.IsSubResource
	dst.IsGlobalEnum = dst.IsGlobalEnum || items.IsGlobalEnum
	dst.IsMoney = dst.IsMoney || items.IsMoney
	if dst.SubResourceName == "" {
		dst.SubResourceName = items.SubResourceName
	}
	if dst.GlobalEnumReference == "" {
		dst.GlobalEnumReference = items.GlobalEnumReference
	}
	if dst.MetaModelName == "" {
		dst.MetaModelName = items.MetaModelName
	}
	if len(dst.DeprecatedEnumValues) == 0 {
		dst.DeprecatedEnumValues = items.DeprecatedEnumValues
	}
}

func enumOf(name string, s *Schema, global bool) *Enum {
	deprecated := make(map[string]bool, len(s.Ext.DeprecatedEnumValues))
	for _, v := range s.Ext.DeprecatedEnumValues {
		deprecated[v] = true
	}
	e := &Enum{Name: name, Global: global || s.Ext.IsGlobalEnum, Reference: s.Ext.GlobalEnumReference}
	if e.Global && e.Reference != "" {
		e.Name = RefName(e.Reference)
	}
	for _, v := range s.Enum {
		e.Values = append(e.Values, EnumValue{API: v, Deprecated: deprecated[v]})
	}
	for _, v := range s.Ext.DeprecatedEnumValues {
		if !containsValue(e.Values, v) {
			e.Values = append(e.Values, EnumValue{API: v, Deprecated: true})
		}
	}
	return e
}

func containsValue(values []EnumValue, api string) bool {
	for _, v := range values {
		if v.API == api {
			return true
		}
	}
	return false
}

var httpMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

func (c *converter) operations() ([]*Operation, error) {
	if c.doc.Paths == nil {
		return nil, nil
	}
	items := c.doc.Paths.Map()
	paths := make([]string, 0, len(items))
	for p := range items {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []*Operation
	for _, p := range paths {
		item := items[p]
		if item == nil {
			continue
		}
		for _, m := range httpMethods {
			op := item.GetOperation(m)
			if op == nil {
				continue
			}
			o, err := c.operation(p, m, item.Parameters, op)
			if err != nil {
				return nil, err
			}
			out = append(out, o)
		}
	}
	return out, nil
}

func (c *converter) operation(path, method string, shared openapi3.Parameters, op *openapi3.Operation) (*Operation, error) {
	pointer := "#/paths/" + strings.ReplaceAll(strings.ReplaceAll(path, "~", "~0"), "/", "~1") + "/" + strings.ToLower(method)
	o := &Operation{
		ResourceID:            extString(op.Extensions, ExtResourceID),
		MethodName:            extString(op.Extensions, ExtOperationMethodName),
		HTTPMethod:            method,
		Path:                  path,
		Summary:               strings.TrimSpace(op.Summary),
		Deprecated:            op.Deprecated,
		IsList:                extBool(op.Extensions, ExtIsListOperation),
		BatchPathID:           extString(op.Extensions, ExtBatchPathID),
		SubDomain:             extString(op.Extensions, ExtSubDomain),
		CustomFieldsSupported: extBool(op.Extensions, ExtCustomFieldsSupported),
		Idempotent:            extBool(op.Extensions, ExtIdempotent),
		JSONInput:             extBool(op.Extensions, ExtJSONInput),
	}

	// Path-item parameters first, overridden by operation-level ones.
	merged := map[string]*openapi3.Parameter{}
	var order []string
	for _, params := range []openapi3.Parameters{shared, op.Parameters} {
		for _, pr := range params {
			if pr == nil || pr.Value == nil {
				if pr != nil && pr.Ref != "" {
					return nil, &Error{Code: MissingReference, Message: "spec: unresolved reference " + pr.Ref, Pointer: pointer + "/parameters"}
				}
				continue
			}
			key := pr.Value.In + ":" + pr.Value.Name
			if _, ok := merged[key]; !ok {
				order = append(order, key)
			}
			merged[key] = pr.Value
		}
	}
	for _, key := range order {
		p := merged[key]
		a, err := c.parameter(p, pointer+"/parameters/"+p.Name)
		if err != nil {
			return nil, err
		}
		switch p.In {
		case openapi3.ParameterInPath:
			o.PathParams = append(o.PathParams, a)
		case openapi3.ParameterInQuery:
			o.QueryParams = append(o.QueryParams, a)
		}
	}
	sort.SliceStable(o.QueryParams, func(i, j int) bool { return o.QueryParams[i].Name < o.QueryParams[j].Name })

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		ct, media := pickMedia(op.RequestBody.Value.Content)
		if media != nil {
			s, err := c.schema(media.Schema, pointer+"/requestBody")
			if err != nil {
				return nil, err
			}
			if s != nil {
				kids, err := c.children(s, []*Schema{s}, pointer+"/requestBody")
				if err != nil {
					return nil, err
				}
				o.RequestBody = &Attribute{Schema: s, Required: op.RequestBody.Value.Required, Children: kids}
				o.RequestContentType = ct
				if ct == "application/json" {
					o.JSONInput = true
				}
			}
		}
	}

	if op.Responses != nil {
		rm := op.Responses.Map()
		codes := make([]string, 0, len(rm))
		for code := range rm {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			rr := rm[code]
			if rr == nil || rr.Value == nil {
				continue
			}
			resp := &Response{Status: code}
			if rr.Value.Description != nil {
				resp.Description = *rr.Value.Description
			}
			if _, media := pickMedia(rr.Value.Content); media != nil {
				s, err := c.schema(media.Schema, pointer+"/responses/"+code)
				if err != nil {
					return nil, err
				}
				resp.Schema = s
				if s != nil {
					kids, err := c.children(s, []*Schema{s}, pointer+"/responses/"+code)
					if err != nil {
						return nil, err
					}
					resp.Body = &Attribute{Schema: s, Required: true, Children: kids}
				}
			}
			o.Responses = append(o.Responses, resp)
		}
	}
	return o, nil
}

func (c *converter) parameter(p *openapi3.Parameter, pointer string) (*Attribute, error) {
	s, err := c.schema(p.Schema, pointer)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &Schema{Type: "string"}
	}
	// Parameter-level extensions apply to the parameter's own node.
	pe := extensions(p.Extensions)
	wrapped := *s
	wrapped.Ext = orExtensions(s.Ext, pe)
	a, err := c.attribute(p.Name, &wrapped, p.Required, nil, pointer)
	if err != nil {
		return nil, err
	}
	a.Deprecated = a.Deprecated || p.Deprecated
	return a, nil
}

func orExtensions(a, b Extensions) Extensions {
	a.IsFilterParameter = a.IsFilterParameter || b.IsFilterParameter
	a.IsCompositeArrayBody = a.IsCompositeArrayBody || b.IsCompositeArrayBody
	a.IsGlobalEnum = a.IsGlobalEnum || b.IsGlobalEnum
	a.IsMoney = a.IsMoney || b.IsMoney
	a.IsSubResource = a.IsSubResource || b.IsSubResource
	a.CustomFields = a.CustomFields || b.CustomFields
	a.ConsentFields = a.ConsentFields || b.ConsentFields
	if a.GlobalEnumReference == "" {
		a.GlobalEnumReference = b.GlobalEnumReference
	}
	if a.MetaModelName == "" {
		a.MetaModelName = b.MetaModelName
	}
	if a.SubResourceName == "" {
		a.SubResourceName = b.SubResourceName
	}
	if len(a.DeprecatedEnumValues) == 0 {
		a.DeprecatedEnumValues = b.DeprecatedEnumValues
	}
	return a
}

// pickMedia prefers form-encoded bodies, then JSON, then the first media type by name.
func pickMedia(content openapi3.Content) (string, *openapi3.MediaType) {
	for _, ct := range []string{"application/x-www-form-urlencoded", "application/json"} {
		if m, ok := content[ct]; ok && m != nil {
			return ct, m
		}
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if m := content[k]; m != nil {
			return k, m
		}
	}
	return "", nil
}

func schemaType(v *openapi3.Schema) string {
	if v.Type == nil {
		return ""
	}
	for _, t := range v.Type.Slice() {
		if t != openapi3.TypeNull {
			return t
		}
	}
	return ""
}

func extensions(m map[string]any) Extensions {
	return Extensions{
		IsFilterParameter:    extBool(m, ExtFilterParameter),
		IsCompositeArrayBody: extBool(m, ExtCompositeArrayBody),
		IsGlobalEnum:         extBool(m, ExtGlobalEnum),
		GlobalEnumReference:  extString(m, ExtGlobalEnumReference),
		MetaModelName:        extString(m, ExtMetaModelName),
		IsMoney:              extBool(m, ExtMoneyColumn),
		IsSubResource:        extBool(m, ExtSubResource),
		SubResourceName:      extString(m, ExtSubResourceName),
		DeprecatedEnumValues: extStrings(m, ExtDeprecatedEnumValues),
		CustomFields:         extBool(m, ExtCustomFieldsSupported),
		ConsentFields:        extBool(m, ExtConsentFieldsSupport),
	}
}

// Extension values are decoded JSON; older loaders hand back json.RawMessage.
func extValue(m map[string]any, key string) any {
	v, ok := m[key]
	if !ok {
		return nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil
		}
		return decoded
	}
	return v
}

func extBool(m map[string]any, key string) bool {
	switch v := extValue(m, key).(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func extString(m map[string]any, key string) string {
	switch v := extValue(m, key).(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func extStrings(m map[string]any, key string) []string {
	list, ok := extValue(m, key).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, fmt.Sprint(v))
	}
	return out
}
