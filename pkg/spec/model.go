// Package spec holds the normalized API description consumed by the resolution engine
// and the adapter that builds it from an OpenAPI document.
package spec

import (
	"sort"
	"strings"
)

// Spec is one fully parsed API description. It is read-only once built.
type Spec struct {
	Title       string
	Version     string
	Resources   []*Resource
	GlobalEnums []*Enum
	// Operations lists every operation in path order, including those the
	// planner will skip for lack of identity extensions.
	Operations []*Operation
	// Schemas holds component schemas by name for $ref resolution.
	Schemas map[string]*Schema
}

// Resource returns the resource with the given id, or nil.
func (s *Spec) Resource(id string) *Resource {
	for _, r := range s.Resources {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Resolve looks up a component schema by $ref or bare name.
func (s *Spec) Resolve(ref string) (*Schema, error) {
	name := RefName(ref)
	if sc, ok := s.Schemas[name]; ok {
		return sc, nil
	}
	return nil, &Error{Code: MissingReference, Message: "spec: unresolved reference " + ref, Pointer: ref}
}

// SchemaResolver resolves $ref strings into schema nodes.
type SchemaResolver interface {
	Resolve(ref string) (*Schema, error)
}

// RefName returns the component name a $ref points to.
// "#/components/schemas/Customer" and "./enums/channel.yaml" yield "Customer" and "channel".
func RefName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.Index(ref, "."); i > 0 {
		ref = ref[:i]
	}
	return ref
}

// ResourceFlags are the resource-level capabilities.
type ResourceFlags struct {
	CustomFields  bool
	ConsentFields bool
	JSONActions   bool
}

// Resource is a named API entity.
type Resource struct {
	ID         string
	Name       string
	Attributes []*Attribute
	Operations []*Operation
	Flags      ResourceFlags
	Deprecated bool
}

// Attribute returns the top-level attribute with the given wire name, or nil.
func (r *Resource) Attribute(name string) *Attribute {
	for _, a := range r.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Extensions are the vendor extension flags the engine understands.
type Extensions struct {
	IsFilterParameter    bool
	IsCompositeArrayBody bool
	IsGlobalEnum         bool
	GlobalEnumReference  string
	MetaModelName        string
	IsMoney              bool
	IsSubResource        bool
	SubResourceName      string
	DeprecatedEnumValues []string
	// CustomFields and ConsentFields mark objects that accept cf_ and cs_ members.
	CustomFields  bool
	ConsentFields bool
}

// Schema is a raw schema node with $refs already followed.
type Schema struct {
	// Name is the component name when the node was reached through a $ref.
	Name        string
	Ref         string
	Type        string
	Format      string
	Description string
	Properties  []*Property
	Required    []string
	Items       *Schema
	Enum        []string
	Deprecated  bool
	Nullable    bool
	// AdditionalProperties is true when the object declares a free-form map.
	AdditionalProperties bool
	Ext                  Extensions
}

// Property is one named entry of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Property returns the named property schema, or nil.
func (s *Schema) Property(name string) *Schema {
	if s == nil {
		return nil
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// IsRequired reports whether name is listed in the schema's required set.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// EnumValue is one value of an enumeration.
type EnumValue struct {
	API        string
	Deprecated bool
}

// Enum is an enumeration definition.
type Enum struct {
	Name   string
	Values []EnumValue
	Global bool
	// Reference is the global enum reference the definition came from, if any.
	Reference string
}

// Attribute is one node of a resource's or operation's schema tree.
type Attribute struct {
	Name       string
	Required   bool
	Deprecated bool
	Schema     *Schema
	// Ref is the component name when the node came from a $ref.
	Ref             string
	Children        []*Attribute
	Enum            *Enum
	SubResourceName string
	Ext             Extensions
}

// Child returns the named child attribute, or nil.
func (a *Attribute) Child(name string) *Attribute {
	if a == nil {
		return nil
	}
	for _, c := range a.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// IsArray reports whether the attribute's schema is an array.
func (a *Attribute) IsArray() bool {
	return a.Schema != nil && a.Schema.Type == "array"
}

// IsObject reports whether the attribute's schema is an object.
func (a *Attribute) IsObject() bool {
	return a.Schema != nil && (a.Schema.Type == "object" || (a.Schema.Type == "" && len(a.Schema.Properties) > 0))
}

// HasChildren reports whether the attribute's node declared any properties.
func (a *Attribute) HasChildren() bool {
	return len(a.Children) > 0
}

// Operation is a named action on a resource.
type Operation struct {
	ResourceID  string
	MethodName  string
	HTTPMethod  string
	Path        string
	Summary     string
	Deprecated  bool
	PathParams  []*Attribute
	QueryParams []*Attribute
	// RequestBody is a synthetic root attribute whose children are the body fields.
	RequestBody        *Attribute
	RequestContentType string
	Responses          []*Response

	IsList                bool
	BatchPathID           string
	SubDomain             string
	CustomFieldsSupported bool
	Idempotent            bool
	JSONInput             bool
}

// Response is the declared response for one status code.
type Response struct {
	Status      string
	Description string
	// Schema is nil when the response has no content.
	Schema *Schema
	// Body is a synthetic root attribute whose children are the response fields.
	Body *Attribute
}

// Response returns the response declared for the given status, or nil.
func (o *Operation) Response(status string) *Response {
	for _, r := range o.Responses {
		if r.Status == status {
			return r
		}
	}
	return nil
}

// SuccessResponse picks 200, then 201, then the lowest other 2xx.
func (o *Operation) SuccessResponse() *Response {
	for _, code := range []string{"200", "201"} {
		if r := o.Response(code); r != nil {
			return r
		}
	}
	codes := make([]string, 0, len(o.Responses))
	for _, r := range o.Responses {
		if len(r.Status) == 3 && r.Status[0] == '2' {
			codes = append(codes, r.Status)
		}
	}
	if len(codes) == 0 {
		return nil
	}
	sort.Strings(codes)
	return o.Response(codes[0])
}

// HasIdentity reports whether the operation carries both identity extensions.
func (o *Operation) HasIdentity() bool {
	return o.ResourceID != "" && o.MethodName != ""
}
