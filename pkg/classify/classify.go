package classify

import (
	"strings"

	"github.com/blimu-dev/resourcegen/pkg/spec"
)

// SortParameter is the only parameter name that triggers sort-spec classification.
const SortParameter = "sort_by"

// Resources looks up top-level resources by id.
type Resources interface {
	Resource(id string) *spec.Resource
}

// Context is the ancestor context of the attribute being classified: the owning
// resource, the artifact that owns nested enums, and the chain of parent attributes.
type Context struct {
	Resource  string
	Resources Resources
	// Scope separates trees of the same resource, e.g. the model and each operation.
	Scope string
	Path  []string
	owner string
}

// NewContext returns the root context for attributes of the given resource.
func NewContext(resource string, resources Resources) Context {
	return Context{Resource: resource, Resources: resources}
}

// Owner returns the artifact name that owns local enums at this level.
func (c Context) Owner() string {
	if c.owner != "" {
		return c.owner
	}
	return c.Resource
}

// WithScope returns a root copy of the context for another tree of the same resource.
func (c Context) WithScope(scope string) Context {
	c.Scope = scope
	c.Path = nil
	c.owner = ""
	return c
}

// WithOwner returns a copy of the context whose nested enums belong to owner.
func (c Context) WithOwner(owner string) Context {
	c.owner = owner
	return c
}

// Child returns the context for the children of the named attribute.
func (c Context) Child(name string) Context {
	path := make([]string, len(c.Path), len(c.Path)+1)
	copy(path, c.Path)
	c.Path = append(path, name)
	return c
}

// Parent returns the name of the closest ancestor attribute, or "".
func (c Context) Parent() string {
	if len(c.Path) == 0 {
		return ""
	}
	return c.Path[len(c.Path)-1]
}

// Key returns the dotted attribute path of name under this context.
func (c Context) Key(name string) string {
	if len(c.Path) == 0 {
		return name
	}
	return strings.Join(c.Path, ".") + "." + name
}

// Classify returns the shape of an attribute. It is total: every attribute maps to
// exactly one variant, and the rules below are tried in order, first match wins.
//
//  1. array of $ref'd or inline object items -> ListOfSubResource
//  2. composite-array flag -> CompositeArrayBody
//  3. filter flag (or the sort_by name) -> SortSpec or Filter
//  4. enum values -> GlobalEnum or LocalEnum
//  5. object with a sub-resource name -> SubResource
//  6. object with properties -> PlainObject
//  7. anything else -> Primitive
//
// Objects flagged as filter, sort or sub-resource with no properties become an empty
// PlainObject.
func Classify(a *spec.Attribute, ctx Context) Shape {
	if a == nil || a.Schema == nil {
		return Primitive{Type: String}
	}

	if a.IsArray() && objectItems(a.Schema.Items) {
		return ListOfSubResource{Target: target(a, ctx), Fields: a.Children}
	}

	if a.Ext.IsCompositeArrayBody {
		return CompositeArrayBody{Fields: a.Children}
	}

	if a.Ext.IsFilterParameter || a.Name == SortParameter {
		if shape, ok := filterShape(a); ok {
			return shape
		}
	}

	if a.Enum != nil && len(a.Enum.Values) > 0 {
		list := a.IsArray()
		if a.Enum.Global || a.Ext.IsGlobalEnum {
			return GlobalEnum{Name: a.Enum.Name, Reference: a.Enum.Reference, Values: a.Enum.Values, List: list}
		}
		owner := ctx.Owner()
		if a.Ext.MetaModelName != "" {
			owner = a.Ext.MetaModelName
		}
		return LocalEnum{Name: a.Name, Owner: owner, Values: a.Enum.Values, List: list}
	}

	if a.SubResourceName != "" && !a.IsArray() {
		if len(a.Schema.Properties) == 0 {
			if a.IsObject() {
				return PlainObject{}
			}
		} else {
			return SubResource{Target: target(a, ctx), Fields: a.Children}
		}
	}

	if a.HasChildren() {
		return PlainObject{Fields: a.Children}
	}
	if a.IsObject() && (a.Ext.IsFilterParameter || a.Ext.IsSubResource) {
		return PlainObject{}
	}

	return primitive(a)
}

func objectItems(items *spec.Schema) bool {
	if items == nil || len(items.Enum) > 0 {
		return false
	}
	return len(items.Properties) > 0
}

func target(a *spec.Attribute, ctx Context) Target {
	t := Target{Name: a.SubResourceName, Attribute: a.Name, Explicit: a.Ext.SubResourceName != ""}
	if t.Name == "" {
		t.Name = a.Name
	}
	if ctx.Resources != nil && ctx.Resources.Resource(t.Name) != nil {
		t.Resource = t.Name
	}
	return t
}

// filterShape handles rule 3. ok is false when the node is not a filter or sort spec
// and classification should continue with the next rule.
func filterShape(a *spec.Attribute) (Shape, bool) {
	if !a.HasChildren() {
		if a.IsObject() {
			return PlainObject{}, true
		}
		return nil, false
	}

	asc, desc := a.Child("asc"), a.Child("desc")
	if a.Name == SortParameter && (asc != nil || desc != nil) {
		return SortSpec{Fields: sortFields(asc, desc)}, true
	}
	if !a.Ext.IsFilterParameter {
		return nil, false
	}

	var ops []Operator
	for _, op := range Operators {
		if a.Child(string(op)) != nil {
			ops = append(ops, op)
		}
	}
	if len(ops) == 0 && asc == nil && desc == nil {
		return nil, false
	}

	f := Filter{Operators: ops, Value: Boolean}
	operand := filterOperand(a)
	if operand == nil {
		operand = asc
		if operand == nil {
			operand = desc
		}
		if len(ops) == 0 {
			f.Value = String
		}
	}
	if operand != nil {
		s := operand.Schema
		if s != nil && s.Type == "array" && s.Items != nil {
			s = s.Items
		}
		if s != nil {
			f.Value = PrimitiveOf(s, operand.Ext)
		}
		if operand.Enum != nil {
			f.Enum = operand.Enum.Values
		}
	}
	return f, true
}

// filterOperand picks the child describing the operand type; is_present carries a
// boolean regardless of the operand.
func filterOperand(a *spec.Attribute) *spec.Attribute {
	for _, op := range []Operator{OpIs, OpIsNot, OpStartsWith, OpAfter, OpBefore, OpOn, OpIn, OpNotIn, OpBetween} {
		if c := a.Child(string(op)); c != nil {
			return c
		}
	}
	return nil
}

func sortFields(asc, desc *spec.Attribute) []string {
	var out []string
	seen := map[string]bool{}
	for _, dir := range []*spec.Attribute{asc, desc} {
		if dir == nil || dir.Enum == nil {
			continue
		}
		for _, v := range dir.Enum.Values {
			if !seen[v.API] {
				seen[v.API] = true
				out = append(out, v.API)
			}
		}
	}
	return out
}

func primitive(a *spec.Attribute) Primitive {
	s := a.Schema
	if s.Type != "array" {
		return Primitive{Type: PrimitiveOf(s, a.Ext)}
	}
	items := s.Items
	if items == nil || items.Type == "" || items.Type == "object" || items.Type == "array" {
		return Primitive{Type: JSONArray}
	}
	return Primitive{Type: PrimitiveOf(items, a.Ext), List: true}
}

// PrimitiveOf maps a leaf schema to its primitive kind.
func PrimitiveOf(s *spec.Schema, ext spec.Extensions) PrimitiveKind {
	if s == nil {
		return String
	}
	switch s.Type {
	case "integer":
		switch {
		case s.Format == "unix-time":
			return Timestamp
		case ext.IsMoney || s.Ext.IsMoney:
			return WideInt
		case s.Format == "int64":
			return Int64
		default:
			return Int32
		}
	case "number":
		if s.Format == "decimal" {
			return Decimal
		}
		return Double
	case "boolean":
		return Boolean
	case "string":
		switch s.Format {
		case "", "email":
			return String
		case "unix-time":
			return Timestamp
		default:
			return UnknownFormat
		}
	case "array":
		return JSONArray
	case "object":
		return JSONObject
	default:
		if s.Format == "unix-time" {
			return Timestamp
		}
		return JSONObject
	}
}
