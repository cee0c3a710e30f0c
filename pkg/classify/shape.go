// Package classify decides the semantic shape of every attribute in a resource or
// operation schema tree.
package classify

import "github.com/blimu-dev/resourcegen/pkg/spec"

// Kind identifies a shape variant.
type Kind int

const (
	KindPrimitive Kind = iota
	KindLocalEnum
	KindGlobalEnum
	KindSubResource
	KindListOfSubResource
	KindFilter
	KindSortSpec
	KindCompositeArrayBody
	KindPlainObject
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindLocalEnum:
		return "LocalEnum"
	case KindGlobalEnum:
		return "GlobalEnum"
	case KindSubResource:
		return "SubResource"
	case KindListOfSubResource:
		return "ListOfSubResource"
	case KindFilter:
		return "Filter"
	case KindSortSpec:
		return "SortSpec"
	case KindCompositeArrayBody:
		return "CompositeArrayBody"
	case KindPlainObject:
		return "PlainObject"
	default:
		return "Unknown"
	}
}

// Shape is the sealed union of attribute shapes. Exactly one variant describes an attribute.
type Shape interface {
	Kind() Kind
	sealed()
}

// PrimitiveKind is the wire-level kind of a leaf value.
type PrimitiveKind int

const (
	String PrimitiveKind = iota
	Boolean
	Int32
	Int64
	// WideInt is a money amount carried as an integer.
	WideInt
	Double
	Decimal
	// Timestamp is a unix-time integer on the wire.
	Timestamp
	// UnknownFormat is a string with an unrecognized format.
	UnknownFormat
	// JSONObject is an object without declared properties.
	JSONObject
	// JSONArray is an array whose item type is unknown.
	JSONArray
)

var primitiveNames = map[PrimitiveKind]string{
	String:        "string",
	Boolean:       "boolean",
	Int32:         "int32",
	Int64:         "int64",
	WideInt:       "wide_int",
	Double:        "double",
	Decimal:       "decimal",
	Timestamp:     "timestamp",
	UnknownFormat: "unknown_format",
	JSONObject:    "json_object",
	JSONArray:     "json_array",
}

func (p PrimitiveKind) String() string {
	if n, ok := primitiveNames[p]; ok {
		return n
	}
	return "unknown"
}

// Primitive is a leaf value, optionally a list of leaves.
type Primitive struct {
	Type PrimitiveKind
	List bool
}

// LocalEnum is an enumeration namespaced under its owning artifact.
type LocalEnum struct {
	Name   string
	Owner  string
	Values []spec.EnumValue
	List   bool
}

// GlobalEnum is an enumeration shared across resources.
type GlobalEnum struct {
	Name      string
	Reference string
	Values    []spec.EnumValue
	List      bool
}

// Target names the artifact a sub-resource shape points at.
type Target struct {
	// Name is the sub-resource name, explicit or derived from the attribute.
	Name string
	// Explicit is true when the name came from the sub-resource-name extension.
	Explicit bool
	// Resource is set when the target is a top-level resource.
	Resource string
	// Attribute is the wire name of the attribute holding the sub-resource.
	Attribute string
}

// Anonymous reports whether the target is declared only inline on its parent.
func (t Target) Anonymous() bool {
	return t.Resource == "" && !t.Explicit
}

// SubResource is a nested named object type.
type SubResource struct {
	Target Target
	Fields []*spec.Attribute
}

// ListOfSubResource is an ordered list of a nested object type.
type ListOfSubResource struct {
	Target Target
	Fields []*spec.Attribute
}

// Filter is an object of filter operators. Value describes the operand type.
type Filter struct {
	Operators []Operator
	Value     PrimitiveKind
	// Enum holds the operand values when the operators take an enumeration.
	Enum []spec.EnumValue
}

// SortSpec lists the sortable fields, in first-appearance order across asc and desc.
type SortSpec struct {
	Fields []string
}

// CompositeArrayBody is a request field submitted as indexed per-element parameters.
type CompositeArrayBody struct {
	Fields []*spec.Attribute
}

// PlainObject is an object flattened into a nested builder or model.
type PlainObject struct {
	Fields []*spec.Attribute
}

func (Primitive) Kind() Kind          { return KindPrimitive }
func (LocalEnum) Kind() Kind          { return KindLocalEnum }
func (GlobalEnum) Kind() Kind         { return KindGlobalEnum }
func (SubResource) Kind() Kind        { return KindSubResource }
func (ListOfSubResource) Kind() Kind  { return KindListOfSubResource }
func (Filter) Kind() Kind             { return KindFilter }
func (SortSpec) Kind() Kind           { return KindSortSpec }
func (CompositeArrayBody) Kind() Kind { return KindCompositeArrayBody }
func (PlainObject) Kind() Kind        { return KindPlainObject }

func (Primitive) sealed()          {}
func (LocalEnum) sealed()          {}
func (GlobalEnum) sealed()         {}
func (SubResource) sealed()        {}
func (ListOfSubResource) sealed()  {}
func (Filter) sealed()             {}
func (SortSpec) sealed()           {}
func (CompositeArrayBody) sealed() {}
func (PlainObject) sealed()        {}

// Operator is a recognized filter operator wire name.
type Operator string

const (
	OpIs         Operator = "is"
	OpIsNot      Operator = "is_not"
	OpStartsWith Operator = "starts_with"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpIsPresent  Operator = "is_present"
	OpAfter      Operator = "after"
	OpBefore     Operator = "before"
	OpOn         Operator = "on"
	OpBetween    Operator = "between"
)

// Operators lists the recognized filter operators in canonical order.
var Operators = []Operator{OpIs, OpIsNot, OpStartsWith, OpIn, OpNotIn, OpIsPresent, OpAfter, OpBefore, OpOn, OpBetween}

// IsOperator reports whether name is a recognized filter operator.
func IsOperator(name string) bool {
	for _, op := range Operators {
		if string(op) == name {
			return true
		}
	}
	return false
}
