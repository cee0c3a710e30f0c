// Package filter builds filter and sort-builder artifacts for list parameters.
package filter

import (
	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/naming"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
)

// Name returns the filter artifact name requested for a filtered attribute.
func Name(attr string) string {
	return naming.ToPascal(attr) + "Filter"
}

// SortName returns the sort-builder artifact name requested for a resource.
func SortName(resource string) string {
	return naming.ToPascal(resource) + "SortBy"
}

// Arity returns how many operands an operator takes.
func Arity(op classify.Operator) ir.Arity {
	switch op {
	case classify.OpIn, classify.OpNotIn:
		return ir.ArityList
	case classify.OpBetween:
		return ir.ArityPair
	case classify.OpIsPresent:
		return ir.ArityFlag
	default:
		return ir.AritySingle
	}
}

// Build returns the filter artifact for a Filter shape: one method per operator present,
// in canonical operator order.
func Build(name string, f classify.Filter, r *resolve.Resolver) *ir.Filter {
	caps := r.Capabilities()
	value := r.Primitive(f.Value)
	out := &ir.Filter{
		Name:      name,
		ValueType: value.Name,
		Value:     f.Value.String(),
	}
	for _, v := range f.Enum {
		out.Values = append(out.Values, v.API)
	}
	for _, op := range f.Operators {
		m := &ir.FilterMethod{
			Name:     caps.MethodName(string(op)),
			Operator: string(op),
			Arity:    Arity(op),
			Type:     value.Name,
		}
		if m.Arity == ir.ArityFlag {
			m.Type = r.Primitive(classify.Boolean).Name
		}
		out.Methods = append(out.Methods, m)
	}
	return out
}

// BuildSort returns the sort-builder artifact: one accessor per sortable field.
func BuildSort(name string, s classify.SortSpec, caps *resolve.Capabilities) *ir.Sort {
	out := &ir.Sort{Name: name}
	for _, f := range s.Fields {
		out.Fields = append(out.Fields, &ir.SortField{Name: caps.MethodName(f), API: f})
	}
	return out
}
