package resolve

import (
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/spec"
)

// EnumData is the payload of an enum registry entry.
type EnumData struct {
	Values []spec.EnumValue
	Global bool
}

// Enum builds the enum artifact of a registry entry. The unknown sentinel is always
// appended after the declared values.
func (c *Capabilities) Enum(e *Entry) *ir.Enum {
	data, _ := e.Data.(EnumData)
	out := &ir.Enum{Name: e.Name, Owner: e.Owner, Global: data.Global}
	if data.Global || e.Owner == "" {
		out.TypeName = c.GlobalEnumType(e.Name)
	} else {
		out.TypeName = c.EnumType(e.Owner, e.Name)
	}
	// Flat targets prefix constants with the full type name.
	prefix := e.Name
	if c.Qualifier == "" && !data.Global && e.Owner != "" {
		prefix = e.Owner + e.Name
	}

	used := map[string]bool{}
	for _, v := range data.Values {
		name := c.EnumConst(prefix, v.API)
		for used[name] {
			name += "_"
		}
		used[name] = true
		out.Values = append(out.Values, ir.EnumValue{Name: name, API: v.API, Deprecated: v.Deprecated})
	}

	sentinel := c.UnknownEnumConst
	if c.EnumConstPrefix {
		sentinel = prefix + sentinel
	}
	for used[sentinel] {
		sentinel += "_"
	}
	out.Values = append(out.Values, ir.EnumValue{Name: sentinel, API: c.UnknownEnumValue, Unknown: true})
	return out
}

// MergeValues appends values of b missing from a, keeping first-appearance order.
// A value deprecated at any site stays deprecated.
func MergeValues(a, b []spec.EnumValue) []spec.EnumValue {
	out := append([]spec.EnumValue(nil), a...)
	idx := make(map[string]int, len(out))
	for i, v := range out {
		idx[v.API] = i
	}
	for _, v := range b {
		if i, ok := idx[v.API]; ok {
			out[i].Deprecated = out[i].Deprecated || v.Deprecated
			continue
		}
		idx[v.API] = len(out)
		out = append(out, v)
	}
	return out
}
