// Package customfield adds the custom (cf_) and consent (cs_) field members to
// models and params of resources that support them.
package customfield

import (
	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
)

// Wire prefixes of the two field families.
const (
	CustomPrefix  = "cf_"
	ConsentPrefix = "cs_"
)

// Custom returns the custom-field members. Values are strings; extractor is set for
// response models, which partition decoded wire fields into known and custom.
func Custom(caps *resolve.Capabilities, extractor bool) *ir.FieldBag {
	value := caps.Primitives[classify.String]
	b := &ir.FieldBag{
		Prefix:     CustomPrefix,
		Field:      caps.FieldName("custom_fields"),
		ValueType:  value,
		MapType:    caps.MapOf(value),
		BulkSetter: caps.MethodName("set_custom_fields"),
		Setter:     caps.MethodName("set_custom_field"),
		Getter:     caps.MethodName("custom_field"),
	}
	if extractor {
		b.Extractor = caps.MethodName("extract_custom_fields")
	}
	return b
}

// Consent returns the consent-field members. Values widen to the scalar union and
// an extra boolean accessor is added.
func Consent(caps *resolve.Capabilities, extractor bool) *ir.FieldBag {
	b := &ir.FieldBag{
		Prefix:     ConsentPrefix,
		Field:      caps.FieldName("consent_fields"),
		ValueType:  caps.ScalarUnion,
		MapType:    caps.MapOf(caps.ScalarUnion),
		BulkSetter: caps.MethodName("set_consent_fields"),
		Setter:     caps.MethodName("set_consent_field"),
		Getter:     caps.MethodName("consent_field"),
		BoolGetter: caps.MethodName("consent_field_bool"),
	}
	if extractor {
		b.Extractor = caps.MethodName("extract_consent_fields")
	}
	return b
}

// InjectModel adds the members a resource's flags call for. The two capabilities are
// independent.
func InjectModel(m *ir.Model, custom, consent bool, caps *resolve.Capabilities) {
	if custom {
		m.CustomFields = Custom(caps, true)
	}
	if consent {
		m.ConsentFields = Consent(caps, true)
	}
}

// InjectParams adds the setter-side members to an operation's params.
func InjectParams(p *ir.Params, custom, consent bool, caps *resolve.Capabilities) {
	if custom {
		p.CustomFields = Custom(caps, false)
	}
	if consent {
		p.ConsentFields = Consent(caps, false)
	}
}
