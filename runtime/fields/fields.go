// Package fields implements the custom (cf_) and consent (cs_) field maps carried by
// generated models and params.
package fields

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Wire prefixes of the two field families.
const (
	CustomPrefix  = "cf_"
	ConsentPrefix = "cs_"
)

// ValidationError lists the keys rejected by a setter.
type ValidationError struct {
	Prefix string
	Keys   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("fields: keys must start with %q: %s", e.Prefix, strings.Join(e.Keys, ", "))
}

// Bag is a prefix-checked map of extension fields. The zero value is not usable; use
// NewCustom or NewConsent.
type Bag[V any] struct {
	prefix string
	values map[string]V
}

// Custom holds custom fields. Values are strings.
type Custom = Bag[string]

// Consent holds consent fields. Values are scalars or booleans.
type Consent = Bag[any]

// Nested validates the keys of m against prefix and returns the values keyed by
// their form key under owner, e.g. billing_address[cf_gst]. Nothing is returned
// when a key fails.
func Nested[V any](owner, prefix string, m map[string]V) (map[string]V, error) {
	var bad []string
	out := make(map[string]V, len(m))
	for k, v := range m {
		if !strings.HasPrefix(k, prefix) {
			bad = append(bad, k)
			continue
		}
		out[owner+"["+k+"]"] = v
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, &ValidationError{Prefix: prefix, Keys: bad}
	}
	return out, nil
}

// NewCustom returns an empty custom field bag.
func NewCustom() *Custom {
	return &Bag[string]{prefix: CustomPrefix, values: map[string]string{}}
}

// NewConsent returns an empty consent field bag.
func NewConsent() *Consent {
	return &Bag[any]{prefix: ConsentPrefix, values: map[string]any{}}
}

// Prefix returns the wire prefix every key must carry.
func (b *Bag[V]) Prefix() string { return b.prefix }

// SetAll validates every key and stores the values only if all of them pass.
func (b *Bag[V]) SetAll(m map[string]V) error {
	var bad []string
	for k := range m {
		if !strings.HasPrefix(k, b.prefix) {
			bad = append(bad, k)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return &ValidationError{Prefix: b.prefix, Keys: bad}
	}
	for k, v := range m {
		b.values[k] = v
	}
	return nil
}

// Set stores one value.
func (b *Bag[V]) Set(key string, v V) error {
	if !strings.HasPrefix(key, b.prefix) {
		return &ValidationError{Prefix: b.prefix, Keys: []string{key}}
	}
	b.values[key] = v
	return nil
}

// Get returns the value stored under key.
func (b *Bag[V]) Get(key string) (V, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Len returns the number of stored fields.
func (b *Bag[V]) Len() int { return len(b.values) }

// Keys returns the stored keys, sorted.
func (b *Bag[V]) Keys() []string {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the stored fields.
func (b *Bag[V]) Map() map[string]V {
	out := make(map[string]V, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Bool interprets a consent value as a boolean. Strings "true" and "false" are
// accepted; other values report false.
func Bool(b *Consent, key string) (bool, bool) {
	v, ok := b.Get(key)
	if !ok {
		return false, false
	}
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		parsed, err := strconv.ParseBool(x)
		return parsed, err == nil
	}
	return false, false
}

// Partition splits a JSON object into its declared members and the members whose
// names carry prefix.
func Partition(data []byte, prefix string) (known, residual map[string]jsontext.Value, err error) {
	var all map[string]jsontext.Value
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, nil, fmt.Errorf("fields: %w", err)
	}
	known = make(map[string]jsontext.Value, len(all))
	residual = map[string]jsontext.Value{}
	for k, v := range all {
		if strings.HasPrefix(k, prefix) {
			residual[k] = v
		} else {
			known[k] = v
		}
	}
	return known, residual, nil
}

// ExtractCustom decodes the cf_ members of a JSON object. Non-string scalars keep
// their JSON text.
func ExtractCustom(data []byte) (*Custom, error) {
	_, residual, err := Partition(data, CustomPrefix)
	if err != nil {
		return nil, err
	}
	b := NewCustom()
	for k, raw := range residual {
		switch raw.Kind() {
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("fields: %s: %w", k, err)
			}
			b.values[k] = s
		case 'n':
		default:
			b.values[k] = string(raw)
		}
	}
	return b, nil
}

// ExtractConsent decodes the cs_ members of a JSON object.
func ExtractConsent(data []byte) (*Consent, error) {
	_, residual, err := Partition(data, ConsentPrefix)
	if err != nil {
		return nil, err
	}
	b := NewConsent()
	for k, raw := range residual {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("fields: %s: %w", k, err)
		}
		if v != nil {
			b.values[k] = v
		}
	}
	return b, nil
}

// Encode writes the stored fields as form values under their wire keys.
func (b *Bag[V]) Encode(set func(key, value string)) {
	for _, k := range b.Keys() {
		set(k, fmt.Sprint(b.values[k]))
	}
}
