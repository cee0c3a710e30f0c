// Package form encodes generated params into form values, including filter and sort
// parameters and index-addressed composite-array fields.
package form

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/gorilla/schema"
)

// BlankIndex is the policy for gaps in index-addressed fields.
type BlankIndex string

const (
	// BlankIndexError fails encoding when an index below the highest one set is missing.
	BlankIndexError BlankIndex = "error"
	// BlankIndexEmpty sends missing indices as empty values.
	BlankIndexEmpty BlankIndex = "empty"
)

// BlankIndexErr reports a gap in an index-addressed field.
type BlankIndexErr struct {
	Key   string
	Index int
}

func (e *BlankIndexErr) Error() string {
	return fmt.Sprintf("form: %s has no value at index %d", e.Key, e.Index)
}

var encoder = newEncoder()

func newEncoder() *schema.Encoder {
	enc := schema.NewEncoder()
	enc.SetAliasTag("form")
	format := func(v reflect.Value) string { return Format(v.Interface()) }
	enc.RegisterEncoder(time.Time{}, format)
	enc.RegisterEncoder(&time.Time{}, format)
	return enc
}

// Values accumulates the form values of one request.
type Values struct {
	policy  BlankIndex
	values  url.Values
	raw     map[string]any
	indexed map[string]map[int]any
	err     error
}

// New returns empty values using the given blank-index policy.
func New(policy BlankIndex) *Values {
	if policy == "" {
		policy = BlankIndexError
	}
	return &Values{
		policy:  policy,
		values:  url.Values{},
		raw:     map[string]any{},
		indexed: map[string]map[int]any{},
	}
}

// Set stores a scalar value under key, replacing earlier values.
func (v *Values) Set(key string, value any) *Values {
	v.values.Set(key, Format(value))
	v.raw[key] = value
	return v
}

// SetList stores list elements as key[0], key[1], ...
func (v *Values) SetList(key string, values ...any) *Values {
	for i, x := range values {
		v.values.Set(key+"["+strconv.Itoa(i)+"]", Format(x))
	}
	v.raw[key] = values
	return v
}

// SetIndexed stores one element of an index-addressed field as key[index].
func (v *Values) SetIndexed(key string, index int, value any) *Values {
	if index < 0 {
		v.fail(fmt.Errorf("form: %s: negative index %d", key, index))
		return v
	}
	m := v.indexed[key]
	if m == nil {
		m = map[int]any{}
		v.indexed[key] = m
	}
	m[index] = value
	return v
}

// Query encodes the `form`-tagged fields of src as url values.
func Query(src any) (url.Values, error) {
	dst := map[string][]string{}
	if err := encoder.Encode(src, dst); err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	return dst, nil
}

// Struct encodes the `form`-tagged fields of src.
func (v *Values) Struct(src any) error {
	dst, err := Query(src)
	if err != nil {
		return err
	}
	for k, vals := range dst {
		v.values[k] = vals
		if len(vals) == 1 {
			v.raw[k] = vals[0]
		} else {
			v.raw[k] = vals
		}
	}
	return nil
}

func (v *Values) fail(err error) {
	if v.err == nil {
		v.err = err
	}
}

// Encode returns the accumulated values. Index-addressed fields are checked against
// the blank-index policy.
func (v *Values) Encode() (url.Values, error) {
	if v.err != nil {
		return nil, v.err
	}
	out := make(url.Values, len(v.values)+len(v.indexed))
	for k, vals := range v.values {
		out[k] = append([]string(nil), vals...)
	}

	keys := make([]string, 0, len(v.indexed))
	for k := range v.indexed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m := v.indexed[k]
		last := -1
		for i := range m {
			last = max(last, i)
		}
		for i := 0; i <= last; i++ {
			val, ok := m[i]
			if !ok && v.policy == BlankIndexError {
				return nil, &BlankIndexErr{Key: k, Index: i}
			}
			out.Set(k+"["+strconv.Itoa(i)+"]", Format(val))
		}
	}
	return out, nil
}

// JSON renders the accumulated values as a JSON document. Bracketed keys become
// nested objects; index-addressed fields become arrays of objects, so
// line_items[quantity] at index 1 is sent as line_items[1].quantity.
func (v *Values) JSON() ([]byte, error) {
	if v.err != nil {
		return nil, v.err
	}
	root := map[string]any{}
	for _, k := range sortedKeys(v.raw) {
		put(root, splitKey(k), wireValue(v.raw[k]))
	}

	for _, k := range sortedKeys(v.indexed) {
		m := v.indexed[k]
		last := -1
		for i := range m {
			last = max(last, i)
		}
		for i := 0; i <= last; i++ {
			if _, ok := m[i]; !ok && v.policy == BlankIndexError {
				return nil, &BlankIndexErr{Key: k, Index: i}
			}
		}
		path := splitKey(k)
		parent, leaf := path[:len(path)-1], path[len(path)-1]
		if len(parent) == 0 {
			list := make([]any, last+1)
			for i, x := range m {
				list[i] = wire(x)
			}
			put(root, path, list)
			continue
		}
		list, _ := get(root, parent).([]any)
		for len(list) <= last {
			list = append(list, map[string]any{})
		}
		for i, x := range m {
			if obj, ok := list[i].(map[string]any); ok {
				obj[leaf] = wire(x)
			}
		}
		put(root, parent, list)
	}

	b, err := json.Marshal(root, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	return b, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// splitKey splits "a[b][c]" into a, b, c.
func splitKey(key string) []string {
	var out []string
	for _, part := range strings.Split(key, "[") {
		out = append(out, strings.TrimSuffix(part, "]"))
	}
	return out
}

func get(root map[string]any, path []string) any {
	var cur any = root
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

func put(root map[string]any, path []string, value any) {
	m := root
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func wireValue(value any) any {
	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, x := range list {
			out[i] = wire(x)
		}
		return out
	}
	return wire(value)
}

// Format renders a scalar the way the API expects it. Timestamps are sent as unix
// seconds.
func Format(value any) string {
	switch x := value.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return strconv.FormatInt(x.Unix(), 10)
	case *time.Time:
		if x == nil {
			return ""
		}
		return strconv.FormatInt(x.Unix(), 10)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(value)
}

// wire converts a value for embedding in a JSON list operand.
func wire(value any) any {
	switch x := value.(type) {
	case time.Time:
		return x.Unix()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.Unix()
	case fmt.Stringer:
		return x.String()
	}
	return value
}

// FormatList renders list and pair operands as a JSON array.
func FormatList(values ...any) string {
	out := make([]any, len(values))
	for i, x := range values {
		out[i] = wire(x)
	}
	b, err := json.Marshal(out, json.Deterministic(true))
	if err != nil {
		return fmt.Sprint(out)
	}
	return string(b)
}

// Filter sets the operators of one filter parameter and hands control back to the
// parent params builder.
type Filter[P any, V any] struct {
	parent P
	values *Values
	key    string
}

// NewFilter returns the filter for key on values, returning parent from each operator.
func NewFilter[P any, V any](parent P, values *Values, key string) *Filter[P, V] {
	return &Filter[P, V]{parent: parent, values: values, key: key}
}

// Op sets a single-operand operator.
func (f *Filter[P, V]) Op(op string, value V) P {
	f.values.Set(f.key+"["+op+"]", value)
	return f.parent
}

// List sets an operator taking a list of operands.
func (f *Filter[P, V]) List(op string, values ...V) P {
	operands := make([]any, len(values))
	for i, x := range values {
		operands[i] = x
	}
	f.values.Set(f.key+"["+op+"]", FormatList(operands...))
	return f.parent
}

// Pair sets an operator taking two operands.
func (f *Filter[P, V]) Pair(op string, from, to V) P {
	f.values.Set(f.key+"["+op+"]", FormatList(from, to))
	return f.parent
}

// Flag sets a boolean operator such as is_present.
func (f *Filter[P, V]) Flag(op string, on bool) P {
	f.values.Set(f.key+"["+op+"]", on)
	return f.parent
}

// Sort sets the sort parameter and hands control back to the parent params builder.
type Sort[P any] struct {
	parent P
	values *Values
	key    string
}

// NewSort returns the sort builder for key on values.
func NewSort[P any](parent P, values *Values, key string) *Sort[P] {
	return &Sort[P]{parent: parent, values: values, key: key}
}

// Asc sorts ascending by field.
func (s *Sort[P]) Asc(field string) P {
	s.values.Set(s.key+"[asc]", field)
	return s.parent
}

// Desc sorts descending by field.
func (s *Sort[P]) Desc(field string) P {
	s.values.Set(s.key+"[desc]", field)
	return s.parent
}

// By returns the direction chooser for one sortable field.
func (s *Sort[P]) By(field string) *Order[P] {
	return &Order[P]{sort: s, field: field}
}

// Order picks the direction of one sortable field.
type Order[P any] struct {
	sort  *Sort[P]
	field string
}

// Asc sorts ascending.
func (o *Order[P]) Asc() P { return o.sort.Asc(o.field) }

// Desc sorts descending.
func (o *Order[P]) Desc() P { return o.sort.Desc(o.field) }
