package submodel

import (
	"testing"

	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/naming"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
	"github.com/blimu-dev/resourcegen/pkg/spec"
)

func testCaps() *resolve.Capabilities {
	return &resolve.Capabilities{
		Language:   "test",
		MethodCase: naming.Pascal,
		Primitives: map[classify.PrimitiveKind]string{
			classify.String:     "string",
			classify.Int32:      "int32",
			classify.JSONObject: "any",
		},
		List:        "[]%s",
		Map:         "map[string]%s",
		ScalarUnion: "any",
		Qualifier:   "",
	}
}

func attr(name, typ string) *spec.Attribute {
	return &spec.Attribute{Name: name, Schema: &spec.Schema{Type: typ}}
}

func object(name string, children ...*spec.Attribute) *spec.Attribute {
	s := &spec.Schema{Type: "object"}
	for _, c := range children {
		s.Properties = append(s.Properties, &spec.Property{Name: c.Name, Schema: c.Schema})
	}
	return &spec.Attribute{Name: name, Schema: s, Children: children}
}

func requestBody() []*spec.Attribute {
	address := object("billing_address", attr("line1", "string"), attr("city", "string"))
	lineItems := object("line_items",
		&spec.Attribute{Name: "item_price_id", Schema: &spec.Schema{Type: "array", Items: &spec.Schema{Type: "string"}}},
		&spec.Attribute{Name: "quantity", Schema: &spec.Schema{Type: "array", Items: &spec.Schema{Type: "integer"}}},
	)
	lineItems.Ext.IsCompositeArrayBody = true
	shipping := object("shipping_address")
	shipping.SubResourceName = "shipping_address"
	shipping.Ext.IsSubResource = true
	return []*spec.Attribute{
		attr("first_name", "string"),
		address,
		lineItems,
		shipping,
	}
}

func TestFormKey(t *testing.T) {
	tests := []struct {
		path     []string
		name     string
		expected string
	}{
		{nil, "first_name", "first_name"},
		{[]string{"billing_address"}, "city", "billing_address[city]"},
		{[]string{"a", "b"}, "c", "a[b][c]"},
	}

	for _, test := range tests {
		if result := FormKey(test.path, test.name); result != test.expected {
			t.Errorf("FormKey(%v, %q) = %q, expected %q", test.path, test.name, result, test.expected)
		}
	}
}

func TestNames(t *testing.T) {
	if n := ParamsName("customer", "create"); n != "CustomerCreateParams" {
		t.Errorf("ParamsName = %q", n)
	}
	if n := ParamsName("customer", "customer_update"); n != "CustomerUpdateParams" {
		t.Errorf("ParamsName = %q, expected prefix not to repeat", n)
	}
	if n := BuilderName("CustomerCreateParams", "billing_address"); n != "CustomerCreateBillingAddressParams" {
		t.Errorf("BuilderName = %q", n)
	}
}

func TestFlattenerNestedBuilders(t *testing.T) {
	res := resolve.NewResolver(testCaps(), resolve.NewRegistry(), false)
	f := &Flattener{Resolver: res}
	ctx := classify.NewContext("customer", nil).WithScope("op:create")

	p := &ir.Params{Name: "CustomerCreateParams"}
	f.Params(p, requestBody(), ctx)

	// shipping_address has no properties and emits nothing.
	if len(p.Setters) != 3 {
		t.Fatalf("setters = %d, expected 3", len(p.Setters))
	}

	first := p.Setters[0]
	if first.Kind != ir.SetterValue || first.Name != "FirstName" || first.Type != "string" || first.Key != "first_name" {
		t.Errorf("first_name setter = %+v", first)
	}

	address := p.Setters[1]
	if address.Kind != ir.SetterNested || address.Target != "CustomerCreateBillingAddressParams" {
		t.Errorf("billing_address setter = %+v", address)
	}
	if len(p.Builders) != 2 {
		t.Fatalf("builders = %d, expected 2", len(p.Builders))
	}
	b := p.Builders[0]
	if b.Indexed || len(b.Setters) != 2 || b.Setters[1].Name != "City" || b.Setters[1].Key != "billing_address[city]" {
		t.Errorf("address builder = %+v", b)
	}

	items := p.Builders[1]
	if !items.Indexed || items.Name != "CustomerCreateLineItemsParams" {
		t.Errorf("line items builder = %+v", items)
	}
	qty := items.Setters[1]
	if qty.Kind != ir.SetterIndexed || qty.Type != "int32" || qty.Key != "line_items[quantity]" {
		t.Errorf("quantity setter = %+v", qty)
	}
}

func TestFlattenerNestedFieldBags(t *testing.T) {
	res := resolve.NewResolver(testCaps(), resolve.NewRegistry(), false)
	f := &Flattener{Resolver: res}
	ctx := classify.NewContext("customer", nil).WithScope("op:create")

	address := object("billing_address", attr("city", "string"))
	address.Ext.CustomFields = true
	shipping := object("shipping_address", attr("city", "string"))
	shipping.Ext.ConsentFields = true

	p := &ir.Params{Name: "CustomerCreateParams"}
	f.Params(p, []*spec.Attribute{address, shipping}, ctx)

	if len(p.Builders) != 2 {
		t.Fatalf("builders = %d, expected 2", len(p.Builders))
	}
	if p.CustomFields != nil || p.ConsentFields != nil {
		t.Errorf("nested flags leaked onto the params: %+v, %+v", p.CustomFields, p.ConsentFields)
	}

	b := p.Builders[0]
	if b.Key != "billing_address" || b.CustomFields == nil || b.ConsentFields != nil {
		t.Fatalf("billing_address builder = %+v", b)
	}
	if bag := b.CustomFields; bag.Prefix != "cf_" || bag.Setter != "SetCustomField" || bag.BulkSetter != "SetCustomFields" || bag.Getter != "" {
		t.Errorf("custom bag = %+v", bag)
	}

	c := p.Builders[1]
	if c.Key != "shipping_address" || c.CustomFields != nil || c.ConsentFields == nil {
		t.Fatalf("shipping_address builder = %+v", c)
	}
	if bag := c.ConsentFields; bag.Prefix != "cs_" || bag.ValueType != "any" || bag.BoolGetter != "" {
		t.Errorf("consent bag = %+v", bag)
	}
}

func TestFlattenerLegacyMode(t *testing.T) {
	res := resolve.NewResolver(testCaps(), resolve.NewRegistry(), false)
	f := &Flattener{Resolver: res, Flatten: true}
	ctx := classify.NewContext("customer", nil).WithScope("op:create")

	p := &ir.Params{Name: "CustomerCreateParams"}
	f.Params(p, requestBody(), ctx)

	var names []string
	for _, s := range p.Setters {
		names = append(names, s.Name)
	}
	expected := []string{"FirstName", "BillingAddressLine1", "BillingAddressCity", "LineItems"}
	if len(names) != len(expected) {
		t.Fatalf("setters = %v, expected %v", names, expected)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("setters = %v, expected %v", names, expected)
			break
		}
	}
	if p.Setters[2].Key != "billing_address[city]" {
		t.Errorf("flattened key = %q", p.Setters[2].Key)
	}
	// Composite arrays keep their indexed builder.
	if len(p.Builders) != 1 || !p.Builders[0].Indexed {
		t.Errorf("builders = %+v", p.Builders)
	}
}

func TestFlattenerRegisteredNames(t *testing.T) {
	reg := resolve.NewRegistry()
	ctx := classify.NewContext("customer", nil).WithScope("op:list")
	reg.Register(resolve.KeyFor(resolve.KindFilter, ctx, "email"), resolve.Candidate{Name: "EmailFilter"})
	reg.Register(resolve.KeyFor(resolve.KindSort, ctx, "sort_by"), resolve.Candidate{Name: "CustomerSortBy"})

	email := object("email", attr("is", "string"))
	email.Ext.IsFilterParameter = true
	sortBy := object("sort_by")
	sortBy.Children = []*spec.Attribute{{Name: "asc", Schema: &spec.Schema{Type: "string", Enum: []string{"created_at"}}, Enum: &spec.Enum{Values: []spec.EnumValue{{API: "created_at"}}}}}

	f := &Flattener{Resolver: resolve.NewResolver(testCaps(), reg, false)}
	p := &ir.Params{Name: "CustomerListParams"}
	f.Params(p, []*spec.Attribute{email, sortBy}, ctx)

	if len(p.Setters) != 2 {
		t.Fatalf("setters = %d, expected 2", len(p.Setters))
	}
	if s := p.Setters[0]; s.Kind != ir.SetterFilter || s.Target != "EmailFilter" {
		t.Errorf("filter setter = %+v", s)
	}
	if s := p.Setters[1]; s.Kind != ir.SetterSort || s.Target != "CustomerSortBy" {
		t.Errorf("sort setter = %+v", s)
	}
}
