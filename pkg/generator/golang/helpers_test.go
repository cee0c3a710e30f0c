package golang

import (
	"reflect"
	"testing"

	"github.com/blimu-dev/resourcegen/pkg/ir"
)

func TestFormatGoComment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"Simple comment", "// Simple comment"},
		{"Line 1\nLine 2", "// Line 1\n// Line 2"},
		{"Line 1\n\nLine 3", "// Line 1\n//\n// Line 3"},
		{"Especifica quantos dias antes do vencimento a notificação deve se enviada.\n Para o evento  `PAYMENT_DUEDATE_WARNING` os valores aceitos são: `0`, `5`, `10`, `15` e `30`\n Para o evento `PAYMENT_OVERDUE` os valores aceitos são: `1`, `7`, `15` e `30`", "// Especifica quantos dias antes do vencimento a notificação deve se enviada.\n// Para o evento  `PAYMENT_DUEDATE_WARNING` os valores aceitos são: `0`, `5`, `10`, `15` e `30`\n// Para o evento `PAYMENT_OVERDUE` os valores aceitos são: `1`, `7`, `15` e `30`"},
	}

	for _, test := range tests {
		result := formatGoComment(test.input)
		if result != test.expected {
			t.Errorf("formatGoComment(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestSanitizePackageName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"billing", "billing"},
		{"github.com/acme/billing-go", "billinggo"},
		{"Billing", "billing"},
		{"2fa", "pkg2fa"},
		{"", "client"},
	}

	for _, test := range tests {
		result := sanitizePackageName(test.input)
		if result != test.expected {
			t.Errorf("sanitizePackageName(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestGoPath(t *testing.T) {
	id := &ir.PathParam{Name: "customerId", WireName: "customer-id", Type: "string"}
	tests := []struct {
		path     string
		params   []*ir.PathParam
		expected string
	}{
		{"/customers", nil, `"/customers"`},
		{"/customers/{customer-id}", []*ir.PathParam{id}, `"/customers/" + pathEscape(customerId)`},
		{"/customers/{customer-id}/update", []*ir.PathParam{id}, `"/customers/" + pathEscape(customerId) + "/update"`},
		{"", nil, `"/"`},
	}

	for _, test := range tests {
		result := goPath(&ir.Method{Path: test.path, PathParams: test.params})
		if result != test.expected {
			t.Errorf("goPath(%q) = %s, expected %s", test.path, result, test.expected)
		}
	}
}

func TestMethodArgs(t *testing.T) {
	id := &ir.PathParam{Name: "customerId", WireName: "customer-id", Type: "string"}
	tests := []struct {
		method   *ir.Method
		args     string
		call     string
		response string
	}{
		{
			&ir.Method{Params: "CustomerListParams", Response: "CustomerListResponse"},
			"ctx context.Context, params *CustomerListParams",
			"ctx, params",
			"CustomerListResponse",
		},
		{
			&ir.Method{PathParams: []*ir.PathParam{id}},
			"ctx context.Context, customerId string",
			"ctx, customerId",
			"",
		},
		{
			&ir.Method{PathParams: []*ir.PathParam{id}, Batch: &ir.Batch{Params: "CustomerUpdateParams", Response: "CustomerUpdateResponse"}},
			"ctx context.Context, customerId string, params *CustomerUpdateParams",
			"ctx, customerId, params",
			"CustomerUpdateResponse",
		},
	}

	for _, test := range tests {
		if got := methodArgs(test.method); got != test.args {
			t.Errorf("methodArgs(%+v) = %q, expected %q", test.method, got, test.args)
		}
		if got := callArgs(test.method); got != test.call {
			t.Errorf("callArgs(%+v) = %q, expected %q", test.method, got, test.call)
		}
		if got := responseOf(test.method); got != test.response {
			t.Errorf("responseOf(%+v) = %q, expected %q", test.method, got, test.response)
		}
	}
}

func TestPageable(t *testing.T) {
	resp := &ir.Response{
		Name: "CustomerListResponse",
		Kind: ir.ResponsePaginated,
		Fields: []*ir.Field{
			{Name: "List", WireName: "list", Type: "[]CustomerListItem", Base: "CustomerListItem", Container: "list"},
			{Name: "NextOffset", WireName: "next_offset", Type: "*string", Base: "string", Nullable: true},
		},
	}
	svc := &ir.Service{Responses: []*ir.Response{resp}}

	list := &ir.Method{Response: resp.Name, ResponseKind: ir.ResponsePaginated}
	p := pageable(svc, list)
	if p == nil {
		t.Fatal("pageable(list) = nil")
	}
	if p.Item != "CustomerListItem" || cursorExpr(p) != "deref(r.NextOffset)" {
		t.Errorf("page = %s/%s", p.Item, cursorExpr(p))
	}

	if pageable(svc, &ir.Method{Response: resp.Name, ResponseKind: ir.ResponseSimple}) != nil {
		t.Error("a simple response is not pageable")
	}
	batch := &ir.Method{ResponseKind: ir.ResponsePaginated, Batch: &ir.Batch{Response: resp.Name}}
	if pageable(svc, batch) != nil {
		t.Error("a batch wrapper is not pageable")
	}
}

func TestGoImports(t *testing.T) {
	tests := []struct {
		name     string
		artifact *ir.Artifact
		expected []string
	}{
		{
			"plain model",
			&ir.Artifact{Kind: ir.KindModel, Model: &ir.Model{Name: "Card", Fields: []*ir.Field{{Type: "*string"}}}},
			[]string{},
		},
		{
			"model with bags",
			&ir.Artifact{Kind: ir.KindModel, Model: &ir.Model{Name: "Customer", CustomFields: &ir.FieldBag{}}},
			[]string{"encoding/json", RuntimeModule + "/runtime/fields"},
		},
		{
			"service without params",
			&ir.Artifact{Kind: ir.KindService, Service: &ir.Service{Name: "InvoiceService"}},
			[]string{"context"},
		},
		{
			"filters",
			&ir.Artifact{Kind: ir.KindFilters, Filters: &ir.Filters{}},
			[]string{RuntimeModule + "/runtime/form"},
		},
		{
			"client",
			&ir.Artifact{Kind: ir.KindClient, Client: &ir.Client{Name: "BillingClient"}},
			[]string{"bytes", "context", "encoding/json", "fmt", "io", "net/http", "net/url", "strings", RuntimeModule + "/runtime/form"},
		},
	}

	for _, test := range tests {
		if got := goImports(test.artifact); !reflect.DeepEqual(got, test.expected) {
			t.Errorf("goImports(%s) = %v, expected %v", test.name, got, test.expected)
		}
	}
}

func TestEnumConstants(t *testing.T) {
	e := &ir.Enum{TypeName: "CustomerTaxabilityEnum", Values: []ir.EnumValue{
		{Name: "CustomerTaxabilityEnumTaxable", API: "taxable"},
		{Name: "CustomerTaxabilityEnumExempt", API: "exempt"},
		{Name: "CustomerTaxabilityEnumUnknown", API: "_unknown", Unknown: true},
	}}
	if got := knownOf(e); !reflect.DeepEqual(got, []string{"CustomerTaxabilityEnumTaxable", "CustomerTaxabilityEnumExempt"}) {
		t.Errorf("knownOf = %v", got)
	}
	if got := unknownOf(e); got != "CustomerTaxabilityEnumUnknown" {
		t.Errorf("unknownOf = %q", got)
	}
}
