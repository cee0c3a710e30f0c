package spec

import (
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

const fixture = `
openapi: 3.0.1
info:
  title: Billing
  version: v2
paths:
  /customers:
    get:
      x-cb-resource-id: customer
      x-cb-operation-method-name: list
      x-cb-is-list-operation: true
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
            format: int32
        - name: email
          in: query
          x-cb-is-filter-parameter: true
          schema:
            type: object
            properties:
              is:
                type: string
              is_not:
                type: string
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  list:
                    type: array
                    items:
                      type: object
                      properties:
                        customer:
                          $ref: '#/components/schemas/Customer'
                  next_offset:
                    type: string
    post:
      x-cb-resource-id: customer
      x-cb-operation-method-name: create
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              properties:
                first_name:
                  type: string
                channel:
                  type: string
                  enum: [web, app]
                billing_address:
                  type: object
                  x-cb-is-custom-fields-supported: true
                  properties:
                    city:
                      type: string
      responses:
        "200":
          description: ok
  /customers/{customer-id}/delete:
    parameters:
      - name: customer-id
        in: path
        required: true
        schema:
          type: string
    post:
      x-cb-resource-id: customer
      x-cb-operation-method-name: delete
      responses:
        "204":
          description: deleted
  /internal/ping:
    get:
      responses:
        "200":
          description: ok
components:
  schemas:
    Channel:
      type: string
      x-cb-is-global-enum: true
      enum: [web, app, api]
    Customer:
      type: object
      x-cb-resource-id: customer
      x-cb-is-custom-fields-supported: true
      required: [id]
      properties:
        id:
          type: string
        auto_collection:
          type: string
          enum: ["on", "off"]
          x-cb-deprecated-enum-values: [legacy]
        channel:
          $ref: '#/components/schemas/Channel'
        billing_address:
          type: object
          x-cb-is-sub-resource: true
          properties:
            line1:
              type: string
        referrer:
          $ref: '#/components/schemas/Customer'
`

func load(t *testing.T, data string) *Spec {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromData([]byte(data))
	if err != nil {
		t.Fatalf("LoadFromData: %v", err)
	}
	s, err := FromOpenAPI(doc)
	if err != nil {
		t.Fatalf("FromOpenAPI: %v", err)
	}
	return s
}

func TestFromOpenAPIResources(t *testing.T) {
	s := load(t, fixture)

	if s.Title != "Billing" || s.Version != "v2" {
		t.Errorf("info = %q %q, expected Billing v2", s.Title, s.Version)
	}
	if len(s.Resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(s.Resources))
	}
	customer := s.Resource("customer")
	if customer == nil {
		t.Fatal("expected customer resource")
	}
	if !customer.Flags.CustomFields {
		t.Error("expected custom fields flag on customer")
	}

	var names []string
	for _, a := range customer.Attributes {
		names = append(names, a.Name)
	}
	expected := []string{"auto_collection", "billing_address", "channel", "id", "referrer"}
	if len(names) != len(expected) {
		t.Fatalf("attributes = %v, expected %v", names, expected)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("attributes = %v, expected %v", names, expected)
			break
		}
	}

	if !customer.Attribute("id").Required {
		t.Error("expected id to be required")
	}

	ac := customer.Attribute("auto_collection")
	if ac.Enum == nil || len(ac.Enum.Values) != 3 {
		t.Fatalf("auto_collection enum = %+v, expected 3 values", ac.Enum)
	}
	if last := ac.Enum.Values[2]; last.API != "legacy" || !last.Deprecated {
		t.Errorf("deprecated value = %+v, expected legacy/deprecated", last)
	}

	ch := customer.Attribute("channel")
	if ch.Enum == nil || !ch.Enum.Global || ch.Enum.Name != "Channel" {
		t.Errorf("channel enum = %+v, expected global Channel", ch.Enum)
	}

	ba := customer.Attribute("billing_address")
	if ba.SubResourceName != "billing_address" || len(ba.Children) != 1 {
		t.Errorf("billing_address = %q with %d children", ba.SubResourceName, len(ba.Children))
	}

	// Recursive references stop expanding at the first repeat.
	ref := customer.Attribute("referrer")
	if ref.SubResourceName != "customer" {
		t.Errorf("referrer sub-resource = %q, expected customer", ref.SubResourceName)
	}
	if ref.HasChildren() {
		t.Error("expected recursive referrer to have no expanded children")
	}

	if len(s.GlobalEnums) != 1 || s.GlobalEnums[0].Name != "Channel" {
		t.Errorf("global enums = %+v, expected Channel", s.GlobalEnums)
	}
}

func TestFromOpenAPIOperations(t *testing.T) {
	s := load(t, fixture)

	if len(s.Operations) != 4 {
		t.Fatalf("expected 4 operations, got %d", len(s.Operations))
	}

	tests := []struct {
		path     string
		method   string
		name     string
		identity bool
	}{
		{"/customers", "GET", "list", true},
		{"/customers", "POST", "create", true},
		{"/customers/{customer-id}/delete", "POST", "delete", true},
		{"/internal/ping", "GET", "", false},
	}
	for i, test := range tests {
		op := s.Operations[i]
		if op.Path != test.path || op.HTTPMethod != test.method || op.MethodName != test.name {
			t.Errorf("operation %d = %s %s (%s), expected %s %s (%s)", i, op.HTTPMethod, op.Path, op.MethodName, test.method, test.path, test.name)
		}
		if op.HasIdentity() != test.identity {
			t.Errorf("operation %d HasIdentity() = %v, expected %v", i, op.HasIdentity(), test.identity)
		}
	}

	list := s.Operations[0]
	if !list.IsList {
		t.Error("expected list flag")
	}
	if len(list.QueryParams) != 2 {
		t.Fatalf("expected 2 query params, got %d", len(list.QueryParams))
	}
	email := list.QueryParams[0]
	if email.Name != "email" || !email.Ext.IsFilterParameter {
		t.Errorf("expected filter-flagged email param, got %q filter=%v", email.Name, email.Ext.IsFilterParameter)
	}
	if r := list.SuccessResponse(); r == nil || r.Schema.Property("next_offset") == nil {
		t.Error("expected list response with next_offset")
	}

	create := s.Operations[1]
	if create.RequestBody == nil || create.RequestContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("expected form request body, got %+v", create.RequestBody)
	}
	if create.RequestBody.Child("channel").Enum == nil {
		t.Error("expected request channel enum")
	}
	if ba := create.RequestBody.Child("billing_address"); ba == nil || !ba.Ext.CustomFields || ba.Ext.ConsentFields {
		t.Errorf("expected a custom-fields flag on the nested billing_address, got %+v", ba)
	}

	del := s.Operations[2]
	if len(del.PathParams) != 1 || del.PathParams[0].Name != "customer-id" {
		t.Errorf("expected shared path param customer-id, got %+v", del.PathParams)
	}
	if r := del.SuccessResponse(); r == nil || r.Status != "204" || r.Schema != nil {
		t.Errorf("expected empty 204 response, got %+v", r)
	}

	if got := len(s.Resource("customer").Operations); got != 3 {
		t.Errorf("customer operations = %d, expected 3", got)
	}
}

func TestFromOpenAPIErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code ErrorCode
	}{
		{
			name: "enum with properties",
			code: InvalidNode,
			doc: `
openapi: 3.0.1
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Plan:
      type: object
      x-cb-resource-id: plan
      properties:
        status:
          type: object
          enum: [a]
          properties:
            x:
              type: string
`,
		},
		{
			name: "non-object resource",
			code: InvalidSchema,
			doc: `
openapi: 3.0.1
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Plan:
      type: string
      x-cb-resource-id: plan
`,
		},
	}

	for _, test := range tests {
		doc, err := openapi3.NewLoader().LoadFromData([]byte(test.doc))
		if err != nil {
			t.Fatalf("%s: LoadFromData: %v", test.name, err)
		}
		_, err = FromOpenAPI(doc)
		var specErr *Error
		if !errors.As(err, &specErr) {
			t.Errorf("%s: expected *Error, got %v", test.name, err)
			continue
		}
		if specErr.Code != test.code {
			t.Errorf("%s: code = %s, expected %s", test.name, specErr.Code, test.code)
		}
	}
}

func TestRefName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"#/components/schemas/Customer", "Customer"},
		{"./enums/channel.yaml", "channel"},
		{"Channel", "Channel"},
	}

	for _, test := range tests {
		if result := RefName(test.input); result != test.expected {
			t.Errorf("RefName(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestSuccessResponse(t *testing.T) {
	op := &Operation{Responses: []*Response{{Status: "202"}, {Status: "201"}, {Status: "400"}}}
	if r := op.SuccessResponse(); r.Status != "201" {
		t.Errorf("SuccessResponse() = %s, expected 201", r.Status)
	}
	op = &Operation{Responses: []*Response{{Status: "204"}, {Status: "202"}}}
	if r := op.SuccessResponse(); r.Status != "202" {
		t.Errorf("SuccessResponse() = %s, expected 202", r.Status)
	}
	op = &Operation{Responses: []*Response{{Status: "default"}}}
	if r := op.SuccessResponse(); r != nil {
		t.Errorf("SuccessResponse() = %+v, expected nil", r)
	}
}
