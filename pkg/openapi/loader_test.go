package openapi

import (
	"context"
	"testing"
)

const minimalDoc = `
openapi: 3.0.1
info:
  title: Mini
  version: v1
paths:
  /customers/{customer-id}:
    get:
      x-cb-resource-id: customer
      x-cb-operation-method-name: retrieve
      parameters:
        - name: customer-id
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: ok
`

func TestLoadDataAndValidate(t *testing.T) {
	doc, err := LoadData([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("LoadData: %v", err)
	}
	if err := Validate(context.Background(), doc); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if doc.Paths.Find("/customers/{customer-id}") == nil {
		t.Error("path not loaded")
	}
}

func TestValidateRejectsBrokenDocument(t *testing.T) {
	doc, err := LoadData([]byte("openapi: 3.0.1\ninfo:\n  title: Broken\npaths: {}\n"))
	if err != nil {
		t.Fatalf("LoadData: %v", err)
	}
	if err := Validate(context.Background(), doc); err == nil {
		t.Error("expected a validation error for a missing info.version")
	}
}

func TestLoadSpec(t *testing.T) {
	s, err := LoadSpec("../planner/testdata/billing.yaml")
	if err != nil {
		t.Fatalf("LoadSpec: %v", err)
	}
	if len(s.Resources) == 0 {
		t.Error("LoadSpec returned no resources")
	}

	if _, err := LoadSpec("/no/such/file.yaml"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
