package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `
spec: ./openapi.yaml
name: Acme
strictFormats: true
clients:
  - type: go
    outDir: ./sdk-go
    packageName: acme
    name: AcmeClient
    includeResources: ["^customer"]
    flattenNestedParams: true
    blankIndex: error
    resourceOptions:
      subscription: { blankIndex: empty }
    exclude: ["README.md", "services/"]
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !filepath.IsAbs(cfg.Spec) {
		t.Errorf("Spec = %q, expected an absolute path", cfg.Spec)
	}
	if !cfg.StrictFormats {
		t.Error("StrictFormats = false, expected true")
	}
	c := cfg.Clients[0]
	if !filepath.IsAbs(c.OutDir) {
		t.Errorf("OutDir = %q, expected an absolute path", c.OutDir)
	}
	if c.FlattenNestedParams == nil || !*c.FlattenNestedParams {
		t.Errorf("FlattenNestedParams = %v, expected true", c.FlattenNestedParams)
	}
	if got := c.ResourceOptions["subscription"].BlankIndex; got != "empty" {
		t.Errorf("ResourceOptions[subscription].BlankIndex = %q, expected %q", got, "empty")
	}
}

func TestParseKeepsURLSpec(t *testing.T) {
	cfg, err := Parse([]byte("spec: https://example.com/openapi.yaml\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Spec != "https://example.com/openapi.yaml" {
		t.Errorf("Spec = %q, expected the URL unchanged", cfg.Spec)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"missing spec", "name: x\n", "spec: failed required"},
		{"bad type", "spec: a.yaml\nclients:\n  - {type: rust, outDir: o, packageName: p, name: n}\n", "clients[0].type: failed oneof"},
		{"missing name", "spec: a.yaml\nclients:\n  - {type: go, outDir: o, packageName: p}\n", "clients[0].name: failed required"},
		{"bad blank index", "spec: a.yaml\nclients:\n  - {type: go, outDir: o, packageName: p, name: n, blankIndex: skip}\n", "clients[0].blankIndex: failed oneof"},
		{"bad resource option", "spec: a.yaml\nclients:\n  - type: go\n    outDir: o\n    packageName: p\n    name: n\n    resourceOptions:\n      order: {blankIndex: skip}\n", "blankIndex: failed oneof"},
		{"bad yaml", "spec: [\n", "parse config"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.input))
			if err == nil || !strings.Contains(err.Error(), test.errMsg) {
				t.Errorf("Parse() error = %v, expected error containing %q", err, test.errMsg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resourcegen.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "Acme" {
		t.Errorf("Name = %q, expected %q", cfg.Name, "Acme")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) succeeded, expected error")
	}
}

func TestShouldExcludeFile(t *testing.T) {
	c := Client{ExcludeFiles: []string{"README.md", "services/", "models/customer.go"}}
	tests := []struct {
		path     string
		expected bool
	}{
		{"README.md", true},
		{"services/customer_service.go", true},
		{"services", true},
		{"models/customer.go", true},
		{"models/invoice.go", false},
		{"client.go", false},
		{"servicesx/a.go", false},
	}

	for _, test := range tests {
		if got := c.ShouldExcludeFile(test.path); got != test.expected {
			t.Errorf("ShouldExcludeFile(%q) = %v, expected %v", test.path, got, test.expected)
		}
	}
	if (&Client{}).ShouldExcludeFile("README.md") {
		t.Error("ShouldExcludeFile with no patterns = true, expected false")
	}
}
