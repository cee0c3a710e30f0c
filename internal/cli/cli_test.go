package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const billingSpec = "../../pkg/planner/testdata/billing.yaml"

func newTestRoot(args ...string) (*cobra.Command, *bytes.Buffer) {
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root, out
}

func TestGenerateParamsFromFlags(t *testing.T) {
	var captured *GenerateParams
	generateRunner = func(ctx context.Context, cmd *cobra.Command, p *GenerateParams) error {
		captured = p
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root, _ := newTestRoot(
		"--verbose",
		"generate",
		"--input", "spec.yaml",
		"--type", "python",
		"--out", "./build",
		"--package-name", " acme ",
		"--client-name", "AcmeClient",
		"--include-resources", "^customer",
		"--include-resources", "^invoice",
		"--strict-formats",
	)
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured == nil {
		t.Fatal("expected params to be captured")
	}
	f := captured.Fallback
	if f.Type != "python" || f.PackageName != "acme" || f.Name != "AcmeClient" {
		t.Errorf("fallback = %+v", f)
	}
	if !filepath.IsAbs(f.Spec) || !filepath.IsAbs(f.OutDir) {
		t.Errorf("paths not absolutized: %q, %q", f.Spec, f.OutDir)
	}
	if want := []string{"^customer", "^invoice"}; !slices.Equal(f.IncludeResources, want) {
		t.Errorf("include resources = %v, expected %v", f.IncludeResources, want)
	}
	if !f.StrictFormats || !captured.Verbose {
		t.Errorf("strict = %v, verbose = %v", f.StrictFormats, captured.Verbose)
	}
}

func TestGenerateRequiresInputs(t *testing.T) {
	generateRunner = func(ctx context.Context, cmd *cobra.Command, p *GenerateParams) error {
		t.Fatal("runner should not be called")
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root, _ := newTestRoot("generate", "--input", "spec.yaml")
	err := root.Execute()
	if !errors.Is(err, ErrUsage) {
		t.Errorf("err = %v, expected a usage error", err)
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	root, _ := newTestRoot("generate", "--include-tags", "x")
	err := root.Execute()
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("err = %v, expected a usage error", err)
	}
	if !strings.Contains(err.Error(), "Usage:") {
		t.Errorf("usage error should include help text: %q", err.Error())
	}
}

func TestValidateInput(t *testing.T) {
	var captured string
	validateRunner = func(cmd *cobra.Command, input string) error {
		captured = input
		return nil
	}
	t.Cleanup(func() { validateRunner = runValidate })

	root, _ := newTestRoot("validate", "--input", "openapi.yaml")
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured != "openapi.yaml" {
		t.Errorf("input = %q, expected %q", captured, "openapi.yaml")
	}

	root, _ = newTestRoot("validate")
	if err := root.Execute(); !errors.Is(err, ErrUsage) {
		t.Errorf("err = %v, expected a usage error", err)
	}
}

func TestValidateMissingFile(t *testing.T) {
	root, _ := newTestRoot("validate", "--input", "/no/such/file.yaml")
	if err := root.Execute(); err == nil {
		t.Error("expected an error for a missing spec")
	}
}

func TestPlanFormats(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"json", []string{`"outputs"`, `"service"`, `"CustomerService"`}},
		{"yaml", []string{"\noutputs:\n", "kind: service", "name: CustomerService"}},
	}
	for _, test := range tests {
		root, out := newTestRoot("plan", "--input", billingSpec, "--type", "go", "--client", "BillingClient", "--format", test.format)
		if err := root.Execute(); err != nil {
			t.Fatalf("plan --format %s: %v", test.format, err)
		}
		for _, want := range test.want {
			if !strings.Contains(out.String(), want) {
				t.Errorf("plan --format %s does not contain %q", test.format, want)
			}
		}
		if test.format == "yaml" && strings.Contains(out.String(), `"outputs":`) {
			t.Errorf("plan --format yaml quotes its keys:\n%s", out.String())
		}
	}
}

func TestBlockStyle(t *testing.T) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(`{"name": "CustomerService", "status": "200", "tags": ["a", "true"]}`), &node); err != nil {
		t.Fatal(err)
	}
	blockStyle(&node)
	data, err := yaml.Marshal(&node)
	if err != nil {
		t.Fatal(err)
	}
	expected := "name: CustomerService\nstatus: \"200\"\ntags:\n    - a\n    - \"true\"\n"
	if string(data) != expected {
		t.Errorf("blockStyle output = %q, expected %q", data, expected)
	}
}

func TestPlanRejectsFormat(t *testing.T) {
	root, _ := newTestRoot("plan", "--input", billingSpec, "--format", "xml")
	if err := root.Execute(); !errors.Is(err, ErrUsage) {
		t.Errorf("err = %v, expected a usage error", err)
	}
}
