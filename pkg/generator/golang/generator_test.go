package golang

import (
	"context"
	"strings"
	"testing"

	"github.com/blimu-dev/resourcegen/pkg/config"
	"github.com/blimu-dev/resourcegen/pkg/openapi"
	"github.com/blimu-dev/resourcegen/pkg/planner"
)

func generate(t *testing.T) map[string]string {
	t.Helper()
	s, err := openapi.LoadSpec("../../planner/testdata/billing.yaml")
	if err != nil {
		t.Fatalf("LoadSpec: %v", err)
	}
	g := NewGoGenerator()
	client := config.Client{
		Type:           "go",
		PackageName:    "billing",
		ModuleName:     "github.com/acme/billing-go",
		Name:           "BillingClient",
		DefaultBaseURL: "https://acme.example.com/api/v2",
	}
	res, err := planner.New(g.Capabilities(), planner.WithClientName(client.Name)).Plan(context.Background(), s)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	files, err := g.Generate(client, res)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = string(f.Content)
	}
	return out
}

func TestGenerateFiles(t *testing.T) {
	files := generate(t)
	for _, name := range []string{"customer.go", "customer_service.go", "invoice_service.go", "enums.go", "filters.go", "billing_client.go", "go.mod", "README.md"} {
		if _, ok := files[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}
	for name, content := range files {
		if strings.HasSuffix(name, ".go") && !strings.HasPrefix(content, "// Code generated by resourcegen. DO NOT EDIT.\n\npackage billing\n") {
			t.Errorf("%s header = %q", name, content[:min(len(content), 80)])
		}
	}
	if !strings.HasPrefix(files["go.mod"], "module github.com/acme/billing-go\n") {
		t.Errorf("go.mod = %q", files["go.mod"])
	}
}

func TestGenerateService(t *testing.T) {
	svc := generate(t)["customer_service.go"]
	for _, want := range []string{
		"type CustomerService struct",
		"func (s *CustomerService) List(ctx context.Context, params *CustomerListParams) (*CustomerListResponse, error)",
		"func (s *CustomerService) ListIter(ctx context.Context, params *CustomerListParams) iter.Seq2[CustomerListItem, error]",
		`"/customers/" + pathEscape(customerId) + "/update"`,
		"func (s *CustomerService) BatchUpdate(ctx context.Context, customerId string, params *CustomerUpdateParams) (*CustomerUpdateResponse, error)",
		"func NewCustomerCreateParams() *CustomerCreateParams",
		`p.values.SetIndexed("line_items[item_price_id]", index, v)`,
		"func (p *CustomerListParams) Email() *EmailFilter[*CustomerListParams]",
		"func (p *CustomerCreateParams) SetCustomFields(values map[string]string) error",
		"func (p *CustomerCreateBillingAddressParams) SetCustomField(key string, value string) error",
		`fields.Nested("billing_address", "cf_", values)`,
	} {
		if !strings.Contains(svc, want) {
			t.Errorf("customer_service.go does not contain %q", want)
		}
	}

	void := generate(t)["invoice_service.go"]
	if !strings.Contains(void, "func (s *InvoiceService) Void(ctx context.Context, invoiceId string) error") {
		t.Errorf("invoice_service.go = %s", void)
	}
}

func TestGenerateFiltersAndClient(t *testing.T) {
	files := generate(t)
	if !strings.Contains(files["filters.go"], "type EmailFilter[P any] struct") {
		t.Errorf("filters.go = %s", files["filters.go"])
	}
	client := files["billing_client.go"]
	for _, want := range []string{
		"func NewBillingClient(apiKey string, opts ...Option) *BillingClient",
		`const DefaultBaseURL = "https://acme.example.com/api/v2"`,
		"Customer *CustomerService",
		"Offset string `form:\"offset,omitempty\"`",
		"form.Query(pageQuery{Offset: req.offset})",
	} {
		if !strings.Contains(client, want) {
			t.Errorf("billing_client.go does not contain %q", want)
		}
	}
	if !strings.Contains(files["enums.go"], `= "ingest"`) {
		t.Errorf("enums.go = %s", files["enums.go"])
	}
}
