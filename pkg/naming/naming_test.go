package naming

import (
	"testing"
)

func TestRemoveAccents(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"hello", "hello"},
		{"cobrança", "cobranca"},
		{"negociação", "negociacao"},
		{"café", "cafe"},
		{"São Paulo", "Sao Paulo"},
		{"naïve", "naive"},
	}

	for _, test := range tests {
		result := RemoveAccents(test.input)
		if result != test.expected {
			t.Errorf("RemoveAccents(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestToPascal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"hello", "Hello"},
		{"helloWorld", "HelloWorld"},
		{"getUserById", "GetUserById"},
		{"XMLHttpRequest", "XmlHttpRequest"},
		{"billing_address", "BillingAddress"},
		{"hello-world", "HelloWorld"},
		{"HELLO_WORLD", "HelloWorld"},
		{"cobrança", "Cobranca"},
		{"line_item_tiers", "LineItemTiers"},
	}

	for _, test := range tests {
		result := ToPascal(test.input)
		if result != test.expected {
			t.Errorf("ToPascal(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestCaseApply(t *testing.T) {
	tests := []struct {
		c        Case
		input    string
		expected string
	}{
		{Camel, "is_not", "isNot"},
		{Camel, "starts_with", "startsWith"},
		{Snake, "startsWith", "starts_with"},
		{UpperSnake, "in_trial", "IN_TRIAL"},
		{UpperSnake, "inTrial", "IN_TRIAL"},
		{Kebab, "BillingAddress", "billing-address"},
		{Pascal, "auto_collection", "AutoCollection"},
		{Case("unknown"), "as_is", "as_is"},
	}

	for _, test := range tests {
		result := test.c.Apply(test.input)
		if result != test.expected {
			t.Errorf("%s.Apply(%q) = %q, expected %q", test.c, test.input, result, test.expected)
		}
	}
}

func TestSplitCamelCase(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"hello", []string{"hello"}},
		{"helloWorld", []string{"hello", "World"}},
		{"getUserById", []string{"get", "User", "By", "Id"}},
		{"XMLHttp", []string{"XML", "Http"}},
	}

	for _, test := range tests {
		result := SplitCamelCase(test.input)
		if len(result) != len(test.expected) {
			t.Errorf("SplitCamelCase(%q) = %v, expected %v", test.input, result, test.expected)
			continue
		}
		for i, part := range result {
			if part != test.expected[i] {
				t.Errorf("SplitCamelCase(%q) = %v, expected %v", test.input, result, test.expected)
				break
			}
		}
	}
}

func TestSingularPlural(t *testing.T) {
	singular := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"customers", "customer"},
		{"billing_addresses", "billing_address"},
		{"line_item_tiers", "line_item_tier"},
		{"ramps", "ramp"},
		{"subscription", "subscription"},
	}
	for _, test := range singular {
		if result := Singular(test.input); result != test.expected {
			t.Errorf("Singular(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}

	plural := []struct {
		input    string
		expected string
	}{
		{"customer", "customers"},
		{"credit_note", "credit_notes"},
		{"address", "addresses"},
	}
	for _, test := range plural {
		if result := Plural(test.input); result != test.expected {
			t.Errorf("Plural(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name     string
		needle   string
		expected bool
	}{
		{"customers", "customer", true},
		{"subscriptionsForCustomer", "customer", true},
		{"subscriptions", "customer", false},
		{"update_billing_info", "customer", false},
		{"anything", "", false},
	}

	for _, test := range tests {
		if result := Contains(test.name, test.needle); result != test.expected {
			t.Errorf("Contains(%q, %q) = %v, expected %v", test.name, test.needle, result, test.expected)
		}
	}
}

func TestQualify(t *testing.T) {
	tests := []struct {
		owner    string
		name     string
		expected string
	}{
		{"customer", "billing_address", "CustomerBillingAddress"},
		{"customer", "customer_type", "CustomerType"},
		{"", "status", "Status"},
		{"credit_note", "StatusEnum", "CreditNoteStatusEnum"},
	}

	for _, test := range tests {
		if result := Qualify(test.owner, test.name); result != test.expected {
			t.Errorf("Qualify(%q, %q) = %q, expected %q", test.owner, test.name, result, test.expected)
		}
	}
}
