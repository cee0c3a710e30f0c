package fields

import (
	"errors"
	"reflect"
	"testing"
)

func TestSetAllRejectsWithoutPartialState(t *testing.T) {
	b := NewCustom()
	if err := b.Set("cf_region", "emea"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	err := b.SetAll(map[string]string{"cf_tier": "gold", "tier": "x", "ref": "y"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("SetAll() error = %v, expected *ValidationError", err)
	}
	if expected := []string{"ref", "tier"}; !reflect.DeepEqual(verr.Keys, expected) {
		t.Errorf("ValidationError.Keys = %v, expected %v", verr.Keys, expected)
	}
	if _, ok := b.Get("cf_tier"); ok {
		t.Error("cf_tier was stored although SetAll failed")
	}
	if got := b.Keys(); !reflect.DeepEqual(got, []string{"cf_region"}) {
		t.Errorf("Keys() = %v, expected [cf_region]", got)
	}

	if err := b.SetAll(map[string]string{"cf_tier": "gold"}); err != nil {
		t.Fatalf("SetAll: %v", err)
	}
	if v, _ := b.Get("cf_tier"); v != "gold" {
		t.Errorf("Get(cf_tier) = %q, expected %q", v, "gold")
	}
}

func TestSetPrefix(t *testing.T) {
	tests := []struct {
		key     string
		consent bool
		ok      bool
	}{
		{"cf_a", false, true},
		{"cs_a", false, false},
		{"cs_marketing", true, true},
		{"cf_a", true, false},
		{"", false, false},
	}

	for _, test := range tests {
		var err error
		if test.consent {
			err = NewConsent().Set(test.key, true)
		} else {
			err = NewCustom().Set(test.key, "v")
		}
		if (err == nil) != test.ok {
			t.Errorf("Set(%q) consent=%v error = %v, expected ok=%v", test.key, test.consent, err, test.ok)
		}
	}
}

func TestBool(t *testing.T) {
	b := NewConsent()
	_ = b.SetAll(map[string]any{"cs_a": true, "cs_b": "false", "cs_c": 3.0, "cs_d": "maybe"})

	tests := []struct {
		key   string
		value bool
		ok    bool
	}{
		{"cs_a", true, true},
		{"cs_b", false, true},
		{"cs_c", false, false},
		{"cs_d", false, false},
		{"cs_missing", false, false},
	}
	for _, test := range tests {
		v, ok := Bool(b, test.key)
		if v != test.value || ok != test.ok {
			t.Errorf("Bool(%q) = %v, %v, expected %v, %v", test.key, v, ok, test.value, test.ok)
		}
	}
}

const customer = `{"id":"cus_1","first_name":"Ada","cf_tier":"gold","cf_seats":12,"cf_gone":null,"cs_news":true}`

func TestPartition(t *testing.T) {
	known, residual, err := Partition([]byte(customer), CustomPrefix)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(known) != 3 {
		t.Errorf("len(known) = %d, expected 3", len(known))
	}
	if string(known["first_name"]) != `"Ada"` {
		t.Errorf("known[first_name] = %s, expected \"Ada\"", known["first_name"])
	}
	if len(residual) != 3 {
		t.Errorf("len(residual) = %d, expected 3", len(residual))
	}

	if _, _, err := Partition([]byte(`[1]`), CustomPrefix); err == nil {
		t.Error("Partition of an array succeeded, expected error")
	}
}

func TestExtract(t *testing.T) {
	custom, err := ExtractCustom([]byte(customer))
	if err != nil {
		t.Fatalf("ExtractCustom: %v", err)
	}
	expected := map[string]string{"cf_tier": "gold", "cf_seats": "12"}
	if got := custom.Map(); !reflect.DeepEqual(got, expected) {
		t.Errorf("ExtractCustom() = %v, expected %v", got, expected)
	}

	consent, err := ExtractConsent([]byte(customer))
	if err != nil {
		t.Fatalf("ExtractConsent: %v", err)
	}
	if v, ok := Bool(consent, "cs_news"); !v || !ok {
		t.Errorf("Bool(cs_news) = %v, %v, expected true, true", v, ok)
	}
}

func TestEncode(t *testing.T) {
	b := NewConsent()
	_ = b.SetAll(map[string]any{"cs_b": true, "cs_a": "yes"})

	var got [][2]string
	b.Encode(func(k, v string) { got = append(got, [2]string{k, v}) })
	expected := [][2]string{{"cs_a", "yes"}, {"cs_b", "true"}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Encode() = %v, expected %v", got, expected)
	}
}

func TestNested(t *testing.T) {
	got, err := Nested("billing_address", CustomPrefix, map[string]string{"cf_gst": "29AB"})
	if err != nil {
		t.Fatalf("Nested: %v", err)
	}
	if expected := map[string]string{"billing_address[cf_gst]": "29AB"}; !reflect.DeepEqual(got, expected) {
		t.Errorf("Nested = %v, expected %v", got, expected)
	}

	got, err = Nested("billing_address", CustomPrefix, map[string]string{"cf_gst": "29AB", "gst": "x"})
	var verr *ValidationError
	if !errors.As(err, &verr) || !reflect.DeepEqual(verr.Keys, []string{"gst"}) {
		t.Errorf("err = %v, expected a validation error for gst", err)
	}
	if got != nil {
		t.Errorf("Nested = %v, expected nothing on a rejected key", got)
	}
}
