package order

import "testing"

func validAddress() Address {
	return Address{
		Street: "Rua das Laranjeiras",
		Number: "152",
		City:   "Campinas",
		State:  "SP",
		CEP:    "13015-170",
	}
}

func TestValidateAddressAccepts(t *testing.T) {
	if errs := ValidateAddress(validAddress()); len(errs) != 0 {
		t.Fatalf("expected valid address, got %v", errs)
	}
}

func TestValidateAddressRequiredFields(t *testing.T) {
	errs := ValidateAddress(Address{})
	for _, field := range []string{"street", "number", "city", "state", "cep"} {
		if errs[field] == "" {
			t.Fatalf("expected error for %s, got %v", field, errs)
		}
	}
	if _, ok := errs["district"]; ok {
		t.Fatalf("district must never be validated")
	}
}

func TestValidateAddressStateShape(t *testing.T) {
	a := validAddress()
	a.State = "SPX"
	if errs := ValidateAddress(a); errs["state"] == "" {
		t.Fatalf("three-letter state must fail")
	}
	a.State = "S1"
	if errs := ValidateAddress(a); errs["state"] == "" {
		t.Fatalf("digit in state must fail")
	}
	a.State = "sp"
	if errs := ValidateAddress(a); errs["state"] != "" {
		t.Fatalf("two lowercase letters pass shape validation, got %v", errs)
	}
}

func TestValidateAddressCEPShape(t *testing.T) {
	a := validAddress()
	for _, bad := range []string{"1301", "13015170X", "13015--170", "abcde-fgh"} {
		a.CEP = bad
		if errs := ValidateAddress(a); errs["cep"] == "" {
			t.Fatalf("cep %q must fail", bad)
		}
	}
	a.CEP = "13015170"
	if errs := ValidateAddress(a); errs["cep"] != "" {
		t.Fatalf("bare eight digits are accepted, got %v", errs)
	}
}

// Fixing exactly one invalid field must remove exactly its entry.
func TestValidateAddressMonotonic(t *testing.T) {
	a := validAddress()
	a.City = ""
	before := ValidateAddress(a)
	if len(before) != 1 || before["city"] == "" {
		t.Fatalf("expected only city error, got %v", before)
	}
	a.City = "Campinas"
	after := ValidateAddress(a)
	if len(after) != 0 {
		t.Fatalf("fixing city must clear the map, got %v", after)
	}
}

func TestFormatCEP(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"13":         "13",
		"13015":      "13015",
		"130151":     "13015-1",
		"13015170":   "13015-170",
		"13015-170":  "13015-170",
		"130151709":  "13015-170",
		"1a3b0c1d5e": "13015",
		"ab13015170": "13015-170",
	}
	for in, want := range cases {
		if got := FormatCEP(in); got != want {
			t.Fatalf("FormatCEP(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCEPIdempotent(t *testing.T) {
	once := FormatCEP("12345-678")
	if once != "12345-678" {
		t.Fatalf("mask changed well-formed input: %q", once)
	}
	if twice := FormatCEP(once); twice != once {
		t.Fatalf("mask is not idempotent: %q -> %q", once, twice)
	}
}

func TestNormalizeState(t *testing.T) {
	if got := NormalizeState(" sp "); got != "SP" {
		t.Fatalf("NormalizeState = %q", got)
	}
}
