package order

import (
	"regexp"
	"strings"
)

// Address is the delivery address attached to an order. All fields start
// empty; the data layer accepts anything, the validator below decides what
// is good enough to confirm an order.
type Address struct {
	Street   string `json:"street"`
	Number   string `json:"number"`
	District string `json:"district"`
	City     string `json:"city"`
	State    string `json:"state"`
	CEP      string `json:"cep"`
}

var (
	statePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
	cepPattern   = regexp.MustCompile(`^\d{5}-?\d{3}$`)
)

// ValidateAddress checks the confirm-precondition rules and returns one
// human-readable message per failing field. An empty map means the address
// is valid. District is never validated.
func ValidateAddress(a Address) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(a.Street) == "" {
		errs["street"] = "street is required"
	}
	if strings.TrimSpace(a.Number) == "" {
		errs["number"] = "number is required"
	}
	if strings.TrimSpace(a.City) == "" {
		errs["city"] = "city is required"
	}
	state := strings.TrimSpace(a.State)
	if state == "" {
		errs["state"] = "state is required"
	} else if !statePattern.MatchString(state) {
		errs["state"] = "state must be two letters"
	}
	cep := strings.TrimSpace(a.CEP)
	if cep == "" {
		errs["cep"] = "cep is required"
	} else if !cepPattern.MatchString(cep) {
		errs["cep"] = "cep must look like 00000-000"
	}
	return errs
}

// FormatCEP masks postal-code input on every keystroke: digits only,
// truncated to eight, hyphen inserted after the fifth. Idempotent on
// already well-formed values.
func FormatCEP(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			if digits.Len() == 8 {
				break
			}
		}
	}
	masked := digits.String()
	if len(masked) <= 5 {
		return masked
	}
	return masked[:5] + "-" + masked[5:]
}

// NormalizeState upper-cases state input before validation runs.
func NormalizeState(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
