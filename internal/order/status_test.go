package order

import "testing"

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		parsed, err := ParseStatus(string(s))
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", s, err)
		}
		if parsed != s {
			t.Fatalf("ParseStatus(%q) = %q", s, parsed)
		}
	}
	if _, err := ParseStatus("shipped"); err == nil {
		t.Fatalf("unknown status must be rejected")
	}
	if _, err := ParseStatus(""); err == nil {
		t.Fatalf("empty status must be rejected")
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := map[Status]bool{StatusDelivered: true, StatusCanceled: true}
	for _, s := range Statuses() {
		if got := s.Terminal(); got != terminal[s] {
			t.Fatalf("%s.Terminal() = %v", s, got)
		}
	}
}

func TestDisplayNameCoversLifecycle(t *testing.T) {
	for _, s := range Statuses() {
		if s.DisplayName() == string(s) || s.DisplayName() == "" {
			t.Fatalf("missing display name for %s", s)
		}
	}
}
