package logbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendAndTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "board.log")
	lb, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	lb.Info("order %s moved to %s", "12", "paid")
	lb.Warn("list fetch slow")
	lb.Error("confirm rejected: %s", "address_required")

	lines := lb.Tail(2)
	if len(lines) != 2 {
		t.Fatalf("tail = %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "WARN") || !strings.Contains(lines[1], "address_required") {
		t.Fatalf("unexpected tail %v", lines)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Fatalf("expected 3 persisted lines, got %d", got)
	}
}

func TestTailBounds(t *testing.T) {
	lb, err := New(filepath.Join(t.TempDir(), "board.log"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if lb.Tail(5) != nil {
		t.Fatalf("empty logbook must tail nil")
	}
	lb.Info("only line")
	if got := lb.Tail(0); got != nil {
		t.Fatalf("non-positive maxLines must return nil, got %v", got)
	}
	if got := lb.Tail(10); len(got) != 1 {
		t.Fatalf("tail larger than history returns everything, got %v", got)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var lb *Logbook
	lb.Info("ignored")
	if lb.Tail(3) != nil || lb.Path() != "" {
		t.Fatalf("nil receiver must be inert")
	}
}
