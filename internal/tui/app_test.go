package tui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rodri-oliveira/atendeja/internal/api"
	"github.com/rodri-oliveira/atendeja/internal/board"
	"github.com/rodri-oliveira/atendeja/internal/config"
	"github.com/rodri-oliveira/atendeja/internal/order"
	"github.com/rodri-oliveira/atendeja/internal/stub"
)

// newTestApp builds an App over the in-memory order service so Update can be
// driven message by message without a terminal.
func newTestApp(t *testing.T) (*App, *api.Client) {
	t.Helper()
	store := stub.NewStore()
	store.SeedDemo()
	srv := httptest.NewServer(stub.NewServer(stub.SettingsFromEnv(), store).Handler())
	t.Cleanup(srv.Close)
	client := api.New(srv.URL)
	return NewApp(config.Default(), client, nil), client
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// fetch runs one list round-trip through Update so the board has rows.
func fetch(t *testing.T, a *App) {
	t.Helper()
	msg := a.fetchCmd()()
	om, ok := msg.(ordersMsg)
	if !ok {
		t.Fatalf("fetchCmd produced %T", msg)
	}
	if om.err != nil {
		t.Fatalf("fetch: %v", om.err)
	}
	a.Update(om)
	if a.model.OrderCount() == 0 {
		t.Fatalf("fetch applied no orders")
	}
}

func TestStaleFetchIsDropped(t *testing.T) {
	a, _ := newTestApp(t)
	fetch(t, a)
	before := a.model.OrderCount()

	// A response carrying an old sequence id must not clobber the board.
	a.Update(ordersMsg{seq: 0, rows: nil})
	if got := a.model.OrderCount(); got != before {
		t.Fatalf("stale response applied: %d -> %d", before, got)
	}
}

func TestGatedActionOpensDrawer(t *testing.T) {
	a, _ := newTestApp(t)
	fetch(t, a)

	// Cursor starts on the first draft; action 1 is Confirm, which is gated.
	_, cmd := a.Update(keyMsg("1"))
	if cmd == nil {
		t.Fatalf("confirm action produced no command")
	}
	done, ok := cmd().(transitionDoneMsg)
	if !ok || done.outcome != board.OutcomeDrawer {
		t.Fatalf("expected drawer outcome, got %+v", done)
	}
	a.Update(done)
	if a.drawer == nil {
		t.Fatalf("drawer not opened")
	}
	if a.sched.Selected() != done.id {
		t.Fatalf("scheduler selection = %q", a.sched.Selected())
	}
	if a.sched.ShouldPoll() {
		t.Fatalf("poll must be parked while the drawer is open")
	}
}

func TestCancelPromptDecline(t *testing.T) {
	a, client := newTestApp(t)
	fetch(t, a)
	o, ok := a.selectedOrder()
	if !ok {
		t.Fatalf("no selected order")
	}

	// Action 2 on a draft is Cancel: it must prompt, not mutate.
	_, cmd := a.Update(keyMsg("2"))
	if cmd != nil || a.prompt == nil {
		t.Fatalf("cancel must open the prompt without issuing a call")
	}
	_, cmd = a.Update(keyMsg("n"))
	if cmd != nil || a.prompt != nil {
		t.Fatalf("decline must close the prompt without issuing a call")
	}

	detail, err := client.Get(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.Status != o.Status {
		t.Fatalf("declined cancel changed status to %s", detail.Status)
	}
}

func TestCancelPromptAccept(t *testing.T) {
	a, client := newTestApp(t)
	fetch(t, a)
	o, _ := a.selectedOrder()

	a.Update(keyMsg("2"))
	_, cmd := a.Update(keyMsg("y"))
	if cmd == nil {
		t.Fatalf("accepted cancel produced no command")
	}
	done, ok := cmd().(transitionDoneMsg)
	if !ok || done.outcome != board.OutcomeApplied {
		t.Fatalf("expected applied outcome, got %+v", done)
	}

	detail, err := client.Get(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.Status != order.StatusCanceled {
		t.Fatalf("status = %s", detail.Status)
	}
}

func TestLateDrawerMessageIgnored(t *testing.T) {
	a, _ := newTestApp(t)
	fetch(t, a)

	// A drawer response landing after the drawer closed must be a no-op.
	_, cmd := a.Update(drawerLoadedMsg{id: "101"})
	if cmd != nil || a.drawer != nil {
		t.Fatalf("late drawer message must be dropped")
	}
}

func TestEscClosesDrawerAndRefetches(t *testing.T) {
	a, _ := newTestApp(t)
	fetch(t, a)

	_, cmd := a.Update(keyMsg("enter"))
	if a.drawer == nil || cmd == nil {
		t.Fatalf("enter must open the drawer and start its load")
	}
	_, cmd = a.Update(keyMsg("esc"))
	if a.drawer != nil {
		t.Fatalf("esc must close the drawer")
	}
	if a.sched.Selected() != "" {
		t.Fatalf("selection not cleared")
	}
	if cmd == nil {
		t.Fatalf("closing the drawer must refetch")
	}
	if _, ok := cmd().(ordersMsg); !ok {
		t.Fatalf("close command is not a fetch")
	}
}

func TestFilterCycleRequeriesServer(t *testing.T) {
	a, _ := newTestApp(t)
	fetch(t, a)

	// One press of f selects the first lifecycle status.
	_, cmd := a.Update(keyMsg("f"))
	if cmd == nil {
		t.Fatalf("filter change must refetch")
	}
	om, ok := cmd().(ordersMsg)
	if !ok || om.err != nil {
		t.Fatalf("filter fetch: %+v", om)
	}
	a.Update(om)
	for _, bucket := range a.model.Buckets() {
		if bucket.Column.Status != order.Statuses()[0] && len(bucket.Orders) != 0 {
			t.Fatalf("filtered fetch leaked %s orders", bucket.Column.Status)
		}
	}
}

func TestViewRendersBoard(t *testing.T) {
	a, _ := newTestApp(t)
	fetch(t, a)
	a.Update(tea.WindowSizeMsg{Width: 200, Height: 50})

	out := a.View()
	for _, want := range []string{"Operations Board", "Draft", "Delivered"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}
