package tui

import (
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rodri-oliveira/atendeja/internal/api"
	"github.com/rodri-oliveira/atendeja/internal/order"
	"github.com/rodri-oliveira/atendeja/internal/stub"
)

func newTestDrawer(t *testing.T, id order.ID) *drawerModel {
	t.Helper()
	store := stub.NewStore()
	store.SeedDemo()
	srv := httptest.NewServer(stub.NewServer(stub.SettingsFromEnv(), store).Handler())
	t.Cleanup(srv.Close)
	return newDrawer(api.New(srv.URL), nil, id)
}

// load runs the four-way fetch and folds the result into the drawer.
func load(t *testing.T, d *drawerModel) {
	t.Helper()
	msg, ok := d.loadCmd()().(drawerLoadedMsg)
	if !ok {
		t.Fatalf("loadCmd produced the wrong message type")
	}
	if msg.err != nil {
		t.Fatalf("load: %v", msg.err)
	}
	d.Update(msg)
	if !d.loaded {
		t.Fatalf("drawer did not mark itself loaded")
	}
}

func typeRunes(d *drawerModel, s string) {
	for _, r := range s {
		d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestDrawerLoadsAllSections(t *testing.T) {
	d := newTestDrawer(t, "104") // paid, reordered from 107
	load(t, d)
	if d.detail.Status != order.StatusPaid {
		t.Fatalf("detail status = %s", d.detail.Status)
	}
	if d.relation.SourceOrderID == nil || *d.relation.SourceOrderID != "107" {
		t.Fatalf("relation = %+v", d.relation)
	}
	if d.editable() {
		t.Fatalf("non-draft order must not expose the address form")
	}
	view := d.View()
	if !strings.Contains(view, "reordered from #107") {
		t.Fatalf("view missing relation line:\n%s", view)
	}
}

func TestDrawerStaleLoadIgnored(t *testing.T) {
	d := newTestDrawer(t, "101")
	d.Update(drawerLoadedMsg{id: "999", detail: order.Detail{Status: order.StatusPaid}})
	if d.loaded {
		t.Fatalf("a load for another order must be dropped")
	}
}

func TestDrawerCEPMaskPerKeystroke(t *testing.T) {
	d := newTestDrawer(t, "101") // draft, no address
	load(t, d)
	if !d.editable() {
		t.Fatalf("draft must be editable")
	}
	d.setFocus(fieldCEP)
	typeRunes(d, "130150001234")
	if got := d.inputs[fieldCEP].Value(); got != "13015-000" {
		t.Fatalf("cep mask produced %q", got)
	}
	d.setFocus(fieldState)
	typeRunes(d, "sp")
	if got := d.inputs[fieldState].Value(); got != "SP" {
		t.Fatalf("state not upper-cased: %q", got)
	}
}

func TestDrawerValidationGatesActions(t *testing.T) {
	d := newTestDrawer(t, "101")
	load(t, d)

	// Empty form: both actions are disabled.
	if cmd := d.saveAddressCmd(); cmd != nil {
		t.Fatalf("save must be disabled while the form is invalid")
	}
	if cmd := d.confirmCmd(); cmd != nil {
		t.Fatalf("confirm must be disabled while the form is invalid")
	}

	fill := map[int]string{
		fieldStreet: "Rua Verde",
		fieldNumber: "77",
		fieldCity:   "Campinas",
		fieldState:  "sp",
		fieldCEP:    "13001000",
	}
	for field, text := range fill {
		d.setFocus(field)
		typeRunes(d, text)
	}
	if len(d.addrErrors) != 0 {
		t.Fatalf("form still invalid: %v", d.addrErrors)
	}

	// Save, then confirm; the server moves the order out of draft.
	cmd := d.saveAddressCmd()
	if cmd == nil {
		t.Fatalf("save disabled on a valid form")
	}
	saved, ok := cmd().(drawerActionMsg)
	if !ok || saved.err != nil {
		t.Fatalf("save failed: %+v", saved)
	}
	d.Update(saved)

	cmd = d.confirmCmd()
	if cmd == nil {
		t.Fatalf("confirm disabled on a valid form")
	}
	confirmed, ok := cmd().(drawerActionMsg)
	if !ok || confirmed.err != nil {
		t.Fatalf("confirm failed: %+v", confirmed)
	}
	d.Update(confirmed)
	if d.detail.Status != order.StatusPendingPayment {
		t.Fatalf("confirm landed on %s", d.detail.Status)
	}
	if d.editable() {
		t.Fatalf("confirmed order must not stay editable")
	}
}

func TestDrawerServerRejectionShownVerbatim(t *testing.T) {
	d := newTestDrawer(t, "101")
	load(t, d)

	// Bypass the local validator to prove the server detail surfaces as-is.
	d.addrErrors = nil
	cmd := d.confirmCmd()
	if cmd == nil {
		t.Fatalf("confirm produced no command")
	}
	msg, ok := cmd().(drawerActionMsg)
	if !ok || msg.err == nil {
		t.Fatalf("expected a rejection, got %+v", msg)
	}
	d.Update(msg)
	if d.errMsg != "address_required" {
		t.Fatalf("errMsg = %q", d.errMsg)
	}
	if d.detail.Status != order.StatusDraft {
		t.Fatalf("rejected confirm changed local status to %s", d.detail.Status)
	}
}
