package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rodri-oliveira/atendeja/internal/api"
	"github.com/rodri-oliveira/atendeja/internal/logbook"
	"github.com/rodri-oliveira/atendeja/internal/order"
)

// Address form field order, top to bottom.
const (
	fieldStreet = iota
	fieldNumber
	fieldDistrict
	fieldCity
	fieldState
	fieldCEP
	fieldCount
)

var addrLabels = [fieldCount]string{"street", "number", "district", "city", "state", "cep"}

// drawerLoadedMsg carries the four detail fetches for one order. The id tags
// the message so a response for a drawer that was closed in the meantime is
// discarded instead of resurrecting stale state.
type drawerLoadedMsg struct {
	id       order.ID
	detail   order.Detail
	events   []order.Event
	relation order.Relation
	reorders []order.Order
	err      error
}

// drawerActionMsg reports a completed drawer mutation (save address, confirm).
type drawerActionMsg struct {
	id     order.ID
	detail order.Detail
	err    error
}

// drawerModel is the per-order detail panel: read-only history plus, for
// drafts, the delivery address form and the confirm action.
type drawerModel struct {
	client  *api.Client
	logbook *logbook.Logbook
	id      order.ID

	width  int
	height int

	loaded   bool
	detail   order.Detail
	events   []order.Event
	relation order.Relation
	reorders []order.Order

	errMsg string
	busy   bool

	inputs     [fieldCount]textinput.Model
	focus      int
	addrErrors map[string]string
}

func newDrawer(client *api.Client, lb *logbook.Logbook, id order.ID) *drawerModel {
	d := &drawerModel{client: client, logbook: lb, id: id}
	for i := range d.inputs {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%-9s ", addrLabels[i]+":")
		in.CharLimit = 80
		d.inputs[i] = in
	}
	d.inputs[fieldState].CharLimit = 2
	d.inputs[fieldCEP].CharLimit = 9
	d.inputs[fieldStreet].Focus()
	return d
}

func (d *drawerModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

// loadCmd fetches detail, events, relation, and reorders concurrently. The
// first error wins; partial data is never shown.
func (d *drawerModel) loadCmd() tea.Cmd {
	client := d.client
	id := d.id
	return func() tea.Msg {
		msg := drawerLoadedMsg{id: id}
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs []error
		)
		fail := func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
		wg.Add(4)
		go func() {
			defer wg.Done()
			detail, err := client.Get(context.Background(), id)
			if err != nil {
				fail(err)
				return
			}
			msg.detail = detail
		}()
		go func() {
			defer wg.Done()
			events, err := client.Events(context.Background(), id)
			if err != nil {
				fail(err)
				return
			}
			msg.events = events
		}()
		go func() {
			defer wg.Done()
			relation, err := client.Relation(context.Background(), id)
			if err != nil {
				fail(err)
				return
			}
			msg.relation = relation
		}()
		go func() {
			defer wg.Done()
			reorders, err := client.Reorders(context.Background(), id)
			if err != nil {
				fail(err)
				return
			}
			msg.reorders = reorders
		}()
		wg.Wait()
		if len(errs) > 0 {
			msg.err = errs[0]
		}
		return msg
	}
}

func (d *drawerModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {

	case drawerLoadedMsg:
		if msg.id != d.id {
			return nil
		}
		if msg.err != nil {
			d.errMsg = api.DisplayMessage(msg.err)
			d.logbook.Error("drawer load for %s failed: %v", d.id, msg.err)
			return nil
		}
		d.loaded = true
		d.errMsg = ""
		d.detail = msg.detail
		d.events = msg.events
		d.relation = msg.relation
		d.reorders = msg.reorders
		d.seedAddressForm()
		return nil

	case drawerActionMsg:
		if msg.id != d.id {
			return nil
		}
		d.busy = false
		if msg.err != nil {
			// The server's rejection detail is shown as-is; address_required
			// and friends are user-facing strings.
			d.errMsg = api.DisplayMessage(msg.err)
			d.logbook.Warn("drawer action for %s rejected: %v", d.id, msg.err)
			return nil
		}
		d.errMsg = ""
		d.detail = msg.detail
		d.seedAddressForm()
		// History changed too; refetch everything.
		return d.loadCmd()

	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	return nil
}

func (d *drawerModel) editable() bool {
	return d.loaded && d.detail.Status == order.StatusDraft
}

func (d *drawerModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+s":
		return d.saveAddressCmd()
	case "ctrl+y":
		return d.confirmCmd()
	case "tab", "down":
		if d.editable() {
			d.setFocus((d.focus + 1) % fieldCount)
		}
		return nil
	case "shift+tab", "up":
		if d.editable() {
			d.setFocus((d.focus + fieldCount - 1) % fieldCount)
		}
		return nil
	}

	if !d.editable() || d.busy {
		return nil
	}
	var cmd tea.Cmd
	d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
	d.normalizeInputs()
	d.addrErrors = order.ValidateAddress(d.formAddress())
	return cmd
}

func (d *drawerModel) setFocus(i int) {
	d.inputs[d.focus].Blur()
	d.focus = i
	d.inputs[d.focus].Focus()
}

// normalizeInputs applies the state and cep shaping rules on every
// keystroke, so the form never holds an unmasked value.
func (d *drawerModel) normalizeInputs() {
	state := d.inputs[fieldState].Value()
	if up := order.NormalizeState(state); up != state {
		d.inputs[fieldState].SetValue(up)
		d.inputs[fieldState].CursorEnd()
	}
	cep := d.inputs[fieldCEP].Value()
	if masked := order.FormatCEP(cep); masked != cep {
		d.inputs[fieldCEP].SetValue(masked)
		d.inputs[fieldCEP].CursorEnd()
	}
}

func (d *drawerModel) formAddress() order.Address {
	return order.Address{
		Street:   strings.TrimSpace(d.inputs[fieldStreet].Value()),
		Number:   strings.TrimSpace(d.inputs[fieldNumber].Value()),
		District: strings.TrimSpace(d.inputs[fieldDistrict].Value()),
		City:     strings.TrimSpace(d.inputs[fieldCity].Value()),
		State:    strings.TrimSpace(d.inputs[fieldState].Value()),
		CEP:      strings.TrimSpace(d.inputs[fieldCEP].Value()),
	}
}

func (d *drawerModel) seedAddressForm() {
	if d.detail.DeliveryAddress == nil {
		d.addrErrors = order.ValidateAddress(d.formAddress())
		return
	}
	addr := *d.detail.DeliveryAddress
	d.inputs[fieldStreet].SetValue(addr.Street)
	d.inputs[fieldNumber].SetValue(addr.Number)
	d.inputs[fieldDistrict].SetValue(addr.District)
	d.inputs[fieldCity].SetValue(addr.City)
	d.inputs[fieldState].SetValue(order.NormalizeState(addr.State))
	d.inputs[fieldCEP].SetValue(order.FormatCEP(addr.CEP))
	d.addrErrors = order.ValidateAddress(d.formAddress())
}

// saveAddressCmd persists the form. Disabled while a mutation is in flight
// or the form is invalid.
func (d *drawerModel) saveAddressCmd() tea.Cmd {
	if !d.editable() || d.busy || len(d.addrErrors) > 0 {
		return nil
	}
	d.busy = true
	d.errMsg = ""
	client := d.client
	id := d.id
	addr := d.formAddress()
	return func() tea.Msg {
		detail, err := client.SetAddress(context.Background(), id, addr)
		return drawerActionMsg{id: id, detail: detail, err: err}
	}
}

// confirmCmd requests the confirm operation. The server is still the
// authority: a rejection detail comes back verbatim via drawerActionMsg.
func (d *drawerModel) confirmCmd() tea.Cmd {
	if !d.editable() || d.busy || len(d.addrErrors) > 0 {
		return nil
	}
	d.busy = true
	d.errMsg = ""
	client := d.client
	id := d.id
	return func() tea.Msg {
		detail, err := client.Confirm(context.Background(), id)
		return drawerActionMsg{id: id, detail: detail, err: err}
	}
}

func (d *drawerModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("Order %s", d.id))
	if !d.loaded {
		body := "loading details..."
		if d.errMsg != "" {
			body = errStyle.Render("⚠ " + d.errMsg)
		}
		return title + "\n\n" + body + "\n\n" + hintStyle.Render("esc back")
	}

	sections := []string{title, d.renderSummary()}
	if d.errMsg != "" {
		sections = append(sections, errStyle.Render("⚠ "+d.errMsg))
	}
	sections = append(sections, d.renderItems(), d.renderHistory())
	if rel := d.renderRelations(); rel != "" {
		sections = append(sections, rel)
	}
	if d.editable() {
		sections = append(sections, d.renderAddressForm())
	} else if d.detail.DeliveryAddress != nil {
		sections = append(sections, d.renderAddressReadOnly())
	}
	sections = append(sections, d.renderHints())
	return strings.Join(sections, "\n\n")
}

func (d *drawerModel) renderSummary() string {
	line := fmt.Sprintf("%s · %d item(s) · items R$ %.2f · delivery R$ %.2f · total R$ %.2f",
		headerStyle.Render(d.detail.Status.DisplayName()),
		d.detail.TotalItems,
		d.detail.TotalAmount-d.detail.DeliveryFee,
		d.detail.DeliveryFee,
		d.detail.TotalAmount)
	if d.busy {
		line += busyStyle.Render("  ⏳ working...")
	}
	return line
}

func (d *drawerModel) renderItems() string {
	lines := []string{headerStyle.Render("ITEMS")}
	for _, item := range d.detail.Items {
		line := fmt.Sprintf("%dx item %d · R$ %.2f", item.Qty, item.MenuItemID, item.UnitPrice)
		if len(item.Options) > 0 {
			var opts []string
			for k, v := range item.Options {
				opts = append(opts, fmt.Sprintf("%s=%v", k, v))
			}
			sort.Strings(opts)
			line += hintStyle.Render("  (" + strings.Join(opts, ", ") + ")")
		}
		lines = append(lines, line)
	}
	if len(d.detail.Items) == 0 {
		lines = append(lines, hintStyle.Render("no items"))
	}
	return strings.Join(lines, "\n")
}

func (d *drawerModel) renderHistory() string {
	lines := []string{headerStyle.Render("HISTORY")}
	if len(d.events) == 0 {
		lines = append(lines, hintStyle.Render("no transitions yet"))
	}
	for _, e := range d.events {
		from := "·"
		if e.FromStatus != "" {
			from = string(e.FromStatus)
		}
		lines = append(lines, fmt.Sprintf("%s  %s -> %s",
			e.CreatedAt.Format("02/01 15:04"), from, e.ToStatus))
	}
	return strings.Join(lines, "\n")
}

func (d *drawerModel) renderRelations() string {
	var lines []string
	if d.relation.SourceOrderID != nil {
		lines = append(lines, fmt.Sprintf("reordered from #%s", *d.relation.SourceOrderID))
	}
	for _, o := range d.reorders {
		lines = append(lines, fmt.Sprintf("reordered as #%s (%s)", o.ID, o.Status.DisplayName()))
	}
	if len(lines) == 0 {
		return ""
	}
	return headerStyle.Render("RELATED") + "\n" + strings.Join(lines, "\n")
}

func (d *drawerModel) renderAddressForm() string {
	lines := []string{headerStyle.Render("DELIVERY ADDRESS")}
	for i := range d.inputs {
		line := d.inputs[i].View()
		if msg, bad := d.addrErrors[addrLabels[i]]; bad {
			line += "  " + errStyle.Render(msg)
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (d *drawerModel) renderAddressReadOnly() string {
	addr := d.detail.DeliveryAddress
	lines := []string{
		headerStyle.Render("DELIVERY ADDRESS"),
		fmt.Sprintf("%s, %s", addr.Street, addr.Number),
	}
	if addr.District != "" {
		lines = append(lines, addr.District)
	}
	lines = append(lines, fmt.Sprintf("%s - %s, %s", addr.City, addr.State, order.FormatCEP(addr.CEP)))
	return strings.Join(lines, "\n")
}

func (d *drawerModel) renderHints() string {
	hints := []string{"esc back"}
	if d.editable() {
		save := "ctrl+s save address"
		confirm := "ctrl+y confirm order"
		if len(d.addrErrors) > 0 {
			save += " (fix fields)"
			confirm += " (fix fields)"
		}
		hints = append(hints, "tab next field", save, confirm)
	}
	return hintStyle.Render(strings.Join(hints, " · "))
}
