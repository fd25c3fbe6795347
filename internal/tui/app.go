// internal/tui/app.go
//
// The terminal kanban for the order board. bubbletea drives it Elm-style:
// the App model holds all state, Update folds messages into it, View
// renders it. The poll loop is a tea.Tick whose ticks are vetoed by the
// board.Scheduler, so a fetch never races an open drawer or an in-flight
// user action.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rodri-oliveira/atendeja/internal/api"
	"github.com/rodri-oliveira/atendeja/internal/board"
	"github.com/rodri-oliveira/atendeja/internal/config"
	"github.com/rodri-oliveira/atendeja/internal/logbook"
	"github.com/rodri-oliveira/atendeja/internal/order"
)

const (
	minColumnWidth = 24
	logPanelLines  = 4
)

type tickMsg time.Time

type ordersMsg struct {
	seq  uint64
	rows []order.Order
	err  error
}

type transitionDoneMsg struct {
	id      order.ID
	target  order.Status
	outcome board.Outcome
	err     error
}

// cancelPrompt is the blocking yes/no modal shown before a cancel mutation.
type cancelPrompt struct {
	id      order.ID
	current order.Status
}

// App is the root bubbletea model.
type App struct {
	cfg     *config.Config
	client  *api.Client
	model   *board.Model
	sched   *board.Scheduler
	gate    *board.Gate
	logbook *logbook.Logbook

	width  int
	height int

	spin    spinner.Model
	search  textinput.Model
	loading bool
	errMsg  string
	status  string
	compact bool

	// all-statuses sentinel at index 0, then the lifecycle
	filterIdx int

	colIdx int
	rowIdx int

	prompt *cancelPrompt
	drawer *drawerModel
}

// NewApp wires the board core to the terminal frontend.
func NewApp(cfg *config.Config, client *api.Client, lb *logbook.Logbook) *App {
	model := board.New(cfg.Board.Columns, cfg.Board.DefaultLimit)
	sched := board.NewScheduler(board.WithInterval(cfg.PollInterval()))
	// The TUI runs its own cancel prompt before the gate is invoked, so the
	// gate itself gets no ConfirmFunc.
	gate := board.NewGate(client, model, sched, nil)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	search := textinput.New()
	search.Placeholder = "phone / id"
	search.Prompt = "search: "
	search.CharLimit = 40

	return &App{
		cfg:     cfg,
		client:  client,
		model:   model,
		sched:   sched,
		gate:    gate,
		logbook: lb,
		spin:    spin,
		search:  search,
		compact: cfg.UI.CompactDefault,
	}
}

// Init fetches the first snapshot and starts the poll timer.
func (a *App) Init() tea.Cmd {
	a.loading = true
	return tea.Batch(a.fetchCmd(), a.tickCmd(), a.spin.Tick)
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(a.sched.Interval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd snapshots the filters and sequence id at issue time; the
// response is dropped later if a newer fetch was issued meanwhile.
func (a *App) fetchCmd() tea.Cmd {
	seq := a.model.BeginFetch()
	query := a.model.Query()
	client := a.client
	return func() tea.Msg {
		rows, err := client.List(context.Background(), query)
		return ordersMsg{seq: seq, rows: rows, err: err}
	}
}

func (a *App) transitionCmd(id order.ID, current, target order.Status) tea.Cmd {
	gate := a.gate
	return func() tea.Msg {
		outcome, err := gate.RequestTransition(context.Background(), id, current, target)
		return transitionDoneMsg{id: id, target: target, outcome: outcome, err: err}
	}
}

// Update is the single-threaded heart of the board.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.drawer != nil {
			a.drawer.setSize(msg.Width, msg.Height)
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{a.tickCmd()}
		if a.sched.ShouldPoll() {
			a.loading = true
			cmds = append(cmds, a.fetchCmd())
		}
		return a, tea.Batch(cmds...)

	case ordersMsg:
		a.loading = false
		if msg.err != nil {
			a.errMsg = api.DisplayMessage(msg.err)
			a.logbook.Error("list fetch failed: %v", msg.err)
			return a, nil
		}
		a.errMsg = ""
		if a.model.ApplyFetch(msg.seq, msg.rows) {
			a.clampCursor()
		}
		return a, nil

	case transitionDoneMsg:
		return a.handleTransitionDone(msg)

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case drawerLoadedMsg, drawerActionMsg:
		if a.drawer == nil {
			// Drawer already closed; a late response must not touch state.
			return a, nil
		}
		return a, a.drawer.Update(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleTransitionDone(msg transitionDoneMsg) (tea.Model, tea.Cmd) {
	switch msg.outcome {
	case board.OutcomeApplied:
		a.status = fmt.Sprintf("order %s -> %s", msg.id, msg.target)
		a.logbook.Info("order %s moved to %s", msg.id, msg.target)
		a.loading = true
		return a, a.fetchCmd()
	case board.OutcomeDrawer:
		a.logbook.Info("order %s requires confirmation, opening drawer", msg.id)
		return a.openDrawer(msg.id)
	case board.OutcomeBusy:
		a.status = fmt.Sprintf("order %s already has a mutation in flight", msg.id)
		return a, nil
	case board.OutcomeDeclined:
		return a, nil
	default:
		a.errMsg = api.DisplayMessage(msg.err)
		a.logbook.Error("transition for %s failed: %v", msg.id, msg.err)
		return a, nil
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// Modal layers win over board keys, top-most first.
	if a.drawer != nil {
		if key == "esc" {
			return a.closeDrawer()
		}
		return a, a.drawer.Update(msg)
	}
	if a.prompt != nil {
		return a.handlePromptKey(key)
	}
	if a.search.Focused() {
		return a.handleSearchKey(msg)
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		a.status = "refreshing"
		a.sched.PauseFor(board.ResumeWindow)
		a.loading = true
		return a, a.fetchCmd()
	case "/":
		a.search.Focus()
		return a, textinput.Blink
	case "f":
		a.filterIdx = (a.filterIdx + 1) % (len(order.Statuses()) + 1)
		return a, a.applyFilters()
	case "x":
		a.filterIdx = 0
		a.search.SetValue("")
		a.model.ResetFilters(a.cfg.Board.DefaultLimit)
		a.sched.PauseFor(board.QuietWindow)
		a.loading = true
		return a, a.fetchCmd()
	case "v":
		a.compact = !a.compact
		return a, nil
	case "left", "h":
		a.moveCursor(-1, 0)
		return a, nil
	case "right", "l":
		a.moveCursor(1, 0)
		return a, nil
	case "up", "k":
		a.moveCursor(0, -1)
		return a, nil
	case "down", "j":
		a.moveCursor(0, 1)
		return a, nil
	case "enter":
		if o, ok := a.selectedOrder(); ok {
			return a.openDrawer(o.ID)
		}
		return a, nil
	}

	// Digits trigger the configured action of that index for the selected card.
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return a.triggerAction(int(key[0] - '1'))
	}
	return a, nil
}

func (a *App) handlePromptKey(key string) (tea.Model, tea.Cmd) {
	prompt := a.prompt
	switch key {
	case "y", "Y":
		a.prompt = nil
		a.status = fmt.Sprintf("canceling order %s", prompt.id)
		return a, a.transitionCmd(prompt.id, prompt.current, order.StatusCanceled)
	case "n", "N", "esc":
		a.prompt = nil
		a.status = "cancel aborted"
		return a, nil
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.search.Blur()
		return a, a.applyFilters()
	case "esc":
		a.search.Blur()
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	return a, cmd
}

// applyFilters pushes the current filter widgets into the view model and
// refetches immediately instead of waiting for the next tick.
func (a *App) applyFilters() tea.Cmd {
	filters := board.Filters{
		Search: strings.TrimSpace(a.search.Value()),
		Limit:  a.cfg.Board.DefaultLimit,
	}
	if a.filterIdx > 0 {
		filters.Status = order.Statuses()[a.filterIdx-1]
	}
	a.model.SetFilters(filters)
	a.sched.PauseFor(board.QuietWindow)
	a.loading = true
	return a.fetchCmd()
}

func (a *App) triggerAction(idx int) (tea.Model, tea.Cmd) {
	o, ok := a.selectedOrder()
	if !ok {
		return a, nil
	}
	if a.model.Busy(o.ID) {
		a.status = fmt.Sprintf("order %s is busy", o.ID)
		return a, nil
	}
	actions := a.cfg.ActionsFor(o.Status)
	if idx >= len(actions) {
		return a, nil
	}
	target := order.Status(actions[idx].Next)
	if target == order.StatusCanceled {
		a.prompt = &cancelPrompt{id: o.ID, current: o.Status}
		return a, nil
	}
	a.status = fmt.Sprintf("%s order %s", actions[idx].Label, o.ID)
	return a, a.transitionCmd(o.ID, o.Status, target)
}

func (a *App) openDrawer(id order.ID) (tea.Model, tea.Cmd) {
	a.sched.Select(id)
	a.drawer = newDrawer(a.client, a.logbook, id)
	a.drawer.setSize(a.width, a.height)
	return a, a.drawer.loadCmd()
}

// closeDrawer clears the selection, gives the poll a short breather, and
// refetches so the board reflects whatever happened while the panel was
// open.
func (a *App) closeDrawer() (tea.Model, tea.Cmd) {
	a.drawer = nil
	a.sched.Deselect()
	a.loading = true
	return a, a.fetchCmd()
}

func (a *App) selectedOrder() (order.Order, bool) {
	buckets := a.model.Buckets()
	if a.colIdx >= len(buckets) {
		return order.Order{}, false
	}
	rows := buckets[a.colIdx].Orders
	if a.rowIdx >= len(rows) {
		return order.Order{}, false
	}
	return rows[a.rowIdx], true
}

func (a *App) moveCursor(dc, dr int) {
	buckets := a.model.Buckets()
	if len(buckets) == 0 {
		return
	}
	a.colIdx = clamp(a.colIdx+dc, 0, len(buckets)-1)
	rows := len(buckets[a.colIdx].Orders)
	if rows == 0 {
		a.rowIdx = 0
		return
	}
	a.rowIdx = clamp(a.rowIdx+dr, 0, rows-1)
}

func (a *App) clampCursor() {
	a.moveCursor(0, 0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
