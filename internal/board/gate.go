package board

import (
	"context"
	"fmt"

	"github.com/rodri-oliveira/atendeja/internal/order"
)

// StatusSetter is the slice of the remote client the gate needs.
type StatusSetter interface {
	SetStatus(ctx context.Context, id order.ID, target order.Status) (order.Order, error)
}

// ConfirmFunc asks the user to approve an irreversible transition. Returning
// false aborts without any remote call. A nil func means "already approved"
// (the TUI runs its own prompt before calling the gate).
type ConfirmFunc func(id order.ID, target order.Status) bool

// Outcome says how the gate resolved a transition request.
type Outcome int

const (
	// OutcomeApplied means the remote mutation succeeded.
	OutcomeApplied Outcome = iota
	// OutcomeDrawer means the transition is gated: the drawer was selected
	// and no mutation was issued.
	OutcomeDrawer
	// OutcomeDeclined means the user rejected the confirmation prompt.
	OutcomeDeclined
	// OutcomeBusy means a mutation for this order is already in flight.
	OutcomeBusy
	// OutcomeFailed means the remote call was issued and failed.
	OutcomeFailed
)

// Gate routes transition requests: gated targets open the drawer, cancel
// demands confirmation, everything else goes straight to the remote client
// under the busy-set discipline. The local status is never changed
// optimistically; the server's next list response is the only authority.
type Gate struct {
	client  StatusSetter
	model   *Model
	sched   *Scheduler
	confirm ConfirmFunc
	gated   order.Status
}

// NewGate wires a gate over the shared model and scheduler.
func NewGate(client StatusSetter, model *Model, sched *Scheduler, confirm ConfirmFunc) *Gate {
	return &Gate{
		client:  client,
		model:   model,
		sched:   sched,
		confirm: confirm,
		gated:   order.StatusPendingPayment,
	}
}

// RequestTransition carries out one user-requested status change.
//
// The gated target never reaches the client from here: confirming a draft
// requires a server-validated address, so the user gets the drawer to fill
// it in instead of a blind failure. Cancel asks first because it cannot be
// undone. Everything else marks the order busy, issues the mutation, and
// clears busy on every path.
func (g *Gate) RequestTransition(ctx context.Context, id order.ID, current, target order.Status) (Outcome, error) {
	if current.Terminal() {
		return OutcomeFailed, fmt.Errorf("board: no transitions from %s", current)
	}
	if !target.Valid() {
		return OutcomeFailed, fmt.Errorf("board: unknown target status %q", target)
	}
	if target == g.gated {
		g.sched.Select(id)
		return OutcomeDrawer, nil
	}
	if target == order.StatusCanceled && g.confirm != nil && !g.confirm(id, target) {
		return OutcomeDeclined, nil
	}
	if !g.model.MarkBusy(id) {
		return OutcomeBusy, nil
	}
	defer g.model.ClearBusy(id)
	if _, err := g.client.SetStatus(ctx, id, target); err != nil {
		return OutcomeFailed, err
	}
	// Give the follow-up refetch room before the next periodic tick.
	g.sched.PauseFor(QuietWindow)
	return OutcomeApplied, nil
}
