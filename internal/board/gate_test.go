package board

import (
	"context"
	"testing"

	"github.com/rodri-oliveira/atendeja/internal/api"
	"github.com/rodri-oliveira/atendeja/internal/order"
)

type setStatusCall struct {
	id     order.ID
	target order.Status
}

type fakeClient struct {
	calls    []setStatusCall
	err      error
	busyWhen func(id order.ID) bool // probe the model mid-call
}

func (f *fakeClient) SetStatus(_ context.Context, id order.ID, target order.Status) (order.Order, error) {
	f.calls = append(f.calls, setStatusCall{id: id, target: target})
	if f.busyWhen != nil && !f.busyWhen(id) {
		return order.Order{}, &api.Error{Op: "set status", StatusCode: 500, Detail: "busy flag missing during call"}
	}
	if f.err != nil {
		return order.Order{}, f.err
	}
	return order.Order{ID: id, Status: target}, nil
}

func newGateFixture(confirm ConfirmFunc) (*Gate, *fakeClient, *Model, *Scheduler) {
	client := &fakeClient{}
	model := New(testColumns(), 50)
	sched, _ := newTestScheduler()
	gate := NewGate(client, model, sched, confirm)
	client.busyWhen = model.Busy
	return gate, client, model, sched
}

func TestDirectTransition(t *testing.T) {
	gate, client, model, _ := newGateFixture(nil)
	if model.Busy("1") {
		t.Fatalf("busy before the call")
	}
	outcome, err := gate.RequestTransition(context.Background(), "1", order.StatusPaid, order.StatusInKitchen)
	if err != nil || outcome != OutcomeApplied {
		t.Fatalf("outcome = %v, err = %v", outcome, err)
	}
	if len(client.calls) != 1 || client.calls[0].target != order.StatusInKitchen {
		t.Fatalf("expected one mutation with target in_kitchen, got %+v", client.calls)
	}
	if model.Busy("1") {
		t.Fatalf("busy after completion")
	}
}

func TestDirectTransitionPausesScheduler(t *testing.T) {
	gate, _, _, sched := newGateFixture(nil)
	if _, err := gate.RequestTransition(context.Background(), "1", order.StatusPaid, order.StatusInKitchen); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if sched.ShouldPoll() {
		t.Fatalf("successful mutation must open a quiet window")
	}
}

func TestGatedTargetOpensDrawer(t *testing.T) {
	gate, client, model, sched := newGateFixture(nil)
	outcome, err := gate.RequestTransition(context.Background(), "1", order.StatusDraft, order.StatusPendingPayment)
	if err != nil || outcome != OutcomeDrawer {
		t.Fatalf("outcome = %v, err = %v", outcome, err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("gated transition must not issue a direct mutation")
	}
	if sched.Selected() != "1" {
		t.Fatalf("drawer must be selected for the order")
	}
	if model.Busy("1") {
		t.Fatalf("gated routing must not mark busy")
	}
}

func TestCancelRequiresConfirmation(t *testing.T) {
	declined := false
	gate, client, _, _ := newGateFixture(func(order.ID, order.Status) bool {
		declined = true
		return false
	})
	outcome, err := gate.RequestTransition(context.Background(), "1", order.StatusPaid, order.StatusCanceled)
	if err != nil || outcome != OutcomeDeclined {
		t.Fatalf("outcome = %v, err = %v", outcome, err)
	}
	if !declined {
		t.Fatalf("confirmation prompt must run before the mutation")
	}
	if len(client.calls) != 0 {
		t.Fatalf("declining must issue no call")
	}
}

func TestCancelProceedsWhenConfirmed(t *testing.T) {
	gate, client, _, _ := newGateFixture(func(order.ID, order.Status) bool { return true })
	outcome, err := gate.RequestTransition(context.Background(), "1", order.StatusPaid, order.StatusCanceled)
	if err != nil || outcome != OutcomeApplied {
		t.Fatalf("outcome = %v, err = %v", outcome, err)
	}
	if len(client.calls) != 1 || client.calls[0].target != order.StatusCanceled {
		t.Fatalf("expected cancel mutation, got %+v", client.calls)
	}
}

func TestFailureClearsBusyAndSurfacesDetail(t *testing.T) {
	gate, client, model, _ := newGateFixture(nil)
	client.err = &api.Error{Op: "set status", StatusCode: 400, Detail: "invalid_transition:paid->delivered"}
	outcome, err := gate.RequestTransition(context.Background(), "1", order.StatusPaid, order.StatusDelivered)
	if outcome != OutcomeFailed || err == nil {
		t.Fatalf("outcome = %v, err = %v", outcome, err)
	}
	if got := api.DisplayMessage(err); got != "invalid_transition:paid->delivered" {
		t.Fatalf("server detail must surface verbatim, got %q", got)
	}
	if model.Busy("1") {
		t.Fatalf("busy flag must clear on failure")
	}
}

func TestBusyOrderRejectsDuplicate(t *testing.T) {
	gate, client, model, _ := newGateFixture(nil)
	model.MarkBusy("1")
	outcome, err := gate.RequestTransition(context.Background(), "1", order.StatusPaid, order.StatusInKitchen)
	if err != nil || outcome != OutcomeBusy {
		t.Fatalf("outcome = %v, err = %v", outcome, err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("duplicate submission must not reach the client")
	}
	if !model.Busy("1") {
		t.Fatalf("pre-existing busy flag must survive")
	}
}

func TestTerminalCurrentStatusRejected(t *testing.T) {
	gate, client, _, _ := newGateFixture(nil)
	for _, current := range []order.Status{order.StatusDelivered, order.StatusCanceled} {
		outcome, err := gate.RequestTransition(context.Background(), "1", current, order.StatusPaid)
		if outcome != OutcomeFailed || err == nil {
			t.Fatalf("terminal %s must reject, got %v %v", current, outcome, err)
		}
	}
	if len(client.calls) != 0 {
		t.Fatalf("terminal source must never reach the client")
	}
}

func TestBusyFlagHeldDuringCall(t *testing.T) {
	gate, _, _, _ := newGateFixture(nil)
	outcome, err := gate.RequestTransition(context.Background(), "1", order.StatusPaid, order.StatusInKitchen)
	if err != nil || outcome != OutcomeApplied {
		// busyWhen inside fakeClient fails the call if the flag was not set
		t.Fatalf("busy flag must be set while the mutation runs: %v %v", outcome, err)
	}
}
