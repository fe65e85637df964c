package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fairyhunter13/vending-machine-simulator/internal/catalog"
	"github.com/fairyhunter13/vending-machine-simulator/internal/config"
	"github.com/fairyhunter13/vending-machine-simulator/internal/machine"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

type recordingLauncher struct {
	mu      sync.Mutex
	effects []machine.Effect
	epochs  []uint64
}

func (r *recordingLauncher) Launch(eff machine.Effect, epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, eff)
	r.epochs = append(r.epochs, epoch)
}

func (r *recordingLauncher) snapshot() ([]machine.Effect, []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]machine.Effect(nil), r.effects...), append([]uint64(nil), r.epochs...)
}

func newTestDispatcher(t *testing.T, launcher Launcher) *Dispatcher {
	t.Helper()
	obs.InitLogger()
	m := machine.New(catalog.Seed().MachineInput())
	d := New(config.Load(), NewQueue(16), m, launcher, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	d.Start(ctx)
	return d
}

func drain(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !d.DrainUntil(ctx) {
		t.Fatalf("drain timed out")
	}
}

func TestDispatcherAppliesEventsInOrder(t *testing.T) {
	d := newTestDispatcher(t, nil)
	for _, ev := range []model.Event{
		{Type: model.EventInsertCash, Amount: 1000},
		{Type: model.EventInsertCash, Amount: 500},
		{Type: model.EventSelectProduct, ProductID: "water"},
	} {
		if _, ok := d.Enqueue(ev); !ok {
			t.Fatalf("enqueue rejected")
		}
	}
	drain(t, d)
	snap := d.Snapshot()
	if snap.State != model.StateDispensing {
		t.Fatalf("state=%s", snap.State)
	}
	if snap.Balance != 900 { // 1500 held, water costs 600
		t.Fatalf("balance=%d", snap.Balance)
	}
}

func TestGuardRejectionCounted(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, _ = d.Enqueue(model.Event{Type: model.EventDispenseSuccess})
	drain(t, d)
	if _, _, _, rejected, _ := d.Metrics(); rejected != 1 {
		t.Fatalf("rejected=%d, want 1", rejected)
	}
	if snap := d.Snapshot(); snap.State != model.StateIdle {
		t.Fatalf("state=%s", snap.State)
	}
}

func TestEffectsCarryCommitEpoch(t *testing.T) {
	rec := &recordingLauncher{}
	d := newTestDispatcher(t, rec)
	_, _ = d.Enqueue(model.Event{Type: model.EventInsertCard})
	_, _ = d.Enqueue(model.Event{Type: model.EventSelectProduct, ProductID: "cola"})
	drain(t, d)
	effects, epochs := rec.snapshot()
	if len(effects) != 1 || effects[0].Type != machine.EffectAuthorizePayment {
		t.Fatalf("effects=%+v", effects)
	}
	if epochs[0] != d.Snapshot().Epoch {
		t.Fatalf("effect epoch=%d, machine epoch=%d", epochs[0], d.Snapshot().Epoch)
	}
}

func TestStaleCompletionDiscarded(t *testing.T) {
	rec := &recordingLauncher{}
	d := newTestDispatcher(t, rec)
	_, _ = d.Enqueue(model.Event{Type: model.EventInsertCard})
	_, _ = d.Enqueue(model.Event{Type: model.EventSelectProduct, ProductID: "cola"})
	drain(t, d)
	_, authEpochs := rec.snapshot()

	// The harness times the authorization out and fails the payment; the
	// machine moves on to Error before the real completion lands.
	_, _ = d.Enqueue(model.Event{Type: model.EventPaymentFailure, Message: "authorization timed out", Epoch: authEpochs[0]})
	drain(t, d)
	if snap := d.Snapshot(); snap.State != model.StateError {
		t.Fatalf("state=%s", snap.State)
	}

	// Now the slow gateway answers with the stale epoch.
	_, _ = d.Enqueue(model.Event{Type: model.EventPaymentSuccess, Epoch: authEpochs[0]})
	drain(t, d)
	snap := d.Snapshot()
	if snap.State != model.StateError {
		t.Fatalf("stale completion applied, state=%s", snap.State)
	}
	if _, _, _, _, stale := d.Metrics(); stale != 1 {
		t.Fatalf("stale=%d, want 1", stale)
	}
}

func TestCloseIntakeRejectsEnqueues(t *testing.T) {
	d := newTestDispatcher(t, nil)
	d.CloseIntake()
	if !d.IsShuttingDown() {
		t.Fatalf("expected shutting down")
	}
	if _, ok := d.Enqueue(model.Event{Type: model.EventInsertCard}); ok {
		t.Fatalf("enqueue accepted after intake closed")
	}
}

func TestQueueNonBlockingEnqueue(t *testing.T) {
	obs.InitLogger()
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx, 0)
	for i := 0; i < 1000; i++ {
		if ok := q.Enqueue(model.Event{Type: model.EventInsertCard}); !ok {
			t.Fatalf("enqueue failed at %d", i)
		}
	}
	if q.BacklogSize() == 0 {
		t.Fatalf("expected backlog > 0")
	}
}
