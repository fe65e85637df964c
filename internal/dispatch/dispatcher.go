// Package dispatch serializes all machine input into a single
// run-to-completion event stream and launches the effects each committed
// transition requests.
package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/vending-machine-simulator/internal/config"
	"github.com/fairyhunter13/vending-machine-simulator/internal/journal"
	"github.com/fairyhunter13/vending-machine-simulator/internal/machine"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

// Launcher starts an effect request. epoch identifies the transition that
// produced it; completion events must carry it back.
type Launcher interface {
	Launch(eff machine.Effect, epoch uint64)
}

// Dispatcher owns the event stream of one machine. Exactly one worker
// applies events, so guard evaluation, action application and the state
// commit are atomic with respect to each other by construction.
type Dispatcher struct {
	cfg      config.Config
	q        *Queue
	m        *machine.Machine
	launcher Launcher
	jr       journal.Journal
	seq      Sequencer

	ctx    context.Context
	cancel context.CancelFunc

	accepted atomic.Uint64
	rejected atomic.Uint64
	stale    atomic.Uint64
}

// New constructs a Dispatcher. launcher may be nil (effects are then
// dropped, useful in tests); jr may be nil for no journaling.
func New(cfg config.Config, q *Queue, m *machine.Machine, launcher Launcher, jr journal.Journal) *Dispatcher {
	if jr == nil {
		jr = journal.Nop{}
	}
	return &Dispatcher{cfg: cfg, q: q, m: m, launcher: launcher, jr: jr}
}

// Start begins the broker and the single worker.
func (d *Dispatcher) Start(parent context.Context) {
	d.ctx, d.cancel = context.WithCancel(parent)
	d.q.Start(d.ctx, d.cfg.QueueHighWatermark)
	go d.worker()
}

// Stop cancels the worker and broker.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

// Enqueue stamps a sequence number on the event and queues it. It returns
// the assigned sequence and whether intake accepted it.
func (d *Dispatcher) Enqueue(ev model.Event) (uint64, bool) {
	ev.Sequence = d.seq.Next()
	ok := d.q.Enqueue(ev)
	return ev.Sequence, ok
}

// worker is the only goroutine that touches the machine.
func (d *Dispatcher) worker() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev := <-d.q.Out():
			d.process(ev)
			d.q.MarkProcessed()
		}
	}
}

// process applies one event. Completions tagged with an epoch the machine
// has moved past belong to an effect whose state was already exited; they
// are discarded here, never reinterpreted by the machine.
func (d *Dispatcher) process(ev model.Event) {
	if ev.Epoch != 0 && ev.Epoch != d.m.Epoch() {
		d.stale.Add(1)
		obs.Logger.Info("stale_completion_discarded",
			"event", string(ev.Type), "effect_epoch", ev.Epoch, "machine_epoch", d.m.Epoch())
		return
	}
	before := d.m.Snapshot().State
	snap, effects, accepted := d.m.Dispatch(ev)
	if !accepted {
		d.rejected.Add(1)
		obs.Logger.Info("guard_rejected", "event", string(ev.Type), "state", string(snap.State), "sequence", ev.Sequence)
		return
	}
	d.accepted.Add(1)
	obs.Logger.Info("transition",
		"event", string(ev.Type),
		"from", string(before),
		"to", string(snap.State),
		"balance", snap.Balance,
		"sequence", ev.Sequence,
		"epoch", snap.Epoch,
	)
	jctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	d.jr.Publish(jctx, journal.Record{
		Sequence: ev.Sequence,
		Event:    ev.Type,
		From:     before,
		To:       snap.State,
		Balance:  snap.Balance,
		Epoch:    snap.Epoch,
	})
	cancel()
	if d.launcher != nil {
		for _, eff := range effects {
			d.launcher.Launch(eff, snap.Epoch)
		}
	}
}

// Snapshot returns the machine's current observable state.
func (d *Dispatcher) Snapshot() model.Snapshot { return d.m.Snapshot() }

// BacklogSize returns pending items in the queue.
func (d *Dispatcher) BacklogSize() int { return d.q.BacklogSize() }

// QueueDepth returns backlog plus buffered output items.
func (d *Dispatcher) QueueDepth() int { return d.q.Depth() }

// Metrics returns intake, outcome and staleness counters.
func (d *Dispatcher) Metrics() (enq, proc, accepted, rejected, stale uint64) {
	enq, proc = d.q.Counters()
	return enq, proc, d.accepted.Load(), d.rejected.Load(), d.stale.Load()
}

// IsShuttingDown reports whether new enqueues are rejected.
func (d *Dispatcher) IsShuttingDown() bool { return d.q.IsShuttingDown() }

// CloseIntake disallows future enqueues.
func (d *Dispatcher) CloseIntake() { d.q.CloseIntake() }

// DrainUntil blocks until the queue is fully drained or context is done.
func (d *Dispatcher) DrainUntil(ctx context.Context) bool {
	for {
		enq, proc := d.q.Counters()
		if d.q.BacklogSize() == 0 && d.q.Depth() == 0 && enq == proc {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}
}
