package machine

import (
	"sync"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// Input is the construction data for one physical unit: catalog snapshot,
// denomination reserve, and whether cash is currently offerable.
type Input struct {
	Products        []model.Product
	Reserve         model.Reserve
	ChangeAvailable bool
}

// Machine owns the live (state, context) of one vending unit. Exactly one
// dispatcher goroutine applies events; the read lock only serves snapshot
// readers on the HTTP side.
type Machine struct {
	mu    sync.RWMutex
	state model.State
	ctx   Context
	epoch uint64
}

// New constructs a machine in Idle with its own copies of the input data.
func New(in Input) *Machine {
	ctx := Context{
		Products:        append([]model.Product(nil), in.Products...),
		Reserve:         in.Reserve.Clone(),
		ChangeAvailable: in.ChangeAvailable,
	}
	if ctx.Reserve == nil {
		ctx.Reserve = make(model.Reserve)
	}
	return &Machine{state: model.StateIdle, ctx: ctx}
}

// Dispatch applies one event. On acceptance the commit bumps the epoch and
// the returned effects are tagged with it by the caller; on rejection
// state, context and epoch are all untouched.
func (m *Machine) Dispatch(ev model.Event) (model.Snapshot, []Effect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ctx, effects, accepted := Transition(m.state, m.ctx, ev)
	if accepted {
		m.state = st
		m.ctx = ctx
		m.epoch++
	}
	return m.snapshotLocked(), effects, accepted
}

// Snapshot returns the current observable state.
func (m *Machine) Snapshot() model.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Epoch returns the number of committed transitions so far.
func (m *Machine) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

func (m *Machine) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{
		State:           m.state,
		Balance:         m.ctx.Balance,
		PaymentMethod:   m.ctx.PaymentMethod,
		Products:        append([]model.Product(nil), m.ctx.Products...),
		Reserve:         m.ctx.Reserve.Clone(),
		ChangeAvailable: m.ctx.ChangeAvailable,
		ErrorMessage:    m.ctx.ErrorMessage,
		Epoch:           m.epoch,
	}
	if p := m.ctx.Selected(); p != nil {
		cp := *p
		snap.SelectedProduct = &cp
	}
	return snap
}
