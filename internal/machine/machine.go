// Package machine implements the transaction state machine of a single
// vending unit: guarded transitions over an owned context, with external
// effects returned as values for the dispatcher to launch.
package machine

import (
	"fmt"

	"github.com/fairyhunter13/vending-machine-simulator/internal/change"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// Context is the machine's owned transaction state. It is mutated only by
// Transition; every other component sees copies.
type Context struct {
	Balance         int64
	PaymentMethod   model.PaymentMethod
	SelectedID      string
	Products        []model.Product
	Reserve         model.Reserve
	ChangeAvailable bool
	ErrorMessage    string
}

func (c Context) clone() Context {
	out := c
	out.Products = make([]model.Product, len(c.Products))
	copy(out.Products, c.Products)
	out.Reserve = c.Reserve.Clone()
	return out
}

// product returns a pointer into the working snapshot, or nil. Guards and
// actions always go through this lookup so stale copies carried in event
// payloads can never be exploited.
func (c *Context) product(id string) *model.Product {
	for i := range c.Products {
		if c.Products[i].ID == id {
			return &c.Products[i]
		}
	}
	return nil
}

// Selected resolves the selected product in the working snapshot.
func (c *Context) Selected() *model.Product {
	if c.SelectedID == "" {
		return nil
	}
	return c.product(c.SelectedID)
}

// EffectType names an outbound effect request.
type EffectType string

const (
	EffectAuthorizePayment EffectType = "authorize_payment"
	EffectDispense         EffectType = "dispense"
	EffectIssueRefund      EffectType = "issue_refund"
)

// Effect is a request to an external collaborator, produced by a committed
// transition. Completion arrives later as an event on the same stream.
type Effect struct {
	Type      EffectType
	Amount    int64
	ProductID string
	Breakdown model.Breakdown
}

// Transition applies one event to (state, context). It is pure: on a guard
// rejection the inputs are returned untouched and accepted is false; on
// acceptance a fresh context is returned together with any effect requests
// the new state initiates. Unknown (state, event) pairs are rejections.
func Transition(st model.State, ctx Context, ev model.Event) (model.State, Context, []Effect, bool) {
	switch st {
	case model.StateIdle:
		switch ev.Type {
		case model.EventInsertCash:
			if !ctx.ChangeAvailable {
				return st, ctx, nil, false
			}
			next := ctx.clone()
			next.insertCash(ev.Amount)
			return model.StateCashInserted, next, nil, true
		case model.EventInsertCard:
			next := ctx.clone()
			next.PaymentMethod = model.PaymentCard
			return model.StateCardInserted, next, nil, true
		case model.EventRefund:
			return beginRefund(ctx)
		case model.EventCheckChange:
			if ctx.ChangeAvailable {
				return st, ctx, nil, false
			}
			return model.StateChangeShortage, ctx.clone(), nil, true
		case model.EventRestock:
			return applyRestock(st, ctx, ev)
		}

	case model.StateCashInserted:
		switch ev.Type {
		case model.EventInsertCash:
			// Legal self-transition: the balance/reserve action runs again.
			next := ctx.clone()
			next.insertCash(ev.Amount)
			return st, next, nil, true
		case model.EventInsertCard:
			next := ctx.clone()
			next.PaymentMethod = model.PaymentCard
			return model.StateCardInserted, next, nil, true
		case model.EventSelectProduct:
			p := ctx.product(ev.ProductID)
			if p == nil || p.Stock <= 0 || ctx.Balance < p.Price {
				return st, ctx, nil, false
			}
			next := ctx.clone()
			next.SelectedID = ev.ProductID
			eff := next.enterDispensing()
			return model.StateDispensing, next, eff, true
		case model.EventRefund:
			return beginRefund(ctx)
		}

	case model.StateCardInserted:
		switch ev.Type {
		case model.EventSelectProduct:
			p := ctx.product(ev.ProductID)
			if p == nil || p.Stock <= 0 {
				return st, ctx, nil, false
			}
			next := ctx.clone()
			next.SelectedID = ev.ProductID
			eff := []Effect{{Type: EffectAuthorizePayment, Amount: p.Price, ProductID: p.ID}}
			return model.StateProcessingPayment, next, eff, true
		case model.EventEjectCard:
			next := ctx.clone()
			next.enterIdle()
			return model.StateIdle, next, nil, true
		case model.EventRefund:
			return beginRefund(ctx)
		}

	case model.StateProcessingPayment:
		switch ev.Type {
		case model.EventPaymentSuccess:
			next := ctx.clone()
			eff := next.enterDispensing()
			return model.StateDispensing, next, eff, true
		case model.EventPaymentFailure:
			next := ctx.clone()
			next.enterError(ev.Message)
			return model.StateError, next, nil, true
		}

	case model.StateDispensing:
		switch ev.Type {
		case model.EventDispenseSuccess:
			next := ctx.clone()
			next.enterIdle()
			return model.StateIdle, next, nil, true
		case model.EventDispenseFailure:
			// The unit never left the machine: undo the entry commit
			// before parking in Error.
			next := ctx.clone()
			if p := next.Selected(); p != nil {
				p.Stock++
				if next.PaymentMethod == model.PaymentCash {
					next.Balance += p.Price
				}
			}
			next.enterError(ev.Message)
			return model.StateError, next, nil, true
		}

	case model.StateRefunding:
		if ev.Type == model.EventRefundComplete {
			next := ctx.clone()
			next.enterIdle()
			return model.StateIdle, next, nil, true
		}

	case model.StateChangeShortage:
		switch ev.Type {
		case model.EventInsertCard:
			next := ctx.clone()
			next.PaymentMethod = model.PaymentCard
			return model.StateCardInserted, next, nil, true
		case model.EventChangeReplenished:
			next := ctx.clone()
			for d, n := range ev.Topup {
				next.Reserve[d] += n
			}
			next.ChangeAvailable = true
			next.enterIdle()
			return model.StateIdle, next, nil, true
		case model.EventRestock:
			return applyRestock(st, ctx, ev)
		}

	case model.StateError:
		if ev.Type == model.EventRefund {
			cleared := ctx.clone()
			cleared.ErrorMessage = ""
			return beginRefund(cleared)
		}
	}
	return st, ctx, nil, false
}

// insertCash adds the amount to the balance and, when it matches a legal
// denomination, banks one unit in the reserve. Non-matching amounts leave
// the reserve untouched; that asymmetry is a documented limitation.
func (c *Context) insertCash(amount int64) {
	c.Balance += amount
	if model.IsDenomination(amount) {
		c.Reserve[model.Denomination(amount)]++
	}
	c.PaymentMethod = model.PaymentCash
}

// enterIdle clears the per-transaction fields. A nonzero balance is
// carried over as held cash, so the payment method stays cash in that
// case and the money remains spendable.
func (c *Context) enterIdle() {
	c.SelectedID = ""
	c.ErrorMessage = ""
	if c.Balance > 0 {
		c.PaymentMethod = model.PaymentCash
	} else {
		c.PaymentMethod = model.PaymentNone
	}
}

func (c *Context) enterError(msg string) {
	if msg == "" {
		msg = "unknown error"
	}
	c.SelectedID = ""
	c.ErrorMessage = msg
}

// enterDispensing commits the purchase: one unit of stock, and for cash
// the price leaves the balance. Deducting here and nowhere earlier is what
// keeps PaymentFailure free of balance rollback.
func (c *Context) enterDispensing() []Effect {
	p := c.Selected()
	if p == nil {
		return nil
	}
	p.Stock--
	if c.PaymentMethod == model.PaymentCash {
		c.Balance -= p.Price
	}
	return []Effect{{Type: EffectDispense, ProductID: p.ID}}
}

// beginRefund converts the held balance into a denomination payout. When
// the reserve cannot cover it the transition lands in Error with the
// shortfall and neither reserve nor balance is touched.
func beginRefund(ctx Context) (model.State, Context, []Effect, bool) {
	res := change.MakeChange(ctx.Balance, ctx.Reserve)
	if !res.Success {
		next := ctx.clone()
		next.enterError(fmt.Sprintf("cannot make change: %d unpayable", res.Remaining))
		return model.StateError, next, nil, true
	}
	next := ctx.clone()
	if err := change.Commit(next.Reserve, res.Breakdown); err != nil {
		next.enterError(err.Error())
		return model.StateError, next, nil, true
	}
	next.Balance = 0
	next.SelectedID = ""
	next.ErrorMessage = ""
	eff := []Effect{{Type: EffectIssueRefund, Amount: res.Breakdown.Total(), Breakdown: res.Breakdown}}
	return model.StateRefunding, next, eff, true
}

// applyRestock records a stock delivery from the inventory collaborator.
// Only known products are touched; the machine never invents slots.
func applyRestock(st model.State, ctx Context, ev model.Event) (model.State, Context, []Effect, bool) {
	p := ctx.product(ev.ProductID)
	if p == nil || ev.Amount <= 0 {
		return st, ctx, nil, false
	}
	next := ctx.clone()
	next.product(ev.ProductID).Stock += ev.Amount
	return st, next, nil, true
}
