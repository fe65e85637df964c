package effects

import (
	"context"
	"errors"
	"time"

	"github.com/fairyhunter13/vending-machine-simulator/internal/machine"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

// Sink delivers a completion event back into the serialized event stream.
type Sink func(model.Event)

// Runner launches effect requests against the collaborators and converts
// their outcomes into completion events. Every effect runs under a bounded
// wait; a collaborator that never answers is reported as a failure rather
// than leaving the machine stuck.
type Runner struct {
	Gateway CardGateway
	Disp    Dispenser
	Refunds RefundUnit
	Timeout time.Duration
	Deliver Sink
}

// Launch runs one effect asynchronously. The epoch of the transition that
// produced the effect is stamped on the completion event so the dispatcher
// can discard it if the state has since been exited.
func (r *Runner) Launch(eff machine.Effect, epoch uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
		defer cancel()
		switch eff.Type {
		case machine.EffectAuthorizePayment:
			err := r.Gateway.Authorize(ctx, eff.Amount)
			if err != nil {
				r.Deliver(model.Event{Type: model.EventPaymentFailure, Message: failureMessage(err, "authorization timed out"), Epoch: epoch})
				return
			}
			r.Deliver(model.Event{Type: model.EventPaymentSuccess, Epoch: epoch})
		case machine.EffectDispense:
			err := r.Disp.Dispense(ctx, eff.ProductID)
			if err != nil {
				r.Deliver(model.Event{Type: model.EventDispenseFailure, Message: failureMessage(err, "dispense timed out"), Epoch: epoch})
				return
			}
			r.Deliver(model.Event{Type: model.EventDispenseSuccess, Epoch: epoch})
		case machine.EffectIssueRefund:
			if err := r.Refunds.Issue(ctx, eff.Breakdown); err != nil {
				// The payout was already validated and committed against
				// the reserve; the completion still has to land.
				obs.Logger.Error("refund_unit_error", "error", err)
			}
			r.Deliver(model.Event{Type: model.EventRefundComplete, Epoch: epoch})
		}
	}()
}

func failureMessage(err error, onTimeout string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return onTimeout
	}
	return err.Error()
}
