// Package effects holds the external collaborators the machine requests
// work from: card authorization, product dispense, and refund payout. The
// implementations here are in-process simulations with configurable
// latency and failure injection.
package effects

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// CardGateway authorizes a card payment for the given amount.
type CardGateway interface {
	Authorize(ctx context.Context, amount int64) error
}

// Dispenser physically releases one unit of a product.
type Dispenser interface {
	Dispense(ctx context.Context, productID string) error
}

// RefundUnit physically pays out a denomination breakdown.
type RefundUnit interface {
	Issue(ctx context.Context, breakdown model.Breakdown) error
}

// ErrDeclined is returned by the simulated gateway on a declined card.
var ErrDeclined = errors.New("card authorization declined")

// SimulatedGateway approves or declines after a fixed latency. DeclineRate
// is a percentage (0..100).
type SimulatedGateway struct {
	Latency     time.Duration
	DeclineRate int
}

func (g *SimulatedGateway) Authorize(ctx context.Context, amount int64) error {
	if err := wait(ctx, g.Latency); err != nil {
		return err
	}
	if rand.IntN(100) < g.DeclineRate {
		return ErrDeclined
	}
	return nil
}

// SimulatedDispenser releases a product after a fixed latency. Fail, when
// set, injects a failure for matching product IDs.
type SimulatedDispenser struct {
	Latency time.Duration
	Fail    func(productID string) error
}

func (d *SimulatedDispenser) Dispense(ctx context.Context, productID string) error {
	if err := wait(ctx, d.Latency); err != nil {
		return err
	}
	if d.Fail != nil {
		return d.Fail(productID)
	}
	return nil
}

// SimulatedRefundUnit pays out after a fixed latency. Payout of an
// already-validated breakdown cannot fail.
type SimulatedRefundUnit struct {
	Latency time.Duration
}

func (r *SimulatedRefundUnit) Issue(ctx context.Context, breakdown model.Breakdown) error {
	return wait(ctx, r.Latency)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
