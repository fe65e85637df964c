// Package change implements the change-making arithmetic over the fixed
// denomination reserve.
package change

import (
	"fmt"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// Result is the outcome of a MakeChange computation. On success Breakdown
// sums to the requested amount and Remaining is zero; on failure Breakdown
// is nil and Remaining holds the unpayable remainder.
type Result struct {
	Success   bool
	Breakdown model.Breakdown
	Remaining int64
}

// MakeChange computes a payout of amount from the reserve by greedy
// descending-denomination allocation. The reserve is never mutated; the
// caller commits the breakdown separately. Greedy allocation can fail even
// when a non-greedy combination exists; that is an accepted simplification,
// not a guaranteed-optimal maker.
func MakeChange(amount int64, reserve model.Reserve) Result {
	if amount < 0 {
		return Result{Remaining: amount}
	}
	remaining := amount
	available := reserve.Clone()
	out := make(model.Breakdown)
	for _, d := range model.Denominations {
		use := remaining / int64(d)
		if n := available[d]; use > n {
			use = n
		}
		if use > 0 {
			out[d] = use
			available[d] -= use
			remaining -= int64(d) * use
		}
	}
	if remaining > 0 {
		return Result{Remaining: remaining}
	}
	return Result{Success: true, Breakdown: out}
}

// CanMakeChange is the cheap feasibility heuristic gating cash acceptance:
// true iff the reserve holds at least one each of the 100, 500 and 1000
// denominations. It is deliberately approximate; a true result does not
// guarantee that every later MakeChange call succeeds.
func CanMakeChange(reserve model.Reserve) bool {
	return reserve[model.Denom100] > 0 && reserve[model.Denom500] > 0 && reserve[model.Denom1000] > 0
}

// TotalValue returns the total monetary value held in the reserve.
func TotalValue(reserve model.Reserve) int64 {
	var sum int64
	for d, n := range reserve {
		sum += int64(d) * n
	}
	return sum
}

// Commit subtracts a breakdown from the reserve in place. It fails without
// touching the reserve if any count would go negative.
func Commit(reserve model.Reserve, b model.Breakdown) error {
	for d, n := range b {
		if reserve[d] < n {
			return fmt.Errorf("reserve underflow: need %d of %d, have %d", n, d, reserve[d])
		}
	}
	for d, n := range b {
		reserve[d] -= n
	}
	return nil
}
