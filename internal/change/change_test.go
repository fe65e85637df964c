package change

import (
	"testing"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

func testReserve() model.Reserve {
	return model.Reserve{
		model.Denom10:    10,
		model.Denom50:    10,
		model.Denom100:   20,
		model.Denom500:   20,
		model.Denom1000:  10,
		model.Denom5000:  5,
		model.Denom10000: 3,
		model.Denom50000: 0,
	}
}

func TestMakeChangeBreakdownSumsToAmount(t *testing.T) {
	r := testReserve()
	for _, amount := range []int64{0, 10, 60, 400, 1100, 3660, 12340} {
		res := MakeChange(amount, r)
		if !res.Success {
			t.Fatalf("amount %d: expected success, remaining %d", amount, res.Remaining)
		}
		if got := res.Breakdown.Total(); got != amount {
			t.Fatalf("amount %d: breakdown sums to %d", amount, got)
		}
	}
}

func TestMakeChangeDoesNotMutateReserve(t *testing.T) {
	r := testReserve()
	want := TotalValue(r)
	_ = MakeChange(3660, r)
	_ = MakeChange(999999, r)
	if got := TotalValue(r); got != want {
		t.Fatalf("reserve mutated: total %d, want %d", got, want)
	}
}

func TestMakeChangeShortage(t *testing.T) {
	r := model.Reserve{model.Denom10: 3}
	res := MakeChange(40, r)
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Remaining != 10 {
		t.Fatalf("remaining = %d, want 10", res.Remaining)
	}
	if res.Breakdown != nil {
		t.Fatalf("breakdown should be nil on failure")
	}
	if r[model.Denom10] != 3 {
		t.Fatalf("reserve mutated on failure")
	}
}

func TestMakeChangeNegativeAmount(t *testing.T) {
	if res := MakeChange(-1, testReserve()); res.Success {
		t.Fatalf("negative amount must fail")
	}
}

func TestCanMakeChangeHeuristic(t *testing.T) {
	if !CanMakeChange(testReserve()) {
		t.Fatalf("expected true for seed reserve")
	}
	r := testReserve()
	r[model.Denom500] = 0
	if CanMakeChange(r) {
		t.Fatalf("expected false without 500s")
	}
	// Conservative by design: plenty of money, no small coins.
	rich := model.Reserve{model.Denom10000: 100}
	if CanMakeChange(rich) {
		t.Fatalf("expected false, heuristic needs 100/500/1000")
	}
}

func TestTotalValue(t *testing.T) {
	r := model.Reserve{model.Denom10: 2, model.Denom5000: 1}
	if got := TotalValue(r); got != 5020 {
		t.Fatalf("total = %d, want 5020", got)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	r := testReserve()
	before := TotalValue(r)
	res := MakeChange(1740, r)
	if !res.Success {
		t.Fatalf("expected success")
	}
	if err := Commit(r, res.Breakdown); err != nil {
		t.Fatalf("commit: %v", err)
	}
	for d, n := range r {
		if n < 0 {
			t.Fatalf("denomination %d went negative", d)
		}
	}
	if got := TotalValue(r); got != before-1740 {
		t.Fatalf("total after commit = %d, want %d", got, before-1740)
	}
}

func TestCommitUnderflow(t *testing.T) {
	r := model.Reserve{model.Denom100: 1}
	err := Commit(r, model.Breakdown{model.Denom100: 2})
	if err == nil {
		t.Fatalf("expected underflow error")
	}
	if r[model.Denom100] != 1 {
		t.Fatalf("reserve mutated on failed commit")
	}
}
