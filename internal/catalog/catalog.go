// Package catalog is the inventory-management collaborator: the master
// product list and denomination reserve a unit is provisioned from.
package catalog

import (
	"sync"

	"github.com/fairyhunter13/vending-machine-simulator/internal/change"
	"github.com/fairyhunter13/vending-machine-simulator/internal/machine"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// Catalog holds the provisioning data behind a lock. The machine works on
// its own copy after construction; the catalog keeps serving admin reads
// and replenishment writes.
type Catalog struct {
	mu       sync.RWMutex
	products []model.Product
	reserve  model.Reserve
}

// New creates a catalog from initial products and reserve counts.
func New(products []model.Product, reserve model.Reserve) *Catalog {
	c := &Catalog{
		products: append([]model.Product(nil), products...),
		reserve:  reserve.Clone(),
	}
	if c.reserve == nil {
		c.reserve = make(model.Reserve)
	}
	return c
}

// Seed returns the catalog the original unit ships with: three slots, one
// deliberately sold out, and a reserve that can make change.
func Seed() *Catalog {
	return New(
		[]model.Product{
			{ID: "cola", Name: "Cola", Price: 1100, Stock: 10},
			{ID: "water", Name: "Water", Price: 600, Stock: 5},
			{ID: "coffee", Name: "Coffee", Price: 700, Stock: 0},
		},
		model.Reserve{
			model.Denom10:    10,
			model.Denom50:    10,
			model.Denom100:   20,
			model.Denom500:   20,
			model.Denom1000:  10,
			model.Denom5000:  5,
			model.Denom10000: 3,
			model.Denom50000: 0,
		},
	)
}

// MachineInput builds the construction input for a unit, deriving the
// initial change availability from the feasibility heuristic.
func (c *Catalog) MachineInput() machine.Input {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return machine.Input{
		Products:        append([]model.Product(nil), c.products...),
		Reserve:         c.reserve.Clone(),
		ChangeAvailable: change.CanMakeChange(c.reserve),
	}
}

// Products returns a copy of the master product list.
func (c *Catalog) Products() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Product(nil), c.products...)
}

// Reserve returns a copy of the master reserve counts.
func (c *Catalog) Reserve() model.Reserve {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reserve.Clone()
}

// Restock adds units to a known product and reports whether it exists.
// Deltas below one are rejected; counts never go negative.
func (c *Catalog) Restock(id string, delta int64) bool {
	if delta <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].ID == id {
			c.products[i].Stock += delta
			return true
		}
	}
	return false
}

// TopupReserve adds denomination counts to the master reserve. Unknown or
// negative entries are ignored.
func (c *Catalog) TopupReserve(topup model.Breakdown) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for d, n := range topup {
		if n > 0 && model.IsDenomination(int64(d)) {
			c.reserve[d] += n
		}
	}
}
