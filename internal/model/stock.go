package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIn         TransactionType = "in"
	TransactionOut        TransactionType = "out"
	TransactionAdjustment TransactionType = "adjustment"
)

type StockTransaction struct {
	Spec        ProductSpec
	Type        TransactionType
	Quantity    decimal.Decimal
	OldQuantity decimal.Decimal
	NewQuantity decimal.Decimal
	Reference   string
	Remarks     string
	CreatedAt   time.Time
}

type StockEntry struct {
	Spec              ProductSpec
	AvailableQuantity decimal.Decimal
	MinLevel          decimal.Decimal
	MaxLevel          decimal.Decimal
	LastTransaction   *StockTransaction
	UpdatedAt         time.Time
}

// BelowMin reports whether the entry fell under its reorder threshold.
func (e *StockEntry) BelowMin() bool {
	return e.MinLevel.IsPositive() && e.AvailableQuantity.LessThan(e.MinLevel)
}

type StockMovement struct {
	Spec      ProductSpec
	Quantity  decimal.Decimal
	Reference string
	Remarks   string
}

type StockChange struct {
	Spec        ProductSpec
	OldQuantity decimal.Decimal
	NewQuantity decimal.Decimal
}

type StockLevels struct {
	Spec     ProductSpec
	MinLevel decimal.Decimal
	MaxLevel decimal.Decimal
}

// MergeMovements rounds quantities, sums movements per spec and returns them
// in spec key order. Batch operations lock specs in this order.
func MergeMovements(ms []StockMovement) []StockMovement {
	idx := make(map[string]int, len(ms))
	out := make([]StockMovement, 0, len(ms))
	for _, m := range ms {
		m.Spec = m.Spec.Normalize()
		m.Quantity = Round(m.Quantity)
		if i, ok := idx[m.Spec.Key()]; ok {
			out[i].Quantity = out[i].Quantity.Add(m.Quantity)
			continue
		}
		idx[m.Spec.Key()] = len(out)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Spec.Key() < out[j].Spec.Key()
	})
	return out
}
