package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

const bootstrapReference = "opening-balance"

type Seeder interface {
	Entry(ctx context.Context, spec model.ProductSpec) (*model.StockEntry, error)
	IncrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error)
	SetLevels(ctx context.Context, levels model.StockLevels) (*model.StockEntry, error)
}

// OpeningBalance is one stocked spec with its reorder thresholds.
type OpeningBalance struct {
	Spec     model.ProductSpec
	Quantity decimal.Decimal
	MinLevel decimal.Decimal
	MaxLevel decimal.Decimal
}

// DefaultOpeningBalances is the demo catalogue loaded when bootstrapping is enabled.
func DefaultOpeningBalances() []OpeningBalance {
	n := decimal.NewFromInt
	return []OpeningBalance{
		{Spec: model.NewProductSpec("MS Round Tube", "25mm", "1.6mm"), Quantity: n(400), MinLevel: n(50), MaxLevel: n(1000)},
		{Spec: model.NewProductSpec("MS Round Tube", "32mm", "2.0mm"), Quantity: n(250), MinLevel: n(40), MaxLevel: n(800)},
		{Spec: model.NewProductSpec("MS Square Tube", "40x40", "2.0mm"), Quantity: n(180), MinLevel: n(30), MaxLevel: n(600)},
		{Spec: model.NewProductSpec("MS Rectangular Tube", "60x40", "2.5mm"), Quantity: n(120), MinLevel: n(20), MaxLevel: n(400)},
		{Spec: model.NewProductSpec("GI Round Pipe", "50mm", "3.2mm"), Quantity: n(90), MinLevel: n(15), MaxLevel: n(300)},
	}
}

// Bootstrap loads opening balances for specs the ledger does not know yet.
// Known specs are left untouched so restarts never add stock twice.
func Bootstrap(ctx context.Context, s Seeder, balances []OpeningBalance) error {
	const op = "stock.Bootstrap"

	var movements []model.StockMovement
	var levels []model.StockLevels
	for _, b := range balances {
		_, err := s.Entry(ctx, b.Spec)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrStockNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
		movements = append(movements, model.StockMovement{
			Spec:      b.Spec,
			Quantity:  b.Quantity,
			Reference: bootstrapReference,
			Remarks:   "opening balance",
		})
		levels = append(levels, model.StockLevels{Spec: b.Spec, MinLevel: b.MinLevel, MaxLevel: b.MaxLevel})
	}

	if len(movements) == 0 {
		return nil
	}

	if _, err := s.IncrementBatch(ctx, movements); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, l := range levels {
		if _, err := s.SetLevels(ctx, l); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	logger.Info(ctx, "stock opening balances loaded", logger.Int("specs", len(movements)))

	return nil
}
