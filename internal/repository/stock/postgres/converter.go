package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

// Numerics travel as text; pgx sends Go strings in text format and postgres casts them.
func num(d decimal.Decimal) string {
	return d.StringFixed(model.QuantityPlaces)
}

type entryRow struct {
	ProductType string
	Size        string
	Thickness   string
	Available   string
	MinLevel    string
	MaxLevel    string
	UpdatedAt   time.Time

	TxType      *string
	TxQuantity  *string
	TxOld       *string
	TxNew       *string
	TxReference *string
	TxRemarks   *string
	TxCreatedAt *time.Time
}

func (r *entryRow) dest() []any {
	return []any{
		&r.ProductType, &r.Size, &r.Thickness, &r.Available, &r.MinLevel, &r.MaxLevel, &r.UpdatedAt,
		&r.TxType, &r.TxQuantity, &r.TxOld, &r.TxNew, &r.TxReference, &r.TxRemarks, &r.TxCreatedAt,
	}
}

func (r *entryRow) toModel() (*model.StockEntry, error) {
	spec := model.NewProductSpec(r.ProductType, r.Size, r.Thickness)

	nums, err := parseAll(r.Available, r.MinLevel, r.MaxLevel)
	if err != nil {
		return nil, err
	}

	e := &model.StockEntry{
		Spec:              spec,
		AvailableQuantity: nums[0],
		MinLevel:          nums[1],
		MaxLevel:          nums[2],
		UpdatedAt:         r.UpdatedAt,
	}

	if r.TxType != nil {
		txNums, err := parseAll(*r.TxQuantity, *r.TxOld, *r.TxNew)
		if err != nil {
			return nil, err
		}
		e.LastTransaction = &model.StockTransaction{
			Spec:        spec,
			Type:        model.TransactionType(*r.TxType),
			Quantity:    txNums[0],
			OldQuantity: txNums[1],
			NewQuantity: txNums[2],
			Reference:   *r.TxReference,
			Remarks:     *r.TxRemarks,
			CreatedAt:   *r.TxCreatedAt,
		}
	}

	return e, nil
}

func parseAll(values ...string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
