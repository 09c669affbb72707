package mongo

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

func toDecimal128(d decimal.Decimal) bson.Decimal128 {
	out, err := bson.ParseDecimal128(d.StringFixed(model.QuantityPlaces))
	if err != nil {
		// StringFixed always renders a parseable literal.
		panic(err)
	}
	return out
}

func fromDecimal128(d bson.Decimal128) decimal.Decimal {
	out, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero
	}
	return out
}

func EntityToModel(e *EntryEntity) *model.StockEntry {
	if e == nil {
		return nil
	}

	spec := model.NewProductSpec(e.ProductType, e.Size, e.Thickness)
	out := &model.StockEntry{
		Spec:              spec,
		AvailableQuantity: fromDecimal128(e.Available),
		MinLevel:          fromDecimal128(e.MinLevel),
		MaxLevel:          fromDecimal128(e.MaxLevel),
		UpdatedAt:         e.UpdatedAt,
	}
	if e.LastTransaction != nil {
		tx := TransactionToModel(spec, e.LastTransaction)
		out.LastTransaction = &tx
	}

	return out
}

func TransactionToModel(spec model.ProductSpec, t *TransactionEntity) model.StockTransaction {
	return model.StockTransaction{
		Spec:        spec,
		Type:        model.TransactionType(t.Type),
		Quantity:    fromDecimal128(t.Quantity),
		OldQuantity: fromDecimal128(t.OldQuantity),
		NewQuantity: fromDecimal128(t.NewQuantity),
		Reference:   t.Reference,
		Remarks:     t.Remarks,
		CreatedAt:   t.CreatedAt,
	}
}

func TransactionFromModel(t model.StockTransaction) TransactionEntity {
	return TransactionEntity{
		Type:        string(t.Type),
		Quantity:    toDecimal128(t.Quantity),
		OldQuantity: toDecimal128(t.OldQuantity),
		NewQuantity: toDecimal128(t.NewQuantity),
		Reference:   t.Reference,
		Remarks:     t.Remarks,
		CreatedAt:   t.CreatedAt,
	}
}
