package converter

import (
	"github.com/samber/lo"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/fulfillment"
	apiv1 "github.com/aasmaanchaalak/inventoryapp-sub001/internal/transport/http/api/v1"
)

func SpecFromAPI(s apiv1.ProductSpec) model.ProductSpec {
	return model.NewProductSpec(s.ProductType, s.Size, s.Thickness)
}

func SpecToAPI(s model.ProductSpec) apiv1.ProductSpec {
	return apiv1.ProductSpec{ProductType: s.ProductType, Size: s.Size, Thickness: s.Thickness}
}

func CreateOrderRequestToParams(req apiv1.CreateOrderRequest) model.CreateOrderParams {
	return model.CreateOrderParams{
		Number:   req.Number,
		Customer: req.Customer,
		Lines: lo.Map(req.Lines, func(l apiv1.OrderLine, _ int) model.OrderLine {
			return model.OrderLine{
				Spec:            SpecFromAPI(l.ProductSpec),
				OrderedQuantity: l.OrderedQuantity,
				Rate:            l.Rate,
				TaxRate:         l.TaxRate,
			}
		}),
	}
}

func OrderToAPI(o *model.Order) apiv1.Order {
	return apiv1.Order{
		UUID:     o.ID,
		Number:   o.Number,
		Customer: o.Customer,
		Lines: lo.Map(o.Lines, func(l model.OrderLine, _ int) apiv1.OrderLine {
			return apiv1.OrderLine{
				ProductSpec:     SpecToAPI(l.Spec),
				OrderedQuantity: l.OrderedQuantity,
				Rate:            l.Rate,
				TaxRate:         l.TaxRate,
			}
		}),
		ApprovalStatus: string(o.ApprovalStatus),
		Status:         string(o.Status),
		ApprovedBy:     o.ApprovedBy,
		ApprovedAt:     o.ApprovedAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func DispatchRequestToLines(req apiv1.DispatchRequest) []model.DispatchRequestLine {
	return lo.Map(req.Lines, func(l apiv1.DispatchRequestLine, _ int) model.DispatchRequestLine {
		return model.DispatchRequestLine{Spec: SpecFromAPI(l.ProductSpec), Quantity: l.Quantity}
	})
}

func DispatchRecordToAPI(r *model.DispatchRecord) apiv1.DispatchRecord {
	return apiv1.DispatchRecord{
		UUID:        r.ID,
		HumanNumber: r.HumanNumber,
		OrderUUID:   r.OrderID,
		ParentUUID:  r.ParentID,
		Lines: lo.Map(r.Lines, func(l model.DispatchLine, _ int) apiv1.DispatchLine {
			return apiv1.DispatchLine{
				ProductSpec:        SpecToAPI(l.Spec),
				OrderedQuantity:    l.OrderedQuantity,
				DispatchedQuantity: l.DispatchedQuantity,
				RemainingQuantity:  l.RemainingQuantity,
				Rate:               l.Rate,
				TaxRate:            l.TaxRate,
				Total:              l.Total,
			}
		}),
		Totals: apiv1.Totals{
			Subtotal: r.Totals.Subtotal,
			Tax:      r.Totals.Tax,
			Grand:    r.Totals.Grand,
		},
		Status:           string(r.Status),
		AutoGenerated:    r.AutoGenerated,
		ApprovedBy:       r.ApprovedBy,
		ApprovedAt:       r.ApprovedAt,
		ApprovedQuantity: r.ApprovedQuantity,
		ExecutedAt:       r.ExecutedAt,
		DispatchedAt:     r.DispatchedAt,
		DeliveredAt:      r.DeliveredAt,
		CancelledAt:      r.CancelledAt,
		UpdatedBy:        r.UpdatedBy,
		Remarks:          r.Remarks,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func DispatchRecordsToAPI(rs []*model.DispatchRecord) []apiv1.DispatchRecord {
	return lo.Map(rs, func(r *model.DispatchRecord, _ int) apiv1.DispatchRecord {
		return DispatchRecordToAPI(r)
	})
}

func DispatchResultToAPI(res *model.DispatchResult) apiv1.DispatchResult {
	out := apiv1.DispatchResult{
		Primary:     DispatchRecordToAPI(res.Primary),
		OrderStatus: string(res.Order.Status),
	}
	if res.Continuation != nil {
		out.Continuation = lo.ToPtr(DispatchRecordToAPI(res.Continuation))
	}
	return out
}

func FulfillmentToAPI(o *model.Order, res fulfillment.Result) apiv1.Fulfillment {
	return apiv1.Fulfillment{
		OrderUUID: o.ID,
		Status:    string(o.Status),
		Lines: lo.Map(res.Specs(), func(s model.ProductSpec, _ int) apiv1.FulfillmentLine {
			l := res[s]
			return apiv1.FulfillmentLine{
				ProductSpec: SpecToAPI(s),
				Ordered:     l.Ordered,
				Dispatched:  l.Dispatched,
				Remaining:   l.Remaining,
			}
		}),
	}
}

func StockTransactionToAPI(t model.StockTransaction) apiv1.StockTransaction {
	return apiv1.StockTransaction{
		Type:        string(t.Type),
		Quantity:    t.Quantity,
		OldQuantity: t.OldQuantity,
		NewQuantity: t.NewQuantity,
		Reference:   t.Reference,
		Remarks:     t.Remarks,
		CreatedAt:   t.CreatedAt,
	}
}

func StockEntryToAPI(e *model.StockEntry) apiv1.StockEntry {
	out := apiv1.StockEntry{
		ProductSpec:       SpecToAPI(e.Spec),
		AvailableQuantity: e.AvailableQuantity,
		MinLevel:          e.MinLevel,
		MaxLevel:          e.MaxLevel,
		BelowMin:          e.BelowMin(),
		UpdatedAt:         e.UpdatedAt,
	}
	if e.LastTransaction != nil {
		out.LastTransaction = lo.ToPtr(StockTransactionToAPI(*e.LastTransaction))
	}
	return out
}

func StockMovementFromAPI(req apiv1.StockMovementRequest) model.StockMovement {
	return model.StockMovement{
		Spec:      SpecFromAPI(req.ProductSpec),
		Quantity:  req.Quantity,
		Reference: req.Reference,
		Remarks:   req.Remarks,
	}
}

func StockChangeToAPI(c *model.StockChange) apiv1.StockChange {
	return apiv1.StockChange{
		ProductSpec: SpecToAPI(c.Spec),
		OldQuantity: c.OldQuantity,
		NewQuantity: c.NewQuantity,
	}
}

func StockLevelsFromAPI(req apiv1.StockLevelsRequest) model.StockLevels {
	return model.StockLevels{
		Spec:     SpecFromAPI(req.ProductSpec),
		MinLevel: req.MinLevel,
		MaxLevel: req.MaxLevel,
	}
}
