package postgres

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

type lineEntity struct {
	ProductType string          `json:"product_type"`
	Size        string          `json:"size"`
	Thickness   string          `json:"thickness"`
	Ordered     decimal.Decimal `json:"ordered_quantity"`
	Dispatched  decimal.Decimal `json:"dispatched_quantity"`
	Remaining   decimal.Decimal `json:"remaining_quantity"`
	Rate        decimal.Decimal `json:"rate"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Total       decimal.Decimal `json:"total"`
}

type orderRow struct {
	ID             uuid.UUID
	Number         string
	Customer       string
	Lines          []byte
	ApprovalStatus string
	Status         string
	ApprovedBy     string
	ApprovedAt     *time.Time
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *orderRow) dest() []any {
	return []any{
		&r.ID, &r.Number, &r.Customer, &r.Lines, &r.ApprovalStatus, &r.Status,
		&r.ApprovedBy, &r.ApprovedAt, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	}
}

var orderColumns = []string{
	"id", "number", "customer", "lines", "approval_status", "status",
	"approved_by", "approved_at", "version", "created_at", "updated_at",
}

func (r *orderRow) toModel() (*model.Order, error) {
	var lines []lineEntity
	if err := json.Unmarshal(r.Lines, &lines); err != nil {
		return nil, err
	}

	ord := &model.Order{
		ID:             r.ID,
		Number:         r.Number,
		Customer:       r.Customer,
		ApprovalStatus: model.ApprovalStatus(r.ApprovalStatus),
		Status:         model.OrderStatus(r.Status),
		ApprovedBy:     r.ApprovedBy,
		ApprovedAt:     r.ApprovedAt,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Lines:          make([]model.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		ord.Lines = append(ord.Lines, model.OrderLine{
			Spec:            model.NewProductSpec(l.ProductType, l.Size, l.Thickness),
			OrderedQuantity: l.Ordered,
			Rate:            l.Rate,
			TaxRate:         l.TaxRate,
		})
	}

	return ord, nil
}

func orderLinesJSON(lines []model.OrderLine) ([]byte, error) {
	out := make([]lineEntity, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineEntity{
			ProductType: l.Spec.ProductType,
			Size:        l.Spec.Size,
			Thickness:   l.Spec.Thickness,
			Ordered:     l.OrderedQuantity,
			Rate:        l.Rate,
			TaxRate:     l.TaxRate,
		})
	}
	return json.Marshal(out)
}

type recordRow struct {
	ID               uuid.UUID
	HumanNumber      string
	OrderID          uuid.UUID
	ParentID         *uuid.UUID
	Lines            []byte
	Subtotal         string
	Tax              string
	Grand            string
	Status           string
	AutoGenerated    bool
	ApprovedBy       string
	ApprovedAt       *time.Time
	ApprovedQuantity string
	ExecutedAt       *time.Time
	DispatchedAt     *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	UpdatedBy        string
	Remarks          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var recordColumns = []string{
	"id", "human_number", "order_id", "parent_id", "lines",
	"subtotal::text", "tax::text", "grand::text", "status", "auto_generated",
	"approved_by", "approved_at", "approved_quantity::text",
	"executed_at", "dispatched_at", "delivered_at", "cancelled_at",
	"updated_by", "remarks", "created_at", "updated_at",
}

func (r *recordRow) dest() []any {
	return []any{
		&r.ID, &r.HumanNumber, &r.OrderID, &r.ParentID, &r.Lines,
		&r.Subtotal, &r.Tax, &r.Grand, &r.Status, &r.AutoGenerated,
		&r.ApprovedBy, &r.ApprovedAt, &r.ApprovedQuantity,
		&r.ExecutedAt, &r.DispatchedAt, &r.DeliveredAt, &r.CancelledAt,
		&r.UpdatedBy, &r.Remarks, &r.CreatedAt, &r.UpdatedAt,
	}
}

func (r *recordRow) toModel() (*model.DispatchRecord, error) {
	var lines []lineEntity
	if err := json.Unmarshal(r.Lines, &lines); err != nil {
		return nil, err
	}

	nums := make([]decimal.Decimal, 4)
	for i, s := range []string{r.Subtotal, r.Tax, r.Grand, r.ApprovedQuantity} {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, err
		}
		nums[i] = d
	}

	rec := &model.DispatchRecord{
		ID:               r.ID,
		HumanNumber:      r.HumanNumber,
		OrderID:          r.OrderID,
		ParentID:         r.ParentID,
		Totals:           model.Totals{Subtotal: nums[0], Tax: nums[1], Grand: nums[2]},
		Status:           model.DispatchStatus(r.Status),
		AutoGenerated:    r.AutoGenerated,
		ApprovedBy:       r.ApprovedBy,
		ApprovedAt:       r.ApprovedAt,
		ApprovedQuantity: nums[3],
		ExecutedAt:       r.ExecutedAt,
		DispatchedAt:     r.DispatchedAt,
		DeliveredAt:      r.DeliveredAt,
		CancelledAt:      r.CancelledAt,
		UpdatedBy:        r.UpdatedBy,
		Remarks:          r.Remarks,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Lines:            make([]model.DispatchLine, 0, len(lines)),
	}
	for _, l := range lines {
		rec.Lines = append(rec.Lines, model.DispatchLine{
			Spec:               model.NewProductSpec(l.ProductType, l.Size, l.Thickness),
			OrderedQuantity:    l.Ordered,
			DispatchedQuantity: l.Dispatched,
			RemainingQuantity:  l.Remaining,
			Rate:               l.Rate,
			TaxRate:            l.TaxRate,
			Total:              l.Total,
		})
	}

	return rec, nil
}

func dispatchLinesJSON(lines []model.DispatchLine) ([]byte, error) {
	out := make([]lineEntity, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineEntity{
			ProductType: l.Spec.ProductType,
			Size:        l.Spec.Size,
			Thickness:   l.Spec.Thickness,
			Ordered:     l.OrderedQuantity,
			Dispatched:  l.DispatchedQuantity,
			Remaining:   l.RemainingQuantity,
			Rate:        l.Rate,
			TaxRate:     l.TaxRate,
			Total:       l.Total,
		})
	}
	return json.Marshal(out)
}

func num(d decimal.Decimal) string {
	return d.StringFixed(model.QuantityPlaces)
}
