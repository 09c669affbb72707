package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	ApprovalStatus string
	OrderStatus    string
)

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

const (
	OrderPending         OrderStatus = "pending"
	OrderApproved        OrderStatus = "approved"
	OrderDispatched      OrderStatus = "dispatched"
	OrderPartialDispatch OrderStatus = "partial-dispatch"
	OrderCompleted       OrderStatus = "completed"
	OrderCancelled       OrderStatus = "cancelled"
)

// SystemActor approves continuation records on behalf of an approved order.
const SystemActor = "system"

type OrderLine struct {
	Spec            ProductSpec
	OrderedQuantity decimal.Decimal
	Rate            decimal.Decimal
	// Percentage, e.g. 18 for 18%.
	TaxRate decimal.Decimal
}

type Order struct {
	ID             uuid.UUID
	Number         string
	Customer       string
	Lines          []OrderLine
	ApprovalStatus ApprovalStatus
	Status         OrderStatus
	ApprovedBy     string
	ApprovedAt     *time.Time
	// Bumped by every store commit touching the order.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line returns the first line for spec. Rate and tax are taken from it when
// the order carries duplicate lines.
func (o *Order) Line(spec ProductSpec) (OrderLine, bool) {
	key := spec.Key()
	for _, l := range o.Lines {
		if l.Spec.Key() == key {
			return l, true
		}
	}
	return OrderLine{}, false
}

// Dispatchable reports whether new stock may be consumed against the order.
func (o *Order) Dispatchable() bool {
	return o.ApprovalStatus != ApprovalRejected && o.Status != OrderCancelled
}

type CreateOrderParams struct {
	Number   string
	Customer string
	Lines    []OrderLine
}

type OrderDecision string

const (
	DecisionApproved OrderDecision = "approved"
	DecisionRejected OrderDecision = "rejected"
)

type DecideOrderParams struct {
	OrderID  uuid.UUID
	Decision OrderDecision
	Approver string
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = append([]OrderLine(nil), o.Lines...)
	if o.ApprovedAt != nil {
		at := *o.ApprovedAt
		c.ApprovedAt = &at
	}
	return &c
}
