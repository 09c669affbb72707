// Package apiv1 holds the JSON wire types of the HTTP API.
package apiv1

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductSpec struct {
	ProductType string `json:"product_type"`
	Size        string `json:"size"`
	Thickness   string `json:"thickness"`
}

type OrderLine struct {
	ProductSpec
	OrderedQuantity decimal.Decimal `json:"ordered_quantity"`
	Rate            decimal.Decimal `json:"rate"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
}

type CreateOrderRequest struct {
	Number   string      `json:"number"`
	Customer string      `json:"customer"`
	Lines    []OrderLine `json:"lines"`
}

type Order struct {
	UUID           uuid.UUID   `json:"uuid"`
	Number         string      `json:"number"`
	Customer       string      `json:"customer,omitempty"`
	Lines          []OrderLine `json:"lines"`
	ApprovalStatus string      `json:"approval_status"`
	Status         string      `json:"status"`
	ApprovedBy     string      `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time  `json:"approved_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type DecisionRequest struct {
	Decision string `json:"decision"`
	Approver string `json:"approver"`
}

type ReasonRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

type DispatchRequestLine struct {
	ProductSpec
	Quantity decimal.Decimal `json:"quantity"`
}

type DispatchRequest struct {
	Lines []DispatchRequestLine `json:"lines"`
}

type DispatchLine struct {
	ProductSpec
	OrderedQuantity    decimal.Decimal `json:"ordered_quantity"`
	DispatchedQuantity decimal.Decimal `json:"dispatched_quantity"`
	RemainingQuantity  decimal.Decimal `json:"remaining_quantity"`
	Rate               decimal.Decimal `json:"rate"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	Total              decimal.Decimal `json:"total"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Grand    decimal.Decimal `json:"grand"`
}

type DispatchRecord struct {
	UUID             uuid.UUID       `json:"uuid"`
	HumanNumber      string          `json:"human_number"`
	OrderUUID        uuid.UUID       `json:"order_uuid"`
	ParentUUID       *uuid.UUID      `json:"parent_uuid,omitempty"`
	Lines            []DispatchLine  `json:"lines"`
	Totals           Totals          `json:"totals"`
	Status           string          `json:"status"`
	AutoGenerated    bool            `json:"auto_generated"`
	ApprovedBy       string          `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	ApprovedQuantity decimal.Decimal `json:"approved_quantity"`
	ExecutedAt       *time.Time      `json:"executed_at,omitempty"`
	DispatchedAt     *time.Time      `json:"dispatched_at,omitempty"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	UpdatedBy        string          `json:"updated_by,omitempty"`
	Remarks          string          `json:"remarks,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type DispatchResult struct {
	Primary      DispatchRecord  `json:"primary"`
	Continuation *DispatchRecord `json:"continuation,omitempty"`
	OrderStatus  string          `json:"order_status"`
}

type ActorRequest struct {
	Actor string `json:"actor"`
}

type FulfillmentLine struct {
	ProductSpec
	Ordered    decimal.Decimal `json:"ordered"`
	Dispatched decimal.Decimal `json:"dispatched"`
	Remaining  decimal.Decimal `json:"remaining"`
}

type Fulfillment struct {
	OrderUUID uuid.UUID         `json:"order_uuid"`
	Status    string            `json:"status"`
	Lines     []FulfillmentLine `json:"lines"`
}

type StockTransaction struct {
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	OldQuantity decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Reference   string          `json:"reference,omitempty"`
	Remarks     string          `json:"remarks,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type StockEntry struct {
	ProductSpec
	AvailableQuantity decimal.Decimal   `json:"available_quantity"`
	MinLevel          decimal.Decimal   `json:"min_level"`
	MaxLevel          decimal.Decimal   `json:"max_level"`
	BelowMin          bool              `json:"below_min"`
	LastTransaction   *StockTransaction `json:"last_transaction,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type StockMovementRequest struct {
	ProductSpec
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference"`
	Remarks   string          `json:"remarks"`
}

type StockChange struct {
	ProductSpec
	OldQuantity decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
}

type StockLevelsRequest struct {
	ProductSpec
	MinLevel decimal.Decimal `json:"min_level"`
	MaxLevel decimal.Decimal `json:"max_level"`
}

// Error is returned for every non-2xx response.
type Error struct {
	Code      int32            `json:"code"`
	Message   string           `json:"message"`
	Spec      *ProductSpec     `json:"spec,omitempty"`
	Requested *decimal.Decimal `json:"requested,omitempty"`
	Available *decimal.Decimal `json:"available,omitempty"`
}
