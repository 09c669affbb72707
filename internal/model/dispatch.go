package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DispatchStatus string

const (
	DispatchPending    DispatchStatus = "pending"
	DispatchApproved   DispatchStatus = "approved"
	DispatchExecuted   DispatchStatus = "executed"
	DispatchDispatched DispatchStatus = "dispatched"
	DispatchDelivered  DispatchStatus = "delivered"
	DispatchCancelled  DispatchStatus = "cancelled"
)

var dispatchTransitions = map[DispatchStatus][]DispatchStatus{
	DispatchPending:    {DispatchApproved, DispatchCancelled},
	DispatchApproved:   {DispatchExecuted, DispatchCancelled},
	DispatchExecuted:   {DispatchDispatched, DispatchCancelled},
	DispatchDispatched: {DispatchDelivered, DispatchCancelled},
}

func (s DispatchStatus) Valid() bool {
	switch s {
	case DispatchPending, DispatchApproved, DispatchExecuted,
		DispatchDispatched, DispatchDelivered, DispatchCancelled:
		return true
	}
	return false
}

func (s DispatchStatus) Terminal() bool {
	return s == DispatchDelivered || s == DispatchCancelled
}

// Fulfilling statuses have consumed stock and count toward fulfillment.
func (s DispatchStatus) Fulfilling() bool {
	return s == DispatchExecuted || s == DispatchDispatched || s == DispatchDelivered
}

// Open records are continuation plans that have not consumed stock yet.
func (s DispatchStatus) Open() bool {
	return s == DispatchPending || s == DispatchApproved
}

func (s DispatchStatus) CanTransition(to DispatchStatus) bool {
	for _, next := range dispatchTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type DispatchLine struct {
	Spec               ProductSpec
	OrderedQuantity    decimal.Decimal
	DispatchedQuantity decimal.Decimal
	RemainingQuantity  decimal.Decimal
	Rate               decimal.Decimal
	TaxRate            decimal.Decimal
	Total              decimal.Decimal
}

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Grand    decimal.Decimal
}

type DispatchRecord struct {
	ID          uuid.UUID
	HumanNumber string
	OrderID     uuid.UUID
	// Set on continuation records.
	ParentID         *uuid.UUID
	Lines            []DispatchLine
	Totals           Totals
	Status           DispatchStatus
	AutoGenerated    bool
	ApprovedBy       string
	ApprovedAt       *time.Time
	ApprovedQuantity decimal.Decimal
	ExecutedAt       *time.Time
	DispatchedAt     *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	UpdatedBy        string
	Remarks          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Quantity is the sum of dispatched quantities across lines.
func (r *DispatchRecord) Quantity() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range r.Lines {
		sum = sum.Add(l.DispatchedQuantity)
	}
	return Round(sum)
}

func (r *DispatchRecord) Clone() *DispatchRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Lines = append([]DispatchLine(nil), r.Lines...)
	if r.ParentID != nil {
		id := *r.ParentID
		c.ParentID = &id
	}
	return &c
}

// DispatchRequestLine is one requested spec and quantity.
type DispatchRequestLine struct {
	Spec     ProductSpec
	Quantity decimal.Decimal
}

type DispatchResult struct {
	Primary      *DispatchRecord
	Continuation *DispatchRecord
	Order        *Order
}

type DispatchFilter struct {
	OrderID *uuid.UUID
	Status  *DispatchStatus
	From    *time.Time
	To      *time.Time
	Limit   uint64
}

// Transition moves one record between statuses inside a store commit.
// The store rejects it with ErrConflict when the record is no longer in From.
type Transition struct {
	RecordID uuid.UUID
	From     DispatchStatus
	To       DispatchStatus
	Actor    string
	Remarks  string
	// Replace lines and totals when non-nil.
	Lines            []DispatchLine
	Totals           *Totals
	ApprovedQuantity decimal.Decimal
}

// OrderChange is applied to the order inside a store commit.
type OrderChange struct {
	Status         OrderStatus
	ApprovalStatus ApprovalStatus
	ApprovedBy     string
}

// DispatchCommit is everything one orchestrator step persists atomically.
type DispatchCommit struct {
	OrderID         uuid.UUID
	ExpectedVersion int64
	NumberPrefix    string
	Inserts         []*DispatchRecord
	Transitions     []Transition
	Order           OrderChange
	At              time.Time
}

// DefaultNumberPrefix prefixes human-readable dispatch numbers.
const DefaultNumberPrefix = "DO"

// FormatHumanNumber renders {prefix}-{year}-{sequence:05d}.
func FormatHumanNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq)
}
