package model

import (
	"time"

	"github.com/google/uuid"
)

// DispatchExecutedEvent tells downstream consumers that a dispatch consumed stock.
type DispatchExecutedEvent struct {
	EventID     uuid.UUID
	DispatchID  uuid.UUID
	HumanNumber string
	OrderID     uuid.UUID
	OrderStatus OrderStatus
	Quantity    string
	GrandTotal  string
	ExecutedAt  time.Time
}

// OrderApprovalDecided arrives from the external approval system.
type OrderApprovalDecided struct {
	EventID  uuid.UUID
	OrderID  uuid.UUID
	Decision OrderDecision
	Approver string
}
