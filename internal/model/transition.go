package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ApplyTransition moves rec to t.To and stamps the matching timestamp.
// The caller has already checked rec.Status == t.From.
func ApplyTransition(rec *DispatchRecord, t Transition, at time.Time) {
	rec.Status = t.To
	rec.UpdatedBy = t.Actor
	rec.UpdatedAt = at

	switch t.To {
	case DispatchApproved:
		rec.ApprovedBy = t.Actor
		rec.ApprovedAt = lo.ToPtr(at)
		rec.ApprovedQuantity = t.ApprovedQuantity
		if rec.ApprovedQuantity.IsZero() {
			rec.ApprovedQuantity = rec.Quantity()
		}
	case DispatchExecuted:
		rec.ExecutedAt = lo.ToPtr(at)
	case DispatchDispatched:
		rec.DispatchedAt = lo.ToPtr(at)
	case DispatchDelivered:
		rec.DeliveredAt = lo.ToPtr(at)
	case DispatchCancelled:
		rec.CancelledAt = lo.ToPtr(at)
	}

	if t.Lines != nil {
		rec.Lines = append([]DispatchLine(nil), t.Lines...)
	}
	if t.Totals != nil {
		rec.Totals = *t.Totals
	}
	if t.Remarks != "" {
		rec.Remarks = strings.TrimSpace(strings.Join([]string{rec.Remarks, t.Remarks}, "\n"))
	}
}

func ApplyOrderChange(ord *Order, c OrderChange, at time.Time) {
	if c.Status != "" {
		ord.Status = c.Status
	}
	if c.ApprovalStatus != "" && c.ApprovalStatus != ord.ApprovalStatus {
		ord.ApprovalStatus = c.ApprovalStatus
		ord.ApprovedBy = c.ApprovedBy
		ord.ApprovedAt = lo.ToPtr(at)
	}
	ord.Version++
	ord.UpdatedAt = at
}

// ValidateTransition checks a transition against the current record.
func ValidateTransition(rec *DispatchRecord, orderID uuid.UUID, t Transition) error {
	if rec.OrderID != orderID || rec.Status != t.From {
		return ErrConflict
	}
	if !t.From.CanTransition(t.To) {
		return ErrInvalidTransition
	}
	return nil
}
