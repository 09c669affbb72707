package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/fulfillment"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/lock"
)

// normalizeRequest validates lines and merges duplicate specs, keeping first-seen order.
func normalizeRequest(orderID uuid.UUID, lines []model.DispatchRequestLine) ([]model.DispatchRequestLine, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("%w: order id is required", model.ErrValidation)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", model.ErrValidation)
	}

	idx := make(map[model.ProductSpec]int, len(lines))
	out := make([]model.DispatchRequestLine, 0, len(lines))
	for _, l := range lines {
		if !l.Spec.Complete() {
			return nil, fmt.Errorf("%w: product type, size and thickness are required", model.ErrValidation)
		}
		spec := l.Spec.Normalize()
		qty := model.Round(l.Quantity)
		if !qty.IsPositive() {
			return nil, fmt.Errorf("%w: quantity for %s must be positive", model.ErrValidation, spec)
		}
		if i, ok := idx[spec]; ok {
			out[i].Quantity = out[i].Quantity.Add(qty)
			continue
		}
		idx[spec] = len(out)
		out = append(out, model.DispatchRequestLine{Spec: spec, Quantity: qty})
	}

	return out, nil
}

// buildLines prices the requested quantities with the order's rates.
func buildLines(
	ord *model.Order,
	before fulfillment.Result,
	req []model.DispatchRequestLine,
) ([]model.DispatchLine, model.Totals) {
	lines := make([]model.DispatchLine, 0, len(req))
	totals := model.Totals{Subtotal: decimal.Zero, Tax: decimal.Zero}

	for _, r := range req {
		ol, _ := ord.Line(r.Spec)
		cur := before[r.Spec]
		total := model.Round(r.Quantity.Mul(ol.Rate))

		lines = append(lines, model.DispatchLine{
			Spec:               r.Spec,
			OrderedQuantity:    cur.Ordered,
			DispatchedQuantity: r.Quantity,
			RemainingQuantity:  cur.Remaining.Sub(r.Quantity),
			Rate:               ol.Rate,
			TaxRate:            ol.TaxRate,
			Total:              total,
		})
		totals.Subtotal = totals.Subtotal.Add(total)
		totals.Tax = totals.Tax.Add(model.Percent(total, ol.TaxRate))
	}
	totals.Grand = totals.Subtotal.Add(totals.Tax)

	return lines, totals
}

// buildContinuation carries the outstanding remainder. Approval cascades from
// the parent order and is never re-evaluated here.
func buildContinuation(
	ord *model.Order,
	parentID uuid.UUID,
	outstanding []fulfillment.Line,
	now time.Time,
) *model.DispatchRecord {
	req := make([]model.DispatchRequestLine, 0, len(outstanding))
	before := make(fulfillment.Result, len(outstanding))
	for _, l := range outstanding {
		req = append(req, model.DispatchRequestLine{Spec: l.Spec, Quantity: l.Remaining})
		before[l.Spec] = fulfillment.Line{Spec: l.Spec, Ordered: l.Ordered, Dispatched: l.Dispatched, Remaining: l.Remaining}
	}
	lines, totals := buildLines(ord, before, req)

	// Planned lines: remaining is what stays open until this record executes.
	for i := range lines {
		lines[i].RemainingQuantity = lines[i].DispatchedQuantity
	}

	rec := &model.DispatchRecord{
		ID:            uuid.New(),
		OrderID:       ord.ID,
		ParentID:      &parentID,
		Lines:         lines,
		Totals:        totals,
		Status:        model.DispatchPending,
		AutoGenerated: true,
		UpdatedBy:     model.SystemActor,
	}

	if ord.ApprovalStatus == model.ApprovalApproved {
		rec.Status = model.DispatchApproved
		rec.ApprovedBy = model.SystemActor
		rec.ApprovedAt = &now
		rec.ApprovedQuantity = rec.Quantity()
	}

	return rec
}

// deriveStatus computes the order status from fulfillment over history.
func deriveStatus(ord *model.Order, res fulfillment.Result, history []*model.DispatchRecord) model.OrderStatus {
	if ord.Status == model.OrderCancelled {
		return model.OrderCancelled
	}

	if !res.Dispatched() {
		if ord.ApprovalStatus == model.ApprovalApproved {
			return model.OrderApproved
		}
		return model.OrderPending
	}

	if !res.Fulfilled() {
		return model.OrderPartialDispatch
	}

	for _, r := range history {
		if r.Status.Fulfilling() && r.Status != model.DispatchDelivered {
			return model.OrderDispatched
		}
	}
	return model.OrderCompleted
}

func withoutRecord(records []*model.DispatchRecord, id uuid.UUID) []*model.DispatchRecord {
	out := make([]*model.DispatchRecord, 0, len(records)+1)
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func describeMovements(ms []model.StockMovement) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, fmt.Sprintf("%s=%s", m.Spec.Key(), m.Quantity.StringFixed(model.QuantityPlaces)))
	}
	return out
}

func orderLockKey(id uuid.UUID) string {
	return "order:" + id.String()
}

func (s *service) lockOrder(ctx context.Context, orderID uuid.UUID) (func(), error) {
	release, err := s.locker.Lock(ctx, orderLockKey(orderID), s.cfg.LockTimeout)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, fmt.Errorf("%w: order %s is busy", model.ErrConflict, orderID)
		}
		return nil, err
	}
	return release, nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*model.Order, []*model.DispatchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadDBTimeout)
	defer cancel()

	ord, err := s.store.Order(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.store.Records(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return ord, records, nil
}

// lockRecord resolves the record's order, takes the order lock and reloads
// both under it.
func (s *service) lockRecord(
	ctx context.Context,
	id uuid.UUID,
) (*model.DispatchRecord, *model.Order, []*model.DispatchRecord, func(), error) {
	rctx, cancel := context.WithTimeout(ctx, s.cfg.ReadDBTimeout)
	rec, err := s.store.Record(rctx, id)
	cancel()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	release, err := s.lockOrder(ctx, rec.OrderID)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ord, records, err := s.load(ctx, rec.OrderID)
	if err != nil {
		release()
		return nil, nil, nil, nil, err
	}

	for _, r := range records {
		if r.ID == id {
			return r, ord, records, release, nil
		}
	}

	release()
	return nil, nil, nil, nil, model.ErrDispatchNotFound
}
