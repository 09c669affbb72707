package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/fulfillment"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

func (s *service) Approve(ctx context.Context, id uuid.UUID, approver string) (_ *model.DispatchRecord, err error) {
	const op = "dispatch.service.Approve"
	defer s.observe(op, time.Now(), &err)

	if strings.TrimSpace(approver) == "" {
		return nil, fmt.Errorf("%s: %w: approver is required", op, model.ErrValidation)
	}

	rec, err := s.transition(ctx, id, model.DispatchApproved, approver, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

func (s *service) Ship(ctx context.Context, id uuid.UUID, actor string) (_ *model.DispatchRecord, err error) {
	const op = "dispatch.service.Ship"
	defer s.observe(op, time.Now(), &err)

	rec, err := s.transition(ctx, id, model.DispatchDispatched, actor, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

func (s *service) Deliver(ctx context.Context, id uuid.UUID, actor string) (_ *model.DispatchRecord, err error) {
	const op = "dispatch.service.Deliver"
	defer s.observe(op, time.Now(), &err)

	rec, err := s.transition(ctx, id, model.DispatchDelivered, actor, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// Cancel never returns consumed stock to the ledger. Restoring it is a
// separate, explicit stock increment.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor, reason string) (_ *model.DispatchRecord, err error) {
	const op = "dispatch.service.Cancel"
	defer s.observe(op, time.Now(), &err)

	remarks := "cancelled"
	if reason = strings.TrimSpace(reason); reason != "" {
		remarks = "cancelled: " + reason
	}

	rec, err := s.transition(ctx, id, model.DispatchCancelled, actor, remarks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if rec.ExecutedAt != nil {
		logger.Info(ctx, "cancelled dispatch had consumed stock; ledger is not restored",
			logger.String("dispatch_id", rec.ID.String()),
			logger.String("human_number", rec.HumanNumber),
			logger.String("quantity", rec.Quantity().String()),
		)
	}

	return rec, nil
}

// transition moves one record and re-derives the order status in the same commit.
func (s *service) transition(
	ctx context.Context,
	id uuid.UUID,
	to model.DispatchStatus,
	actor, remarks string,
) (*model.DispatchRecord, error) {
	log := logger.With(
		logger.String("dispatch_id", id.String()),
		logger.String("to", string(to)),
	)

	rec, ord, records, release, err := s.lockRecord(ctx, id)
	if err != nil {
		log.Warn(ctx, "lock record", logger.ErrorF(err))
		return nil, err
	}
	defer release()

	if !rec.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, rec.Status, to)
	}

	t := model.Transition{
		RecordID: rec.ID,
		From:     rec.Status,
		To:       to,
		Actor:    actor,
		Remarks:  remarks,
	}

	next := rec.Clone()
	model.ApplyTransition(next, t, s.now())
	history := append(withoutRecord(records, rec.ID), next)

	res, err := s.compute(ctx, ord, history)
	if err != nil {
		return nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteDBTimeout)
	defer cancel()

	updated, err := s.store.Commit(wctx, &model.DispatchCommit{
		OrderID:         ord.ID,
		ExpectedVersion: ord.Version,
		Transitions:     []model.Transition{t},
		Order:           model.OrderChange{Status: deriveStatus(ord, res, history)},
		At:              s.now(),
	})
	if err != nil {
		log.Error(ctx, "store commit", logger.ErrorF(err))
		return nil, err
	}

	log.Info(ctx, "dispatch status changed",
		logger.String("from", string(rec.Status)),
		logger.String("order_status", string(updated.Status)),
	)

	rctx, rcancel := context.WithTimeout(ctx, s.cfg.ReadDBTimeout)
	defer rcancel()

	return s.store.Record(rctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.DispatchRecord, error) {
	const op = "dispatch.service.Get"

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadDBTimeout)
	defer cancel()

	rec, err := s.store.Record(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

func (s *service) List(ctx context.Context, filter model.DispatchFilter) ([]*model.DispatchRecord, error) {
	const op = "dispatch.service.List"

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown status %q", op, model.ErrValidation, *filter.Status)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%s: %w: to is before from", op, model.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadDBTimeout)
	defer cancel()

	recs, err := s.store.List(ctx, filter)
	if err != nil {
		logger.Error(ctx, "repository list dispatches", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return recs, nil
}

// Fulfillment reports ordered, dispatched and remaining quantities per spec.
func (s *service) Fulfillment(ctx context.Context, orderID uuid.UUID) (*model.Order, fulfillment.Result, error) {
	const op = "dispatch.service.Fulfillment"

	ord, records, err := s.load(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.compute(ctx, ord, records)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return ord, res, nil
}
