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
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type DispatchStore interface {
	Order(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Record(ctx context.Context, id uuid.UUID) (*model.DispatchRecord, error)
	Records(ctx context.Context, orderID uuid.UUID) ([]*model.DispatchRecord, error)
	List(ctx context.Context, filter model.DispatchFilter) ([]*model.DispatchRecord, error)
	Commit(ctx context.Context, c *model.DispatchCommit) (*model.Order, error)
}

type StockLedger interface {
	Available(ctx context.Context, spec model.ProductSpec) (decimal.Decimal, error)
	DecrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error)
	IncrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error)
}

type Locker interface {
	Lock(ctx context.Context, key string, timeout time.Duration) (func(), error)
}

type EventPublisher interface {
	PublishDispatchExecuted(ctx context.Context, event model.DispatchExecutedEvent) error
}

type Metrics interface {
	Observe(operation string, err error, d time.Duration)
	Compensation(err error)
	EventPublishFailed(event string)
}

type Config struct {
	NumberPrefix   string
	LockTimeout    time.Duration
	ReadDBTimeout  time.Duration
	WriteDBTimeout time.Duration
}

type service struct {
	store   DispatchStore
	stock   StockLedger
	locker  Locker
	events  EventPublisher
	metrics Metrics
	cfg     Config
	now     func() time.Time
}

func NewDispatchService(
	store DispatchStore,
	stock StockLedger,
	locker Locker,
	events EventPublisher,
	metrics Metrics,
	cfg Config,
) *service {
	if cfg.NumberPrefix == "" {
		cfg.NumberPrefix = model.DefaultNumberPrefix
	}
	return &service{
		store:   store,
		stock:   stock,
		locker:  locker,
		events:  events,
		metrics: metrics,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch consumes stock for the requested lines against the order, records
// the primary dispatch and spawns a continuation for any remainder.
func (s *service) Dispatch(
	ctx context.Context,
	orderID uuid.UUID,
	lines []model.DispatchRequestLine,
) (_ *model.DispatchResult, err error) {
	const op = "dispatch.service.Dispatch"
	defer s.observe(op, time.Now(), &err)
	log := logger.With(
		logger.String("order_id", orderID.String()),
		logger.Int("lines", len(lines)),
	)

	req, err := normalizeRequest(orderID, lines)
	if err != nil {
		log.Warn(ctx, "invalid dispatch request", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	release, err := s.lockOrder(ctx, orderID)
	if err != nil {
		log.Warn(ctx, "order lock", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	ord, records, err := s.load(ctx, orderID)
	if err != nil {
		log.Error(ctx, "load order", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ord.Dispatchable() {
		log.Warn(ctx, "order is not dispatchable", logger.String("status", string(ord.Status)))
		return nil, fmt.Errorf("%s: %w: order is %s", op, model.ErrInvalidState, ord.Status)
	}

	res, err := s.consume(ctx, ord, records, req, nil, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// Execute consumes stock for an approved record. The record becomes the
// fulfilling dispatch and a fresh continuation covers any remainder.
func (s *service) Execute(ctx context.Context, id uuid.UUID, actor string) (_ *model.DispatchResult, err error) {
	const op = "dispatch.service.Execute"
	defer s.observe(op, time.Now(), &err)
	log := logger.With(logger.String("dispatch_id", id.String()))

	rec, ord, records, release, err := s.lockRecord(ctx, id)
	if err != nil {
		log.Warn(ctx, "lock record", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	if rec.Status != model.DispatchApproved {
		return nil, fmt.Errorf("%s: %w: %s -> %s", op, model.ErrInvalidTransition, rec.Status, model.DispatchExecuted)
	}
	if !ord.Dispatchable() {
		return nil, fmt.Errorf("%s: %w: order is %s", op, model.ErrInvalidState, ord.Status)
	}

	req := make([]model.DispatchRequestLine, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		if l.DispatchedQuantity.IsPositive() {
			req = append(req, model.DispatchRequestLine{Spec: l.Spec, Quantity: l.DispatchedQuantity})
		}
	}

	res, err := s.consume(ctx, ord, records, req, rec, actor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// consume runs validation, the stock saga and the store commit for one
// fulfilling dispatch. The caller holds the order lock.
func (s *service) consume(
	ctx context.Context,
	ord *model.Order,
	records []*model.DispatchRecord,
	req []model.DispatchRequestLine,
	executing *model.DispatchRecord,
	actor string,
) (*model.DispatchResult, error) {
	log := logger.With(
		logger.String("order_id", ord.ID.String()),
		logger.String("order_number", ord.Number),
	)

	before, err := s.compute(ctx, ord, records)
	if err != nil {
		return nil, err
	}

	for _, l := range req {
		cur, ok := before[l.Spec]
		if !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrSpecNotOnOrder, l.Spec)
		}
		if l.Quantity.GreaterThan(cur.Remaining) {
			return nil, fmt.Errorf("%w: %s requested %s, remaining %s", model.ErrExceedsRemaining, l.Spec,
				l.Quantity.StringFixed(model.QuantityPlaces), cur.Remaining.StringFixed(model.QuantityPlaces))
		}
	}

	if err := s.checkAvailability(ctx, req); err != nil {
		if errors.Is(err, model.ErrInsufficientStock) {
			log.Info(ctx, "dispatch rejected", logger.ErrorF(err))
		}
		return nil, err
	}

	now := s.now()
	commit := &model.DispatchCommit{
		OrderID:         ord.ID,
		ExpectedVersion: ord.Version,
		NumberPrefix:    s.cfg.NumberPrefix,
		At:              now,
	}

	lines, totals := buildLines(ord, before, req)

	var primary *model.DispatchRecord
	if executing == nil {
		primary = &model.DispatchRecord{
			ID:         uuid.New(),
			OrderID:    ord.ID,
			Lines:      lines,
			Totals:     totals,
			Status:     model.DispatchExecuted,
			UpdatedBy:  actor,
			ExecutedAt: &now,
		}
		commit.Inserts = append(commit.Inserts, primary)
	} else {
		commit.Transitions = append(commit.Transitions, model.Transition{
			RecordID: executing.ID,
			From:     model.DispatchApproved,
			To:       model.DispatchExecuted,
			Actor:    actor,
			Lines:    lines,
			Totals:   &totals,
		})
		primary = executing.Clone()
		model.ApplyTransition(primary, commit.Transitions[0], now)
	}

	history := append(withoutRecord(records, primary.ID), primary)
	after, err := s.compute(ctx, ord, history)
	if err != nil {
		return nil, err
	}

	var continuation *model.DispatchRecord
	if outstanding := after.Outstanding(); len(outstanding) > 0 {
		continuation = buildContinuation(ord, primary.ID, outstanding, now)
		commit.Inserts = append(commit.Inserts, continuation)
	}

	// At most one open continuation per order: the new one replaces older plans.
	for _, r := range records {
		if r.ID == primary.ID || !r.Status.Open() {
			continue
		}
		commit.Transitions = append(commit.Transitions, model.Transition{
			RecordID: r.ID,
			From:     r.Status,
			To:       model.DispatchCancelled,
			Actor:    model.SystemActor,
			Remarks:  fmt.Sprintf("superseded by dispatch %s", primary.ID),
		})
	}

	commit.Order.Status = deriveStatus(ord, after, history)

	movements := make([]model.StockMovement, 0, len(req))
	for _, l := range req {
		movements = append(movements, model.StockMovement{
			Spec:      l.Spec,
			Quantity:  l.Quantity,
			Reference: primary.ID.String(),
			Remarks:   fmt.Sprintf("dispatch for order %s", ord.Number),
		})
	}

	updated, err := s.commit(ctx, commit, movements)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "dispatch committed",
		logger.String("dispatch_id", primary.ID.String()),
		logger.String("human_number", primary.HumanNumber),
		logger.String("order_status", string(updated.Status)),
		logger.Bool("continuation", continuation != nil),
	)

	if executing != nil {
		// The transitioned record keeps its number; reload it with the committed state.
		rec, err := s.store.Record(ctx, executing.ID)
		if err != nil {
			log.Error(ctx, "reload executed dispatch failed, returning pre-commit copy",
				logger.String("dispatch_id", executing.ID.String()),
				logger.ErrorF(err),
			)
		} else {
			primary = rec
		}
	}

	s.publish(ctx, primary, updated)

	return &model.DispatchResult{Primary: primary, Continuation: continuation, Order: updated}, nil
}

// commit decrements stock, then persists the store changes. A failed store
// commit returns the stock; a failed return is reported as an internal error.
func (s *service) commit(ctx context.Context, c *model.DispatchCommit, movements []model.StockMovement) (*model.Order, error) {
	if _, err := s.stock.DecrementBatch(ctx, movements); err != nil {
		return nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteDBTimeout)
	defer cancel()

	updated, err := s.store.Commit(wctx, c)
	if err == nil {
		return updated, nil
	}

	log := logger.With(logger.String("order_id", c.OrderID.String()))
	log.Error(ctx, "store commit failed, returning stock", logger.ErrorF(err))

	back := make([]model.StockMovement, 0, len(movements))
	for _, m := range movements {
		m.Remarks = fmt.Sprintf("compensation: dispatch %s was not committed", m.Reference)
		back = append(back, m)
	}

	cctx, ccancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteDBTimeout)
	defer ccancel()

	_, cerr := s.stock.IncrementBatch(cctx, back)
	s.metrics.Compensation(cerr)
	if cerr != nil {
		log.Error(ctx, "stock compensation failed, ledger needs manual correction",
			logger.ErrorF(cerr),
			logger.NamedError("commit_error", err),
			logger.Strings("movements", describeMovements(movements)),
		)
		return nil, errors.Join(model.ErrInternal, err, cerr)
	}

	return nil, err
}

func (s *service) checkAvailability(ctx context.Context, req []model.DispatchRequestLine) error {
	for _, l := range req {
		available, err := s.stock.Available(ctx, l.Spec)
		if err != nil {
			return err
		}
		if l.Quantity.GreaterThan(available) {
			return &model.InsufficientStockError{Spec: l.Spec, Requested: l.Quantity, Available: available}
		}
	}
	return nil
}

func (s *service) compute(ctx context.Context, ord *model.Order, records []*model.DispatchRecord) (fulfillment.Result, error) {
	res, err := fulfillment.Compute(ord, records)
	if err != nil {
		var violation *model.InvariantViolationError
		if errors.As(err, &violation) {
			logger.Error(ctx, "fulfillment invariant violated",
				logger.String("order_id", violation.OrderID.String()),
				logger.String("order_number", ord.Number),
				logger.String("spec", violation.Spec.Key()),
				logger.String("detail", violation.Detail),
				logger.Int("records", len(records)),
			)
		}
		return nil, err
	}
	return res, nil
}

func (s *service) publish(ctx context.Context, rec *model.DispatchRecord, ord *model.Order) {
	if s.events == nil {
		return
	}

	event := model.DispatchExecutedEvent{
		EventID:     uuid.New(),
		DispatchID:  rec.ID,
		HumanNumber: rec.HumanNumber,
		OrderID:     ord.ID,
		OrderStatus: ord.Status,
		Quantity:    rec.Quantity().StringFixed(model.QuantityPlaces),
		GrandTotal:  rec.Totals.Grand.StringFixed(model.QuantityPlaces),
		ExecutedAt:  s.now(),
	}
	if rec.ExecutedAt != nil {
		event.ExecutedAt = *rec.ExecutedAt
	}

	if err := s.events.PublishDispatchExecuted(ctx, event); err != nil {
		s.metrics.EventPublishFailed("dispatch.executed")
		logger.Error(ctx, "publish dispatch executed",
			logger.String("dispatch_id", rec.ID.String()),
			logger.ErrorF(err),
		)
	}
}

func (s *service) observe(op string, start time.Time, err *error) {
	s.metrics.Observe(op, *err, time.Since(start))
}
