package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/lock"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, ord *model.Order) error
	Order(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Records(ctx context.Context, orderID uuid.UUID) ([]*model.DispatchRecord, error)
	Commit(ctx context.Context, c *model.DispatchCommit) (*model.Order, error)
}

type Locker interface {
	Lock(ctx context.Context, key string, timeout time.Duration) (func(), error)
}

type Metrics interface {
	Observe(operation string, err error, d time.Duration)
}

type service struct {
	repo           OrderRepository
	locker         Locker
	metrics        Metrics
	lockTimeout    time.Duration
	readDBTimeout  time.Duration
	writeDBTimeout time.Duration
	now            func() time.Time
}

func NewOrderService(
	repo OrderRepository,
	locker Locker,
	metrics Metrics,
	lockTimeout time.Duration,
	readDBTimeout time.Duration,
	writeDBTimeout time.Duration,
) *service {
	return &service{
		repo:           repo,
		locker:         locker,
		metrics:        metrics,
		lockTimeout:    lockTimeout,
		readDBTimeout:  readDBTimeout,
		writeDBTimeout: writeDBTimeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

var hundred = decimal.NewFromInt(100)

func (svc *service) Create(ctx context.Context, params model.CreateOrderParams) (_ *model.Order, err error) {
	const op = "order.service.Create"
	defer svc.observe(op, time.Now(), &err)
	log := logger.With(
		logger.String("number", params.Number),
		logger.Int("lines", len(params.Lines)),
	)

	if len(params.Lines) == 0 {
		log.Warn(ctx, "order without lines")
		return nil, fmt.Errorf("%s: %w: at least one line is required", op, model.ErrValidation)
	}

	lines := make([]model.OrderLine, 0, len(params.Lines))
	for _, l := range params.Lines {
		if !l.Spec.Complete() {
			return nil, fmt.Errorf("%s: %w: product type, size and thickness are required", op, model.ErrValidation)
		}
		l.Spec = l.Spec.Normalize()
		l.OrderedQuantity = model.Round(l.OrderedQuantity)
		if !l.OrderedQuantity.IsPositive() {
			return nil, fmt.Errorf("%s: %w: ordered quantity for %s must be positive", op, model.ErrValidation, l.Spec)
		}
		if l.Rate.IsNegative() {
			return nil, fmt.Errorf("%s: %w: rate for %s must not be negative", op, model.ErrValidation, l.Spec)
		}
		if l.TaxRate.IsNegative() || l.TaxRate.GreaterThan(hundred) {
			return nil, fmt.Errorf("%s: %w: tax rate for %s must be within 0..100", op, model.ErrValidation, l.Spec)
		}
		lines = append(lines, l)
	}

	now := svc.now()
	ord := &model.Order{
		ID:             uuid.New(),
		Number:         strings.TrimSpace(params.Number),
		Customer:       strings.TrimSpace(params.Customer),
		Lines:          lines,
		ApprovalStatus: model.ApprovalPending,
		Status:         model.OrderPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if ord.Number == "" {
		ord.Number = fmt.Sprintf("SO-%s-%s", now.Format("20060102"), strings.ToUpper(ord.ID.String()[:8]))
	}

	ctx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	if err := svc.repo.CreateOrder(ctx, ord); err != nil {
		log.Error(ctx, "repository create order", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "order created", logger.String("order_id", ord.ID.String()))

	return ord, nil
}

func (svc *service) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	const op = "order.service.Get"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	ord, err := svc.repo.Order(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ord, nil
}

// Decide records the external approver's decision. Approval cascades to open
// pending continuation records; rejection cancels the order and its open records.
func (svc *service) Decide(ctx context.Context, params model.DecideOrderParams) (_ *model.Order, err error) {
	const op = "order.service.Decide"
	defer svc.observe(op, time.Now(), &err)
	log := logger.With(
		logger.String("order_id", params.OrderID.String()),
		logger.String("decision", string(params.Decision)),
	)

	if params.Decision != model.DecisionApproved && params.Decision != model.DecisionRejected {
		return nil, fmt.Errorf("%s: %w: unknown decision %q", op, model.ErrValidation, params.Decision)
	}
	if strings.TrimSpace(params.Approver) == "" {
		return nil, fmt.Errorf("%s: %w: approver is required", op, model.ErrValidation)
	}

	release, ord, records, err := svc.lockAndLoad(ctx, params.OrderID)
	if err != nil {
		log.Warn(ctx, "load order", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	if ord.ApprovalStatus != model.ApprovalPending || ord.Status == model.OrderCancelled {
		return nil, fmt.Errorf("%s: %w: order is already %s", op, model.ErrInvalidState, ord.ApprovalStatus)
	}

	commit := &model.DispatchCommit{
		OrderID:         ord.ID,
		ExpectedVersion: ord.Version,
		At:              svc.now(),
	}

	switch params.Decision {
	case model.DecisionApproved:
		commit.Order = model.OrderChange{ApprovalStatus: model.ApprovalApproved, ApprovedBy: params.Approver}
		if ord.Status == model.OrderPending {
			commit.Order.Status = model.OrderApproved
		}
		for _, r := range records {
			if r.Status != model.DispatchPending {
				continue
			}
			commit.Transitions = append(commit.Transitions, model.Transition{
				RecordID:         r.ID,
				From:             model.DispatchPending,
				To:               model.DispatchApproved,
				Actor:            model.SystemActor,
				ApprovedQuantity: r.Quantity(),
				Remarks:          fmt.Sprintf("approved with order by %s", params.Approver),
			})
		}

	case model.DecisionRejected:
		if hasFulfilling(records) {
			return nil, fmt.Errorf("%s: %w: order has fulfilling dispatches", op, model.ErrInvalidState)
		}
		commit.Order = model.OrderChange{
			ApprovalStatus: model.ApprovalRejected,
			ApprovedBy:     params.Approver,
			Status:         model.OrderCancelled,
		}
		commit.Transitions = cancelOpen(records, "order rejected")
	}

	updated, err := svc.commit(ctx, commit)
	if err != nil {
		log.Error(ctx, "repository commit decision", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "order decided",
		logger.String("status", string(updated.Status)),
		logger.Int("cascaded_records", len(commit.Transitions)),
	)

	return updated, nil
}

// Cancel is allowed only while no stock has been consumed for the order.
func (svc *service) Cancel(ctx context.Context, id uuid.UUID, reason string) (_ *model.Order, err error) {
	const op = "order.service.Cancel"
	defer svc.observe(op, time.Now(), &err)
	log := logger.With(logger.String("order_id", id.String()))

	release, ord, records, err := svc.lockAndLoad(ctx, id)
	if err != nil {
		log.Warn(ctx, "load order", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	if ord.Status == model.OrderCancelled {
		return nil, fmt.Errorf("%s: %w: order is already cancelled", op, model.ErrInvalidState)
	}
	if hasFulfilling(records) {
		return nil, fmt.Errorf("%s: %w: order has fulfilling dispatches", op, model.ErrInvalidState)
	}

	remarks := "order cancelled"
	if reason = strings.TrimSpace(reason); reason != "" {
		remarks += ": " + reason
	}

	updated, err := svc.commit(ctx, &model.DispatchCommit{
		OrderID:         ord.ID,
		ExpectedVersion: ord.Version,
		Transitions:     cancelOpen(records, remarks),
		Order:           model.OrderChange{Status: model.OrderCancelled},
		At:              svc.now(),
	})
	if err != nil {
		log.Error(ctx, "repository commit cancel", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (svc *service) lockAndLoad(
	ctx context.Context,
	id uuid.UUID,
) (func(), *model.Order, []*model.DispatchRecord, error) {
	release, err := svc.locker.Lock(ctx, "order:"+id.String(), svc.lockTimeout)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, nil, nil, fmt.Errorf("%w: order %s is busy", model.ErrConflict, id)
		}
		return nil, nil, nil, err
	}

	rctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	ord, err := svc.repo.Order(rctx, id)
	if err != nil {
		release()
		return nil, nil, nil, err
	}
	records, err := svc.repo.Records(rctx, id)
	if err != nil {
		release()
		return nil, nil, nil, err
	}

	return release, ord, records, nil
}

func (svc *service) commit(ctx context.Context, c *model.DispatchCommit) (*model.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	return svc.repo.Commit(ctx, c)
}

func (svc *service) observe(op string, start time.Time, err *error) {
	svc.metrics.Observe(op, *err, time.Since(start))
}

func hasFulfilling(records []*model.DispatchRecord) bool {
	for _, r := range records {
		if r.Status.Fulfilling() {
			return true
		}
	}
	return false
}

func cancelOpen(records []*model.DispatchRecord, remarks string) []model.Transition {
	var out []model.Transition
	for _, r := range records {
		if !r.Status.Open() {
			continue
		}
		out = append(out, model.Transition{
			RecordID: r.ID,
			From:     r.Status,
			To:       model.DispatchCancelled,
			Actor:    model.SystemActor,
			Remarks:  remarks,
		})
	}
	return out
}
