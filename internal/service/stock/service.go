package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

type StockRepository interface {
	Entry(ctx context.Context, spec model.ProductSpec) (*model.StockEntry, error)
	DecrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error)
	IncrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error)
	Adjust(ctx context.Context, m model.StockMovement) (*model.StockChange, error)
	SetLevels(ctx context.Context, levels model.StockLevels) (*model.StockEntry, error)
	Transactions(ctx context.Context, spec model.ProductSpec, limit int) ([]model.StockTransaction, error)
}

type Metrics interface {
	Observe(operation string, err error, d time.Duration)
	StockLevel(spec model.ProductSpec, qty decimal.Decimal)
}

type service struct {
	repo           StockRepository
	metrics        Metrics
	readDBTimeout  time.Duration
	writeDBTimeout time.Duration
}

func NewStockService(
	repo StockRepository,
	metrics Metrics,
	readDBTimeout time.Duration,
	writeDBTimeout time.Duration,
) *service {
	return &service{
		repo:           repo,
		metrics:        metrics,
		readDBTimeout:  readDBTimeout,
		writeDBTimeout: writeDBTimeout,
	}
}

// Available never fails for an unknown spec; it reports zero.
func (s *service) Available(ctx context.Context, spec model.ProductSpec) (decimal.Decimal, error) {
	const op = "stock.service.Available"

	e, err := s.Entry(ctx, spec)
	if err != nil {
		if errors.Is(err, model.ErrStockNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return e.AvailableQuantity, nil
}

func (s *service) Entry(ctx context.Context, spec model.ProductSpec) (*model.StockEntry, error) {
	const op = "stock.service.Entry"
	log := logger.With(logger.String("spec", spec.Key()))

	if !spec.Complete() {
		log.Warn(ctx, "incomplete product spec")
		return nil, fmt.Errorf("%s: %w: product type, size and thickness are required", op, model.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.readDBTimeout)
	defer cancel()

	e, err := s.repo.Entry(ctx, spec.Normalize())
	if err != nil {
		if !errors.Is(err, model.ErrStockNotFound) {
			log.Error(ctx, "repository stock entry", logger.ErrorF(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

func (s *service) Decrement(ctx context.Context, m model.StockMovement) (*model.StockChange, error) {
	changes, err := s.DecrementBatch(ctx, []model.StockMovement{m})
	if err != nil {
		return nil, err
	}
	return &changes[0], nil
}

func (s *service) Increment(ctx context.Context, m model.StockMovement) (*model.StockChange, error) {
	changes, err := s.IncrementBatch(ctx, []model.StockMovement{m})
	if err != nil {
		return nil, err
	}
	return &changes[0], nil
}

// DecrementBatch takes every movement or none.
func (s *service) DecrementBatch(ctx context.Context, ms []model.StockMovement) (_ []model.StockChange, err error) {
	const op = "stock.service.DecrementBatch"
	defer s.observe(op, time.Now(), &err)

	return s.batch(ctx, op, ms, s.repo.DecrementBatch)
}

func (s *service) IncrementBatch(ctx context.Context, ms []model.StockMovement) (_ []model.StockChange, err error) {
	const op = "stock.service.IncrementBatch"
	defer s.observe(op, time.Now(), &err)

	return s.batch(ctx, op, ms, s.repo.IncrementBatch)
}

func (s *service) batch(
	ctx context.Context,
	op string,
	ms []model.StockMovement,
	apply func(context.Context, []model.StockMovement) ([]model.StockChange, error),
) ([]model.StockChange, error) {
	log := logger.With(logger.Int("movements", len(ms)))

	if err := validateMovements(ms); err != nil {
		log.Warn(ctx, "invalid stock movements", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.writeDBTimeout)
	defer cancel()

	changes, err := apply(ctx, model.MergeMovements(ms))
	if err != nil {
		if errors.Is(err, model.ErrInsufficientStock) {
			log.Info(ctx, "insufficient stock", logger.ErrorF(err))
		} else {
			log.Error(ctx, "repository apply stock movements", logger.ErrorF(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.report(ctx, changes...)

	return changes, nil
}

// Adjust sets the available quantity to m.Quantity after a stock take.
func (s *service) Adjust(ctx context.Context, m model.StockMovement) (_ *model.StockChange, err error) {
	const op = "stock.service.Adjust"
	defer s.observe(op, time.Now(), &err)
	log := logger.With(logger.String("spec", m.Spec.Key()), logger.String("quantity", m.Quantity.String()))

	if !m.Spec.Complete() || model.Round(m.Quantity).IsNegative() {
		log.Warn(ctx, "invalid adjustment")
		return nil, fmt.Errorf("%s: %w: complete spec and non-negative quantity required", op, model.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.writeDBTimeout)
	defer cancel()

	change, err := s.repo.Adjust(ctx, m)
	if err != nil {
		log.Error(ctx, "repository adjust stock", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.report(ctx, *change)

	return change, nil
}

func (s *service) SetLevels(ctx context.Context, levels model.StockLevels) (*model.StockEntry, error) {
	const op = "stock.service.SetLevels"
	log := logger.With(logger.String("spec", levels.Spec.Key()))

	minLevel, maxLevel := model.Round(levels.MinLevel), model.Round(levels.MaxLevel)
	if !levels.Spec.Complete() || minLevel.IsNegative() || maxLevel.IsNegative() ||
		(maxLevel.IsPositive() && maxLevel.LessThan(minLevel)) {
		log.Warn(ctx, "invalid stock levels")
		return nil, fmt.Errorf("%s: %w: 0 <= min <= max required", op, model.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.writeDBTimeout)
	defer cancel()

	e, err := s.repo.SetLevels(ctx, levels)
	if err != nil {
		log.Error(ctx, "repository set levels", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

func (s *service) Transactions(ctx context.Context, spec model.ProductSpec, limit int) ([]model.StockTransaction, error) {
	const op = "stock.service.Transactions"

	if !spec.Complete() {
		return nil, fmt.Errorf("%s: %w: product type, size and thickness are required", op, model.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.readDBTimeout)
	defer cancel()

	txs, err := s.repo.Transactions(ctx, spec.Normalize(), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return txs, nil
}

func (s *service) observe(op string, start time.Time, err *error) {
	s.metrics.Observe(op, *err, time.Since(start))
}

// report publishes levels and warns about entries under their reorder threshold.
func (s *service) report(ctx context.Context, changes ...model.StockChange) {
	for _, c := range changes {
		s.metrics.StockLevel(c.Spec, c.NewQuantity)

		e, err := s.repo.Entry(ctx, c.Spec)
		if err != nil || !e.BelowMin() {
			continue
		}
		logger.Warn(ctx, "stock below reorder level",
			logger.String("spec", c.Spec.Key()),
			logger.String("available", e.AvailableQuantity.String()),
			logger.String("min_level", e.MinLevel.String()),
		)
	}
}

func validateMovements(ms []model.StockMovement) error {
	if len(ms) == 0 {
		return fmt.Errorf("%w: at least one movement is required", model.ErrValidation)
	}
	for _, m := range ms {
		if !m.Spec.Complete() {
			return fmt.Errorf("%w: product type, size and thickness are required", model.ErrValidation)
		}
		if !model.Round(m.Quantity).IsPositive() {
			return fmt.Errorf("%w: quantity for %s must be positive", model.ErrValidation, m.Spec)
		}
	}
	return nil
}
