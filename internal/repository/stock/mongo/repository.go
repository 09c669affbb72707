package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

const (
	historyLimit    = 200
	maxAttempts     = 16
	rollbackTimeout = 10 * time.Second
)

var errVersionMismatch = errors.New("stock entry changed concurrently")

type repository struct {
	coll *mongo.Collection
}

func NewStockRepository(collection *mongo.Collection) *repository {
	return &repository{coll: collection}
}

func (r *repository) Entry(ctx context.Context, spec model.ProductSpec) (*model.StockEntry, error) {
	const op = "repository.stock.Entry"

	ent, err := r.find(ctx, spec)
	if err != nil {
		if errors.Is(err, model.ErrStockNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return EntityToModel(ent), nil
}

func (r *repository) DecrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error) {
	const op = "repository.stock.DecrementBatch"

	ms = model.MergeMovements(ms)
	changes := make([]model.StockChange, 0, len(ms))

	for i, m := range ms {
		change, err := r.mutate(ctx, m, model.TransactionOut, func(old decimal.Decimal) (decimal.Decimal, error) {
			next := old.Sub(m.Quantity)
			if next.IsNegative() {
				return decimal.Zero, &model.InsufficientStockError{Spec: m.Spec, Requested: m.Quantity, Available: old}
			}
			return next, nil
		}, false)
		if err != nil {
			if uerr := r.undo(ctx, ms[:i], err); uerr != nil {
				return nil, fmt.Errorf("%s: %w", op, errors.Join(model.ErrInternal, err, uerr))
			}
			if errors.Is(err, model.ErrInsufficientStock) {
				return nil, err
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		changes = append(changes, *change)
	}

	return changes, nil
}

// undo returns stock taken by the applied prefix of a failed batch. It runs
// detached from ctx, which may be the reason the batch failed.
func (r *repository) undo(ctx context.Context, applied []model.StockMovement, cause error) error {
	if len(applied) == 0 {
		return nil
	}

	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	var errs []error
	for _, m := range applied {
		m.Remarks = "batch rollback: " + cause.Error()
		if _, err := r.IncrementBatch(uctx, []model.StockMovement{m}); err != nil {
			logger.Error(ctx, "failed to roll back stock decrement",
				logger.String("spec", m.Spec.Key()),
				logger.String("quantity", m.Quantity.String()),
				logger.ErrorF(err),
			)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (r *repository) IncrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error) {
	const op = "repository.stock.IncrementBatch"

	ms = model.MergeMovements(ms)
	changes := make([]model.StockChange, 0, len(ms))

	for _, m := range ms {
		change, err := r.mutate(ctx, m, model.TransactionIn, func(old decimal.Decimal) (decimal.Decimal, error) {
			return old.Add(m.Quantity), nil
		}, true)
		if err != nil {
			return changes, fmt.Errorf("%s: %w", op, err)
		}
		changes = append(changes, *change)
	}

	return changes, nil
}

func (r *repository) Adjust(ctx context.Context, m model.StockMovement) (*model.StockChange, error) {
	const op = "repository.stock.Adjust"

	m.Spec = m.Spec.Normalize()
	m.Quantity = model.Round(m.Quantity)

	change, err := r.mutate(ctx, m, model.TransactionAdjustment, func(decimal.Decimal) (decimal.Decimal, error) {
		return m.Quantity, nil
	}, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return change, nil
}

func (r *repository) SetLevels(ctx context.Context, levels model.StockLevels) (*model.StockEntry, error) {
	const op = "repository.stock.SetLevels"

	spec := levels.Spec.Normalize()
	if err := r.ensure(ctx, spec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var ent EntryEntity
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": spec.Key()},
		bson.M{
			"$set": bson.M{
				"min_level":  toDecimal128(levels.MinLevel),
				"max_level":  toDecimal128(levels.MaxLevel),
				"updated_at": time.Now().UTC(),
			},
			"$inc": bson.M{"version": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return EntityToModel(&ent), nil
}

func (r *repository) Transactions(ctx context.Context, spec model.ProductSpec, limit int) ([]model.StockTransaction, error) {
	const op = "repository.stock.Transactions"

	ent, err := r.find(ctx, spec)
	if err != nil {
		if errors.Is(err, model.ErrStockNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.StockTransaction, 0, len(ent.Transactions))
	for i := len(ent.Transactions) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, TransactionToModel(spec.Normalize(), &ent.Transactions[i]))
	}

	return out, nil
}

func (r *repository) find(ctx context.Context, spec model.ProductSpec) (*EntryEntity, error) {
	var ent EntryEntity
	err := r.coll.FindOne(ctx, bson.M{"_id": spec.Key()}).Decode(&ent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrStockNotFound
		}
		return nil, err
	}
	return &ent, nil
}

func (r *repository) ensure(ctx context.Context, spec model.ProductSpec) error {
	zero := toDecimal128(decimal.Zero)
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": spec.Key()},
		bson.M{"$setOnInsert": bson.M{
			"product_type":       spec.ProductType,
			"size":               spec.Size,
			"thickness":          spec.Thickness,
			"available_quantity": zero,
			"min_level":          zero,
			"max_level":          zero,
			"version":            int64(0),
			"updated_at":         time.Now().UTC(),
		}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

// mutate is a compare-and-set on the entry version. The quantity, the last
// transaction and the bounded history change in one document update.
func (r *repository) mutate(
	ctx context.Context,
	m model.StockMovement,
	typ model.TransactionType,
	next func(old decimal.Decimal) (decimal.Decimal, error),
	create bool,
) (*model.StockChange, error) {
	if create {
		if err := r.ensure(ctx, m.Spec); err != nil {
			return nil, err
		}
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		ent, err := r.find(ctx, m.Spec)
		if err != nil {
			if errors.Is(err, model.ErrStockNotFound) && typ == model.TransactionOut {
				return nil, &model.InsufficientStockError{Spec: m.Spec, Requested: m.Quantity, Available: decimal.Zero}
			}
			return nil, err
		}

		old := fromDecimal128(ent.Available)
		nw, err := next(old)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		tx := TransactionFromModel(model.StockTransaction{
			Spec:        m.Spec,
			Type:        typ,
			Quantity:    m.Quantity,
			OldQuantity: old,
			NewQuantity: nw,
			Reference:   m.Reference,
			Remarks:     m.Remarks,
			CreatedAt:   now,
		})

		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": m.Spec.Key(), "version": ent.Version},
			bson.M{
				"$set": bson.M{
					"available_quantity": toDecimal128(nw),
					"last_transaction":   tx,
					"updated_at":         now,
				},
				"$inc":  bson.M{"version": 1},
				"$push": bson.M{"transactions": bson.M{"$each": bson.A{tx}, "$slice": -historyLimit}},
			},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return &model.StockChange{Spec: m.Spec, OldQuantity: old, NewQuantity: nw}, nil
		}
	}

	return nil, fmt.Errorf("%w: %w", model.ErrConflict, errVersionMismatch)
}
