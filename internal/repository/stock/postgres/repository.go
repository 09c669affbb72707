package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

const pgCheckViolation = "23514"

var entryColumns = []string{
	"e.product_type", "e.size", "e.thickness",
	"e.available_quantity::text", "e.min_level::text", "e.max_level::text", "e.updated_at",
	"t.type", "t.quantity::text", "t.old_quantity::text", "t.new_quantity::text",
	"t.reference", "t.remarks", "t.created_at",
}

const lastTransactionJoin = `LEFT JOIN LATERAL (
	SELECT type, quantity, old_quantity, new_quantity, reference, remarks, created_at
	FROM stock_transactions
	WHERE spec_key = e.spec_key
	ORDER BY id DESC
	LIMIT 1
) t ON TRUE`

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewStockRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Entry(ctx context.Context, spec model.ProductSpec) (*model.StockEntry, error) {
	return r.entry(ctx, r.pool, spec)
}

func (r *repository) entry(ctx context.Context, q pgxQuerier, spec model.ProductSpec) (*model.StockEntry, error) {
	sqlStr, args, err := r.sb.
		Select(entryColumns...).
		From("stock_entries e").
		JoinClause(lastTransactionJoin).
		Where(sq.Eq{"e.spec_key": spec.Key()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row entryRow
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(row.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrStockNotFound
		}
		return nil, err
	}

	return row.toModel()
}

func (r *repository) DecrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error) {
	return r.apply(ctx, ms, model.TransactionOut)
}

func (r *repository) IncrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error) {
	return r.apply(ctx, ms, model.TransactionIn)
}

// apply locks every touched row in spec key order inside one transaction.
func (r *repository) apply(ctx context.Context, ms []model.StockMovement, typ model.TransactionType) ([]model.StockChange, error) {
	ms = model.MergeMovements(ms)
	keys := lo.Map(ms, func(m model.StockMovement, _ int) string { return m.Spec.Key() })

	var changes []model.StockChange
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if typ == model.TransactionIn {
			for _, m := range ms {
				if err := r.ensure(ctx, tx, m.Spec); err != nil {
					return err
				}
			}
		}

		current, err := r.lockRows(ctx, tx, keys)
		if err != nil {
			return err
		}

		changes = make([]model.StockChange, 0, len(ms))
		for _, m := range ms {
			old := current[m.Spec.Key()]
			next := old.Add(m.Quantity)
			if typ == model.TransactionOut {
				next = old.Sub(m.Quantity)
				if next.IsNegative() {
					return &model.InsufficientStockError{Spec: m.Spec, Requested: m.Quantity, Available: old}
				}
			}
			changes = append(changes, model.StockChange{Spec: m.Spec, OldQuantity: old, NewQuantity: next})
		}

		for i, m := range ms {
			if err := r.write(ctx, tx, m, typ, changes[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	return changes, nil
}

func (r *repository) Adjust(ctx context.Context, m model.StockMovement) (*model.StockChange, error) {
	m.Spec = m.Spec.Normalize()
	m.Quantity = model.Round(m.Quantity)

	var change model.StockChange
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.ensure(ctx, tx, m.Spec); err != nil {
			return err
		}
		current, err := r.lockRows(ctx, tx, []string{m.Spec.Key()})
		if err != nil {
			return err
		}
		change = model.StockChange{Spec: m.Spec, OldQuantity: current[m.Spec.Key()], NewQuantity: m.Quantity}
		return r.write(ctx, tx, m, model.TransactionAdjustment, change)
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &change, nil
}

func (r *repository) SetLevels(ctx context.Context, levels model.StockLevels) (*model.StockEntry, error) {
	spec := levels.Spec.Normalize()

	var entry *model.StockEntry
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.ensure(ctx, tx, spec); err != nil {
			return err
		}

		sqlStr, args, err := r.sb.
			Update("stock_entries").
			Set("min_level", num(levels.MinLevel)).
			Set("max_level", num(levels.MaxLevel)).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"spec_key": spec.Key()}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
			return err
		}

		entry, err = r.entry(ctx, tx, spec)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *repository) Transactions(ctx context.Context, spec model.ProductSpec, limit int) ([]model.StockTransaction, error) {
	if _, err := r.Entry(ctx, spec); err != nil {
		return nil, err
	}

	q := r.sb.
		Select("type", "quantity::text", "old_quantity::text", "new_quantity::text", "reference", "remarks", "created_at").
		From("stock_transactions").
		Where(sq.Eq{"spec_key": spec.Key()}).
		OrderBy("id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.StockTransaction, 0)
	for rows.Next() {
		var (
			tx                model.StockTransaction
			typ, qty, old, nw string
		)
		if err := rows.Scan(&typ, &qty, &old, &nw, &tx.Reference, &tx.Remarks, &tx.CreatedAt); err != nil {
			return nil, err
		}
		nums, err := parseAll(qty, old, nw)
		if err != nil {
			return nil, err
		}
		tx.Spec = spec.Normalize()
		tx.Type = model.TransactionType(typ)
		tx.Quantity, tx.OldQuantity, tx.NewQuantity = nums[0], nums[1], nums[2]
		out = append(out, tx)
	}

	return out, rows.Err()
}

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *repository) ensure(ctx context.Context, tx pgx.Tx, spec model.ProductSpec) error {
	sqlStr, args, err := r.sb.
		Insert("stock_entries").
		Columns("spec_key", "product_type", "size", "thickness").
		Values(spec.Key(), spec.ProductType, spec.Size, spec.Thickness).
		Suffix("ON CONFLICT (spec_key) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, sqlStr, args...)
	return err
}

// lockRows returns the available quantity of every existing key. Missing keys are absent.
func (r *repository) lockRows(ctx context.Context, tx pgx.Tx, keys []string) (map[string]decimal.Decimal, error) {
	sqlStr, args, err := r.sb.
		Select("spec_key", "available_quantity::text").
		From("stock_entries").
		Where(sq.Eq{"spec_key": keys}).
		OrderBy("spec_key").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal, len(keys))
	for rows.Next() {
		var key, available string
		if err := rows.Scan(&key, &available); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(available)
		if err != nil {
			return nil, err
		}
		out[key] = d
	}

	return out, rows.Err()
}

func (r *repository) write(ctx context.Context, tx pgx.Tx, m model.StockMovement, typ model.TransactionType, c model.StockChange) error {
	now := time.Now().UTC()

	upd, args, err := r.sb.
		Update("stock_entries").
		Set("available_quantity", num(c.NewQuantity)).
		Set("updated_at", now).
		Where(sq.Eq{"spec_key": m.Spec.Key()}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, upd, args...); err != nil {
		return err
	}

	ins, args, err := r.sb.
		Insert("stock_transactions").
		Columns("spec_key", "type", "quantity", "old_quantity", "new_quantity", "reference", "remarks", "created_at").
		Values(m.Spec.Key(), string(typ), num(m.Quantity), num(c.OldQuantity), num(c.NewQuantity), m.Reference, m.Remarks, now).
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, ins, args...)
	return err
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
		return fmt.Errorf("%w: %s", model.ErrInsufficientStock, pgErr.Message)
	}
	return err
}
