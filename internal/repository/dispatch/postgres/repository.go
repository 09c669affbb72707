package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

const pgUniqueViolation = "23505"

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewDispatchRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) CreateOrder(ctx context.Context, ord *model.Order) error {
	lines, err := orderLinesJSON(ord.Lines)
	if err != nil {
		return err
	}

	sqlStr, args, err := r.sb.
		Insert("orders").
		Columns("id", "number", "customer", "lines", "approval_status", "status", "version", "created_at", "updated_at").
		Values(ord.ID, ord.Number, ord.Customer, lines, string(ord.ApprovalStatus), string(ord.Status), ord.Version, ord.CreatedAt, ord.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, sqlStr, args...); err != nil {
		return mapError(err)
	}

	return nil
}

func (r *repository) Order(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.order(ctx, r.pool, id, false)
}

func (r *repository) order(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*model.Order, error) {
	b := r.sb.Select(orderColumns...).From("orders").Where(sq.Eq{"id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var row orderRow
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(row.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, err
	}

	return row.toModel()
}

func (r *repository) Record(ctx context.Context, id uuid.UUID) (*model.DispatchRecord, error) {
	return r.record(ctx, r.pool, id, false)
}

func (r *repository) record(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*model.DispatchRecord, error) {
	b := r.sb.Select(recordColumns...).From("dispatch_records").Where(sq.Eq{"id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var row recordRow
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(row.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDispatchNotFound
		}
		return nil, err
	}

	return row.toModel()
}

func (r *repository) Records(ctx context.Context, orderID uuid.UUID) ([]*model.DispatchRecord, error) {
	return r.list(ctx, r.sb.
		Select(recordColumns...).
		From("dispatch_records").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("created_at", "human_number"))
}

func (r *repository) List(ctx context.Context, f model.DispatchFilter) ([]*model.DispatchRecord, error) {
	b := r.sb.
		Select(recordColumns...).
		From("dispatch_records").
		OrderBy("created_at DESC", "human_number DESC")

	if f.OrderID != nil {
		b = b.Where(sq.Eq{"order_id": *f.OrderID})
	}
	if f.Status != nil {
		b = b.Where(sq.Eq{"status": string(*f.Status)})
	}
	if f.From != nil {
		b = b.Where(sq.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		b = b.Where(sq.Lt{"created_at": *f.To})
	}
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}

	return r.list(ctx, b)
}

func (r *repository) list(ctx context.Context, b sq.SelectBuilder) ([]*model.DispatchRecord, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.DispatchRecord, 0)
	for rows.Next() {
		var row recordRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, err
		}
		rec, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

// Commit runs in one transaction: the order row is locked and version-checked,
// transitions are checked against the locked record rows, and inserted records
// draw their numbers from dispatch_sequences.
func (r *repository) Commit(ctx context.Context, c *model.DispatchCommit) (*model.Order, error) {
	at := c.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var out *model.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ord, err := r.order(ctx, tx, c.OrderID, true)
		if err != nil {
			return err
		}
		if ord.Version != c.ExpectedVersion {
			return model.ErrConflict
		}

		for _, t := range c.Transitions {
			rec, err := r.record(ctx, tx, t.RecordID, true)
			if err != nil {
				return err
			}
			if err := model.ValidateTransition(rec, c.OrderID, t); err != nil {
				return err
			}
			model.ApplyTransition(rec, t, at)
			if err := r.updateRecord(ctx, tx, rec, t.From); err != nil {
				return err
			}
		}

		for _, ins := range c.Inserts {
			seq, err := r.nextSequence(ctx, tx, c.NumberPrefix, at.Year())
			if err != nil {
				return err
			}
			ins.HumanNumber = model.FormatHumanNumber(c.NumberPrefix, at.Year(), seq)
			ins.CreatedAt = at
			ins.UpdatedAt = at
			if err := r.insertRecord(ctx, tx, ins); err != nil {
				return err
			}
		}

		model.ApplyOrderChange(ord, c.Order, at)
		if err := r.updateOrder(ctx, tx, ord); err != nil {
			return err
		}

		out = ord
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	return out, nil
}

func (r *repository) nextSequence(ctx context.Context, tx pgx.Tx, prefix string, year int) (int64, error) {
	sqlStr, args, err := r.sb.
		Insert("dispatch_sequences").
		Columns("prefix", "year", "value").
		Values(prefix, year, 1).
		Suffix("ON CONFLICT (prefix, year) DO UPDATE SET value = dispatch_sequences.value + 1 RETURNING value").
		ToSql()
	if err != nil {
		return 0, err
	}

	var seq int64
	if err := tx.QueryRow(ctx, sqlStr, args...).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *repository) insertRecord(ctx context.Context, tx pgx.Tx, rec *model.DispatchRecord) error {
	lines, err := dispatchLinesJSON(rec.Lines)
	if err != nil {
		return err
	}

	sqlStr, args, err := r.sb.
		Insert("dispatch_records").
		Columns(
			"id", "human_number", "order_id", "parent_id", "lines",
			"subtotal", "tax", "grand", "status", "auto_generated",
			"approved_by", "approved_at", "approved_quantity", "executed_at",
			"updated_by", "remarks", "created_at", "updated_at",
		).
		Values(
			rec.ID, rec.HumanNumber, rec.OrderID, rec.ParentID, lines,
			num(rec.Totals.Subtotal), num(rec.Totals.Tax), num(rec.Totals.Grand), string(rec.Status), rec.AutoGenerated,
			rec.ApprovedBy, rec.ApprovedAt, num(rec.ApprovedQuantity), rec.ExecutedAt,
			rec.UpdatedBy, rec.Remarks, rec.CreatedAt, rec.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sqlStr, args...)
	return err
}

func (r *repository) updateRecord(ctx context.Context, tx pgx.Tx, rec *model.DispatchRecord, from model.DispatchStatus) error {
	lines, err := dispatchLinesJSON(rec.Lines)
	if err != nil {
		return err
	}

	sqlStr, args, err := r.sb.
		Update("dispatch_records").
		SetMap(map[string]any{
			"lines":             lines,
			"subtotal":          num(rec.Totals.Subtotal),
			"tax":               num(rec.Totals.Tax),
			"grand":             num(rec.Totals.Grand),
			"status":            string(rec.Status),
			"approved_by":       rec.ApprovedBy,
			"approved_at":       rec.ApprovedAt,
			"approved_quantity": num(rec.ApprovedQuantity),
			"executed_at":       rec.ExecutedAt,
			"dispatched_at":     rec.DispatchedAt,
			"delivered_at":      rec.DeliveredAt,
			"cancelled_at":      rec.CancelledAt,
			"updated_by":        rec.UpdatedBy,
			"remarks":           rec.Remarks,
			"updated_at":        rec.UpdatedAt,
		}).
		Where(sq.Eq{"id": rec.ID, "status": string(from)}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return model.ErrConflict
	}
	return nil
}

func (r *repository) updateOrder(ctx context.Context, tx pgx.Tx, ord *model.Order) error {
	sqlStr, args, err := r.sb.
		Update("orders").
		SetMap(map[string]any{
			"status":          string(ord.Status),
			"approval_status": string(ord.ApprovalStatus),
			"approved_by":     ord.ApprovedBy,
			"approved_at":     ord.ApprovedAt,
			"version":         ord.Version,
			"updated_at":      ord.UpdatedAt,
		}).
		Where(sq.Eq{"id": ord.ID, "version": ord.Version - 1}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return model.ErrConflict
	}
	return nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return model.ErrConflict
	}
	return err
}
