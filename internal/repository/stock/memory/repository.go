package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/lock"
)

const historyLimit = 500

// shard holds one spec. Writers hold the spec key in specs; mu only keeps
// readers from seeing a half-written entry.
type shard struct {
	mu      sync.RWMutex
	entry   *model.StockEntry
	history []model.StockTransaction
}

type repository struct {
	specs *lock.KeyedMutex

	mu     sync.RWMutex
	shards map[string]*shard

	now func() time.Time
}

func NewStockRepository() *repository {
	return &repository{
		specs:  lock.NewKeyedMutex(),
		shards: make(map[string]*shard),
		now:    time.Now,
	}
}

func (r *repository) Entry(_ context.Context, spec model.ProductSpec) (*model.StockEntry, error) {
	sh, ok := r.shard(spec)
	if !ok {
		return nil, model.ErrStockNotFound
	}

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	return cloneEntry(sh.entry), nil
}

func (r *repository) DecrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error) {
	return r.apply(ctx, ms, model.TransactionOut)
}

func (r *repository) IncrementBatch(ctx context.Context, ms []model.StockMovement) ([]model.StockChange, error) {
	return r.apply(ctx, ms, model.TransactionIn)
}

// apply checks every movement before touching any entry, so a batch is all-or-nothing.
func (r *repository) apply(ctx context.Context, ms []model.StockMovement, typ model.TransactionType) ([]model.StockChange, error) {
	ms = model.MergeMovements(ms)

	release, err := r.specs.LockAll(ctx, lo.Map(ms, func(m model.StockMovement, _ int) string {
		return m.Spec.Key()
	}))
	if err != nil {
		return nil, err
	}
	defer release()

	changes := make([]model.StockChange, 0, len(ms))
	for _, m := range ms {
		old := r.available(m.Spec)
		next := old.Add(m.Quantity)
		if typ == model.TransactionOut {
			next = old.Sub(m.Quantity)
			if next.IsNegative() {
				return nil, &model.InsufficientStockError{Spec: m.Spec, Requested: m.Quantity, Available: old}
			}
		}
		changes = append(changes, model.StockChange{Spec: m.Spec, OldQuantity: old, NewQuantity: next})
	}

	now := r.now()
	for i, m := range ms {
		r.write(m, typ, changes[i], now)
	}

	return changes, nil
}

func (r *repository) Adjust(ctx context.Context, m model.StockMovement) (*model.StockChange, error) {
	m.Spec = m.Spec.Normalize()
	m.Quantity = model.Round(m.Quantity)

	release, err := r.specs.Lock(ctx, m.Spec.Key(), 0)
	if err != nil {
		return nil, err
	}
	defer release()

	change := model.StockChange{
		Spec:        m.Spec,
		OldQuantity: r.available(m.Spec),
		NewQuantity: m.Quantity,
	}
	r.write(m, model.TransactionAdjustment, change, r.now())

	return &change, nil
}

func (r *repository) SetLevels(ctx context.Context, levels model.StockLevels) (*model.StockEntry, error) {
	spec := levels.Spec.Normalize()

	release, err := r.specs.Lock(ctx, spec.Key(), 0)
	if err != nil {
		return nil, err
	}
	defer release()

	sh := r.shardFor(spec)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.entry.MinLevel = model.Round(levels.MinLevel)
	sh.entry.MaxLevel = model.Round(levels.MaxLevel)
	sh.entry.UpdatedAt = r.now()

	return cloneEntry(sh.entry), nil
}

func (r *repository) Transactions(_ context.Context, spec model.ProductSpec, limit int) ([]model.StockTransaction, error) {
	sh, ok := r.shard(spec)
	if !ok {
		return nil, model.ErrStockNotFound
	}

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	h := sh.history
	out := make([]model.StockTransaction, 0, len(h))
	for i := len(h) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, h[i])
	}

	return out, nil
}

// available must be called with the spec key held.
func (r *repository) available(spec model.ProductSpec) decimal.Decimal {
	sh, ok := r.shard(spec)
	if !ok {
		return decimal.Zero
	}

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	return sh.entry.AvailableQuantity
}

// write must be called with the spec key held.
func (r *repository) write(m model.StockMovement, typ model.TransactionType, c model.StockChange, now time.Time) {
	tx := model.StockTransaction{
		Spec:        m.Spec,
		Type:        typ,
		Quantity:    m.Quantity,
		OldQuantity: c.OldQuantity,
		NewQuantity: c.NewQuantity,
		Reference:   m.Reference,
		Remarks:     m.Remarks,
		CreatedAt:   now,
	}

	sh := r.shardFor(m.Spec)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.entry.AvailableQuantity = c.NewQuantity
	sh.entry.LastTransaction = &tx
	sh.entry.UpdatedAt = now

	sh.history = append(sh.history, tx)
	if len(sh.history) > historyLimit {
		sh.history = sh.history[len(sh.history)-historyLimit:]
	}
}

func (r *repository) shard(spec model.ProductSpec) (*shard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sh, ok := r.shards[spec.Key()]
	return sh, ok
}

func (r *repository) shardFor(spec model.ProductSpec) *shard {
	if sh, ok := r.shard(spec); ok {
		return sh
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sh, ok := r.shards[spec.Key()]
	if !ok {
		sh = &shard{entry: &model.StockEntry{Spec: spec}}
		r.shards[spec.Key()] = sh
	}
	return sh
}

func cloneEntry(e *model.StockEntry) *model.StockEntry {
	c := *e
	if e.LastTransaction != nil {
		tx := *e.LastTransaction
		c.LastTransaction = &tx
	}
	return &c
}
