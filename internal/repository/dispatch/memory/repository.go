package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

type sequenceKey struct {
	prefix string
	year   int
}

type repository struct {
	mu        sync.RWMutex
	orders    map[uuid.UUID]*model.Order
	numbers   map[string]uuid.UUID
	records   map[uuid.UUID]*model.DispatchRecord
	byOrder   map[uuid.UUID][]uuid.UUID
	sequences map[sequenceKey]int64
}

func NewDispatchRepository() *repository {
	return &repository{
		orders:    make(map[uuid.UUID]*model.Order),
		numbers:   make(map[string]uuid.UUID),
		records:   make(map[uuid.UUID]*model.DispatchRecord),
		byOrder:   make(map[uuid.UUID][]uuid.UUID),
		sequences: make(map[sequenceKey]int64),
	}
}

func (r *repository) CreateOrder(_ context.Context, ord *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[ord.ID]; ok {
		return model.ErrConflict
	}
	if _, ok := r.numbers[ord.Number]; ok {
		return model.ErrConflict
	}

	r.orders[ord.ID] = ord.Clone()
	r.numbers[ord.Number] = ord.ID

	return nil
}

func (r *repository) Order(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ord, ok := r.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}

	return ord.Clone(), nil
}

func (r *repository) Record(_ context.Context, id uuid.UUID) (*model.DispatchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, model.ErrDispatchNotFound
	}

	return rec.Clone(), nil
}

// Records returns every record of the order in creation order.
func (r *repository) Records(_ context.Context, orderID uuid.UUID) ([]*model.DispatchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byOrder[orderID]
	out := make([]*model.DispatchRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.records[id].Clone())
	}

	return out, nil
}

func (r *repository) List(_ context.Context, f model.DispatchFilter) ([]*model.DispatchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.DispatchRecord, 0)
	for _, rec := range r.records {
		if f.OrderID != nil && rec.OrderID != *f.OrderID {
			continue
		}
		if f.Status != nil && rec.Status != *f.Status {
			continue
		}
		if f.From != nil && rec.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !rec.CreatedAt.Before(*f.To) {
			continue
		}
		out = append(out, rec.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].HumanNumber > out[j].HumanNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && uint64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}

	return out, nil
}

// Commit validates everything before mutating, so a rejected commit leaves no trace.
// Inserted records get their human number and timestamps assigned in place.
func (r *repository) Commit(_ context.Context, c *model.DispatchCommit) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ord, ok := r.orders[c.OrderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	if ord.Version != c.ExpectedVersion {
		return nil, model.ErrConflict
	}

	for _, t := range c.Transitions {
		rec, ok := r.records[t.RecordID]
		if !ok {
			return nil, model.ErrDispatchNotFound
		}
		if err := model.ValidateTransition(rec, c.OrderID, t); err != nil {
			return nil, err
		}
	}
	for _, ins := range c.Inserts {
		if _, ok := r.records[ins.ID]; ok {
			return nil, model.ErrConflict
		}
	}

	at := c.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	for _, t := range c.Transitions {
		model.ApplyTransition(r.records[t.RecordID], t, at)
	}

	for _, ins := range c.Inserts {
		key := sequenceKey{prefix: c.NumberPrefix, year: at.Year()}
		r.sequences[key]++
		ins.HumanNumber = model.FormatHumanNumber(key.prefix, key.year, r.sequences[key])
		ins.CreatedAt = at
		ins.UpdatedAt = at

		r.records[ins.ID] = ins.Clone()
		r.byOrder[ins.OrderID] = append(r.byOrder[ins.OrderID], ins.ID)
	}

	model.ApplyOrderChange(ord, c.Order, at)

	return ord.Clone(), nil
}
