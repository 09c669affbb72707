// Package fulfillment computes per-spec ordered, dispatched and remaining
// quantities of an order from its dispatch history.
package fulfillment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

type Line struct {
	Spec       model.ProductSpec
	Ordered    decimal.Decimal
	Dispatched decimal.Decimal
	Remaining  decimal.Decimal
}

type Result map[model.ProductSpec]Line

// Compute aggregates order lines and fulfilling dispatch records per spec.
// Only records that consumed stock are counted; open continuation records
// are plans and cancelled records never count.
func Compute(order *model.Order, records []*model.DispatchRecord) (Result, error) {
	res := make(Result, len(order.Lines))

	for _, l := range order.Lines {
		spec := l.Spec.Normalize()
		cur := res[spec]
		cur.Spec = spec
		cur.Ordered = cur.Ordered.Add(model.Round(l.OrderedQuantity))
		res[spec] = cur
	}

	for _, r := range records {
		if r == nil || r.OrderID != order.ID || !r.Status.Fulfilling() {
			continue
		}
		for _, l := range r.Lines {
			spec := l.Spec.Normalize()
			cur, ok := res[spec]
			if !ok {
				return nil, &model.InvariantViolationError{
					OrderID: order.ID,
					Spec:    spec,
					Detail:  fmt.Sprintf("dispatch record %s dispatched a spec that is not on the order", r.ID),
				}
			}
			cur.Dispatched = cur.Dispatched.Add(model.Round(l.DispatchedQuantity))
			res[spec] = cur
		}
	}

	for spec, cur := range res {
		cur.Remaining = cur.Ordered.Sub(cur.Dispatched)
		if cur.Remaining.IsNegative() {
			return nil, &model.InvariantViolationError{
				OrderID: order.ID,
				Spec:    spec,
				Detail: fmt.Sprintf("dispatched %s exceeds ordered %s",
					cur.Dispatched.StringFixed(model.QuantityPlaces),
					cur.Ordered.StringFixed(model.QuantityPlaces)),
			}
		}
		res[spec] = cur
	}

	return res, nil
}

// Specs returns the specs of the result in key order.
func (r Result) Specs() []model.ProductSpec {
	specs := make([]model.ProductSpec, 0, len(r))
	for spec := range r {
		specs = append(specs, spec)
	}
	model.SortSpecs(specs)
	return specs
}

// Outstanding returns lines with remaining > 0 in key order.
func (r Result) Outstanding() []Line {
	var out []Line
	for _, spec := range r.Specs() {
		if l := r[spec]; l.Remaining.IsPositive() {
			out = append(out, l)
		}
	}
	return out
}

func (r Result) Fulfilled() bool {
	for _, l := range r {
		if l.Remaining.IsPositive() {
			return false
		}
	}
	return true
}

// Dispatched reports whether any stock has been dispatched against the order.
func (r Result) Dispatched() bool {
	for _, l := range r {
		if l.Dispatched.IsPositive() {
			return true
		}
	}
	return false
}

func (r Result) Remaining(spec model.ProductSpec) decimal.Decimal {
	return r[spec.Normalize()].Remaining
}
