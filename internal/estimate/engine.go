package estimate

import (
	"context"

	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

// Engine is the explicit recompute entry point: callers invoke it after a
// batch of edits. It holds no state between calls.
type Engine struct {
	calculator *Calculator
}

func NewEngine(resolver RateResolver, maxConcurrent int) *Engine {
	return &Engine{calculator: NewCalculator(resolver, maxConcurrent)}
}

// Recompute classifies raw items and computes totals. Items are rejected
// before any rate is looked up.
func (e *Engine) Recompute(ctx context.Context, t trip.Trip, raw []lineitem.RawItem) (Totals, []lineitem.LineItem, error) {
	if appErr := t.Validate(); appErr != nil {
		return Totals{}, nil, appErr
	}
	items, err := lineitem.Classify(t, raw)
	if err != nil {
		return Totals{}, nil, err
	}
	totals, err := e.RecomputeItems(ctx, t, items)
	if err != nil {
		return Totals{}, nil, err
	}
	return totals, items, nil
}

func (e *Engine) RecomputeItems(ctx context.Context, t trip.Trip, items []lineitem.LineItem) (Totals, error) {
	if appErr := t.Validate(); appErr != nil {
		return Totals{}, appErr
	}
	if appErr := lineitem.Validate(t, items); appErr != nil {
		return Totals{}, appErr
	}
	days, err := e.calculator.Entitlements(ctx, t)
	if err != nil {
		return Totals{}, err
	}
	return Compose(t, days, items), nil
}
