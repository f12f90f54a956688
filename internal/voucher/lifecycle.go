package voucher

import (
	"context"
	"fmt"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

type Stage string

const (
	StageDraft     Stage = "draft"
	StageEstimated Stage = "estimated"
	StageFinalized Stage = "finalized"
)

type Estimator interface {
	RecomputeItems(ctx context.Context, t trip.Trip, items []lineitem.LineItem) (estimate.Totals, error)
}

// Lifecycle is a value: every transition returns a new Lifecycle and leaves
// the receiver untouched.
type Lifecycle struct {
	trip     trip.Trip
	items    []lineitem.LineItem
	estimate *estimate.Totals
	voucher  *TdyVoucher
}

func NewDraft(t trip.Trip, items []lineitem.LineItem) Lifecycle {
	return Lifecycle{trip: t, items: append([]lineitem.LineItem(nil), items...)}
}

func (l Lifecycle) Stage() Stage {
	switch {
	case l.voucher != nil:
		return StageFinalized
	case l.estimate != nil:
		return StageEstimated
	default:
		return StageDraft
	}
}

func (l Lifecycle) Trip() trip.Trip            { return l.trip }
func (l Lifecycle) Items() []lineitem.LineItem { return append([]lineitem.LineItem(nil), l.items...) }
func (l Lifecycle) Estimate() (estimate.Totals, bool) {
	if l.estimate == nil {
		return estimate.Totals{}, false
	}
	return *l.estimate, true
}
func (l Lifecycle) Voucher() (*TdyVoucher, bool) { return l.voucher, l.voucher != nil }

// Recompute moves Draft or Estimated to Estimated. It may be called as often
// as items change; a finalized lifecycle must be revised first.
func (l Lifecycle) Recompute(ctx context.Context, engine Estimator) (Lifecycle, error) {
	if l.Stage() == StageFinalized {
		return l, invalidTransition(l.Stage(), StageEstimated)
	}
	totals, err := engine.RecomputeItems(ctx, l.trip, l.items)
	if err != nil {
		return l, err
	}
	next := l
	next.estimate = &totals
	return next, nil
}

// WithEstimate records totals computed elsewhere. Finalize still verifies
// that they match the current inputs.
func (l Lifecycle) WithEstimate(totals estimate.Totals) (Lifecycle, error) {
	if l.Stage() == StageFinalized {
		return l, invalidTransition(l.Stage(), StageEstimated)
	}
	next := l
	next.estimate = &totals
	return next, nil
}

// Finalize moves Estimated to Finalized. Finalizing again returns the same voucher.
func (l Lifecycle) Finalize(a *Assembler, premium bool) (Lifecycle, error) {
	if err := CheckAccess(premium); err != nil {
		return l, err
	}
	switch l.Stage() {
	case StageFinalized:
		return l, nil
	case StageDraft:
		return l, invalidTransition(StageDraft, StageFinalized)
	}

	v, err := a.Assemble(l.trip, l.items, *l.estimate, premium)
	if err != nil {
		return l, err
	}
	next := l
	next.voucher = v
	return next, nil
}

// Revise returns to Draft with new inputs, dropping any estimate and voucher.
func (l Lifecycle) Revise(t trip.Trip, items []lineitem.LineItem) Lifecycle {
	return NewDraft(t, items)
}

func invalidTransition(from, to Stage) error {
	return internal.NewConflictError(fmt.Sprintf("cannot move from %s to %s", from, to), internal.ErrCodeInvalidTransition)
}
