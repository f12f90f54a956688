package voucher

import (
	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

// CheckAccess is the finalization gate. The claim is decided by the caller.
func CheckAccess(premium bool) error {
	if !premium {
		return internal.NewAccessDeniedError("voucher finalization requires premium access")
	}
	return nil
}

// CheckFresh fails with STALE_ESTIMATE when totals were not computed from
// exactly this trip and these items.
func CheckFresh(t trip.Trip, items []lineitem.LineItem, totals estimate.Totals) error {
	if totals.InputFingerprint != estimate.InputFingerprint(t, items) {
		return internal.NewConflictError("the trip or its items changed since the estimate was computed; recompute before finalizing",
			internal.ErrCodeStaleEstimate)
	}
	return nil
}

type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the voucher. The checklist never blocks assembly; only a
// missing claim or a stale estimate does.
func (a *Assembler) Assemble(t trip.Trip, items []lineitem.LineItem, totals estimate.Totals, premium bool) (*TdyVoucher, error) {
	if err := CheckAccess(premium); err != nil {
		return nil, err
	}
	if err := CheckFresh(t, items, totals); err != nil {
		return nil, err
	}

	estimateFP, err := estimateFingerprint(totals)
	if err != nil {
		return nil, internal.NewInternalError("failed to fingerprint estimate", err)
	}

	return &TdyVoucher{
		ID:                  voucherID(totals.InputFingerprint, estimateFP),
		Trip:                t.Summary(),
		Checklist:           Checklist(t, items, totals),
		Estimate:            totals,
		InputFingerprint:    totals.InputFingerprint,
		EstimateFingerprint: estimateFP,
	}, nil
}
