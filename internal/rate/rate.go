package rate

import (
	"context"
	"errors"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	rateDatamodel "github.com/frahmantamala/tdy-voucher/internal/core/datamodel/rate"
)

// ErrNotListed is returned by providers when the locality has no published
// rate for the date. Any other provider error is treated as transient.
var ErrNotListed = errors.New("locality not listed for date")

// Snapshot is one provider answer: all three rates come from the same query.
type Snapshot struct {
	Locality         string        `json:"locality"`
	Date             calendar.Date `json:"date"`
	MIERateCents     int64         `json:"mie_rate_cents"`
	LodgingCapCents  int64         `json:"lodging_cap_cents"`
	MileageRateCents int64         `json:"mileage_rate_cents"`
}

// Provider is the upstream rate table.
type Provider interface {
	Lookup(ctx context.Context, locality string, date calendar.Date) (Snapshot, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, locality string, date calendar.Date) (Snapshot, error)

func (f ProviderFunc) Lookup(ctx context.Context, locality string, date calendar.Date) (Snapshot, error) {
	return f(ctx, locality, date)
}

func FromDataModel(r *rateDatamodel.PerDiemRate, date calendar.Date) Snapshot {
	return Snapshot{
		Locality:         r.Locality,
		Date:             date,
		MIERateCents:     r.MIERateCents,
		LodgingCapCents:  r.LodgingCapCents,
		MileageRateCents: r.MileageRateCents,
	}
}
