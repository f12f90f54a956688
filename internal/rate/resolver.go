package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
)

const DefaultLookupTimeout = internal.DefaultUpstreamTimeout

// Resolver is the typed lookup the engine depends on. It never substitutes a
// default or stale rate: callers get a consistent snapshot, RATE_NOT_FOUND or
// RATE_UNAVAILABLE.
type Resolver struct {
	provider Provider
	timeout  time.Duration
}

func NewResolver(provider Provider, timeout time.Duration) *Resolver {
	return &Resolver{provider: provider, timeout: timeout}
}

func (r *Resolver) Resolve(ctx context.Context, locality string, date calendar.Date) (Snapshot, error) {
	locality = strings.TrimSpace(locality)
	if locality == "" {
		return Snapshot{}, internal.NewValidationError("locality is required", internal.ErrCodeInvalidLocality).
			WithContext(internal.ErrorContext{Date: date.String(), Field: "locality"})
	}
	if !date.Valid() {
		return Snapshot{}, internal.NewValidationError("rate date is not a valid calendar date", internal.ErrCodeInvalidDate).
			WithContext(internal.ErrorContext{Locality: locality, Field: "date"})
	}

	lookupCtx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	snap, err := r.provider.Lookup(lookupCtx, locality, date)
	if err != nil {
		if errors.Is(err, ErrNotListed) {
			return Snapshot{}, internal.NewRateNotFoundError(locality, date.String()).WithCause(err)
		}
		return Snapshot{}, internal.NewRateUnavailableError(locality, date.String(), err)
	}

	if snap.Locality == "" {
		snap.Locality = locality
	}
	if err := checkConsistent(snap, date); err != nil {
		return Snapshot{}, internal.NewRateUnavailableError(locality, date.String(), err)
	}
	return snap, nil
}

// Locality strings are provider-defined, so only the date is cross-checked.
func checkConsistent(snap Snapshot, date calendar.Date) error {
	if snap.Date != date {
		return fmt.Errorf("provider answered for date %s", snap.Date)
	}
	if snap.MIERateCents < 0 || snap.LodgingCapCents < 0 || snap.MileageRateCents < 0 {
		return errors.New("provider returned a negative rate")
	}
	return nil
}
