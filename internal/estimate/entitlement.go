package estimate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/rate"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

// DefaultMaxConcurrentLookups bounds rate lookups in flight for one trip.
const DefaultMaxConcurrentLookups = 8

type RateResolver interface {
	Resolve(ctx context.Context, locality string, date calendar.Date) (rate.Snapshot, error)
}

type DailyEntitlement struct {
	Date             calendar.Date `json:"date"`
	Locality         string        `json:"locality"`
	IsTravelDay      bool          `json:"is_travel_day"`
	MIERateCents     int64         `json:"mie_rate_cents"`
	MIEAllowedCents  int64         `json:"mie_allowed_cents"`
	LodgingCapCents  int64         `json:"lodging_cap_cents"`
	MileageRateCents int64         `json:"mileage_rate_cents"`
}

// AllowedMIE is 75% of the rate on travel days, rounded half up, and the
// full rate otherwise.
func AllowedMIE(rateCents int64, travelDay bool) int64 {
	if !travelDay {
		return rateCents
	}
	return (rateCents*75 + 50) / 100
}

type Calculator struct {
	resolver    RateResolver
	concurrency int
}

func NewCalculator(resolver RateResolver, maxConcurrent int) *Calculator {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentLookups
	}
	return &Calculator{resolver: resolver, concurrency: maxConcurrent}
}

// Entitlements returns one record per trip day in ascending order. If any day
// fails, no records are returned and the error of the earliest failing day wins.
func (c *Calculator) Entitlements(ctx context.Context, t trip.Trip) ([]DailyEntitlement, error) {
	if appErr := t.Validate(); appErr != nil {
		return nil, appErr
	}

	days := t.Days()
	out := make([]DailyEntitlement, len(days))
	failures := make([]error, len(days))

	// Every day is looked up even after a failure so the reported error does
	// not depend on completion order.
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, day := range days {
		locality, _ := t.Locality.For(day)
		g.Go(func() error {
			snap, err := c.resolver.Resolve(ctx, locality, day)
			if err != nil {
				failures[i] = err
				return err
			}
			travel := t.IsTravelDay(day)
			out[i] = DailyEntitlement{
				Date:             day,
				Locality:         snap.Locality,
				IsTravelDay:      travel,
				MIERateCents:     snap.MIERateCents,
				MIEAllowedCents:  AllowedMIE(snap.MIERateCents, travel),
				LodgingCapCents:  snap.LodgingCapCents,
				MileageRateCents: snap.MileageRateCents,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, earliest(failures, err)
	}
	return out, nil
}

func earliest(failures []error, fallback error) error {
	for _, err := range failures {
		if err != nil {
			return err
		}
	}
	return fallback
}
