package estimate

import (
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

// LedgerDay is the per-day breakdown. TotalCents excludes meals claimed,
// which the M&IE allowance covers.
type LedgerDay struct {
	Date              calendar.Date `json:"date"`
	Locality          string        `json:"locality"`
	IsTravelDay       bool          `json:"is_travel_day"`
	MIECents          int64         `json:"mie_cents"`
	LodgingCents      int64         `json:"lodging_cents"`
	LodgingTaxCents   int64         `json:"lodging_tax_cents"`
	MileageCents      int64         `json:"mileage_cents"`
	MiscCents         int64         `json:"misc_cents"`
	MealsClaimedCents int64         `json:"meals_claimed_cents"`
	TotalCents        int64         `json:"total_cents"`
}

type Totals struct {
	Days                []DailyEntitlement `json:"days"`
	Ledger              []LedgerDay        `json:"ledger"`
	LodgingNights       []LodgingNight     `json:"lodging_nights"`
	MileageLines        []MileageLine      `json:"mileage_lines"`
	MIETotalCents       int64              `json:"mie_total_cents"`
	LodgingAllowedCents int64              `json:"lodging_allowed_cents"`
	LodgingTaxCents     int64              `json:"lodging_tax_cents"`
	MileageTotalCents   int64              `json:"mileage_total_cents"`
	MiscTotalCents      int64              `json:"misc_total_cents"`
	GrandTotalCents     int64              `json:"grand_total_cents"`
	InputFingerprint    string             `json:"input_fingerprint"`
}

// Compose merges the daily entitlements and the category aggregates. days
// must be the entitlements for t and items must already be validated for t.
func Compose(t trip.Trip, days []DailyEntitlement, items []lineitem.LineItem) Totals {
	lodging := ReconcileLodging(days, items)
	mileageLines, mileageTotal := AggregateMileage(days, items)

	totals := Totals{
		Days:                days,
		LodgingNights:       lodging.Nights,
		MileageLines:        mileageLines,
		LodgingAllowedCents: lodging.AllowedCents,
		LodgingTaxCents:     lodging.TaxCents,
		MileageTotalCents:   mileageTotal,
		MiscTotalCents:      AggregateMisc(items),
		InputFingerprint:    InputFingerprint(t, items),
	}
	for _, d := range days {
		totals.MIETotalCents += d.MIEAllowedCents
	}
	totals.GrandTotalCents = totals.MIETotalCents + totals.LodgingAllowedCents + totals.MileageTotalCents + totals.MiscTotalCents
	totals.Ledger = buildLedger(days, items, lodging, mileageLines)
	return totals
}

func buildLedger(days []DailyEntitlement, items []lineitem.LineItem, lodging LodgingResult, mileage []MileageLine) []LedgerDay {
	ledger := make([]LedgerDay, len(days))
	pos := make(map[calendar.Date]int, len(days))
	for i, d := range days {
		pos[d.Date] = i
		ledger[i] = LedgerDay{
			Date:        d.Date,
			Locality:    d.Locality,
			IsTravelDay: d.IsTravelDay,
			MIECents:    d.MIEAllowedCents,
		}
	}

	for _, n := range lodging.Nights {
		day := &ledger[pos[n.Date]]
		day.LodgingCents += n.AllowedCents
		day.LodgingTaxCents += n.TaxCents
	}
	for _, line := range mileage {
		ledger[pos[line.Date]].MileageCents += line.AllowedCents
	}
	for _, item := range items {
		switch item.Kind() {
		case lineitem.KindMisc:
			ledger[pos[item.Date]].MiscCents += item.AmountCents
		case lineitem.KindMeals:
			ledger[pos[item.Date]].MealsClaimedCents += item.AmountCents
		}
	}

	for i := range ledger {
		day := &ledger[i]
		day.TotalCents = day.MIECents + day.LodgingCents + day.LodgingTaxCents + day.MileageCents + day.MiscCents
	}
	return ledger
}
