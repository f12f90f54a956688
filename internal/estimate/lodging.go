package estimate

import (
	"sort"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
)

// LodgingNight is one night of the trip that has at least one folio charge.
type LodgingNight struct {
	Date         calendar.Date `json:"date"`
	ChargeCents  int64         `json:"charge_cents"`
	CapCents     int64         `json:"cap_cents"`
	AllowedCents int64         `json:"allowed_cents"`
	OverCap      bool          `json:"over_cap"`
	// TaxCents is the uncapped tax of folios whose first night is this date.
	TaxCents int64 `json:"tax_cents"`
	Items    []int `json:"items"`
}

type LodgingResult struct {
	Nights       []LodgingNight `json:"nights"`
	TaxCents     int64          `json:"tax_cents"`
	AllowedCents int64          `json:"allowed_cents"`
}

// NightlyCharges splits a folio into per-night pre-tax charges. Without an
// explicit nightly rate the pre-tax amount is averaged, rounding down, and the
// remainder cents go to the first night so the nights sum back to the folio.
func NightlyCharges(item lineitem.LineItem, d lineitem.LodgingDetails) []int64 {
	n := d.NightCount()
	charges := make([]int64, n)
	if d.NightlyRateCents != nil {
		for k := range charges {
			charges[k] = *d.NightlyRateCents
		}
		return charges
	}

	base := item.AmountCents - d.TaxCents
	if base < 0 {
		base = 0
	}
	per := base / int64(n)
	for k := range charges {
		charges[k] = per
	}
	charges[0] += base - per*int64(n)
	return charges
}

// ReconcileLodging caps the summed nightly charge for each date at that date's
// lodging cap, then adds every folio's tax uncapped.
func ReconcileLodging(days []DailyEntitlement, items []lineitem.LineItem) LodgingResult {
	caps := indexByDate(days)
	nights := make(map[calendar.Date]*LodgingNight)
	night := func(date calendar.Date) *LodgingNight {
		n, ok := nights[date]
		if !ok {
			n = &LodgingNight{Date: date}
			nights[date] = n
		}
		return n
	}

	var result LodgingResult
	for _, item := range items {
		d, ok := item.Lodging()
		if !ok {
			continue
		}
		for k, charge := range NightlyCharges(item, d) {
			n := night(item.Date.AddDays(k))
			n.ChargeCents += charge
			n.Items = appendUnique(n.Items, item.Index)
		}
		night(item.Date).TaxCents += d.TaxCents
		result.TaxCents += d.TaxCents
	}

	for _, n := range nights {
		n.CapCents = caps[n.Date].LodgingCapCents
		n.AllowedCents = min(n.ChargeCents, n.CapCents)
		n.OverCap = n.ChargeCents > n.CapCents
		result.Nights = append(result.Nights, *n)
		result.AllowedCents += n.AllowedCents
	}
	sort.Slice(result.Nights, func(i, j int) bool { return result.Nights[i].Date.Before(result.Nights[j].Date) })

	result.AllowedCents += result.TaxCents
	return result
}

func indexByDate(days []DailyEntitlement) map[calendar.Date]DailyEntitlement {
	m := make(map[calendar.Date]DailyEntitlement, len(days))
	for _, d := range days {
		m[d.Date] = d
	}
	return m
}

func appendUnique(xs []int, x int) []int {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}
