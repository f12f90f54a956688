package voucher

import (
	"fmt"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

// Rule inspects the inputs and totals and returns one entry per problem found.
type Rule struct {
	Name  string
	Check func(t trip.Trip, items []lineitem.LineItem, totals estimate.Totals) []string
}

// rules run in this order and the checklist keeps it.
var rules = []Rule{
	{Name: "lodging_receipts", Check: lodgingReceipts},
	{Name: "folio_reconciles", Check: folioReconciles},
	{Name: "lodging_over_cap", Check: lodgingOverCap},
	{Name: "nights_without_lodging", Check: nightsWithoutLodging},
	{Name: "mileage_route", Check: mileageRoute},
	{Name: "misc_receipts", Check: miscReceipts},
	{Name: "meals_over_allowance", Check: mealsOverAllowance},
}

func Checklist(t trip.Trip, items []lineitem.LineItem, totals estimate.Totals) []string {
	entries := []string{}
	for _, rule := range rules {
		entries = append(entries, rule.Check(t, items, totals)...)
	}
	return entries
}

func lodgingReceipts(_ trip.Trip, items []lineitem.LineItem, _ estimate.Totals) []string {
	var out []string
	for _, item := range items {
		if item.Kind() == lineitem.KindLodging && !item.HasReceipt() {
			out = append(out, fmt.Sprintf("Attach the folio receipt for %s dated %s.", item.Label(), item.Date))
		}
	}
	return out
}

func folioReconciles(_ trip.Trip, items []lineitem.LineItem, _ estimate.Totals) []string {
	var out []string
	for _, item := range items {
		d, ok := item.Lodging()
		if !ok || d.NightlyRateCents == nil {
			continue
		}
		nights := int64(d.NightCount())
		if *d.NightlyRateCents*nights+d.TaxCents != item.AmountCents {
			out = append(out, fmt.Sprintf("%s: %d night(s) at %s plus %s tax does not match the folio total of %s.",
				item.Label(), nights, formatCents(*d.NightlyRateCents), formatCents(d.TaxCents), formatCents(item.AmountCents)))
		}
	}
	return out
}

func lodgingOverCap(_ trip.Trip, _ []lineitem.LineItem, totals estimate.Totals) []string {
	var out []string
	for _, n := range totals.LodgingNights {
		if n.OverCap {
			out = append(out, fmt.Sprintf("Lodging for the night of %s was %s, above the %s cap; only the cap is reimbursed.",
				n.Date, formatCents(n.ChargeCents), formatCents(n.CapCents)))
		}
	}
	return out
}

func nightsWithoutLodging(t trip.Trip, _ []lineitem.LineItem, totals estimate.Totals) []string {
	if t.DepartureDate == t.ReturnDate {
		return nil
	}
	covered := make(map[calendar.Date]bool, len(totals.LodgingNights))
	for _, n := range totals.LodgingNights {
		covered[n.Date] = true
	}
	var out []string
	for _, night := range calendar.Range(t.DepartureDate, t.ReturnDate.AddDays(-1)) {
		if !covered[night] {
			out = append(out, fmt.Sprintf("No lodging claimed for the night of %s; confirm no lodging cost was incurred.", night))
		}
	}
	return out
}

func mileageRoute(_ trip.Trip, items []lineitem.LineItem, _ estimate.Totals) []string {
	var out []string
	for _, item := range items {
		d, ok := item.Mileage()
		if ok && (d.Origin == "" || d.Destination == "") {
			out = append(out, fmt.Sprintf("Add origin and destination to %s dated %s.", item.Label(), item.Date))
		}
	}
	return out
}

func miscReceipts(_ trip.Trip, items []lineitem.LineItem, _ estimate.Totals) []string {
	var out []string
	for _, item := range items {
		if item.Kind() == lineitem.KindMisc && !item.HasReceipt() && item.AmountCents >= lineitem.ReceiptThresholdCents {
			out = append(out, fmt.Sprintf("Attach a receipt for %s (%s); receipts are needed from %s.",
				item.Label(), formatCents(item.AmountCents), formatCents(lineitem.ReceiptThresholdCents)))
		}
	}
	return out
}

func mealsOverAllowance(_ trip.Trip, _ []lineitem.LineItem, totals estimate.Totals) []string {
	var out []string
	for _, day := range totals.Ledger {
		if day.MealsClaimedCents > day.MIECents {
			out = append(out, fmt.Sprintf("Meals claimed on %s (%s) exceed the M&IE allowance of %s; only the allowance is reimbursed.",
				day.Date, formatCents(day.MealsClaimedCents), formatCents(day.MIECents)))
		}
	}
	return out
}
