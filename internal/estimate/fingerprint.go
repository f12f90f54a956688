package estimate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

// InputFingerprint identifies a trip and its items. Any edit to either
// changes it, which is how a stale estimate is recognised.
func InputFingerprint(t trip.Trip, items []lineitem.LineItem) string {
	h := sha256.New()
	writeTrip(h, t)
	for _, item := range items {
		writeItem(h, item)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeTrip(w io.Writer, t trip.Trip) {
	fmt.Fprintf(w, "trip|%q|%q|%q|%q|%s|%s|%q|%q\n",
		t.ID, t.Purpose, t.Origin, t.Destination, t.DepartureDate, t.ReturnDate, t.TravelerID, t.Locality.Default)

	dates := make([]calendar.Date, 0, len(t.Locality.ByDate))
	for d := range t.Locality.ByDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for _, d := range dates {
		fmt.Fprintf(w, "locality|%s|%q\n", d, t.Locality.ByDate[d])
	}
}

func writeItem(w io.Writer, item lineitem.LineItem) {
	fmt.Fprintf(w, "item|%d|%s|%s|%d|%q|%q|", item.Index, item.Kind(), item.Date, item.AmountCents, item.Vendor, item.ReceiptRef)
	switch d := item.Details.(type) {
	case lineitem.LodgingDetails:
		nightly := "-"
		if d.NightlyRateCents != nil {
			nightly = fmt.Sprint(*d.NightlyRateCents)
		}
		fmt.Fprintf(w, "%d|%s|%d\n", d.Nights, nightly, d.TaxCents)
	case lineitem.MileageDetails:
		fmt.Fprintf(w, "%s|%q|%q\n", d.Miles.String(), d.Origin, d.Destination)
	case lineitem.MealsDetails:
		fmt.Fprintf(w, "%q\n", d.Meal)
	case lineitem.MiscDetails:
		fmt.Fprintf(w, "%q|%q\n", d.Description, d.Category)
	default:
		fmt.Fprintln(w)
	}
}
