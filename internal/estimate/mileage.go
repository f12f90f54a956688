package estimate

import (
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
)

type MileageLine struct {
	Item             int             `json:"item"`
	Date             calendar.Date   `json:"date"`
	Miles            decimal.Decimal `json:"miles"`
	MileageRateCents int64           `json:"mileage_rate_cents"`
	AllowedCents     int64           `json:"allowed_cents"`
}

// MileageCents is miles times the per-mile rate, rounded half up to the cent.
func MileageCents(miles decimal.Decimal, rateCents int64) int64 {
	return miles.Mul(decimal.NewFromInt(rateCents)).Round(0).IntPart()
}

// AggregateMileage rounds each item on its own before summing, matching how
// vouchers are audited line by line.
func AggregateMileage(days []DailyEntitlement, items []lineitem.LineItem) ([]MileageLine, int64) {
	rates := indexByDate(days)
	var (
		lines []MileageLine
		total int64
	)
	for _, item := range items {
		d, ok := item.Mileage()
		if !ok {
			continue
		}
		rateCents := rates[item.Date].MileageRateCents
		line := MileageLine{
			Item:             item.Index,
			Date:             item.Date,
			Miles:            d.Miles,
			MileageRateCents: rateCents,
			AllowedCents:     MileageCents(d.Miles, rateCents),
		}
		lines = append(lines, line)
		total += line.AllowedCents
	}
	return lines, total
}

// AggregateMisc reimburses misc items at face value.
func AggregateMisc(items []lineitem.LineItem) int64 {
	var total int64
	for _, item := range items {
		if item.Kind() == lineitem.KindMisc {
			total += item.AmountCents
		}
	}
	return total
}
