// Package lineitem normalises externally classified expense records into the
// engine's item shape. Metadata is a closed set of per-kind variants.
package lineitem

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
)

type Kind string

const (
	KindLodging Kind = "lodging"
	KindMeals   Kind = "meals"
	KindMileage Kind = "mileage"
	KindMisc    Kind = "misc"
)

// ReceiptThresholdCents is the single-expense amount from which a receipt is expected.
const ReceiptThresholdCents = 7500

// Details is implemented only by the variants in this package.
type Details interface {
	Kind() Kind
	sealed()
}

type LodgingDetails struct {
	Nights           int    `json:"nights"`
	NightlyRateCents *int64 `json:"nightly_rate_cents,omitempty"`
	TaxCents         int64  `json:"tax_cents"`
}

func (LodgingDetails) Kind() Kind { return KindLodging }
func (LodgingDetails) sealed()    {}

// NightCount treats an omitted night count as a single night.
func (d LodgingDetails) NightCount() int {
	if d.Nights <= 0 {
		return 1
	}
	return d.Nights
}

type MealsDetails struct {
	Meal string `json:"meal,omitempty"`
}

func (MealsDetails) Kind() Kind { return KindMeals }
func (MealsDetails) sealed()    {}

type MileageDetails struct {
	Miles       decimal.Decimal `json:"miles"`
	Origin      string          `json:"origin,omitempty"`
	Destination string          `json:"destination,omitempty"`
}

func (MileageDetails) Kind() Kind { return KindMileage }
func (MileageDetails) sealed()    {}

type MiscDetails struct {
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

func (MiscDetails) Kind() Kind { return KindMisc }
func (MiscDetails) sealed()    {}

// LineItem is read-only to the engine.
type LineItem struct {
	Index       int
	Date        calendar.Date
	AmountCents int64
	Vendor      string
	ReceiptRef  string
	Details     Details
}

func (li LineItem) Kind() Kind {
	if li.Details == nil {
		return ""
	}
	return li.Details.Kind()
}

func (li LineItem) HasReceipt() bool {
	return li.ReceiptRef != ""
}

func (li LineItem) Lodging() (LodgingDetails, bool) {
	d, ok := li.Details.(LodgingDetails)
	return d, ok
}

func (li LineItem) Mileage() (MileageDetails, bool) {
	d, ok := li.Details.(MileageDetails)
	return d, ok
}

func (li LineItem) Misc() (MiscDetails, bool) {
	d, ok := li.Details.(MiscDetails)
	return d, ok
}

func (li LineItem) Meals() (MealsDetails, bool) {
	d, ok := li.Details.(MealsDetails)
	return d, ok
}

// Label is how the item is referred to in checklist text.
func (li LineItem) Label() string {
	label := string(li.Kind()) + " item #" + strconv.Itoa(li.Index+1)
	if li.Vendor != "" {
		label += " (" + li.Vendor + ")"
	}
	return label
}

type lineItemJSON struct {
	Index       int           `json:"index"`
	ItemType    Kind          `json:"item_type"`
	TxDate      calendar.Date `json:"tx_date"`
	AmountCents int64         `json:"amount_cents"`
	Vendor      string        `json:"vendor,omitempty"`
	ReceiptRef  string        `json:"receipt_ref,omitempty"`
	Meta        Details       `json:"meta"`
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineItemJSON{
		Index:       li.Index,
		ItemType:    li.Kind(),
		TxDate:      li.Date,
		AmountCents: li.AmountCents,
		Vendor:      li.Vendor,
		ReceiptRef:  li.ReceiptRef,
		Meta:        li.Details,
	})
}

func (li *LineItem) UnmarshalJSON(b []byte) error {
	var raw RawItem
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	item, verrs := decode(0, raw)
	if len(verrs) > 0 {
		return &decodeError{errs: verrs}
	}
	item.Index = raw.Index
	*li = item
	return nil
}
