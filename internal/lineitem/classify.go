package lineitem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/core/common/validation"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

// RawItem is a record as emitted by receipt ingestion, before its metadata is typed.
type RawItem struct {
	Index       int             `json:"index,omitempty"`
	ItemType    string          `json:"item_type"`
	TxDate      string          `json:"tx_date"`
	AmountCents int64           `json:"amount_cents"`
	Vendor      *string         `json:"vendor,omitempty"`
	ReceiptRef  *string         `json:"receipt_ref,omitempty"`
	Meta        json.RawMessage `json:"meta,omitempty"`
}

type lodgingMeta struct {
	Nights           *int   `json:"nights"`
	NightlyRateCents *int64 `json:"nightly_rate_cents"`
	TaxCents         int64  `json:"tax_cents"`
}

type mileageMeta struct {
	Miles       *decimal.Decimal `json:"miles"`
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
}

type decodeError struct {
	errs []errors.ValidationError
}

func (e *decodeError) Error() string {
	return e.errs[0].Message
}

// Classify types every raw record and validates it against the trip. It is
// all-or-nothing: one InvalidInput error lists every rejected field.
func Classify(t trip.Trip, raw []RawItem) ([]LineItem, error) {
	items := make([]LineItem, 0, len(raw))
	var failures []errors.ValidationError

	for i, r := range raw {
		item, errs := decode(i, r)
		if len(errs) > 0 {
			failures = append(failures, errs...)
			continue
		}
		item.Index = i
		items = append(items, item)
	}

	if len(failures) > 0 {
		return nil, errors.NewInvalidInputError(failures)
	}
	if appErr := Validate(t, items); appErr != nil {
		return nil, appErr
	}
	return items, nil
}

func decode(index int, r RawItem) (LineItem, []errors.ValidationError) {
	v := validation.NewValidator().ForItem(index)

	item := LineItem{AmountCents: r.AmountCents}
	if r.Vendor != nil {
		item.Vendor = strings.TrimSpace(*r.Vendor)
	}
	if r.ReceiptRef != nil {
		item.ReceiptRef = strings.TrimSpace(*r.ReceiptRef)
	}

	if r.TxDate == "" {
		v.Fail("tx_date", "tx_date is required", errors.ErrCodeInvalidDate)
	} else if d, err := calendar.Parse(r.TxDate); err != nil {
		v.Fail("tx_date", fmt.Sprintf("tx_date %q is not a valid calendar date", r.TxDate), errors.ErrCodeInvalidDate)
	} else {
		item.Date = d
	}

	details, err := decodeDetails(Kind(strings.ToLower(strings.TrimSpace(r.ItemType))), r.Meta)
	if err != nil {
		v.Fail("meta", err.Error(), errors.ErrCodeInvalidMetadata)
	}
	item.Details = details

	return item, v.Errors()
}

func decodeDetails(kind Kind, meta json.RawMessage) (Details, error) {
	switch kind {
	case KindLodging:
		var m lodgingMeta
		if err := strictDecode(meta, &m); err != nil {
			return nil, err
		}
		d := LodgingDetails{Nights: 1, NightlyRateCents: m.NightlyRateCents, TaxCents: m.TaxCents}
		if m.Nights != nil {
			d.Nights = *m.Nights
		}
		return d, nil
	case KindMileage:
		var m mileageMeta
		if err := strictDecode(meta, &m); err != nil {
			return nil, err
		}
		if m.Miles == nil {
			return nil, fmt.Errorf("mileage meta requires miles")
		}
		return MileageDetails{Miles: *m.Miles, Origin: strings.TrimSpace(m.Origin), Destination: strings.TrimSpace(m.Destination)}, nil
	case KindMeals:
		var d MealsDetails
		if err := strictDecode(meta, &d); err != nil {
			return nil, err
		}
		return d, nil
	case KindMisc:
		var d MiscDetails
		if err := strictDecode(meta, &d); err != nil {
			return nil, err
		}
		return d, nil
	case "":
		return nil, fmt.Errorf("item_type is required")
	default:
		return nil, fmt.Errorf("unknown item_type %q", kind)
	}
}

// strictDecode rejects fields that do not belong to the item's kind.
func strictDecode(meta json.RawMessage, dst interface{}) error {
	if len(bytes.TrimSpace(meta)) == 0 || bytes.Equal(bytes.TrimSpace(meta), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(meta))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid meta: %v", err)
	}
	return nil
}

// Upper bounds on submitted figures. With at most MaxItems items the
// category and grand totals stay far below the int64 range.
const (
	MaxItems       = 1000
	MaxAmountCents = int64(10_000_000_000)
)

// MaxMiles bounds a single mileage leg.
var MaxMiles = decimal.NewFromInt(100_000)

// Validate checks typed items against the trip window. Items built in code
// go through the same checks as classified ones.
func Validate(t trip.Trip, items []LineItem) *errors.AppError {
	if len(items) > MaxItems {
		return errors.NewInvalidInputError([]errors.ValidationError{{
			Field:   "items",
			Message: fmt.Sprintf("a voucher may carry at most %d items, got %d", MaxItems, len(items)),
			Code:    string(errors.ErrCodeValidationFailed),
		}})
	}
	var failures []errors.ValidationError
	for i, item := range items {
		failures = append(failures, validateItem(t, i, item)...)
	}
	if len(failures) > 0 {
		return errors.NewInvalidInputError(failures)
	}
	return nil
}

func validateItem(t trip.Trip, position int, item LineItem) []errors.ValidationError {
	v := validation.NewValidator().ForItem(position)
	v.Field("tx_date", item.Date).Required().ValidDate().WithinRange(t.DepartureDate, t.ReturnDate)
	v.Field("amount_cents", item.AmountCents).NonNegative().MaxInt(MaxAmountCents, errors.ErrCodeInvalidAmount)

	switch d := item.Details.(type) {
	case LodgingDetails:
		v.Field("meta.nights", d.Nights).MinInt(1, errors.ErrCodeInvalidMetadata).
			Custom(errors.ErrCodeItemOutOfRange, func(value interface{}) string {
				nights := value.(int)
				if nights <= 1 || !item.Date.Valid() {
					return ""
				}
				if nights > t.DayCount() {
					return fmt.Sprintf("%d nights exceed the %d-day trip", nights, t.DayCount())
				}
				last := item.Date.AddDays(nights - 1)
				if t.Contains(last) {
					return ""
				}
				return fmt.Sprintf("night of %s is outside the trip (%s to %s)", last, t.DepartureDate, t.ReturnDate)
			})
		v.Field("meta.tax_cents", d.TaxCents).NonNegative().MaxInt(item.AmountCents, errors.ErrCodeInvalidAmount)
		if d.NightlyRateCents != nil {
			v.Field("meta.nightly_rate_cents", *d.NightlyRateCents).NonNegative().MaxInt(MaxAmountCents, errors.ErrCodeInvalidAmount)
		}
	case MileageDetails:
		v.Field("meta.miles", d.Miles).PositiveDecimal().MaxDecimal(MaxMiles, errors.ErrCodeInvalidMetadata)
	case MealsDetails, MiscDetails:
	case nil:
		v.Fail("item_type", "item_type is required", errors.ErrCodeInvalidMetadata)
	}

	return v.Errors()
}
