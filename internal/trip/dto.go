package trip

import (
	"fmt"
	"sort"

	errors "github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/core/common/validation"
)

// TripDTO is the wire form of a trip. Dates stay strings until ToTrip so a
// malformed date is reported as a field error instead of a decode failure.
type TripDTO struct {
	ID             string            `json:"id"`
	Purpose        string            `json:"purpose"`
	Origin         string            `json:"origin"`
	Destination    string            `json:"destination"`
	DepartureDate  string            `json:"departure_date"`
	ReturnDate     string            `json:"return_date"`
	TravelerID     string            `json:"traveler_id,omitempty"`
	Locality       string            `json:"locality,omitempty"`
	LocalityByDate map[string]string `json:"locality_by_date,omitempty"`
}

func (d TripDTO) ToTrip() (Trip, error) {
	v := validation.NewValidator()
	t := Trip{
		ID:          d.ID,
		Purpose:     d.Purpose,
		Origin:      d.Origin,
		Destination: d.Destination,
		TravelerID:  d.TravelerID,
		Locality:    LocalityPlan{Default: d.Locality},
	}

	t.DepartureDate = parseDate(v, "departure_date", d.DepartureDate)
	t.ReturnDate = parseDate(v, "return_date", d.ReturnDate)

	keys := make([]string, 0, len(d.LocalityByDate))
	for k := range d.LocalityByDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		day := parseDate(v, "locality_by_date", k)
		if day.IsZero() {
			continue
		}
		if t.Locality.ByDate == nil {
			t.Locality.ByDate = make(map[calendar.Date]string, len(keys))
		}
		t.Locality.ByDate[day] = d.LocalityByDate[k]
	}

	if appErr := v.Validate(); appErr != nil {
		return Trip{}, appErr
	}
	if appErr := t.Validate(); appErr != nil {
		return Trip{}, appErr
	}
	return t, nil
}

func FromTrip(t Trip) TripDTO {
	d := TripDTO{
		ID:            t.ID,
		Purpose:       t.Purpose,
		Origin:        t.Origin,
		Destination:   t.Destination,
		DepartureDate: t.DepartureDate.String(),
		ReturnDate:    t.ReturnDate.String(),
		TravelerID:    t.TravelerID,
		Locality:      t.Locality.Default,
	}
	if len(t.Locality.ByDate) > 0 {
		d.LocalityByDate = make(map[string]string, len(t.Locality.ByDate))
		for day, l := range t.Locality.ByDate {
			d.LocalityByDate[day.String()] = l
		}
	}
	return d
}

func parseDate(v *validation.ValidationBuilder, field, s string) calendar.Date {
	if s == "" {
		v.Fail(field, fmt.Sprintf("%s is required", field), errors.ErrCodeInvalidDate)
		return calendar.Date{}
	}
	d, err := calendar.Parse(s)
	if err != nil {
		v.Fail(field, fmt.Sprintf("%s %q is not a valid calendar date", field, s), errors.ErrCodeInvalidDate)
		return calendar.Date{}
	}
	return d
}
