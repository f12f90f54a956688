// Package trip holds the temporary-duty trip the estimate is computed for.
package trip

import (
	"fmt"
	"sort"

	errors "github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/core/common/validation"
)

// DefaultMaxTripDays is the longest trip accepted unless MaxTripDays is changed.
const DefaultMaxTripDays = 365

// MaxTripDays caps DayCount. It is set once from configuration at startup.
var MaxTripDays = DefaultMaxTripDays

type Trip struct {
	ID            string        `json:"id"`
	Purpose       string        `json:"purpose"`
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	DepartureDate calendar.Date `json:"departure_date"`
	ReturnDate    calendar.Date `json:"return_date"`
	TravelerID    string        `json:"traveler_id"`
	Locality      LocalityPlan  `json:"locality"`
}

// LocalityPlan names the per-diem locality for each trip day. ByDate entries
// override Default, so a trip that crosses localities lists only the days
// that differ.
type LocalityPlan struct {
	Default string                   `json:"default,omitempty"`
	ByDate  map[calendar.Date]string `json:"by_date,omitempty"`
}

func SingleLocality(locality string) LocalityPlan {
	return LocalityPlan{Default: locality}
}

func (p LocalityPlan) For(date calendar.Date) (string, bool) {
	if l, ok := p.ByDate[date]; ok && l != "" {
		return l, true
	}
	if p.Default != "" {
		return p.Default, true
	}
	return "", false
}

// Days returns every calendar day of the trip, departure and return included.
func (t Trip) Days() []calendar.Date {
	return calendar.Range(t.DepartureDate, t.ReturnDate)
}

func (t Trip) DayCount() int {
	return t.DepartureDate.DaysUntil(t.ReturnDate) + 1
}

func (t Trip) IsTravelDay(date calendar.Date) bool {
	return date == t.DepartureDate || date == t.ReturnDate
}

func (t Trip) Contains(date calendar.Date) bool {
	return date.Within(t.DepartureDate, t.ReturnDate)
}

func (t Trip) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("departure_date", t.DepartureDate).Required().ValidDate()
	v.Field("return_date", t.ReturnDate).Required().ValidDate().NotBefore(t.DepartureDate, "departure_date").
		Custom(errors.ErrCodeInvalidDate, func(interface{}) string {
			if !t.DepartureDate.Valid() || !t.ReturnDate.Valid() {
				return ""
			}
			if days := t.DayCount(); days > MaxTripDays {
				return fmt.Sprintf("trip spans %d days, more than the %d allowed", days, MaxTripDays)
			}
			return ""
		})
	v.Field("purpose", t.Purpose).MaxLength(500)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}

	for _, day := range t.Days() {
		if _, ok := t.Locality.For(day); !ok {
			v.Fail("locality", fmt.Sprintf("no locality given for %s", day), errors.ErrCodeInvalidLocality)
		}
	}

	var outside []calendar.Date
	for day := range t.Locality.ByDate {
		if !t.Contains(day) {
			outside = append(outside, day)
		}
	}
	sort.Slice(outside, func(i, j int) bool { return outside[i].Before(outside[j]) })
	for _, day := range outside {
		v.Fail("locality.by_date", fmt.Sprintf("locality given for %s which is outside the trip", day), errors.ErrCodeInvalidLocality)
	}

	return v.Validate()
}

// Summary is the part of the trip printed on a voucher.
type Summary struct {
	ID            string        `json:"id"`
	Purpose       string        `json:"purpose"`
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	DepartureDate calendar.Date `json:"departure_date"`
	ReturnDate    calendar.Date `json:"return_date"`
	TravelerID    string        `json:"traveler_id"`
	Days          int           `json:"days"`
}

func (t Trip) Summary() Summary {
	return Summary{
		ID:            t.ID,
		Purpose:       t.Purpose,
		Origin:        t.Origin,
		Destination:   t.Destination,
		DepartureDate: t.DepartureDate,
		ReturnDate:    t.ReturnDate,
		TravelerID:    t.TravelerID,
		Days:          t.DayCount(),
	}
}
