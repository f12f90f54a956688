package rate

import (
	"context"
	"strings"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
)

// TableEntry is one locality of a StaticTable.
type TableEntry struct {
	Locality         string `json:"locality"`
	MIERateCents     int64  `json:"mie_rate_cents"`
	LodgingCapCents  int64  `json:"lodging_cap_cents"`
	MileageRateCents int64  `json:"mileage_rate_cents"`
}

// StaticTable is an in-memory Provider whose rates do not vary by date. It
// backs offline estimates from a file.
type StaticTable struct {
	entries map[string]TableEntry
}

func NewStaticTable(entries []TableEntry) *StaticTable {
	t := &StaticTable{entries: make(map[string]TableEntry, len(entries))}
	for _, e := range entries {
		t.entries[strings.TrimSpace(e.Locality)] = e
	}
	return t
}

func (t *StaticTable) Lookup(ctx context.Context, locality string, date calendar.Date) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	e, ok := t.entries[locality]
	if !ok {
		return Snapshot{}, ErrNotListed
	}
	return Snapshot{
		Locality:         e.Locality,
		Date:             date,
		MIERateCents:     e.MIERateCents,
		LodgingCapCents:  e.LodgingCapCents,
		MileageRateCents: e.MileageRateCents,
	}, nil
}
