package voucher

import (
	"time"

	voucherDatamodel "github.com/frahmantamala/tdy-voucher/internal/core/datamodel/voucher"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

type FinalizeRequest struct {
	Trip  trip.TripDTO       `json:"trip"`
	Items []lineitem.RawItem `json:"items"`
	// InputFingerprint, when set, must match the estimate the traveler reviewed.
	InputFingerprint string `json:"input_fingerprint,omitempty"`
}

type Summary struct {
	ID              string    `json:"id"`
	TripID          string    `json:"trip_id"`
	GrandTotalCents int64     `json:"grand_total_cents"`
	OpenItems       int       `json:"open_items"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListResponse struct {
	Vouchers []Summary `json:"vouchers"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

func SummaryFromDataModel(row voucherDatamodel.TdyVoucher) Summary {
	return Summary{
		ID:              row.ID,
		TripID:          row.TripID,
		GrandTotalCents: row.GrandTotalCents,
		OpenItems:       row.OpenItems,
		CreatedAt:       row.CreatedAt,
	}
}
