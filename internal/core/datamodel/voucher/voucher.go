package voucher

import "time"

// TdyVoucher is the archived form of a finalized voucher. Document holds the
// exported JSON verbatim so reads return the bytes that were finalized.
type TdyVoucher struct {
	ID                  string    `gorm:"primaryKey;type:varchar(36)"`
	TripID              string    `gorm:"column:trip_id;index"`
	TravelerID          string    `gorm:"column:traveler_id;index"`
	InputFingerprint    string    `gorm:"column:input_fingerprint;type:varchar(64)"`
	EstimateFingerprint string    `gorm:"column:estimate_fingerprint;type:varchar(64)"`
	GrandTotalCents     int64     `gorm:"column:grand_total_cents"`
	OpenItems           int       `gorm:"column:open_items"`
	Document            []byte    `gorm:"column:document"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TdyVoucher) TableName() string {
	return "tdy_vouchers"
}
