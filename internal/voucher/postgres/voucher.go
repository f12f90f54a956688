package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	voucherDatamodel "github.com/frahmantamala/tdy-voucher/internal/core/datamodel/voucher"
	"github.com/frahmantamala/tdy-voucher/internal/voucher"
)

type VoucherRepository struct {
	db *gorm.DB
}

func NewVoucherRepository(db *gorm.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

// Save is idempotent: a voucher ID already archived is left as it is, which
// is safe because equal IDs imply equal documents.
func (r *VoucherRepository) Save(ctx context.Context, v *voucher.TdyVoucher) error {
	doc, err := v.Export()
	if err != nil {
		return err
	}
	row := &voucherDatamodel.TdyVoucher{
		ID:                  v.ID,
		TripID:              v.Trip.ID,
		TravelerID:          v.Trip.TravelerID,
		InputFingerprint:    v.InputFingerprint,
		EstimateFingerprint: v.EstimateFingerprint,
		GrandTotalCents:     v.Estimate.GrandTotalCents,
		OpenItems:           len(v.Checklist),
		Document:            doc,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row).Error
}

func (r *VoucherRepository) GetDocument(ctx context.Context, id, travelerID string) ([]byte, error) {
	var row voucherDatamodel.TdyVoucher
	err := r.db.WithContext(ctx).Where("id = ? AND traveler_id = ?", id, travelerID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, voucher.ErrVoucherNotFound
		}
		return nil, err
	}
	return row.Document, nil
}

func (r *VoucherRepository) ListByTraveler(ctx context.Context, travelerID string, limit, offset int) ([]voucherDatamodel.TdyVoucher, error) {
	var rows []voucherDatamodel.TdyVoucher
	err := r.db.WithContext(ctx).
		Select("id", "trip_id", "traveler_id", "input_fingerprint", "estimate_fingerprint", "grand_total_cents", "open_items", "created_at").
		Where("traveler_id = ?", travelerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}
