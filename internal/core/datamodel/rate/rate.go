package rate

import "time"

// PerDiemRate is one effective-dated row of the locality rate table.
// A NULL EffectiveTo means the row is still current.
type PerDiemRate struct {
	ID               int64      `db:"id" gorm:"primaryKey"`
	Locality         string     `db:"locality" gorm:"column:locality;not null;index"`
	MIERateCents     int64      `db:"mie_rate_cents" gorm:"column:mie_rate_cents;not null"`
	LodgingCapCents  int64      `db:"lodging_cap_cents" gorm:"column:lodging_cap_cents;not null"`
	MileageRateCents int64      `db:"mileage_rate_cents" gorm:"column:mileage_rate_cents;not null"`
	EffectiveFrom    time.Time  `db:"effective_from" gorm:"column:effective_from;type:date;not null"`
	EffectiveTo      *time.Time `db:"effective_to" gorm:"column:effective_to;type:date"`
	CreatedAt        time.Time  `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (PerDiemRate) TableName() string {
	return "perdiem_rates"
}
