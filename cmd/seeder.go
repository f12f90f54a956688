package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	rateDatamodel "github.com/frahmantamala/tdy-voucher/internal/core/datamodel/rate"
	"github.com/frahmantamala/tdy-voucher/internal/rate"
	ratePostgres "github.com/frahmantamala/tdy-voucher/internal/rate/postgres"
)

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the per-diem rate table with sample localities",
	Long:  `Seed the perdiem_rates table with sample locality rates for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		conn, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer conn.Close()

		ctx := context.Background()
		if clearData {
			if _, err := conn.ExecContext(ctx, "DELETE FROM perdiem_rates"); err != nil {
				return fmt.Errorf("failed to clear perdiem rates: %w", err)
			}
			fmt.Println("Cleared perdiem_rates")
		}

		effective := time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC)
		rates := []rateDatamodel.PerDiemRate{
			{Locality: "STANDARD-CONUS", MIERateCents: 5900, LodgingCapCents: 10700, MileageRateCents: 67},
			{Locality: "OH-DAYTON", MIERateCents: 5900, LodgingCapCents: 15000, MileageRateCents: 67},
			{Locality: "VA-NORFOLK", MIERateCents: 6900, LodgingCapCents: 13600, MileageRateCents: 67},
			{Locality: "CA-SAN-DIEGO", MIERateCents: 7900, LodgingCapCents: 21200, MileageRateCents: 67},
			{Locality: "DC-WASHINGTON", MIERateCents: 7900, LodgingCapCents: 25800, MileageRateCents: 67},
		}

		table := ratePostgres.NewRateTable(conn)
		for i := range rates {
			r := &rates[i]
			r.EffectiveFrom = effective
			existing, err := table.Lookup(ctx, r.Locality, calendar.FromTime(effective))
			if err == nil && existing.MIERateCents == r.MIERateCents && existing.LodgingCapCents == r.LodgingCapCents &&
				existing.MileageRateCents == r.MileageRateCents {
				fmt.Printf("Rate for %s already seeded\n", r.Locality)
				continue
			}
			if err != nil && !errors.Is(err, rate.ErrNotListed) {
				return fmt.Errorf("failed to check rate for %s: %w", r.Locality, err)
			}
			if err := table.Upsert(ctx, r); err != nil {
				return fmt.Errorf("failed to seed rate for %s: %w", r.Locality, err)
			}
			fmt.Printf("Seeded rate: %s (M&IE %d, lodging cap %d)\n", r.Locality, r.MIERateCents, r.LodgingCapCents)
		}

		fmt.Println("Per-diem rates seeded successfully")
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}
