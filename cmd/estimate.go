package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/rate"
	ratePostgres "github.com/frahmantamala/tdy-voucher/internal/rate/postgres"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
	"github.com/frahmantamala/tdy-voucher/internal/voucher"
	"github.com/frahmantamala/tdy-voucher/pkg/logger"
)

// estimateFile is the offline input: a trip, its items and, unless --db is
// given, the rate table to price it with.
type estimateFile struct {
	Trip  trip.TripDTO       `json:"trip"`
	Items []lineitem.RawItem `json:"items"`
	Rates []rate.TableEntry  `json:"rates"`
}

var (
	estimateAsVoucher bool
	estimatePremium   bool
	estimateFromDB    bool
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [file]",
	Short: "Estimate a trip from a JSON file",
	Long: `Estimate a trip offline and print the totals, or with --voucher the
finalized voucher document. Reads stdin when no file is given or the file is "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		return runEstimate(cmd.Context(), path, cmd.OutOrStdout())
	},
}

func init() {
	estimateCmd.Flags().BoolVar(&estimateAsVoucher, "voucher", false, "finalize and print the voucher instead of the totals")
	estimateCmd.Flags().BoolVar(&estimatePremium, "premium", false, "finalize with premium access")
	estimateCmd.Flags().BoolVar(&estimateFromDB, "db", false, "price with the configured perdiem_rates table instead of the file's rates")
}

func runEstimate(ctx context.Context, path string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	in, err := readInput(path)
	if err != nil {
		return err
	}

	var file estimateFile
	if err := json.Unmarshal(in, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	provider, maxConcurrent, closeFn, err := offlineProvider(file)
	if err != nil {
		return err
	}
	defer closeFn()

	t, err := file.Trip.ToTrip()
	if err != nil {
		return describe(err)
	}

	engine := estimate.NewEngine(rate.NewResolver(provider, rate.DefaultLookupTimeout), maxConcurrent)
	if !estimateAsVoucher {
		totals, _, err := engine.Recompute(ctx, t, file.Items)
		if err != nil {
			return describe(err)
		}
		b, err := json.MarshalIndent(estimate.EstimateResponse{Trip: t.Summary(), Totals: totals}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}

	v, err := voucher.NewService(engine, nil, nil, logger.Discard()).Finalize(ctx, t, file.Items, "", estimatePremium)
	if err != nil {
		return describe(err)
	}
	b, err := v.ExportIndent()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func offlineProvider(file estimateFile) (rate.Provider, int, func(), error) {
	if !estimateFromDB {
		if len(file.Rates) == 0 {
			return nil, 0, nil, fmt.Errorf("the input has no rates; add a rates table or pass --db")
		}
		return rate.NewStaticTable(file.Rates), estimate.DefaultMaxConcurrentLookups, func() {}, nil
	}

	cfg, err := loadConfig(".")
	if err != nil {
		return nil, 0, nil, err
	}
	conn, err := initDB(cfg.Database)
	if err != nil {
		return nil, 0, nil, err
	}
	return ratePostgres.NewRateTable(conn), cfg.Rates.MaxConcurrentLookups, func() { _ = conn.Close() }, nil
}

// describe flattens an AppError into one line for the terminal.
func describe(err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return fmt.Errorf("%s: %s", appErr.Code, appErr.GetDetailedMessage())
	}
	return err
}
