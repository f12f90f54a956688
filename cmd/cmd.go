package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

var rootCmd = &cobra.Command{
	Use:   "tdy-voucher",
	Short: "TDY Voucher",
	Long:  `Estimates temporary duty travel reimbursement and assembles travel vouchers.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		applyLimits(cfg)
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_server.port", 8080)
	v.SetDefault("rates.provider", internal.RateProviderDatabase)
	v.SetDefault("rates.lookup_timeout", "5s")
	v.SetDefault("rates.max_concurrent_lookups", 8)
	v.SetDefault("rates.max_trip_days", trip.DefaultMaxTripDays)
	v.SetDefault("security.jwt_issuer", "tdy-voucher")
	v.SetDefault("security.access_token_duration", "15m")
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}
	applyLimits(&cfg)

	return &cfg, nil
}

func applyLimits(cfg *internal.Config) {
	if cfg.Rates.MaxTripDays > 0 {
		trip.MaxTripDays = cfg.Rates.MaxTripDays
	}
}

func init() {
	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(tokenCmd)
}
