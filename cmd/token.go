package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/tdy-voucher/internal/auth"
)

var tokenPremium bool

var tokenCmd = &cobra.Command{
	Use:   "token [traveler-id]",
	Short: "Issue an access token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(".")
		if err != nil {
			return err
		}
		tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.AccessTokenDuration)
		token, err := tokens.GenerateAccessToken(args[0], tokenPremium)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().BoolVar(&tokenPremium, "premium", false, "grant premium access (voucher finalization)")
}
