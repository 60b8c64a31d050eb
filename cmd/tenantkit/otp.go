package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/otp"
)

func otpCommand() *cobra.Command {
	var (
		count    int
		digits   int
		withHash bool
	)

	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Generate one-time codes with the configured policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg otp.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			if digits > 0 {
				cfg.Digits = digits
			}

			gen, err := otp.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			policy := gen.Policy()
			out := cmd.OutOrStdout()
			fmt.Fprintf(cmd.ErrOrStderr(), "policy: %d symbols from %q, %.1f bits\n",
				policy.Length, policy.Alphabet, policy.EntropyBits)

			for range max(count, 1) {
				code, err := gen.Generate()
				if err != nil {
					return err
				}
				if withHash {
					fmt.Fprintf(out, "%s\t%s\n", code, otp.Hash(code))
					continue
				}
				fmt.Fprintln(out, code)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of codes")
	cmd.Flags().IntVar(&digits, "digits", 0, "numeric codes of this length, overrides OTP_* settings")
	cmd.Flags().BoolVar(&withHash, "hash", false, "print the storage hash next to each code")
	return cmd
}
