package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDumpCmd(v *viper.Viper) *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Scrape Katello once and print the metrics in text exposition format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, c, err := setup(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			res := c.Scrape(cmd.Context())
			if err := res.WriteText(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("dump: write: %w", err)
			}
			if err := res.Err(); failOnError && err != nil {
				return fmt.Errorf("dump: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when any endpoint group failed")
	return cmd
}
