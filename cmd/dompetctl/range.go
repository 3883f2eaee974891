package main

import (
	"fmt"
	"time"

	"dompet/internal/core"

	"github.com/spf13/cobra"
)

func rangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Show the date range and label of a custom month",
		Long: `Resolve the custom month named by --year and --month for a month start day.

With --start-day 25, month 8 of 2025 runs from 25 July to 24 August.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, _ := cmd.Flags().GetInt("year")
			month, _ := cmd.Flags().GetInt("month")
			startDay, _ := cmd.Flags().GetInt("start-day")
			localeFlag, _ := cmd.Flags().GetString("locale")

			locale, err := core.ParseLocale(localeFlag)
			if err != nil {
				return err
			}
			period, err := core.ResolveMonthRange(year, month, startDay)
			if err != nil {
				return err
			}
			label, err := core.FormatMonthLabel(year, month, startDay, locale)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d days\t%s\n", period.Start, period.End, period.Days(), label)
			return nil
		},
	}

	now := time.Now()
	cmd.Flags().Int("year", now.Year(), "calendar year of the custom month")
	cmd.Flags().Int("month", int(now.Month()), "month number, 1-12")
	cmd.Flags().Int("start-day", 1, "day of month on which custom months begin, 1-31")
	cmd.Flags().String("locale", "id", "label language (id, en)")
	return cmd
}
