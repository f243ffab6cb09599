package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/moenga-git/ELD-VO/internal/cache"
	"github.com/moenga-git/ELD-VO/internal/contract"
	"github.com/moenga-git/ELD-VO/internal/hos"
	"github.com/moenga-git/ELD-VO/internal/service"
)

func newAggregateCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var (
		file         string
		resolution   int
		seed         float64
		tz           string
		trustTotals  bool
		applyRestart bool
	)
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate a JSON array of days into daily log sheets",
		Example: `  # Hourly grid for days recorded in Chicago time
  hosctl aggregate -f days.json --tz America/Chicago

  # 15-minute grid with 52 cycle hours already used
  cat days.json | hosctl aggregate -f - --resolution 15 --seed 52`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("unknown time zone %q", tz)
			}
			in, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			defer in.Close()

			var days []contract.Day
			if err := json.NewDecoder(in).Decode(&days); err != nil {
				return fmt.Errorf("decode days: %w", err)
			}

			svc := service.NewLogService(nil, nil, cache.Nop{}, service.LogOptions{
				Location:          loc,
				DefaultResolution: resolution,
				Logger:            logger(cmd),
			})
			out, err := svc.Aggregate(cmd.Context(), days, hos.Options{
				SeedHours:           seed,
				TrustProvidedTotals: trustTotals,
				ApplyRestart:        applyRestart,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "days JSON file (- for stdin)")
	cmd.Flags().IntVar(&resolution, "resolution", 60, "grid bucket size in minutes; must divide 1440")
	cmd.Flags().Float64Var(&seed, "seed", 0, "cycle hours used before the first day")
	cmd.Flags().StringVar(&tz, "tz", "UTC", "IANA time zone that defines calendar days")
	cmd.Flags().BoolVar(&trustTotals, "trust-totals", false, "keep totals supplied with a day")
	cmd.Flags().BoolVar(&applyRestart, "apply-restart", false, "drop time before a 34-hour restart from cycle totals")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
