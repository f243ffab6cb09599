package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
	"github.com/moenga-git/ELD-VO/internal/planner"
)

type planOutput struct {
	End            time.Time       `json:"end"`
	DrivingHours   float64         `json:"driving_hours"`
	CycleHoursUsed float64         `json:"cycle_hours_used"`
	Entries        []hos.DutyEntry `json:"duty_entries"`
}

func newPlanCmd() *cobra.Command {
	var (
		file      string
		start     string
		cycleUsed float64
	)
	cmd := &cobra.Command{
		Use:     "plan",
		Short:   "Schedule duty entries for a JSON array of routed legs",
		Example: `  hosctl plan -f legs.json --start 2025-06-01T08:00:00-05:00 --cycle-used 20`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startTime, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("--start must be RFC3339: %w", err)
			}
			in, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			defer in.Close()

			var legs []domain.Leg
			if err := json.NewDecoder(in).Decode(&legs); err != nil {
				return fmt.Errorf("decode legs: %w", err)
			}
			domain.MarkEndpoints(legs)

			plan, err := planner.Build(startTime, legs, cycleUsed)
			if err != nil {
				return err
			}
			return writeJSON(cmd, planOutput{
				End:            plan.End,
				DrivingHours:   plan.DrivingHours,
				CycleHoursUsed: plan.CycleHoursUsed,
				Entries:        plan.Entries,
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "legs JSON file (- for stdin)")
	cmd.Flags().StringVar(&start, "start", "", "trip start time (RFC3339); its offset sets the day boundaries")
	cmd.Flags().Float64Var(&cycleUsed, "cycle-used", 0, "cycle hours already used")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}
