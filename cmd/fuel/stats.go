package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/fuel-tracker/internal/metrics"
	"github.com/and161185/fuel-tracker/internal/model"
)

type statsOutput struct {
	Vehicle model.Vehicle   `json:"vehicle"`
	Summary metrics.Summary `json:"summary"`
	Series  []model.Segment `json:"series,omitempty"`
}

func newStatsCmd(a *app) *cobra.Command {
	var (
		vehicleID int64
		series    bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show spend and consumption for a vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.vehicleFor(cmd, vehicleID)
			if err != nil {
				return err
			}
			rs, err := a.store.RefuelsByVehicle(cmd.Context(), v.ID)
			if err != nil {
				return err
			}
			out := statsOutput{Vehicle: v, Summary: metrics.Summarize(rs, a.now())}
			if series {
				out.Series = metrics.BuildSegments(rs)
			}
			if a.jsonOut {
				return printJSON(a.stdout, out)
			}

			s := out.Summary
			fmt.Fprintf(a.stdout, "%s (#%d)\n", v.Name, v.ID)
			tw := newTable(a.stdout)
			fmt.Fprintf(tw, "spent this month\t%.2f EUR\n", s.MonthSpend)
			fmt.Fprintf(tw, "last 90 days\t%s L/100km\t%s EUR/km\t%d segments\n",
				orNA(s.Recent.LPer100, "%.2f"), orNA(s.Recent.EurPerKm, "%.3f"), s.Recent.Segments)
			fmt.Fprintf(tw, "all time\t%s L/100km\t%s EUR/km\t%d segments\n",
				orNA(s.Lifetime.LPer100, "%.2f"), orNA(s.Lifetime.EurPerKm, "%.3f"), s.Lifetime.Segments)
			fmt.Fprintf(tw, "refuels\t%d\t%.2f L\t%.2f EUR\n", s.Refuels, s.TotalLiters, s.TotalCost)
			fmt.Fprintf(tw, "distance\t%.0f km\n", s.DistanceKm)
			if err := tw.Flush(); err != nil {
				return err
			}

			if series {
				if len(out.Series) == 0 {
					fmt.Fprintln(a.stdout, "\nnot enough refuels for a consumption series")
					return nil
				}
				fmt.Fprintln(a.stdout)
				tw = newTable(a.stdout)
				fmt.Fprintln(tw, "DATE\tKM\tLITERS\tL/100KM\tKM/L\tEUR/KM")
				for _, seg := range out.Series {
					fmt.Fprintf(tw, "%s\t%.0f\t%.2f\t%.2f\t%.2f\t%.3f\n",
						seg.Date.Local().Format(dateLayout), seg.Km, seg.Liters, seg.LPer100, seg.KmPerL, seg.EurPerKm)
				}
				return tw.Flush()
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&vehicleID, "vehicle", 0, "vehicle id (default: first vehicle)")
	cmd.Flags().BoolVar(&series, "series", false, "list consumption per segment")
	return cmd
}
