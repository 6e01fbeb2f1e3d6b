package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/fuel-tracker/internal/metrics"
	"github.com/and161185/fuel-tracker/internal/model"
)

func newRefuelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "refuel",
		Aliases: []string{"refuels"},
		Short:   "Record and list full-tank refuels",
	}
	cmd.AddCommand(newRefuelAddCmd(a), newRefuelListCmd(a))
	return cmd
}

func newRefuelAddCmd(a *app) *cobra.Command {
	var (
		vehicleID               int64
		date, station, notes    string
		odometer, liters, price float64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a full-tank refuel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.vehicleFor(cmd, vehicleID)
			if err != nil {
				return err
			}
			when, err := parseDate(date, a.now())
			if err != nil {
				return err
			}
			in := model.NewRefuel{
				VehicleID:     v.ID,
				Date:          when,
				Odometer:      odometer,
				Liters:        liters,
				PricePerLiter: price,
				Station:       optString(cmd, "station", station),
				Notes:         optString(cmd, "notes", notes),
			}
			id, err := a.store.CreateRefuel(cmd.Context(), in)
			if err != nil {
				return err
			}
			cost := metrics.Cost(liters, price)
			if a.jsonOut {
				return printJSON(a.stdout, map[string]any{"id": id, "vehicle_id": v.ID, "cost": cost})
			}
			fmt.Fprintf(a.stdout, "refuel #%d saved for %s, estimated cost %.2f EUR\n", id, v.Name, cost)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&vehicleID, "vehicle", 0, "vehicle id (default: first vehicle)")
	f.StringVar(&date, "date", "", "refuel date, YYYY-MM-DD or RFC 3339 (default: now)")
	f.Float64Var(&odometer, "odometer", 0, "odometer reading in km")
	f.Float64Var(&liters, "liters", 0, "liters filled")
	f.Float64Var(&price, "price", 0, "price per liter")
	f.StringVar(&station, "station", "", "station name")
	f.StringVar(&notes, "notes", "", "free text")
	_ = cmd.MarkFlagRequired("odometer")
	_ = cmd.MarkFlagRequired("liters")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newRefuelListCmd(a *app) *cobra.Command {
	var vehicleID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List refuels of a vehicle by date",
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
			if a.jsonOut {
				return printJSON(a.stdout, rs)
			}
			if len(rs) == 0 {
				fmt.Fprintf(a.stdout, "no refuels for %s\n", v.Name)
				return nil
			}
			tw := newTable(a.stdout)
			fmt.Fprintln(tw, "ID\tDATE\tODOMETER\tLITERS\tEUR/L\tCOST\tSTATION")
			for _, r := range rs {
				fmt.Fprintf(tw, "%d\t%s\t%.0f\t%.2f\t%.3f\t%.2f\t%s\n",
					r.ID, r.Date.Local().Format(dateLayout), r.Odometer, r.Liters, r.PricePerLiter, r.Cost(), deref(r.Station))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int64Var(&vehicleID, "vehicle", 0, "vehicle id (default: first vehicle)")
	return cmd
}
