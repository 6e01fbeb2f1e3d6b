package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/fuel-tracker/internal/model"
)

func newVehicleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vehicle",
		Aliases: []string{"vehicles"},
		Short:   "Manage vehicles",
	}
	cmd.AddCommand(newVehicleAddCmd(a), newVehicleListCmd(a))
	return cmd
}

func newVehicleAddCmd(a *app) *cobra.Command {
	var (
		name, plate string
		tank        float64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := a.store.CreateVehicle(cmd.Context(), model.NewVehicle{
				Name:          name,
				Plate:         optString(cmd, "plate", plate),
				TankCapacityL: optFloat(cmd, "tank", tank),
			})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, map[string]int64{"id": id})
			}
			fmt.Fprintf(a.stdout, "vehicle #%d added\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&plate, "plate", "", "licence plate")
	cmd.Flags().Float64Var(&tank, "tank", 0, "tank capacity in liters")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newVehicleListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List vehicles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vs, err := a.store.Vehicles(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, vs)
			}
			if len(vs) == 0 {
				fmt.Fprintln(a.stdout, "no vehicles")
				return nil
			}
			tw := newTable(a.stdout)
			fmt.Fprintln(tw, "ID\tNAME\tPLATE\tTANK L\tADDED")
			for _, v := range vs {
				tank := ""
				if v.TankCapacityL != nil {
					tank = fmt.Sprintf("%.1f", *v.TankCapacityL)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.ID, v.Name, deref(v.Plate), tank, v.CreatedAt.Local().Format(time.DateOnly))
			}
			return tw.Flush()
		},
	}
}
