package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/fsutil"
	"github.com/and161185/fuel-tracker/internal/model"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file|-]",
		Short: "Write a JSON backup of the archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.store.Export(cmd.Context())
			if err != nil {
				return err
			}
			now := a.now()
			b, err := json.MarshalIndent(model.Backup{Archive: doc, ExportedAt: now.UTC()}, "", "  ")
			if err != nil {
				return err
			}
			b = append(b, '\n')

			path := fmt.Sprintf("fuel_backup_%d.json", now.UnixMilli())
			if len(args) == 1 {
				path = args[0]
			}
			if path == "-" {
				_, err := a.stdout.Write(b)
				return err
			}
			if err := fsutil.WriteFileAtomic(path, b, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "exported %d vehicles and %d refuels to %s\n", len(doc.Vehicles), len(doc.Refuels), path)
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the archive with a JSON backup",
		Long: `Replace the whole archive with the contents of a backup file.
Records that cannot be read are dropped. The previous archive is overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readAll(args[0])
			if err != nil {
				return err
			}
			var probe map[string]json.RawMessage
			if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
				return fmt.Errorf("%w: %s is not a JSON backup", errs.ErrValidation, args[0])
			}
			if err := a.store.Import(cmd.Context(), raw); err != nil {
				return err
			}
			doc, err := a.store.Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "imported %d vehicles and %d refuels\n", len(doc.Vehicles), len(doc.Refuels))
			return nil
		},
	}
}

func newReloadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Fetch the archive from the server again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.store.Reload(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, info)
			}
			switch {
			case info.HasData:
				fmt.Fprintln(a.stdout, "archive refreshed from the server")
			case info.Created:
				fmt.Fprintln(a.stdout, "a new empty archive was created for this account")
			default:
				fmt.Fprintln(a.stdout, "the archive on the server is empty")
			}
			return nil
		},
	}
}
