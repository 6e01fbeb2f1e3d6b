package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/model"
)

const dateLayout = "2006-01-02"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

// password takes -p, falling back to FUEL_PASSWORD.
func password(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv("FUEL_PASSWORD"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: password required (-p or FUEL_PASSWORD)", errUsage)
}

// vehicleFor resolves --vehicle, defaulting to the first vehicle created.
func (a *app) vehicleFor(cmd *cobra.Command, id int64) (model.Vehicle, error) {
	if id > 0 {
		return a.store.Vehicle(cmd.Context(), id)
	}
	v, err := a.store.FirstVehicle(cmd.Context())
	if errors.Is(err, errs.ErrNotFound) {
		return model.Vehicle{}, fmt.Errorf("no vehicles yet, add one with `fuel vehicle add`: %w", err)
	}
	return v, err
}

// parseDate accepts the archive timestamp formats; empty means now.
func parseDate(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return now, nil
	}
	t, ok := model.ParseTimestamp(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: bad date %q (want YYYY-MM-DD or RFC 3339)", errs.ErrValidation, s)
	}
	return t, nil
}

func optString(cmd *cobra.Command, name, v string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func optFloat(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// orNA formats an optional average, "n/a" when there is no data.
func orNA(p *float64, format string) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *p)
}
