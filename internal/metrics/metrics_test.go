package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/fuel-tracker/internal/model"
)

func day(d int) time.Time { return time.Date(2025, 1, d, 9, 0, 0, 0, time.UTC) }

func TestBuildSegments_TwoSegments(t *testing.T) {
	t.Parallel()

	refuels := []model.Refuel{
		{ID: 3, Odometer: 900, Liters: 40, PricePerLiter: 1.75, Date: day(20)},
		{ID: 1, Odometer: 0, Liters: 30, PricePerLiter: 1.90, Date: day(1)},
		{ID: 2, Odometer: 400, Liters: 32, PricePerLiter: 1.80, Date: day(10)},
	}

	segs := BuildSegments(refuels)
	require.Len(t, segs, 2)

	require.Equal(t, day(10), segs[0].Date)
	require.InDelta(t, 400, segs[0].Km, 1e-9)
	require.InDelta(t, 32, segs[0].Liters, 1e-9)
	require.InDelta(t, 8.0, segs[0].LPer100, 1e-9)
	require.InDelta(t, 12.5, segs[0].KmPerL, 1e-9)
	require.InDelta(t, 0.144, segs[0].EurPerKm, 1e-9)

	require.Equal(t, day(20), segs[1].Date)
	require.InDelta(t, 500, segs[1].Km, 1e-9)
	require.InDelta(t, 8.0, segs[1].LPer100, 1e-9)
	require.InDelta(t, 12.5, segs[1].KmPerL, 1e-9)
	require.InDelta(t, 0.14, segs[1].EurPerKm, 1e-9)

	// input order untouched
	require.Equal(t, int64(3), refuels[0].ID)
}

func TestBuildSegments_EqualOdometerSkipped(t *testing.T) {
	t.Parallel()

	segs := BuildSegments([]model.Refuel{
		{Odometer: 1000, Liters: 20, PricePerLiter: 1.8},
		{Odometer: 1000, Liters: 25, PricePerLiter: 1.8},
	})
	require.Empty(t, segs)
}

func TestBuildSegments_DegenerateInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, BuildSegments(nil))
	require.Empty(t, BuildSegments([]model.Refuel{{Odometer: 10, Liters: 5}}))

	segs := BuildSegments([]model.Refuel{
		{Odometer: 0, Liters: 10},
		{Odometer: 100, Liters: 0},
		{Odometer: 300, Liters: 10, PricePerLiter: 2},
	})
	require.Len(t, segs, 1)
	require.InDelta(t, 200, segs[0].Km, 1e-9)
}

func TestRatios(t *testing.T) {
	t.Parallel()

	if v, ok := LPer100km(8, 100); !ok || v != 8 {
		t.Fatalf("LPer100km = %v %v", v, ok)
	}
	if _, ok := LPer100km(8, 0); ok {
		t.Fatalf("LPer100km must be absent for zero km")
	}
	if v, ok := KmPerLiter(4, 100); !ok || v != 25 {
		t.Fatalf("KmPerLiter = %v %v", v, ok)
	}
	if _, ok := KmPerLiter(0, 100); ok {
		t.Fatalf("KmPerLiter must be absent for zero liters")
	}
	if v, ok := EurPerKm(15, 100); !ok || v != 0.15 {
		t.Fatalf("EurPerKm = %v %v", v, ok)
	}
	if _, ok := EurPerKm(15, -1); ok {
		t.Fatalf("EurPerKm must be absent for negative km")
	}
	if Cost(40, 1.75) != 70 {
		t.Fatalf("Cost mismatch")
	}
}

func TestMean(t *testing.T) {
	t.Parallel()

	if _, ok := Mean(nil); ok {
		t.Fatalf("mean of nothing must be absent")
	}
	if m, ok := Mean([]float64{1, 2, 3, 6}); !ok || m != 3 {
		t.Fatalf("mean = %v %v", m, ok)
	}
}
