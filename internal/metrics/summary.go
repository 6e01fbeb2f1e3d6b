package metrics

import (
	"time"

	"github.com/and161185/fuel-tracker/internal/model"
)

// Averages are rolling means over a time window. A nil field means the
// window held no segment.
type Averages struct {
	Segments int      `json:"segments"`
	LPer100  *float64 `json:"l_per_100km"`
	KmPerL   *float64 `json:"km_per_liter"`
	EurPerKm *float64 `json:"eur_per_km"`
}

// Window averages the segments built from refuels dated on or after
// now-window. A segment needs both of its refuels inside the window. Refuels
// dated after now still count.
func Window(refuels []model.Refuel, now time.Time, window time.Duration) Averages {
	from := now.Add(-window)
	var in []model.Refuel
	for _, r := range refuels {
		if !r.Date.Before(from) {
			in = append(in, r)
		}
	}
	return averages(BuildSegments(in))
}

// MonthSpend sums the cost of refuels dated on or after the first day of
// now's calendar month, in now's location. Future-dated refuels are included.
func MonthSpend(refuels []model.Refuel, now time.Time) float64 {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var total float64
	for _, r := range refuels {
		if !r.Date.Before(start) {
			total += Cost(r.Liters, r.PricePerLiter)
		}
	}
	return total
}

// Summary is the per-vehicle overview.
type Summary struct {
	Refuels     int      `json:"refuels"`
	TotalLiters float64  `json:"total_liters"`
	TotalCost   float64  `json:"total_cost"`
	DistanceKm  float64  `json:"distance_km"`
	MonthSpend  float64  `json:"month_spend"`
	Recent      Averages `json:"recent"`
	Lifetime    Averages `json:"lifetime"`
}

// Summarize computes the overview of one vehicle's refuels at time now.
func Summarize(refuels []model.Refuel, now time.Time) Summary {
	s := Summary{
		Refuels:    len(refuels),
		MonthSpend: MonthSpend(refuels, now),
		Recent:     Window(refuels, now, RecentWindow),
		Lifetime:   averages(BuildSegments(refuels)),
	}
	if len(refuels) == 0 {
		return s
	}

	lo, hi := refuels[0].Odometer, refuels[0].Odometer
	for _, r := range refuels {
		s.TotalLiters += r.Liters
		s.TotalCost += Cost(r.Liters, r.PricePerLiter)
		lo, hi = min(lo, r.Odometer), max(hi, r.Odometer)
	}
	s.DistanceKm = hi - lo
	return s
}

func averages(segs []model.Segment) Averages {
	l100 := make([]float64, len(segs))
	kml := make([]float64, len(segs))
	eurkm := make([]float64, len(segs))
	for i, s := range segs {
		l100[i], kml[i], eurkm[i] = s.LPer100, s.KmPerL, s.EurPerKm
	}
	return Averages{
		Segments: len(segs),
		LPer100:  meanPtr(l100),
		KmPerL:   meanPtr(kml),
		EurPerKm: meanPtr(eurkm),
	}
}

func meanPtr(values []float64) *float64 {
	m, ok := Mean(values)
	if !ok {
		return nil
	}
	return &m
}
