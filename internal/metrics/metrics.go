// Package metrics derives consumption statistics from refuel history.
// Every function is pure and works on data already materialised by the
// archive store.
package metrics

import (
	"sort"
	"time"

	"github.com/and161185/fuel-tracker/internal/model"
)

// RecentWindow is the look-back used for the rolling averages shown to the user.
const RecentWindow = 90 * 24 * time.Hour

// Cost returns liters*pricePerLiter.
func Cost(liters, pricePerLiter float64) float64 { return liters * pricePerLiter }

// LPer100km returns liters*100/km; ok is false when km is not positive.
func LPer100km(liters, km float64) (float64, bool) {
	if km <= 0 {
		return 0, false
	}
	return liters * 100 / km, true
}

// KmPerLiter returns km/liters; ok is false when liters is not positive.
func KmPerLiter(liters, km float64) (float64, bool) {
	if liters <= 0 {
		return 0, false
	}
	return km / liters, true
}

// EurPerKm returns eur/km; ok is false when km is not positive.
func EurPerKm(eur, km float64) (float64, bool) {
	if km <= 0 {
		return 0, false
	}
	return eur / km, true
}

// BuildSegments derives one segment per consecutive pair of refuels ordered
// by odometer. Pairs with no distance or no fuel are skipped.
//
// Ordering is by odometer, never by date: dates can be backfilled, the
// odometer is the only monotonic field.
func BuildSegments(refuels []model.Refuel) []model.Segment {
	sorted := make([]model.Refuel, len(refuels))
	copy(sorted, refuels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Odometer < sorted[j].Odometer })

	segs := make([]model.Segment, 0, max(len(sorted)-1, 0))
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		km := cur.Odometer - prev.Odometer
		liters := cur.Liters
		if km <= 0 || liters <= 0 {
			continue
		}
		eur := Cost(liters, cur.PricePerLiter)
		segs = append(segs, model.Segment{
			Date:     cur.Date,
			Km:       km,
			Liters:   liters,
			LPer100:  liters * 100 / km,
			KmPerL:   km / liters,
			EurPerKm: eur / km,
		})
	}
	return segs
}

// Mean returns the arithmetic mean; ok is false for an empty slice.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}
