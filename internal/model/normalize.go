package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// UnnamedVehicle replaces a missing or blank vehicle name on import.
const UnnamedVehicle = "Unnamed vehicle"

// timestampLayouts are tried in order when reading dates from untrusted input.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 date or date-time. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDocument converts an untrusted serialized archive into a well-typed
// one. It never fails: a document that is not a JSON object yields an empty
// archive, and records failing required-field validation are dropped one by
// one. Unknown fields are ignored. Records without an id get max+1 ids.
func ParseDocument(raw []byte, now time.Time) Archive {
	out := EmptyArchive()

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return out
	}

	var version any
	if err := json.Unmarshal(doc["version"], &version); err == nil {
		if v, ok := version.(float64); ok && isInt(v) {
			out.Version = int(v)
		}
	}

	for _, rec := range records(doc["vehicles"]) {
		if v, ok := NormalizeVehicle(rec, now); ok {
			out.Vehicles = append(out.Vehicles, v)
		}
	}
	for _, rec := range records(doc["refuels"]) {
		if r, ok := NormalizeRefuel(rec, now); ok {
			out.Refuels = append(out.Refuels, r)
		}
	}

	assignMissingIDs(&out)
	return out
}

// NormalizeVehicle turns one decoded JSON value into a Vehicle. Only a
// non-object is dropped: a blank name becomes UnnamedVehicle and malformed
// optional fields become null.
func NormalizeVehicle(raw any, now time.Time) (Vehicle, bool) {
	data, ok := raw.(map[string]any)
	if !ok {
		return Vehicle{}, false
	}

	v := Vehicle{
		ID:        intField(data["id"]),
		Name:      UnnamedVehicle,
		Plate:     stringField(data["plate"]),
		CreatedAt: timeField(data["created_at"], now),
	}
	if name, ok := data["name"].(string); ok && strings.TrimSpace(name) != "" {
		v.Name = name
	}
	if c, ok := data["tank_capacity_l"].(float64); ok && c > 0 {
		v.TankCapacityL = &c
	}
	return v, true
}

// NormalizeRefuel turns one decoded JSON value into a Refuel. vehicle_id,
// odometer, liters and price_per_liter must coerce to finite numbers and
// date must be a timestamp string, otherwise the record is dropped.
// is_full is always forced to FullTank.
func NormalizeRefuel(raw any, now time.Time) (Refuel, bool) {
	data, ok := raw.(map[string]any)
	if !ok {
		return Refuel{}, false
	}

	vehicleID, okVID := number(data["vehicle_id"])
	odometer, okOdo := number(data["odometer"])
	liters, okL := number(data["liters"])
	price, okP := number(data["price_per_liter"])
	if !okVID || !okOdo || !okL || !okP || !isInt(vehicleID) {
		return Refuel{}, false
	}
	ds, ok := data["date"].(string)
	if !ok {
		return Refuel{}, false
	}
	date, ok := ParseTimestamp(ds)
	if !ok {
		return Refuel{}, false
	}

	return Refuel{
		ID:            intField(data["id"]),
		VehicleID:     int64(vehicleID),
		Date:          date,
		Odometer:      odometer,
		Liters:        liters,
		PricePerLiter: price,
		IsFull:        FullTank,
		Station:       stringField(data["station"]),
		Notes:         stringField(data["notes"]),
		CreatedAt:     timeField(data["created_at"], now),
	}, true
}

// records decodes a JSON array into its elements; anything else is empty.
func records(raw json.RawMessage) []any {
	var list []any
	if len(raw) == 0 || json.Unmarshal(raw, &list) != nil {
		return nil
	}
	return list
}

func assignMissingIDs(a *Archive) {
	next := a.NextVehicleID()
	for i := range a.Vehicles {
		if a.Vehicles[i].ID <= 0 {
			a.Vehicles[i].ID = next
			next++
		}
	}
	next = a.NextRefuelID()
	for i := range a.Refuels {
		if a.Refuels[i].ID <= 0 {
			a.Refuels[i].ID = next
			next++
		}
	}
}

// number coerces JSON numbers and numeric strings to a finite float64.
func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func intField(v any) int64 {
	f, ok := v.(float64)
	if !ok || !isInt(f) || f <= 0 {
		return 0
	}
	return int64(f)
}

func stringField(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func timeField(v any, fallback time.Time) time.Time {
	if s, ok := v.(string); ok {
		if t, ok := ParseTimestamp(s); ok {
			return t
		}
	}
	return fallback
}

func isInt(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) < 1<<53
}
