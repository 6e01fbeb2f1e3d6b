package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/and161185/fuel-tracker/internal/errs"
)

// Archive is the whole persisted dataset of one user. It is read and
// written as a single JSON document.
type Archive struct {
	Version  int       `json:"version"`
	Vehicles []Vehicle `json:"vehicles"`
	Refuels  []Refuel  `json:"refuels"`
}

// Backup is the user-facing export file: the archive plus an export stamp.
type Backup struct {
	Archive
	ExportedAt time.Time `json:"exported_at"`
}

// Fetched is the result of reading the remote archive.
type Fetched struct {
	Document json.RawMessage
	Info     ArchiveInfo
}

// EmptyArchive returns a fresh document with non-nil collections.
func EmptyArchive() Archive {
	return Archive{Version: ArchiveVersion, Vehicles: []Vehicle{}, Refuels: []Refuel{}}
}

// HasData reports whether the archive holds at least one vehicle or refuel.
func (a Archive) HasData() bool { return len(a.Vehicles) > 0 || len(a.Refuels) > 0 }

// Clone returns a deep copy; mutating it never affects the receiver.
func (a Archive) Clone() Archive {
	out := Archive{
		Version:  a.Version,
		Vehicles: make([]Vehicle, len(a.Vehicles)),
		Refuels:  make([]Refuel, len(a.Refuels)),
	}
	for i, v := range a.Vehicles {
		out.Vehicles[i] = v.Clone()
	}
	for i, r := range a.Refuels {
		out.Refuels[i] = r.Clone()
	}
	return out
}

// Clone returns a copy that shares no pointers with v.
func (v Vehicle) Clone() Vehicle {
	v.Plate = cloneString(v.Plate)
	v.TankCapacityL = cloneFloat(v.TankCapacityL)
	return v
}

// Clone returns a copy that shares no pointers with r.
func (r Refuel) Clone() Refuel {
	r.Station = cloneString(r.Station)
	r.Notes = cloneString(r.Notes)
	return r
}

// NextVehicleID returns max(id)+1, or 1 for an empty collection.
func (a Archive) NextVehicleID() int64 {
	var maxID int64
	for _, v := range a.Vehicles {
		maxID = max(maxID, v.ID)
	}
	return maxID + 1
}

// NextRefuelID returns max(id)+1, or 1 for an empty collection.
func (a Archive) NextRefuelID() int64 {
	var maxID int64
	for _, r := range a.Refuels {
		maxID = max(maxID, r.ID)
	}
	return maxID + 1
}

// FindVehicle returns the vehicle with the given id.
func (a Archive) FindVehicle(id int64) (Vehicle, bool) {
	for _, v := range a.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// FindRefuel returns the refuel with the given id.
func (a Archive) FindRefuel(id int64) (Refuel, bool) {
	for _, r := range a.Refuels {
		if r.ID == id {
			return r, true
		}
	}
	return Refuel{}, false
}

// MaxOdometer returns the highest odometer recorded for a vehicle.
// ok is false when the vehicle has no refuels yet.
func (a Archive) MaxOdometer(vehicleID int64) (odo float64, ok bool) {
	for _, r := range a.Refuels {
		if r.VehicleID != vehicleID {
			continue
		}
		if !ok || r.Odometer > odo {
			odo, ok = r.Odometer, true
		}
	}
	return odo, ok
}

// NewVehicle is the payload for creating a vehicle.
type NewVehicle struct {
	Name          string
	Plate         *string
	TankCapacityL *float64
}

// Validate checks the create payload.
func (n NewVehicle) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: empty vehicle name", errs.ErrValidation)
	}
	if n.TankCapacityL != nil && !(finite(*n.TankCapacityL) && *n.TankCapacityL > 0) {
		return fmt.Errorf("%w: tank capacity must be positive", errs.ErrValidation)
	}
	return nil
}

// NewRefuel is the payload for creating a refuel.
type NewRefuel struct {
	VehicleID     int64
	Date          time.Time
	Odometer      float64
	Liters        float64
	PricePerLiter float64
	Station       *string
	Notes         *string
}

// Validate checks the create payload. The odometer ordering is checked by
// the store, which knows the vehicle's history.
func (n NewRefuel) Validate() error {
	switch {
	case n.VehicleID <= 0:
		return fmt.Errorf("%w: vehicle id required", errs.ErrValidation)
	case n.Date.IsZero():
		return fmt.Errorf("%w: date required", errs.ErrValidation)
	case !finite(n.Odometer) || n.Odometer < 0:
		return fmt.Errorf("%w: odometer must be non-negative", errs.ErrValidation)
	case !finite(n.Liters) || n.Liters <= 0:
		return fmt.Errorf("%w: liters must be positive", errs.ErrValidation)
	case !finite(n.PricePerLiter) || n.PricePerLiter < 0:
		return fmt.Errorf("%w: price per liter must be non-negative", errs.ErrValidation)
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
