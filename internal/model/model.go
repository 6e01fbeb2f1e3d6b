// Package model defines domain entities used by the archive store, the
// metrics engine, services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// FullTank is the only supported refuel kind; consumption math depends on it.
const FullTank = 1

// ArchiveVersion is the document format version written by this module.
const ArchiveVersion = 1

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account stored on the backend. Passwords are never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Username  string    // unique
	PwdHash   []byte    // Argon2id(password, SaltAuth)
	SaltAuth  []byte    // per-user auth salt
	CreatedAt time.Time
}

// Vehicle is a tracked car or motorbike.
type Vehicle struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Plate         *string   `json:"plate"`
	TankCapacityL *float64  `json:"tank_capacity_l"`
	CreatedAt     time.Time `json:"created_at"`
}

// Refuel is a single full-tank refuelling event.
type Refuel struct {
	ID            int64     `json:"id"`
	VehicleID     int64     `json:"vehicle_id"`
	Date          time.Time `json:"date"`
	Odometer      float64   `json:"odometer"`
	Liters        float64   `json:"liters"`
	PricePerLiter float64   `json:"price_per_liter"`
	IsFull        int       `json:"is_full"`
	Station       *string   `json:"station"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

// Cost is the amount paid for the refuel.
func (r Refuel) Cost() float64 { return r.Liters * r.PricePerLiter }

// Segment is the interval between two consecutive full-tank refuels
// ordered by odometer. It is derived and never stored.
type Segment struct {
	Date     time.Time `json:"date"`
	Km       float64   `json:"km"`
	Liters   float64   `json:"liters"`
	LPer100  float64   `json:"l_per_100km"`
	KmPerL   float64   `json:"km_per_liter"`
	EurPerKm float64   `json:"eur_per_km"`
}

// ArchiveInfo describes the state of the remote archive document.
type ArchiveInfo struct {
	Created bool `json:"created"`  // the remote file did not exist and was just initialised
	HasData bool `json:"has_data"` // the document holds at least one vehicle or refuel
}
