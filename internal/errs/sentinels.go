// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across model/store/service/repo layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a malformed create payload or a broken invariant.
	// The operation is aborted before anything is persisted.
	ErrValidation = errors.New("validation")

	// ErrOdometerDecreasing indicates a refuel whose odometer is below the
	// highest reading already recorded for the vehicle.
	ErrOdometerDecreasing = fmt.Errorf("odometer decreasing: %w", ErrValidation)

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport indicates the remote archive could not be read or written
	// (missing credentials, unreachable backend, backend failure).
	ErrTransport = errors.New("transport")

	// ErrNotReady indicates an attempt to persist before the archive was loaded.
	ErrNotReady = errors.New("archive not ready")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")
)
