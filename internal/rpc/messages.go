package rpc

import (
	"encoding/json"
	"time"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse carries the new account id.
type RegisterResponse struct {
	UserID string `json:"user_id"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for subsequent calls.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
}

// StatusResponse describes the authenticated caller.
type StatusResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// GetArchiveResponse is the caller's whole archive document. Created is set
// when the document did not exist and was initialised empty by this call.
type GetArchiveResponse struct {
	Document json.RawMessage `json:"store"`
	Created  bool            `json:"created"`
	HasData  bool            `json:"has_data"`
}

// PutArchiveRequest replaces the caller's archive document.
type PutArchiveRequest struct {
	Document json.RawMessage `json:"store"`
}

// PutArchiveResponse reports the state of the stored document.
type PutArchiveResponse struct {
	HasData bool `json:"has_data"`
}
