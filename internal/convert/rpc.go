// Package convert maps between wire messages and domain types.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/model"
	"github.com/and161185/fuel-tracker/internal/rpc"
)

var emptyDocument = json.RawMessage(`{}`)

// --- Auth ---

// ToLoginResponse builds the login reply from issued tokens.
func ToLoginResponse(tok model.Tokens, u model.User) *rpc.LoginResponse {
	return &rpc.LoginResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt.UTC(),
		UserID:      u.ID.String(),
	}
}

// FromLoginResponse extracts tokens from a login reply.
func FromLoginResponse(in *rpc.LoginResponse) (model.Tokens, error) {
	if in == nil {
		return model.Tokens{}, errors.New("nil LoginResponse")
	}
	if in.AccessToken == "" {
		return model.Tokens{}, fmt.Errorf("%w: empty access token", errs.ErrUnauthorized)
	}
	return model.Tokens{AccessToken: in.AccessToken, ExpiresAt: in.ExpiresAt}, nil
}

// ToStatusResponse describes an authenticated user.
func ToStatusResponse(u model.User) *rpc.StatusResponse {
	return &rpc.StatusResponse{UserID: u.ID.String(), Username: u.Username}
}

// --- Archive ---

// ToGetArchiveResponse wraps a fetched document. A missing document is sent
// as an empty object.
func ToGetArchiveResponse(f model.Fetched) *rpc.GetArchiveResponse {
	doc := f.Document
	if len(doc) == 0 {
		doc = emptyDocument
	}
	return &rpc.GetArchiveResponse{Document: doc, Created: f.Info.Created, HasData: f.Info.HasData}
}

// FromGetArchiveResponse unwraps a fetched document.
func FromGetArchiveResponse(in *rpc.GetArchiveResponse) (model.Fetched, error) {
	if in == nil {
		return model.Fetched{}, errors.New("nil GetArchiveResponse")
	}
	doc := in.Document
	if len(doc) == 0 || string(doc) == "null" {
		doc = emptyDocument
	}
	return model.Fetched{
		Document: append(json.RawMessage(nil), doc...),
		Info:     model.ArchiveInfo{Created: in.Created, HasData: in.HasData},
	}, nil
}

// ToPutArchiveRequest wraps a document for upload.
func ToPutArchiveRequest(doc json.RawMessage) *rpc.PutArchiveRequest {
	return &rpc.PutArchiveRequest{Document: doc}
}

// FromPutArchiveResponse reads the stored document state. Created is
// always false after a write.
func FromPutArchiveResponse(in *rpc.PutArchiveResponse) model.ArchiveInfo {
	if in == nil {
		return model.ArchiveInfo{}
	}
	return model.ArchiveInfo{HasData: in.HasData}
}
