// Package archive implements the in-memory archive store: the single
// authority for a signed-in session's vehicles and refuels, backed by one
// remote document that is fetched lazily and rewritten whole after every
// mutation.
package archive

import (
	"context"
	"encoding/json"

	"github.com/and161185/fuel-tracker/internal/model"
)

// Gateway is the contract with the remote document service.
//
// FetchArchive returns the current document; Info.Created is true when the
// remote file did not exist and was just initialised empty. SaveArchive
// replaces the document wholesale. Both fail with an error wrapping
// errs.ErrTransport when the caller is not authenticated or the remote
// service is unreachable.
type Gateway interface {
	FetchArchive(ctx context.Context) (model.Fetched, error)
	SaveArchive(ctx context.Context, doc json.RawMessage) (model.ArchiveInfo, error)
}
