package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/model"
	"github.com/and161185/fuel-tracker/internal/repository"
)

// DefaultMaxDocumentBytes bounds an uploaded archive document.
const DefaultMaxDocumentBytes = 8 << 20

var emptyDocument = []byte(`{}`)

// ArchiveService reads and replaces whole archive documents.
type ArchiveService interface {
	// Fetch returns the user's document, creating an empty one on first access.
	Fetch(ctx context.Context, userID uuid.UUID) (model.Fetched, error)
	// Save replaces the user's document. doc must be a JSON object.
	Save(ctx context.Context, userID uuid.UUID, doc []byte) (model.ArchiveInfo, error)
}

// ArchiveServiceImpl stores documents opaquely; it only parses them to
// report whether they hold any data.
type ArchiveServiceImpl struct {
	repo     repository.ArchiveRepository
	maxBytes int
	log      *zap.Logger
}

// NewArchiveService constructs ArchiveService. maxBytes <= 0 selects
// DefaultMaxDocumentBytes.
func NewArchiveService(repo repository.ArchiveRepository, maxBytes int, log *zap.Logger) *ArchiveServiceImpl {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ArchiveServiceImpl{repo: repo, maxBytes: maxBytes, log: log}
}

// Fetch returns the stored document with its info.
func (s *ArchiveServiceImpl) Fetch(ctx context.Context, userID uuid.UUID) (model.Fetched, error) {
	if userID == uuid.Nil {
		return model.Fetched{}, errs.ErrUnauthorized
	}
	doc, created, err := s.repo.GetOrCreate(ctx, userID, emptyDocument)
	if err != nil {
		return model.Fetched{}, fmt.Errorf("fetch archive: %w", err)
	}
	if created {
		s.log.Info("archive initialised", zap.String("user_id", userID.String()))
	}
	return model.Fetched{
		Document: doc,
		Info:     model.ArchiveInfo{Created: created, HasData: hasData(doc)},
	}, nil
}

// Save validates and stores doc.
func (s *ArchiveServiceImpl) Save(ctx context.Context, userID uuid.UUID, doc []byte) (model.ArchiveInfo, error) {
	if userID == uuid.Nil {
		return model.ArchiveInfo{}, errs.ErrUnauthorized
	}
	if err := s.validate(doc); err != nil {
		return model.ArchiveInfo{}, err
	}
	if err := s.repo.Put(ctx, userID, doc); err != nil {
		return model.ArchiveInfo{}, fmt.Errorf("save archive: %w", err)
	}
	info := model.ArchiveInfo{HasData: hasData(doc)}
	s.log.Debug("archive saved",
		zap.String("user_id", userID.String()),
		zap.Int("bytes", len(doc)),
		zap.Bool("has_data", info.HasData),
	)
	return info, nil
}

func (s *ArchiveServiceImpl) validate(doc []byte) error {
	if len(doc) == 0 {
		return fmt.Errorf("%w: missing document", errs.ErrValidation)
	}
	if len(doc) > s.maxBytes {
		return fmt.Errorf("%w: document is %d bytes, limit %d", errs.ErrValidation, len(doc), s.maxBytes)
	}
	if !json.Valid(doc) {
		return fmt.Errorf("%w: document is not valid JSON", errs.ErrValidation)
	}
	if t := bytes.TrimSpace(doc); len(t) == 0 || t[0] != '{' {
		return fmt.Errorf("%w: document must be a JSON object", errs.ErrValidation)
	}
	return nil
}

// hasData applies the same normalisation the client does, so a document
// holding only malformed records counts as empty.
func hasData(doc []byte) bool {
	return model.ParseDocument(doc, time.Time{}).HasData()
}
