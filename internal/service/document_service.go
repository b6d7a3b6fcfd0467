package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"stepable/internal/model"
	"stepable/internal/repository"
	"stepable/internal/storage"

	"github.com/rs/zerolog"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrUploadMissing    = errors.New("uploaded file not found in storage")
)

// DocumentView is a document with a short-lived download link.
type DocumentView struct {
	model.Document
	DownloadURL string `json:"download_url,omitempty"`
}

type UploadTarget struct {
	UploadURL   string `json:"upload_url"`
	StoragePath string `json:"storage_path"`
}

type DocumentService interface {
	Create(ctx context.Context, userID string, d *model.Document) (*model.Document, error)
	Get(ctx context.Context, userID, documentID string) (*DocumentView, error)
	Search(ctx context.Context, userID, projectID string, f DocumentFilter) ([]model.Document, error)
	Featured(ctx context.Context, userID, projectID string) ([]model.Document, error)
	InitiateUpload(ctx context.Context, userID, documentID, filename, contentType string) (*UploadTarget, error)
	CompleteUpload(ctx context.Context, userID, documentID, storagePath string) error
	Delete(ctx context.Context, userID, documentID string) error
}

type documentService struct {
	projects ProjectService
	repo     repository.DocumentRepository
	store    storage.ObjectStore
	logger   zerolog.Logger
}

func NewDocumentService(projects ProjectService, repo repository.DocumentRepository, store storage.ObjectStore, logger zerolog.Logger) DocumentService {
	return &documentService{
		projects: projects,
		repo:     repo,
		store:    store,
		logger:   logger.With().Str("service", "DocumentService").Logger(),
	}
}

func (s *documentService) Create(ctx context.Context, userID string, d *model.Document) (*model.Document, error) {
	if _, err := s.projects.RequireMember(ctx, userID, d.ProjectID); err != nil {
		return nil, err
	}
	d.CreatedBy = userID
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return d, nil
}

// load returns the document after checking the user belongs to its project.
func (s *documentService) load(ctx context.Context, userID, documentID string) (*model.Document, *model.ProjectMember, error) {
	d, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("get document: %w", err)
	}
	if d == nil {
		return nil, nil, ErrDocumentNotFound
	}
	m, err := s.projects.RequireMember(ctx, userID, d.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return d, m, nil
}

func (s *documentService) Get(ctx context.Context, userID, documentID string) (*DocumentView, error) {
	d, _, err := s.load(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	views, err := s.repo.IncrementViews(ctx, documentID)
	if err != nil {
		s.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to increment views")
	} else {
		d.Views = views
	}

	view := &DocumentView{Document: *d}
	if d.StoragePath != "" {
		url, err := s.store.PresignGet(ctx, d.StoragePath)
		if err != nil {
			return nil, err
		}
		view.DownloadURL = url
	}
	return view, nil
}

func (s *documentService) Search(ctx context.Context, userID, projectID string, f DocumentFilter) ([]model.Document, error) {
	if _, err := s.projects.RequireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return FilterDocuments(docs, f), nil
}

func (s *documentService) Featured(ctx context.Context, userID, projectID string) ([]model.Document, error) {
	if _, err := s.projects.RequireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return FeaturedDocuments(docs), nil
}

func documentKey(documentID, filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", ErrInvalidFilename
	}
	return fmt.Sprintf("documents/%s/%s", documentID, name), nil
}

// loadEditable is load plus the rule that only the creator or a project
// owner/admin may change the document's file or remove it.
func (s *documentService) loadEditable(ctx context.Context, userID, documentID string) (*model.Document, error) {
	d, m, err := s.load(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if d.CreatedBy != userID && !m.CanManage() {
		return nil, ErrForbidden
	}
	return d, nil
}

func (s *documentService) InitiateUpload(ctx context.Context, userID, documentID, filename, contentType string) (*UploadTarget, error) {
	if _, err := s.loadEditable(ctx, userID, documentID); err != nil {
		return nil, err
	}
	key, err := documentKey(documentID, filename)
	if err != nil {
		return nil, err
	}
	url, err := s.store.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadTarget{UploadURL: url, StoragePath: key}, nil
}

// CompleteUpload points the document at the uploaded object and removes the
// file it replaces. A failed cleanup is logged; the new file is already live.
func (s *documentService) CompleteUpload(ctx context.Context, userID, documentID, storagePath string) error {
	d, err := s.loadEditable(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(storagePath, "documents/"+documentID+"/") {
		return ErrInvalidFilename
	}
	exists, err := s.store.Exists(ctx, storagePath)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUploadMissing
	}
	if err := s.repo.UpdateStoragePath(ctx, documentID, storagePath); err != nil {
		return fmt.Errorf("update storage path: %w", err)
	}
	if d.StoragePath != "" && d.StoragePath != storagePath {
		if err := s.store.Delete(ctx, d.StoragePath); err != nil {
			s.logger.Error().Err(err).Str("document_id", documentID).Str("storage_path", d.StoragePath).Msg("Failed to delete replaced file")
		}
	}
	return nil
}

// Delete removes the stored file first; the row survives a storage failure.
func (s *documentService) Delete(ctx context.Context, userID, documentID string) error {
	d, err := s.loadEditable(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if d.StoragePath != "" {
		if err := s.store.Delete(ctx, d.StoragePath); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.logger.Info().Str("document_id", documentID).Msg("Document deleted")
	return nil
}
