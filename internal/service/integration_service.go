package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stepable/internal/model"
	"stepable/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrIntegrationNotFound    = errors.New("integration not found")
	ErrUnsupportedIntegration = errors.New("unsupported integration type")
)

var integrationTypes = map[string]bool{"github": true, "slack": true, "jira": true, "notion": true}

func IntegrationSecretID(projectID, integrationType string) string {
	return fmt.Sprintf("integration-%s-%s", projectID, integrationType)
}

type IntegrationInput struct {
	Type       string
	Config     json.RawMessage
	Credential string
}

type IntegrationService interface {
	List(ctx context.Context, userID, projectID string) ([]model.Integration, error)
	Connect(ctx context.Context, userID, projectID string, in IntegrationInput) (*model.Integration, error)
	Deactivate(ctx context.Context, userID, projectID, integrationType string) error
	Delete(ctx context.Context, userID, projectID, integrationType string) error
}

type integrationService struct {
	projects ProjectService
	repo     repository.IntegrationRepository
	secrets  SecretManagerService
	logger   zerolog.Logger
}

func NewIntegrationService(projects ProjectService, repo repository.IntegrationRepository, secrets SecretManagerService, logger zerolog.Logger) IntegrationService {
	return &integrationService{
		projects: projects,
		repo:     repo,
		secrets:  secrets,
		logger:   logger.With().Str("service", "IntegrationService").Logger(),
	}
}

func (s *integrationService) requireManager(ctx context.Context, userID, projectID string) error {
	m, err := s.projects.RequireMember(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !m.CanManage() {
		return ErrForbidden
	}
	return nil
}

func (s *integrationService) List(ctx context.Context, userID, projectID string) ([]model.Integration, error) {
	if _, err := s.projects.RequireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

func (s *integrationService) Connect(ctx context.Context, userID, projectID string, in IntegrationInput) (*model.Integration, error) {
	if !integrationTypes[in.Type] {
		return nil, ErrUnsupportedIntegration
	}
	if err := s.requireManager(ctx, userID, projectID); err != nil {
		return nil, err
	}

	i := &model.Integration{ProjectID: projectID, Type: in.Type, Config: in.Config, IsActive: true}
	if existing, err := s.repo.Get(ctx, projectID, in.Type); err != nil {
		return nil, err
	} else if existing != nil {
		i.SecretName = existing.SecretName
	}

	if in.Credential != "" {
		secretID := IntegrationSecretID(projectID, in.Type)
		if err := s.secrets.StoreSecret(ctx, secretID, in.Credential); err != nil {
			return nil, fmt.Errorf("store integration credential: %w", err)
		}
		i.SecretName = secretID
	}

	if err := s.repo.Upsert(ctx, i); err != nil {
		return nil, fmt.Errorf("save integration: %w", err)
	}
	s.logger.Info().Str("project_id", projectID).Str("type", in.Type).Msg("Integration connected")
	return i, nil
}

func (s *integrationService) Deactivate(ctx context.Context, userID, projectID, integrationType string) error {
	if err := s.requireManager(ctx, userID, projectID); err != nil {
		return err
	}
	existing, err := s.repo.Get(ctx, projectID, integrationType)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrIntegrationNotFound
	}
	return s.repo.SetActive(ctx, projectID, integrationType, false)
}

func (s *integrationService) Delete(ctx context.Context, userID, projectID, integrationType string) error {
	if err := s.requireManager(ctx, userID, projectID); err != nil {
		return err
	}
	existing, err := s.repo.Get(ctx, projectID, integrationType)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrIntegrationNotFound
	}
	if existing.SecretName != "" {
		if err := s.secrets.DeleteSecret(ctx, existing.SecretName); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, projectID, integrationType)
}
