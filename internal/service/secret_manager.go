package service

import (
	"context"
	"fmt"

	"stepable/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

type SecretManagerService interface {
	StoreSecret(ctx context.Context, secretID, value string) error
	GetSecret(ctx context.Context, secretID string) (string, error)
	DeleteSecret(ctx context.Context, secretID string) error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config) (SecretManagerService, error) {
	projectID := cfg.GetGCPProjectID()
	if projectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set for the current environment")
	}

	// Secret Manager has no emulator; local development needs GCP_PROJECT_ID_LOCAL
	// pointing at a real project.
	var opts []option.ClientOption
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: projectID,
	}, nil
}

func (s *secretManagerService) secretPath(secretID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, secretID)
}

// StoreSecret adds a new version, creating the secret on first use.
func (s *secretManagerService) StoreSecret(ctx context.Context, secretID, value string) error {
	secretPath := s.secretPath(secretID)

	if _, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: secretPath}); err != nil {
		createReq := &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: secretID,
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
				Labels: map[string]string{"app": "stepable"},
			},
		}
		if _, err := s.client.CreateSecret(ctx, createReq); err != nil {
			return fmt.Errorf("failed to create secret: %w", err)
		}
	}

	_, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  secretPath,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	})
	if err != nil {
		return fmt.Errorf("failed to add secret version: %w", err)
	}
	return nil
}

func (s *secretManagerService) GetSecret(ctx context.Context, secretID string) (string, error) {
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretPath(secretID) + "/versions/latest",
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(result.Payload.Data), nil
}

func (s *secretManagerService) DeleteSecret(ctx context.Context, secretID string) error {
	if err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{Name: s.secretPath(secretID)}); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}
