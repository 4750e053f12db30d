package secrets

import (
	"context"
	"fmt"

	"lms/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Store keeps per-tenant secrets (webhook signing keys) in GCP Secret Manager.
type Store interface {
	StoreTenantSecret(ctx context.Context, tenantID, purpose, value string) error
	GetTenantSecret(ctx context.Context, tenantID, purpose string) (string, error)
	DeleteTenantSecret(ctx context.Context, tenantID, purpose string) error
}

type secretStore struct {
	client    *secretmanager.Client
	projectID string
}

func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretStore{client: client, projectID: cfg.GCPProjectID}, nil
}

func (s *secretStore) secretName(tenantID, purpose string) string {
	return fmt.Sprintf("tenant-%s-%s-key", tenantID, purpose)
}

func (s *secretStore) secretPath(tenantID, purpose string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretName(tenantID, purpose))
}

// StoreTenantSecret creates the secret on first write and adds a new version
// on subsequent writes.
func (s *secretStore) StoreTenantSecret(ctx context.Context, tenantID, purpose, value string) error {
	path := s.secretPath(tenantID, purpose)

	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: path})
	if err != nil {
		createReq := &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: s.secretName(tenantID, purpose),
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
			},
		}
		if _, err := s.client.CreateSecret(ctx, createReq); err != nil {
			return fmt.Errorf("failed to create secret: %w", err)
		}
	}

	addReq := &secretmanagerpb.AddSecretVersionRequest{
		Parent:  path,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}
	if _, err := s.client.AddSecretVersion(ctx, addReq); err != nil {
		return fmt.Errorf("failed to add secret version: %w", err)
	}
	return nil
}

func (s *secretStore) GetTenantSecret(ctx context.Context, tenantID, purpose string) (string, error) {
	accessReq := &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretPath(tenantID, purpose) + "/versions/latest",
	}
	result, err := s.client.AccessSecretVersion(ctx, accessReq)
	if err != nil {
		return "", fmt.Errorf("failed to access secret: %w", err)
	}
	return string(result.Payload.Data), nil
}

func (s *secretStore) DeleteTenantSecret(ctx context.Context, tenantID, purpose string) error {
	deleteReq := &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretPath(tenantID, purpose),
	}
	if err := s.client.DeleteSecret(ctx, deleteReq); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}
