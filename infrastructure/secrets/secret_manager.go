package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SecretManagerStore implementa SecretStore sobre o Google Secret Manager.
// Leituras sempre resolvem a versão "latest"; escritas adicionam uma nova
// versão a um secret já existente.
type SecretManagerStore struct {
	project string
	client  *secretmanager.Client
}

func NewSecretManagerStore(ctx context.Context, project string) (*SecretManagerStore, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar cliente do Secret Manager: %w", err)
	}

	return &SecretManagerStore{
		project: project,
		client:  client,
	}, nil
}

func (s *SecretManagerStore) Read(ctx context.Context, name string) (string, error) {
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name),
	}

	resp, err := s.client.AccessSecretVersion(ctx, req)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		return "", fmt.Errorf("erro ao ler secret %s: %w", name, err)
	}

	return string(resp.Payload.Data), nil
}

func (s *SecretManagerStore) Write(ctx context.Context, name, value string) error {
	req := &secretmanagerpb.AddSecretVersionRequest{
		Parent: fmt.Sprintf("projects/%s/secrets/%s", s.project, name),
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(value),
		},
	}

	if _, err := s.client.AddSecretVersion(ctx, req); err != nil {
		return fmt.Errorf("erro ao gravar secret %s: %w", name, err)
	}

	// O valor nunca é logado, só o nome
	logrus.WithField("secret_name", name).Info("Secret atualizado no Secret Manager")
	return nil
}

func (s *SecretManagerStore) Close() error {
	return s.client.Close()
}
