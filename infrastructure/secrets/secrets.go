package secrets

import (
	"context"
	"errors"
)

// ErrSecretNotFound indica que o secret não existe no armazenamento.
var ErrSecretNotFound = errors.New("secret não encontrado")

// SecretStore é o colaborador externo que guarda credenciais. Os nomes de
// secret são strings opacas vindas da configuração.
type SecretStore interface {
	Read(ctx context.Context, name string) (string, error)
	Write(ctx context.Context, name, value string) error
}
