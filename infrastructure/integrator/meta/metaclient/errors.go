package metaclient

import (
	"errors"
	"fmt"
)

// Erros específicos do ciclo de vida de credenciais e da busca de insights
var (
	// Erros de autenticação (fatais para a execução)
	ErrTokenMissing = errors.New("token de acesso não encontrado no secret store")
	ErrTokenInvalid = errors.New("token de acesso inválido")
	ErrTokenExpired = errors.New("token expirado e a troca falhou; é necessário gerar um novo token manualmente")

	// Erros de busca (isolados por conta)
	ErrRetriesExhausted = errors.New("tentativas de busca esgotadas")
	ErrMalformedPage    = errors.New("página de resposta malformada")
)

// AuthError aborta a execução: não há retry automático porque a recuperação
// exige um novo token emitido manualmente.
type AuthError struct {
	Err     error  // Erro base
	Details string // Detalhes adicionais
}

// Error implementa a interface error
func (e *AuthError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

// Unwrap retorna o erro subjacente
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError cria um novo AuthError
func NewAuthError(err error, details string) *AuthError {
	return &AuthError{Err: err, Details: details}
}

// IsAuthError verifica se o erro é fatal de autenticação
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FetchError é o erro por conta/janela: logado, a conta é excluída da
// execução e as demais continuam.
type FetchError struct {
	Err       error
	AccountID string
	Window    string
}

// Error implementa a interface error
func (e *FetchError) Error() string {
	return fmt.Sprintf("conta %s (%s): %s", e.AccountID, e.Window, e.Err.Error())
}

// Unwrap retorna o erro subjacente
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError cria um novo FetchError
func NewFetchError(err error, accountID, window string) *FetchError {
	return &FetchError{Err: err, AccountID: accountID, Window: window}
}
