package syncing

import (
	"errors"
	"fmt"
)

// Erros específicos para o contexto de sincronização
var (
	ErrRunInProgress      = errors.New("já existe uma execução em andamento")
	ErrNoAccounts         = errors.New("nenhuma conta de anúncio configurada para sincronizar")
	ErrWindowRequired     = errors.New("modo backfill exige uma janela de datas")
	ErrReloadPathRequired = errors.New("modo reload exige o caminho de um CSV exportado")
	ErrSchemaRead         = errors.New("erro ao ler o schema atual do destino")
	ErrAllAccountsFailed  = errors.New("a busca falhou em todas as contas configuradas")
)

// SyncError é um erro com contexto adicional da orquestração
type SyncError struct {
	Err     error  // Erro base
	Details string // Detalhes adicionais
}

// Error implementa a interface error
func (e *SyncError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

// Unwrap retorna o erro subjacente
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError cria um novo SyncError
func NewSyncError(err error, details string) *SyncError {
	return &SyncError{Err: err, Details: details}
}
