package loading

import (
	"errors"
	"fmt"
)

// Erros específicos para o contexto de carga
var (
	ErrSchemaPublish = errors.New("erro ao publicar colunas novas no destino")
	ErrInsertFailed  = errors.New("erro ao inserir lote no destino")
	ErrCountMismatch = errors.New("contagem pós-carga não bate com as linhas enviadas")
	ErrBatchTooLarge = errors.New("lote excede o limite de bytes do destino")
)

// LoadError é um erro com contexto adicional da fase de carga
type LoadError struct {
	Err       error  // Erro base
	Partition string // Partição de destino envolvida
	BatchID   string // ID do lote (quando aplicável)
	Details   string // Detalhes adicionais
}

// Error implementa a interface error
func (e *LoadError) Error() string {
	msg := e.Err.Error()
	if e.Partition != "" {
		msg = fmt.Sprintf("%s [partição %s]", msg, e.Partition)
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	return msg
}

// Unwrap retorna o erro subjacente
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError cria um novo LoadError
func NewLoadError(err error, partition, batchID, details string) *LoadError {
	return &LoadError{
		Err:       err,
		Partition: partition,
		BatchID:   batchID,
		Details:   details,
	}
}
