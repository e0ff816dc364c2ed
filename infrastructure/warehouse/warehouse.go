package warehouse

import (
	"context"
	"errors"

	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

// ErrSchemaMismatch indica linha com coluna que o destino não conhece.
var ErrSchemaMismatch = errors.New("linha referencia coluna desconhecida no destino")

// Row é uma linha pronta para inserção: só colunas presentes; coluna
// ausente significa NULL no destino.
type Row map[string]interface{}

// Warehouse é o colaborador de destino: leitura do schema corrente, patch
// aditivo de schema, inserção em lote numa tabela particionada por data e
// contagem de linhas para verificação pós-carga.
type Warehouse interface {
	Schema(ctx context.Context) ([]domain.Field, error)
	PatchSchema(ctx context.Context, added []domain.Field) error
	InsertRows(ctx context.Context, partition string, rows []Row) error
	RowCount(ctx context.Context, partition string) (int64, error)
}
