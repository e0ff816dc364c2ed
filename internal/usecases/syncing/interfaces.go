package syncing

import (
	"context"

	"github.com/vfg2006/ads-warehouse-etl/infrastructure/integrator/meta"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

// Fetcher busca e achata os insights de uma conta para uma janela de datas.
// UsableToken valida a credencial antes de abrir o pool de workers.
type Fetcher interface {
	FetchAccountWindow(ctx context.Context, accountID string, window domain.FetchWindow) (*meta.FetchOutcome, error)
	UsableToken(ctx context.Context) (string, error)
	TokenAudit() domain.TokenRefresh
}

// Loader carrega linhas reconciliadas no destino
type Loader interface {
	Load(ctx context.Context, rows []domain.ReconciledRow, catalog *domain.FieldCatalog, added []domain.Field) (*domain.LoadReport, error)
}

// SchemaReader lê as colunas já existentes no destino, usadas para semear o
// catálogo da execução
type SchemaReader interface {
	Schema(ctx context.Context) ([]domain.Field, error)
}

// Exporter grava e relê o CSV de backfill
type Exporter interface {
	Export(window domain.FetchWindow, catalog *domain.FieldCatalog, rows []domain.ReconciledRow) (string, error)
	Read(path string) ([]domain.RawRecord, error)
}
