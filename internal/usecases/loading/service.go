package loading

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/warehouse"
	"github.com/vfg2006/ads-warehouse-etl/internal/config"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
	"github.com/vfg2006/ads-warehouse-etl/pkg/utils"
)

// Service carrega linhas reconciliadas no destino: publica colunas novas
// antes de qualquer inserção, fatia as linhas em lotes por partição e
// verifica a contagem depois da carga.
type Service struct {
	cfg       *config.Config
	warehouse warehouse.Warehouse
}

// NewService cria uma nova instância do serviço de carga
func NewService(cfg *config.Config, wh warehouse.Warehouse) *Service {
	return &Service{cfg: cfg, warehouse: wh}
}

// Load executa a fase de carga. added são as colunas que entraram no
// catálogo nesta execução e precisam existir no destino antes das linhas.
// Em dry run tudo é montado e validado, mas nada toca o destino.
func (s *Service) Load(ctx context.Context, rows []domain.ReconciledRow, catalog *domain.FieldCatalog, added []domain.Field) (*domain.LoadReport, error) {
	report := &domain.LoadReport{
		RowsSubmitted: len(rows),
		FieldsAdded:   len(added),
		DryRun:        s.cfg.Load.DryRun,
	}

	if len(rows) == 0 {
		logrus.Info("load: nada a carregar")
		return report, nil
	}

	batches, partitions, err := s.buildBatches(rows, catalog)
	if err != nil {
		return report, err
	}
	report.Batches = len(batches)
	report.Partitions = partitions

	// Boa formação vale nos dois modos: um lote que o destino rejeitaria é
	// reprovado aqui, antes de qualquer escrita
	if err := s.validateBatches(batches, catalog); err != nil {
		return report, err
	}

	if s.cfg.Load.DryRun {
		logrus.WithFields(logrus.Fields{
			"rows":       len(rows),
			"batches":    len(batches),
			"partitions": len(partitions),
			"new_fields": len(added),
		}).Info("load: dry run; nenhuma escrita no destino")
		return report, nil
	}

	// O schema precisa estar completo antes da primeira linha, senão o
	// destino rejeita colunas desconhecidas
	if len(added) > 0 {
		if err := s.warehouse.PatchSchema(ctx, added); err != nil {
			return report, NewLoadError(ErrSchemaPublish, "", "", err.Error())
		}
	}

	baselines := make(map[string]int64, len(partitions))
	submitted := make(map[string]int, len(partitions))
	for _, p := range partitions {
		count, err := s.warehouse.RowCount(ctx, p)
		if err != nil {
			return report, NewLoadError(err, p, "", "erro ao ler contagem inicial")
		}
		baselines[p] = count
	}

	for _, batch := range batches {
		converted := make([]warehouse.Row, 0, len(batch.Rows))
		for _, r := range batch.Rows {
			converted = append(converted, toWarehouseRow(r, catalog))
		}

		if err := s.warehouse.InsertRows(ctx, batch.Partition, converted); err != nil {
			return report, NewLoadError(ErrInsertFailed, batch.Partition, batch.ID, err.Error())
		}

		report.RowsLoaded += len(batch.Rows)
		submitted[batch.Partition] += len(batch.Rows)

		logrus.WithFields(logrus.Fields{
			"batch_id":  batch.ID,
			"partition": batch.Partition,
			"rows":      len(batch.Rows),
		}).Debug("load: lote inserido")
	}

	for _, p := range partitions {
		count, err := s.warehouse.RowCount(ctx, p)
		if err != nil {
			return report, NewLoadError(err, p, "", "erro ao ler contagem final")
		}
		delta := count - baselines[p]
		if delta != int64(submitted[p]) {
			return report, NewLoadError(ErrCountMismatch, p, "",
				fmt.Sprintf("enviadas %d, delta observado %d", submitted[p], delta))
		}
	}

	logrus.WithFields(logrus.Fields{
		"rows":       report.RowsLoaded,
		"batches":    report.Batches,
		"partitions": len(partitions),
	}).Info("load: carga concluída e verificada")

	return report, nil
}

// buildBatches agrupa as linhas por partição, na ordem de primeira
// aparição, e fatia cada grupo respeitando os limites de linhas e de bytes
// por lote. Uma linha maior que o limite de bytes forma um lote sozinha e é
// reprovada depois na validação: não há como fatiá-la.
func (s *Service) buildBatches(rows []domain.ReconciledRow, catalog *domain.FieldCatalog) ([]domain.LoadBatch, []string, error) {
	grouped := make(map[string][]domain.ReconciledRow)
	partitions := make([]string, 0)

	for _, r := range rows {
		if _, ok := grouped[r.Partition]; !ok {
			partitions = append(partitions, r.Partition)
		}
		grouped[r.Partition] = append(grouped[r.Partition], r)
	}

	batches := make([]domain.LoadBatch, 0)
	for _, p := range partitions {
		var current []domain.ReconciledRow
		var currentBytes int

		flush := func() error {
			if len(current) == 0 {
				return nil
			}
			id, err := utils.GenerateID()
			if err != nil {
				return fmt.Errorf("erro ao gerar id de lote: %w", err)
			}
			batches = append(batches, domain.LoadBatch{ID: id, Partition: p, Rows: current})
			current = nil
			currentBytes = 0
			return nil
		}

		for _, r := range grouped[p] {
			size := estimateRowBytes(r, catalog)
			full := len(current) >= s.cfg.Load.MaxBatchRows ||
				(len(current) > 0 && currentBytes+size > s.cfg.Load.MaxBatchBytes)
			if full {
				if err := flush(); err != nil {
					return nil, nil, err
				}
			}
			current = append(current, r)
			currentBytes += size
		}
		if err := flush(); err != nil {
			return nil, nil, err
		}
	}

	return batches, partitions, nil
}

// validateBatches verifica que cada lote montado seria aceito pelo destino:
// linhas só referenciam colunas do catálogo e o lote cabe no limite de bytes
// por requisição. Em dry run esta é a verificação que sobra.
func (s *Service) validateBatches(batches []domain.LoadBatch, catalog *domain.FieldCatalog) error {
	for _, batch := range batches {
		var size int
		for _, r := range batch.Rows {
			if len(r.Values) > catalog.Len() {
				return NewLoadError(warehouse.ErrSchemaMismatch, batch.Partition, batch.ID,
					fmt.Sprintf("linha com %d posições para um catálogo de %d colunas", len(r.Values), catalog.Len()))
			}
			size += estimateRowBytes(r, catalog)
		}
		if size > s.cfg.Load.MaxBatchBytes {
			return NewLoadError(ErrBatchTooLarge, batch.Partition, batch.ID,
				fmt.Sprintf("%d bytes estimados, limite %d", size, s.cfg.Load.MaxBatchBytes))
		}
	}
	return nil
}

// toWarehouseRow converte a linha posicional num mapa só com as colunas
// presentes. nil no valor significa ausência, não zero.
func toWarehouseRow(r domain.ReconciledRow, catalog *domain.FieldCatalog) warehouse.Row {
	fields := catalog.Fields()
	row := make(warehouse.Row, len(r.Values))
	for i, v := range r.Values {
		if v == nil || i >= len(fields) {
			continue
		}
		row[fields[i].Name] = v
	}
	return row
}

// estimateRowBytes dá uma estimativa barata do tamanho serializado da linha
func estimateRowBytes(r domain.ReconciledRow, catalog *domain.FieldCatalog) int {
	fields := catalog.Fields()
	size := 2
	for i, v := range r.Values {
		if v == nil || i >= len(fields) {
			continue
		}
		size += len(fields[i].Name) + len(fmt.Sprintf("%v", v)) + 6
	}
	return size
}
