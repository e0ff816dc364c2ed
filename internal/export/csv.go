package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

// CSVExporter grava o resultado de um backfill em CSV local, para inspeção
// manual antes de recarregar no destino, e lê o arquivo de volta no modo
// reload.
type CSVExporter struct {
	dir string
}

// NewCSVExporter cria o exportador apontando para o diretório de saída
func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{dir: dir}
}

// Export grava as linhas reconciliadas num CSV nomeado pela janela:
// backfill_<início>_to_<fim>.csv. O cabeçalho segue a ordem do catálogo e
// valor ausente vira célula vazia.
func (e *CSVExporter) Export(window domain.FetchWindow, catalog *domain.FieldCatalog, rows []domain.ReconciledRow) (string, error) {
	name := fmt.Sprintf("backfill_%s_to_%s.csv",
		window.StartDate.Format(time.DateOnly), window.EndDate.Format(time.DateOnly))
	path := filepath.Join(e.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("erro ao criar arquivo de export: %w", err)
	}
	defer f.Close()

	fields := catalog.Fields()
	header := make([]string, len(fields))
	for i, fld := range fields {
		header[i] = fld.Name
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("erro ao escrever cabeçalho: %w", err)
	}

	cells := make([]string, len(fields))
	for _, row := range rows {
		for i := range cells {
			cells[i] = ""
			if i < len(row.Values) {
				cells[i] = formatCell(row.Values[i])
			}
		}
		if err := w.Write(cells); err != nil {
			return "", fmt.Errorf("erro ao escrever linha: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("erro ao finalizar export: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"path": path,
		"rows": len(rows),
	}).Info("export: CSV de backfill gravado")

	return path, nil
}

// Read lê um CSV exportado de volta como registros brutos, para o modo
// reload. O arquivo pode ter um subconjunto das colunas atuais; células
// vazias viram campo ausente.
func (e *CSVExporter) Read(path string) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir CSV para reload: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("erro ao ler CSV: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("CSV vazio: %s", path)
	}

	header := all[0]
	records := make([]domain.RawRecord, 0, len(all)-1)

	for _, line := range all[1:] {
		fields := make(map[string]interface{}, len(header))
		for i, cell := range line {
			if i >= len(header) || cell == "" {
				continue
			}
			fields[header[i]] = cell
		}
		rec := domain.RawRecord{Fields: fields}
		rec.AccountID = rec.StringField("account_id")
		records = append(records, rec)
	}

	logrus.WithFields(logrus.Fields{
		"path":    path,
		"records": len(records),
	}).Info("export: CSV lido para reload")

	return records, nil
}

func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
