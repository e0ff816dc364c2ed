package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/warehouse"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
	"google.golang.org/api/iterator"
)

// Warehouse implementa warehouse.Warehouse sobre uma tabela do BigQuery
// particionada por date_start.
type Warehouse struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// New cria o cliente a partir do projeto e do identificador da tabela no
// formato "dataset.tabela".
func New(ctx context.Context, projectID, tableID string) (*Warehouse, error) {
	parts := strings.Split(tableID, ".")
	switch len(parts) {
	case 2:
	case 3:
		// projeto.dataset.tabela: o projeto já vem no cliente
		parts = parts[1:]
	default:
		return nil, fmt.Errorf("identificador de tabela inválido %q: esperado dataset.tabela", tableID)
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao criar cliente do BigQuery")
	}

	return &Warehouse{
		client:  client,
		dataset: parts[0],
		table:   parts[1],
	}, nil
}

// Close libera o cliente subjacente
func (w *Warehouse) Close() error {
	return w.client.Close()
}

func (w *Warehouse) tableRef() *bigquery.Table {
	return w.client.Dataset(w.dataset).Table(w.table)
}

// Schema lê o schema corrente da tabela
func (w *Warehouse) Schema(ctx context.Context) ([]domain.Field, error) {
	md, err := w.tableRef().Metadata(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao ler metadados da tabela")
	}

	fields := make([]domain.Field, 0, len(md.Schema))
	for _, f := range md.Schema {
		fields = append(fields, domain.Field{
			Name: f.Name,
			Type: fromBigQueryType(f.Type),
		})
	}
	return fields, nil
}

// PatchSchema acrescenta colunas à tabela. O BigQuery só aceita adições;
// colunas existentes nunca são alteradas nem removidas por aqui.
func (w *Warehouse) PatchSchema(ctx context.Context, added []domain.Field) error {
	if len(added) == 0 {
		return nil
	}

	ref := w.tableRef()
	md, err := ref.Metadata(ctx)
	if err != nil {
		return errors.Wrap(err, "erro ao ler metadados da tabela")
	}

	schema := md.Schema
	for _, f := range added {
		schema = append(schema, &bigquery.FieldSchema{
			Name: f.Name,
			Type: toBigQueryType(f.Type),
		})
	}

	// O ETag garante que ninguém alterou o schema entre a leitura e o patch
	_, err = ref.Update(ctx, bigquery.TableMetadataToUpdate{Schema: schema}, md.ETag)
	if err != nil {
		return errors.Wrap(err, "erro ao atualizar schema da tabela")
	}

	logrus.WithFields(logrus.Fields{
		"table":        w.table,
		"fields_added": len(added),
	}).Info("bigquery: schema da tabela atualizado")

	return nil
}

// InsertRows insere as linhas de uma partição via streaming insert
func (w *Warehouse) InsertRows(ctx context.Context, partition string, rows []warehouse.Row) error {
	if len(rows) == 0 {
		return nil
	}

	savers := make([]*rowSaver, 0, len(rows))
	for _, r := range rows {
		savers = append(savers, &rowSaver{row: r})
	}

	if err := w.tableRef().Inserter().Put(ctx, savers); err != nil {
		return errors.Wrapf(err, "erro ao inserir linhas na partição %s", partition)
	}
	return nil
}

// RowCount conta as linhas de uma partição, para verificação pós-carga
func (w *Warehouse) RowCount(ctx context.Context, partition string) (int64, error) {
	q := w.client.Query(fmt.Sprintf(
		"SELECT COUNT(*) FROM `%s.%s` WHERE date_start = @partition", w.dataset, w.table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "partition", Value: partition},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "erro ao contar linhas da partição %s", partition)
	}

	var row []bigquery.Value
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, errors.Wrapf(err, "erro ao ler contagem da partição %s", partition)
	}
	if len(row) == 0 {
		return 0, nil
	}

	count, ok := row[0].(int64)
	if !ok {
		return 0, fmt.Errorf("contagem da partição %s com tipo inesperado %T", partition, row[0])
	}
	return count, nil
}

// rowSaver adapta uma warehouse.Row para o inserter. InsertID vazio deixa o
// BigQuery gerar um id de dedup por linha.
type rowSaver struct {
	row warehouse.Row
}

func (s *rowSaver) Save() (map[string]bigquery.Value, string, error) {
	values := make(map[string]bigquery.Value, len(s.row))
	for k, v := range s.row {
		values[k] = v
	}
	return values, "", nil
}

func toBigQueryType(t domain.FieldType) bigquery.FieldType {
	switch t {
	case domain.FieldTypeInteger:
		return bigquery.IntegerFieldType
	case domain.FieldTypeFloat:
		return bigquery.FloatFieldType
	default:
		return bigquery.StringFieldType
	}
}

func fromBigQueryType(t bigquery.FieldType) domain.FieldType {
	switch t {
	case bigquery.IntegerFieldType:
		return domain.FieldTypeInteger
	case bigquery.FloatFieldType:
		return domain.FieldTypeFloat
	default:
		return domain.FieldTypeString
	}
}
