package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

func testWindow(t *testing.T) domain.FetchWindow {
	t.Helper()
	start, _ := time.Parse(time.DateOnly, "2026-08-01")
	end, _ := time.Parse(time.DateOnly, "2026-08-03")
	w, err := domain.NewFetchWindow(start, end)
	require.NoError(t, err)
	return w
}

func TestExportAndReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter(dir)

	catalog := domain.NewFieldCatalog(
		domain.Field{Name: "account_id", Type: domain.FieldTypeString},
		domain.Field{Name: "date_start", Type: domain.FieldTypeString},
		domain.Field{Name: "clicks", Type: domain.FieldTypeInteger},
		domain.Field{Name: "spend", Type: domain.FieldTypeFloat},
	)

	rows := []domain.ReconciledRow{
		{Partition: "2026-08-01", Values: []interface{}{"act1", "2026-08-01", int64(10), 1.5}},
		{Partition: "2026-08-02", Values: []interface{}{"act1", "2026-08-02", nil, 0.25}},
	}

	path, err := exporter.Export(testWindow(t), catalog, rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backfill_2026-08-01_to_2026-08-03.csv"), path)

	records, err := exporter.Read(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "act1", records[0].AccountID)
	assert.Equal(t, "10", records[0].StringField("clicks"))
	assert.Equal(t, "1.5", records[0].StringField("spend"))

	// clicks ausente na segunda linha não vira campo
	_, ok := records[1].Fields["clicks"]
	assert.False(t, ok)
}

func TestExportHeaderFollowsCatalogOrder(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter(dir)

	catalog := domain.NewFieldCatalog(
		domain.Field{Name: "account_id", Type: domain.FieldTypeString},
		domain.Field{Name: "impressions", Type: domain.FieldTypeInteger},
	)

	path, err := exporter.Export(testWindow(t), catalog, nil)
	require.NoError(t, err)

	records, err := exporter.Read(path)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadShortRowsAreTolerated(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter(dir)

	catalog := domain.NewFieldCatalog(
		domain.Field{Name: "account_id", Type: domain.FieldTypeString},
		domain.Field{Name: "clicks", Type: domain.FieldTypeInteger},
	)
	rows := []domain.ReconciledRow{
		// Linha reconciliada antes da coluna clicks existir
		{Partition: "2026-08-01", Values: []interface{}{"act1"}},
	}

	path, err := exporter.Export(testWindow(t), catalog, rows)
	require.NoError(t, err)

	records, err := exporter.Read(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "act1", records[0].AccountID)
	_, ok := records[0].Fields["clicks"]
	assert.False(t, ok)
}

func TestReadMissingFileFails(t *testing.T) {
	exporter := NewCSVExporter(t.TempDir())
	_, err := exporter.Read("/nao/existe.csv")
	assert.Error(t, err)
}
