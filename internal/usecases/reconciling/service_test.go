package reconciling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

func record(fields map[string]interface{}) domain.RawRecord {
	return domain.RawRecord{AccountID: "act1", Fields: fields}
}

func fieldNames(catalog *domain.FieldCatalog) []string {
	fields := catalog.Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

func TestReconcileSeedsCatalogFromKnownFields(t *testing.T) {
	known := []domain.Field{
		{Name: "account_id", Type: domain.FieldTypeString},
		{Name: "clicks", Type: domain.FieldTypeInteger},
	}
	svc := NewService(known)

	assert.Equal(t, 2, svc.Catalog().Len())
	assert.Equal(t, []string{"account_id", "clicks"}, fieldNames(svc.Catalog()))
}

func TestReconcileRegistersNewFieldsAtEnd(t *testing.T) {
	svc := NewService([]domain.Field{
		{Name: "account_id", Type: domain.FieldTypeString},
	})

	result := svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{
			"account_id": "act1",
			"clicks":     "42",
			"spend":      "10.5",
		}),
	})

	require.Len(t, result.Rows, 1)
	assert.Equal(t, []string{"account_id", "clicks", "spend"}, fieldNames(svc.Catalog()))

	_, typ, ok := svc.Catalog().Lookup("clicks")
	require.True(t, ok)
	assert.Equal(t, domain.FieldTypeInteger, typ)

	_, typ, ok = svc.Catalog().Lookup("spend")
	require.True(t, ok)
	assert.Equal(t, domain.FieldTypeFloat, typ)
}

func TestReconcileCatalogOnlyGrows(t *testing.T) {
	svc := NewService(nil)

	svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1", "clicks": "10", "spend": "1.5"}),
	})
	after := fieldNames(svc.Catalog())

	// Um lote posterior sem alguns campos não encolhe o catálogo
	svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1"}),
	})

	assert.Equal(t, after, fieldNames(svc.Catalog()))
}

func TestReconcileWidensIntegerToFloat(t *testing.T) {
	svc := NewService(nil)

	svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1", "video_views": "7"}),
	})
	_, typ, _ := svc.Catalog().Lookup("video_views")
	require.Equal(t, domain.FieldTypeInteger, typ)

	svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1", "video_views": "7.5"}),
	})
	_, typ, _ = svc.Catalog().Lookup("video_views")
	assert.Equal(t, domain.FieldTypeFloat, typ)
}

func TestReconcileNeverNarrowsFloatToInteger(t *testing.T) {
	svc := NewService([]domain.Field{
		{Name: "spend", Type: domain.FieldTypeFloat},
	})

	svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1", "spend": "3"}),
	})

	_, typ, _ := svc.Catalog().Lookup("spend")
	assert.Equal(t, domain.FieldTypeFloat, typ)
}

func TestReconcilePositionsValuesByCatalog(t *testing.T) {
	svc := NewService([]domain.Field{
		{Name: "account_id", Type: domain.FieldTypeString},
		{Name: "clicks", Type: domain.FieldTypeInteger},
		{Name: "spend", Type: domain.FieldTypeFloat},
	})

	result := svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{
			"account_id": "act1",
			"date_start": "2026-08-01",
			"spend":      "2.5",
		}),
	})

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]

	assert.Equal(t, "2026-08-01", row.Partition)
	assert.Equal(t, "act1", row.Values[0])
	// clicks ausente fica nil, não zero
	assert.Nil(t, row.Values[1])
	assert.Equal(t, 2.5, row.Values[2])
}

func TestReconcileStaticIdentityFieldsStayString(t *testing.T) {
	svc := NewService(nil)

	// ad_id vem numérico do payload mas a coluna é sempre STRING
	result := svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1", "ad_id": "123456"}),
	})

	_, typ, ok := svc.Catalog().Lookup("ad_id")
	require.True(t, ok)
	assert.Equal(t, domain.FieldTypeString, typ)

	pos, _, _ := svc.Catalog().Lookup("ad_id")
	assert.Equal(t, "123456", result.Rows[0].Values[pos])
}

func TestReconcileSeededIntegerKeepsTypeAndTruncates(t *testing.T) {
	// Coluna INTEGER do destino: um sample fracionário não alarga o tipo
	// (a mudança nunca chegaria ao destino via patch aditivo); o valor é
	// truncado para o tipo existente e contado como coerção com perda
	svc := NewService([]domain.Field{
		{Name: "clicks", Type: domain.FieldTypeInteger},
	})

	result := svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1", "clicks": "7.9"}),
	})

	_, typ, _ := svc.Catalog().Lookup("clicks")
	assert.Equal(t, domain.FieldTypeInteger, typ)

	pos, _, _ := svc.Catalog().Lookup("clicks")
	assert.Equal(t, int64(7), result.Rows[0].Values[pos])
	assert.Equal(t, 1, result.LossyCoercions)
}

func TestReconcileCoercesFloatValueToIntegerColumn(t *testing.T) {
	svc := NewService([]domain.Field{
		{Name: "reach", Type: domain.FieldTypeInteger},
	})

	result := svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1", "reach": 120.5}),
		record(map[string]interface{}{"account_id": "act1", "reach": float64(200)}),
	})

	pos, _, _ := svc.Catalog().Lookup("reach")
	assert.Equal(t, int64(120), result.Rows[0].Values[pos])
	assert.Equal(t, int64(200), result.Rows[1].Values[pos])
	// Só o valor com fração perdeu informação
	assert.Equal(t, 1, result.LossyCoercions)
}

func TestReconcileCountsLossyCoercions(t *testing.T) {
	svc := NewService([]domain.Field{
		{Name: "clicks", Type: domain.FieldTypeInteger},
	})

	result := svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1", "clicks": "nao-numerico"}),
	})

	require.Len(t, result.Rows, 1)
	assert.Equal(t, 1, result.LossyCoercions)

	pos, _, _ := svc.Catalog().Lookup("clicks")
	assert.Nil(t, result.Rows[0].Values[pos])
}

func TestReconcileSnapshotTracksGrowth(t *testing.T) {
	svc := NewService([]domain.Field{
		{Name: "account_id", Type: domain.FieldTypeString},
	})

	mark := svc.Snapshot()
	svc.Reconcile([]domain.RawRecord{
		record(map[string]interface{}{"account_id": "act1", "impressions": "100"}),
	})

	added := svc.Catalog().FieldsSince(mark)
	require.Len(t, added, 1)
	assert.Equal(t, "impressions", added[0].Name)
}
