package deduplicating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

func record(accountID, adID, dateStart, platform string, extra map[string]interface{}) domain.RawRecord {
	fields := map[string]interface{}{
		"account_id":         accountID,
		"ad_id":              adID,
		"date_start":         dateStart,
		"date_stop":          dateStart,
		"publisher_platform": platform,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return domain.RawRecord{AccountID: accountID, Fields: fields}
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name           string
		records        []domain.RawRecord
		wantSurvivors  int
		wantDuplicates int
	}{
		{
			name:           "lote vazio",
			records:        nil,
			wantSurvivors:  0,
			wantDuplicates: 0,
		},
		{
			name: "sem duplicatas",
			records: []domain.RawRecord{
				record("act1", "ad1", "2026-08-01", "facebook", nil),
				record("act1", "ad2", "2026-08-01", "facebook", nil),
				record("act1", "ad1", "2026-08-02", "facebook", nil),
			},
			wantSurvivors:  3,
			wantDuplicates: 0,
		},
		{
			name: "duplicata exata descartada",
			records: []domain.RawRecord{
				record("act1", "ad1", "2026-08-01", "facebook", nil),
				record("act1", "ad1", "2026-08-01", "facebook", nil),
			},
			wantSurvivors:  1,
			wantDuplicates: 1,
		},
		{
			name: "plataformas diferentes nao sao duplicatas",
			records: []domain.RawRecord{
				record("act1", "ad1", "2026-08-01", "facebook", nil),
				record("act1", "ad1", "2026-08-01", "instagram", nil),
			},
			wantSurvivors:  2,
			wantDuplicates: 0,
		},
		{
			name: "contas diferentes nao sao duplicatas",
			records: []domain.RawRecord{
				record("act1", "ad1", "2026-08-01", "facebook", nil),
				record("act2", "ad1", "2026-08-01", "facebook", nil),
			},
			wantSurvivors:  2,
			wantDuplicates: 0,
		},
	}

	svc := NewService()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.Deduplicate(tt.records)
			assert.Len(t, result.Records, tt.wantSurvivors)
			assert.Equal(t, tt.wantDuplicates, result.Duplicates)
		})
	}
}

func TestDeduplicateKeepsFirstOccurrence(t *testing.T) {
	first := record("act1", "ad1", "2026-08-01", "facebook", map[string]interface{}{"clicks": "10"})
	second := record("act1", "ad1", "2026-08-01", "facebook", map[string]interface{}{"clicks": "999"})

	result := NewService().Deduplicate([]domain.RawRecord{first, second})

	assert.Len(t, result.Records, 1)
	assert.Equal(t, "10", result.Records[0].StringField("clicks"))
}

func TestDeduplicatePreservesOrder(t *testing.T) {
	records := []domain.RawRecord{
		record("act1", "ad3", "2026-08-01", "facebook", nil),
		record("act1", "ad1", "2026-08-01", "facebook", nil),
		record("act1", "ad2", "2026-08-01", "facebook", nil),
		record("act1", "ad1", "2026-08-01", "facebook", nil),
	}

	result := NewService().Deduplicate(records)

	ids := make([]string, 0, len(result.Records))
	for _, r := range result.Records {
		ids = append(ids, r.StringField("ad_id"))
	}
	assert.Equal(t, []string{"ad3", "ad1", "ad2"}, ids)
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	records := []domain.RawRecord{
		record("act1", "ad1", "2026-08-01", "facebook", nil),
		record("act1", "ad1", "2026-08-01", "facebook", nil),
		record("act1", "ad2", "2026-08-01", "instagram", nil),
	}

	svc := NewService()
	once := svc.Deduplicate(records)
	twice := svc.Deduplicate(once.Records)

	assert.Equal(t, once.Records, twice.Records)
	assert.Equal(t, 0, twice.Duplicates)
}
