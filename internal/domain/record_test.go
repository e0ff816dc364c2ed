package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullRecord() RawRecord {
	return RawRecord{
		AccountID: "act1",
		Fields: map[string]interface{}{
			"account_id":         "act1",
			"ad_id":              "ad1",
			"date_start":         "2026-08-01",
			"date_stop":          "2026-08-01",
			"publisher_platform": "facebook",
		},
	}
}

func TestHasIdentity(t *testing.T) {
	rec := fullRecord()
	assert.True(t, rec.HasIdentity())

	delete(rec.Fields, "ad_id")
	assert.False(t, rec.HasIdentity())
}

func TestStringFieldConvertsNonStrings(t *testing.T) {
	rec := RawRecord{Fields: map[string]interface{}{"clicks": 42}}
	assert.Equal(t, "42", rec.StringField("clicks"))
	assert.Equal(t, "", rec.StringField("ausente"))
}

func TestKeyOfIsDeterministic(t *testing.T) {
	a := fullRecord()
	b := fullRecord()
	b.Fields["clicks"] = "999" // métricas não participam da chave

	assert.Equal(t, KeyOf(a), KeyOf(b))
}

func TestKeyOfDistinguishesIdentity(t *testing.T) {
	base := fullRecord()

	other := fullRecord()
	other.Fields["publisher_platform"] = "instagram"
	assert.NotEqual(t, KeyOf(base), KeyOf(other))

	other = fullRecord()
	other.Fields["date_start"] = "2026-08-02"
	assert.NotEqual(t, KeyOf(base), KeyOf(other))

	other = fullRecord()
	other.Fields["ad_id"] = "ad2"
	assert.NotEqual(t, KeyOf(base), KeyOf(other))
}
