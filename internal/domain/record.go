package domain

import (
	"fmt"
	"hash/fnv"
)

// Campos de identidade que todo registro precisa ter para ser carregável.
// Registros sem esses campos são descartados e contabilizados, nunca fatais.
var RequiredIdentityFields = []string{
	"account_id",
	"ad_id",
	"date_start",
	"date_stop",
}

// StaticStringFields são as colunas fixas de identidade que sempre são STRING
// no destino, independente do valor observado.
var StaticStringFields = map[string]bool{
	"account_id":         true,
	"campaign_id":        true,
	"campaign_name":      true,
	"ad_id":              true,
	"ad_name":            true,
	"publisher_platform": true,
	"date_start":         true,
	"date_stop":          true,
}

// RawRecord é uma linha achatada retornada pela API de anúncios.
// Os campos extras variam por registro e não têm ordem definida.
type RawRecord struct {
	AccountID string
	Fields    map[string]interface{}
}

// StringField retorna o valor string de um campo, ou vazio se ausente.
func (r RawRecord) StringField(name string) string {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// DateStart retorna a data de início do registro (partição de destino).
func (r RawRecord) DateStart() string {
	return r.StringField("date_start")
}

// HasIdentity verifica se o registro carrega todos os campos de identidade.
func (r RawRecord) HasIdentity() bool {
	for _, f := range RequiredIdentityFields {
		if r.StringField(f) == "" {
			return false
		}
	}
	return true
}

// DedupKey é o fingerprint da identidade lógica de um registro.
// Dois registros com a mesma chave são a mesma linha lógica.
type DedupKey uint64

// KeyOf deriva a chave de deduplicação de forma determinística a partir de
// (account_id, ad_id, date_start, date_stop, publisher_platform).
func KeyOf(r RawRecord) DedupKey {
	h := fnv.New64a()
	for _, f := range []string{"account_id", "ad_id", "date_start", "date_stop", "publisher_platform"} {
		h.Write([]byte(r.StringField(f)))
		h.Write([]byte{'|'})
	}
	return DedupKey(h.Sum64())
}
