package reconciling

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

// leadFields é a ordem preferida das colunas de identidade quando o catálogo
// nasce vazio. Garante que tabelas novas comecem legíveis, com a identidade
// na frente das métricas.
var leadFields = []string{
	"account_id",
	"campaign_id",
	"campaign_name",
	"ad_id",
	"ad_name",
	"publisher_platform",
	"date_start",
	"date_stop",
}

// Result é a saída da reconciliação: as linhas posicionadas conforme o
// catálogo e a contagem de coerções com perda.
type Result struct {
	Rows           []domain.ReconciledRow
	LossyCoercions int
}

// Service mantém o catálogo de colunas da execução e projeta cada registro
// bruto nele. O catálogo só cresce: colunas novas entram no final e o único
// realargamento permitido é INTEGER para FLOAT.
type Service struct {
	catalog *domain.FieldCatalog
}

// NewService cria o serviço semeando o catálogo com as colunas já
// conhecidas do destino, na ordem em que o destino as declara.
func NewService(known []domain.Field) *Service {
	return &Service{catalog: domain.NewFieldCatalog(known...)}
}

// Catalog expõe o catálogo vigente
func (s *Service) Catalog() *domain.FieldCatalog {
	return s.catalog
}

// Snapshot marca o tamanho atual do catálogo. O que crescer depois disso é o
// que precisa ser publicado no destino antes da carga.
func (s *Service) Snapshot() int {
	return s.catalog.Len()
}

// Reconcile projeta cada registro no catálogo, registrando colunas novas
// conforme aparecem. Os valores saem posicionados pela ordem do catálogo;
// nil marca campo ausente no registro.
func (s *Service) Reconcile(records []domain.RawRecord) *Result {
	result := &Result{Rows: make([]domain.ReconciledRow, 0, len(records))}
	before := s.catalog.Len()

	for _, rec := range records {
		row := domain.ReconciledRow{Partition: rec.DateStart()}
		positions := make(map[int]interface{}, len(rec.Fields))

		for _, name := range recordFieldOrder(rec) {
			value := rec.Fields[name]
			if value == nil {
				continue
			}

			pos := s.catalog.Append(domain.Field{Name: name, Type: domain.InferType(name, value)})
			_, typ, _ := s.catalog.Lookup(name)

			coerced, lossy := coerce(value, typ)
			if lossy {
				result.LossyCoercions++
				logrus.WithFields(logrus.Fields{
					"field": name,
					"type":  string(typ),
				}).Warn("reconcile: coerção com perda para o tipo da coluna")
			}
			positions[pos] = coerced
		}

		row.Values = make([]interface{}, s.catalog.Len())
		for pos, v := range positions {
			row.Values[pos] = v
		}
		result.Rows = append(result.Rows, row)
	}

	if added := s.catalog.Len() - before; added > 0 {
		logrus.WithField("fields_added", added).Info("reconcile: colunas novas registradas no catálogo")
	}

	return result
}

// recordFieldOrder devolve os nomes de campo do registro numa ordem
// determinística: identidade primeiro, o resto em ordem lexicográfica. Mapas
// não têm ordem estável e o catálogo precisa crescer igual em toda execução.
func recordFieldOrder(rec domain.RawRecord) []string {
	names := make([]string, 0, len(rec.Fields))
	seen := make(map[string]bool, len(rec.Fields))

	for _, name := range leadFields {
		if _, ok := rec.Fields[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}

	rest := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(names, rest...)
}

// coerce converte um valor para o tipo da coluna, sempre na direção do tipo
// existente: um float numa coluna INTEGER é truncado (coerção com perda),
// uma string numérica é interpretada. Só vira nil o que não tem forma
// numérica nenhuma, e isso também conta como coerção com perda.
func coerce(value interface{}, typ domain.FieldType) (interface{}, bool) {
	switch typ {
	case domain.FieldTypeString:
		if s, ok := value.(string); ok {
			return s, false
		}
		return fmt.Sprintf("%v", value), false

	case domain.FieldTypeInteger:
		switch v := value.(type) {
		case int:
			return int64(v), false
		case int32:
			return int64(v), false
		case int64:
			return v, false
		case float32:
			return truncateToInt(float64(v))
		case float64:
			return truncateToInt(v)
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, false
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return int64(f), true
			}
			return nil, true
		default:
			return nil, true
		}

	case domain.FieldTypeFloat:
		switch v := value.(type) {
		case int:
			return float64(v), false
		case int32:
			return float64(v), false
		case int64:
			return float64(v), false
		case float32:
			return float64(v), false
		case float64:
			return v, false
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, false
			}
			return nil, true
		default:
			return nil, true
		}
	}
	return nil, true
}

// truncateToInt descarta a parte fracionária; quando ela existe, a coerção
// é com perda.
func truncateToInt(v float64) (interface{}, bool) {
	n := int64(v)
	return n, v != float64(n)
}
