package deduplicating

import (
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

// Result é a saída da deduplicação: os registros sobreviventes na ordem de
// chegada e a contagem dos descartados.
type Result struct {
	Records    []domain.RawRecord
	Duplicates int
}

// Service remove registros repetidos de um lote antes da reconciliação de
// schema. A API pagina com sobreposição ocasional, então duplicatas são
// esperadas e não indicam erro.
type Service struct{}

// NewService cria uma nova instância do serviço de deduplicação
func NewService() *Service {
	return &Service{}
}

// Deduplicate mantém a primeira ocorrência de cada chave lógica e descarta
// as seguintes. A ordem relativa dos sobreviventes é a ordem de entrada, o
// que torna a operação idempotente: aplicar duas vezes dá o mesmo resultado.
func (s *Service) Deduplicate(records []domain.RawRecord) *Result {
	seen := make(map[domain.DedupKey]struct{}, len(records))
	result := &Result{Records: make([]domain.RawRecord, 0, len(records))}

	for _, rec := range records {
		key := domain.KeyOf(rec)
		if _, ok := seen[key]; ok {
			result.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		result.Records = append(result.Records, rec)
	}

	if result.Duplicates > 0 {
		logrus.WithFields(logrus.Fields{
			"input":      len(records),
			"survivors":  len(result.Records),
			"duplicates": result.Duplicates,
		}).Info("dedup: duplicatas descartadas do lote")
	}

	return result
}
