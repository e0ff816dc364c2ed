package meta

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-warehouse-etl/internal/config"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

type MetaIntegrator struct {
	cfg    *config.Config
	Client metaclient.Client
}

func New(cfg *config.Config, client metaclient.Client) *MetaIntegrator {
	return &MetaIntegrator{
		cfg:    cfg,
		Client: client,
	}
}

// FetchOutcome é o resultado da busca de uma conta/janela: registros já
// achatados e a contagem dos descartados por falta de identidade.
type FetchOutcome struct {
	Records []domain.RawRecord
	Skipped int
}

// FetchAccountWindow busca e achata os insights de uma conta para uma
// janela. Registros malformados (sem campos de identidade) são pulados e
// contados, nunca fatais.
func (s *MetaIntegrator) FetchAccountWindow(ctx context.Context, accountID string, window domain.FetchWindow) (*FetchOutcome, error) {
	raw, err := s.Client.AccountInsights(ctx, accountID, window)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"window":     window.String(),
			"error":      err.Error(),
		}).Error("insights: falha ao buscar insights da conta")
		return nil, err
	}

	outcome := &FetchOutcome{Records: make([]domain.RawRecord, 0, len(raw))}

	for _, rec := range raw {
		flat := FlattenInsight(accountID, rec)
		if !flat.HasIdentity() {
			outcome.Skipped++
			logrus.WithField("account_id", accountID).Debug("insights: registro sem campos de identidade descartado")
			continue
		}
		outcome.Records = append(outcome.Records, flat)
	}

	if outcome.Skipped > 0 {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"skipped":    outcome.Skipped,
		}).Warn("insights: registros malformados descartados")
	}

	return outcome, nil
}

// UsableToken valida (e se preciso renova) a credencial antes da busca.
func (s *MetaIntegrator) UsableToken(ctx context.Context) (string, error) {
	return s.Client.UsableToken(ctx)
}

// TokenAudit expõe o registro de renovação de token para o relatório da
// execução.
func (s *MetaIntegrator) TokenAudit() domain.TokenRefresh {
	return s.Client.TokenAudit()
}

// FlattenInsight achata um registro aninhado da API num mapa plano de
// colunas:
//   - métricas de vídeo vêm como lista [{action_type, value}]; extraímos o
//     primeiro value
//   - a lista actions vira uma coluna por action_type, com "." trocado por "_"
//   - listas/objetos sem forma conhecida (ex.: results) ficam de fora
func FlattenInsight(accountID string, rec map[string]interface{}) domain.RawRecord {
	fields := make(map[string]interface{}, len(rec))

	for k, v := range rec {
		switch val := v.(type) {
		case []interface{}:
			if k == "actions" {
				for _, a := range val {
					m, ok := a.(map[string]interface{})
					if !ok {
						continue
					}
					actionType, _ := m["action_type"].(string)
					if actionType == "" {
						continue
					}
					col := strings.ReplaceAll(actionType, ".", "_")
					fields[col] = m["value"]
				}
				continue
			}

			if len(val) > 0 {
				if m, ok := val[0].(map[string]interface{}); ok {
					if metric, ok := m["value"]; ok {
						fields[k] = metric
						continue
					}
				}
			}
		case map[string]interface{}:
			// objetos aninhados não viram coluna
		default:
			fields[k] = v
		}
	}

	// O account_id é sempre o fornecido pelo chamador, nunca o do payload
	fields["account_id"] = accountID

	return domain.RawRecord{AccountID: accountID, Fields: fields}
}
