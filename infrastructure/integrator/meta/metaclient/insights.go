package metaclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	metadomain "github.com/vfg2006/ads-warehouse-etl/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

// insightFields é a lista de campos pedida por requisição. Campos novos que
// a API passe a devolver além desses entram no catálogo dinamicamente.
var insightFields = []string{
	"account_id",
	"campaign_id",
	"campaign_name",
	"ad_id",
	"ad_name",
	"impressions",
	"clicks",
	"spend",
	"video_continuous_2_sec_watched_actions",
	"video_30_sec_watched_actions",
	"video_avg_time_watched_actions",
	"video_p25_watched_actions",
	"video_p50_watched_actions",
	"video_p75_watched_actions",
	"video_p100_watched_actions",
	"actions",
	"results",
	"date_start",
	"date_stop",
}

// AccountInsights busca os insights de anúncio de uma conta para uma janela
// de datas, seguindo os cursores de paginação até o fim. A sequência é
// finita e reiniciável do zero — não há resume no meio da paginação.
func (c *MetaClient) AccountInsights(ctx context.Context, accountID string, window domain.FetchWindow) ([]map[string]interface{}, error) {
	token, err := c.UsableToken(ctx)
	if err != nil {
		return nil, err
	}

	baseURL := fmt.Sprintf("%s/act_%s/insights", c.Cfg.Meta.URL, accountID)

	timeRange := fmt.Sprintf("{\"since\":\"%s\",\"until\":\"%s\"}",
		window.StartDate.Format(time.DateOnly), window.EndDate.Format(time.DateOnly))

	params := url.Values{}
	params.Add("fields", strings.Join(insightFields, ","))
	params.Add("level", "ad")
	params.Add("breakdowns", `["publisher_platform"]`)
	params.Add("time_increment", "1")
	params.Add("time_range", timeRange)
	params.Add("access_token", token)

	next := baseURL + "?" + params.Encode()

	records := make([]map[string]interface{}, 0)
	pages := 0

	// O tamanho de página é negociado pelo servidor, não configurável aqui
	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			if IsAuthError(err) {
				return nil, err
			}
			return nil, NewFetchError(err, accountID, window.String())
		}

		pages++
		records = append(records, page.Data...)
		next = page.Paging.Next
	}

	logrus.WithFields(logrus.Fields{
		"account_id": accountID,
		"window":     window.String(),
		"pages":      pages,
		"records":    len(records),
	}).Debug("insights: busca paginada concluída")

	return records, nil
}

// fetchPage faz a requisição de uma página. As repetições com backoff da
// mesma página ficam a cargo do cliente retryable (ver checkRetry).
func (c *MetaClient) fetchPage(ctx context.Context, pageURL string) (*metadomain.InsightsPage, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler resposta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp metadomain.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			if errResp.IsTokenExpired() {
				return nil, NewAuthError(ErrTokenExpired, errResp.Error.Message)
			}
			return nil, fmt.Errorf("erro da API do Meta [%d] (%s): %s",
				errResp.Error.Code, errResp.Error.Type, errResp.Error.Message)
		}
		return nil, fmt.Errorf("erro na resposta da API. Status: %d", resp.StatusCode)
	}

	var page metadomain.InsightsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	return &page, nil
}
