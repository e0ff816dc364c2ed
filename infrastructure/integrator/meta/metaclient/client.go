package metaclient

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	metadomain "github.com/vfg2006/ads-warehouse-etl/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-warehouse-etl/internal/config"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

type Client interface {
	AccountInsights(ctx context.Context, accountID string, window domain.FetchWindow) ([]map[string]interface{}, error)
	UsableToken(ctx context.Context) (string, error)
	TokenAudit() domain.TokenRefresh
}

type MetaClient struct {
	Cfg          *config.Config
	TokenManager *TokenManager
	http         *retryablehttp.Client
}

func NewClient(cfg *config.Config, tokenManager *TokenManager) Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.Fetch.MaxRetries
	rc.RetryWaitMin = time.Duration(cfg.Fetch.BackoffBaseSeconds) * time.Second
	rc.RetryWaitMax = time.Duration(cfg.Fetch.BackoffMaxSeconds) * time.Second
	rc.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.Fetch.RequestTimeoutSeconds) * time.Second,
	}
	rc.Logger = nil
	rc.CheckRetry = checkRetry
	rc.Backoff = jitterBackoff

	return &MetaClient{
		Cfg:          cfg,
		TokenManager: tokenManager,
		http:         rc,
	}
}

// UsableToken delega para o TokenManager
func (c *MetaClient) UsableToken(ctx context.Context) (string, error) {
	return c.TokenManager.UsableToken(ctx)
}

// TokenAudit retorna o registro de renovação de token da execução
func (c *MetaClient) TokenAudit() domain.TokenRefresh {
	return c.TokenManager.Audit()
}

// checkRetry decide se a mesma página deve ser repetida: erro de rede,
// 429/5xx, ou erro de rate limit do Meta embutido num 400.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return true, nil
	}
	if resp.StatusCode == http.StatusBadRequest {
		// O Meta devolve rate limit como 400 com código no corpo; é
		// preciso ler e restaurar o body para o consumidor
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
		if readErr != nil {
			return false, nil
		}

		var errResp metadomain.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			return errResp.IsRateLimited() || errResp.IsTransient(), nil
		}
	}
	return false, nil
}

// jitterBackoff é a política de espera entre tentativas: exponencial com
// jitter, limitada por max. Metade da espera é fixa e metade sorteada para
// espalhar clientes concorrentes.
func jitterBackoff(min, max time.Duration, attemptNum int, _ *http.Response) time.Duration {
	wait := min << uint(attemptNum)
	if wait > max || wait <= 0 {
		wait = max
	}
	half := int64(wait / 2)
	return time.Duration(half + rand.Int63n(half+1))
}
