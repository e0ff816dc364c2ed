package metaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-warehouse-etl/internal/config"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

func clientCfg(baseURL string) *config.Config {
	cfg := testCfg(baseURL)
	cfg.Meta.URL = baseURL + "/v22.0"
	cfg.Meta.AccessToken = "token-de-teste" // evita o SecretStore nos testes
	cfg.Fetch = config.Fetch{
		MaxRetries:            2,
		BackoffBaseSeconds:    0,
		BackoffMaxSeconds:     0,
		RequestTimeoutSeconds: 5,
	}
	return cfg
}

func testWindow(t *testing.T) domain.FetchWindow {
	t.Helper()
	day, err := time.Parse(time.DateOnly, "2026-08-26")
	require.NoError(t, err)
	w, err := domain.NewFetchWindow(day, day)
	require.NoError(t, err)
	return w
}

func TestAccountInsightsFollowsPagination(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v22.0/act_123/insights", r.URL.Path)

		if r.URL.Query().Get("after") == "cursor2" {
			w.Write([]byte(`{"data":[{"ad_id":"ad2","date_start":"2026-08-26"}],"paging":{}}`))
			return
		}

		assert.Equal(t, "ad", r.URL.Query().Get("level"))
		assert.Equal(t, `["publisher_platform"]`, r.URL.Query().Get("breakdowns"))
		assert.Equal(t, "token-de-teste", r.URL.Query().Get("access_token"))

		next := fmt.Sprintf("%s/v22.0/act_123/insights?after=cursor2&access_token=token-de-teste", srvURL)
		w.Write([]byte(`{"data":[{"ad_id":"ad1","date_start":"2026-08-26"}],"paging":{"next":"` + next + `"}}`))
	}))
	defer srv.Close()
	srvURL = srv.URL

	cfg := clientCfg(srv.URL)
	client := NewClient(cfg, NewTokenManager(cfg, nil))

	records, err := client.AccountInsights(context.Background(), "123", testWindow(t))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ad1", records[0]["ad_id"])
	assert.Equal(t, "ad2", records[1]["ad_id"])
}

func TestAccountInsightsRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":[{"ad_id":"ad1","date_start":"2026-08-26"}],"paging":{}}`))
	}))
	defer srv.Close()

	cfg := clientCfg(srv.URL)
	client := NewClient(cfg, NewTokenManager(cfg, nil))

	records, err := client.AccountInsights(context.Background(), "123", testWindow(t))

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAccountInsightsRetriesMetaRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// Rate limit do Meta vem como 400 com código no corpo
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"limite de requisições","type":"OAuthException","code":17}}`))
			return
		}
		w.Write([]byte(`{"data":[],"paging":{}}`))
	}))
	defer srv.Close()

	cfg := clientCfg(srv.URL)
	client := NewClient(cfg, NewTokenManager(cfg, nil))

	_, err := client.AccountInsights(context.Background(), "123", testWindow(t))

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAccountInsightsExpiredTokenIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Error validating access token: Session has expired","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	cfg := clientCfg(srv.URL)
	client := NewClient(cfg, NewTokenManager(cfg, nil))

	_, err := client.AccountInsights(context.Background(), "123", testWindow(t))

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccountInsightsWrapsFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"conta desconhecida","type":"GraphMethodException","code":100}}`))
	}))
	defer srv.Close()

	cfg := clientCfg(srv.URL)
	client := NewClient(cfg, NewTokenManager(cfg, nil))

	_, err := client.AccountInsights(context.Background(), "999", testWindow(t))

	require.Error(t, err)
	assert.False(t, IsAuthError(err))

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "999", fetchErr.AccountID)
}

func TestAccountInsightsMalformedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`nao-e-json`))
	}))
	defer srv.Close()

	cfg := clientCfg(srv.URL)
	client := NewClient(cfg, NewTokenManager(cfg, nil))

	_, err := client.AccountInsights(context.Background(), "123", testWindow(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPage)
}
