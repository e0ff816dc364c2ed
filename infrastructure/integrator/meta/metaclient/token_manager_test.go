package metaclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/secrets"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/secrets/mocks"
	"github.com/vfg2006/ads-warehouse-etl/internal/config"
	gomock "go.uber.org/mock/gomock"
)

func testCfg(baseURL string) *config.Config {
	return &config.Config{
		Meta: config.Meta{
			BaseURL:                 baseURL,
			Version:                 "v22.0",
			AppID:                   "app-id",
			AppSecret:               "app-secret",
			TokenSecretName:         "fb-marketing-token",
			TokenMetadataSecretName: "fb-marketing-token-metadata",
			RefreshThresholdDays:    7,
		},
	}
}

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	now, err := time.Parse(time.RFC3339, "2026-08-27T10:00:00Z")
	require.NoError(t, err)
	return now
}

func newManager(t *testing.T, cfg *config.Config, store *mocks.MockSecretStore) *TokenManager {
	t.Helper()
	tm := NewTokenManager(cfg, store)
	tm.now = func() time.Time { return fixedNow(t) }
	return tm
}

func TestUsableTokenFromEnvOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockSecretStore(ctrl)
	// Nenhuma leitura do SecretStore deve acontecer

	cfg := testCfg("http://unused")
	cfg.Meta.AccessToken = "token-do-ambiente"

	tm := newManager(t, cfg, store)
	token, err := tm.UsableToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "token-do-ambiente", token)
	assert.Equal(t, TokenStateValid, tm.State())
}

func TestUsableTokenValidWithoutRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockSecretStore(ctrl)

	expiresAt := fixedNow(t).Add(30 * 24 * time.Hour).Unix()
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token").Return("token-atual", nil)
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token-metadata").
		Return(`{"kind":"short_lived","expires_at":`+formatInt(expiresAt)+`}`, nil)

	tm := newManager(t, testCfg("http://unused"), store)
	token, err := tm.UsableToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "token-atual", token)
	assert.Equal(t, TokenStateValid, tm.State())
	assert.False(t, tm.Audit().Attempted)
}

func TestUsableTokenNonExpiringSkipsCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockSecretStore(ctrl)

	store.EXPECT().Read(gomock.Any(), "fb-marketing-token").Return("token-system-user", nil)
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token-metadata").
		Return(`{"kind":"non_expiring","expires_at":0}`, nil)

	tm := newManager(t, testCfg("http://unused"), store)
	token, err := tm.UsableToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "token-system-user", token)
	assert.Equal(t, TokenStateValid, tm.State())
}

func TestUsableTokenRefreshesWhenExpiringSoon(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockSecretStore(ctrl)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v22.0/oauth/access_token", r.URL.Path)
		assert.Equal(t, "fb_exchange_token", r.URL.Query().Get("grant_type"))
		w.Write([]byte(`{"access_token":"token-novo","token_type":"bearer","expires_in":5184000}`))
	}))
	defer srv.Close()

	// Expira em 3 dias, abaixo do limiar de 7
	expiresAt := fixedNow(t).Add(3 * 24 * time.Hour).Unix()
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token").Return("token-velho", nil)
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token-metadata").
		Return(`{"kind":"short_lived","expires_at":`+formatInt(expiresAt)+`}`, nil)
	store.EXPECT().Write(gomock.Any(), "fb-marketing-token", "token-novo").Return(nil).Times(1)
	store.EXPECT().Write(gomock.Any(), "fb-marketing-token-metadata", gomock.Any()).Return(nil).Times(1)

	tm := newManager(t, testCfg(srv.URL), store)
	token, err := tm.UsableToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "token-novo", token)
	assert.Equal(t, TokenStateValid, tm.State())

	audit := tm.Audit()
	assert.True(t, audit.Attempted)
	assert.True(t, audit.Refreshed)
	assert.True(t, audit.WroteSecret)
	assert.False(t, audit.ExpiresAt.IsZero())
}

func TestUsableTokenStaleButValidOnExchangeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockSecretStore(ctrl)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	expiresAt := fixedNow(t).Add(3 * 24 * time.Hour).Unix()
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token").Return("token-velho", nil)
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token-metadata").
		Return(`{"kind":"short_lived","expires_at":`+formatInt(expiresAt)+`}`, nil)
	// Nenhuma escrita: a troca falhou

	tm := newManager(t, testCfg(srv.URL), store)
	token, err := tm.UsableToken(context.Background())

	// Ainda dentro da validade: segue com o token antigo e um warning
	require.NoError(t, err)
	assert.Equal(t, "token-velho", token)

	audit := tm.Audit()
	assert.True(t, audit.Attempted)
	assert.False(t, audit.Refreshed)
	assert.NotEmpty(t, audit.Warning)
}

func TestUsableTokenExpiredAndExchangeFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockSecretStore(ctrl)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"token expirado","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	expiresAt := fixedNow(t).Add(-time.Hour).Unix()
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token").Return("token-morto", nil)
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token-metadata").
		Return(`{"kind":"short_lived","expires_at":`+formatInt(expiresAt)+`}`, nil)

	tm := newManager(t, testCfg(srv.URL), store)
	_, err := tm.UsableToken(context.Background())

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, TokenStateExpired, tm.State())
}

func TestUsableTokenMissingSecret(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockSecretStore(ctrl)

	store.EXPECT().Read(gomock.Any(), "fb-marketing-token").
		Return("", secrets.ErrSecretNotFound)

	tm := newManager(t, testCfg("http://unused"), store)
	_, err := tm.UsableToken(context.Background())

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestUsableTokenFallsBackToDebugToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockSecretStore(ctrl)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v22.0/debug_token", r.URL.Path)
		expiresAt := fixedNow(t).Add(60 * 24 * time.Hour).Unix()
		w.Write([]byte(`{"data":{"is_valid":true,"expires_at":` + formatInt(expiresAt) + `}}`))
	}))
	defer srv.Close()

	store.EXPECT().Read(gomock.Any(), "fb-marketing-token").Return("token-sem-metadados", nil)
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token-metadata").
		Return("", secrets.ErrSecretNotFound)

	tm := newManager(t, testCfg(srv.URL), store)
	token, err := tm.UsableToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "token-sem-metadados", token)
	assert.Equal(t, TokenStateValid, tm.State())
}

func TestUsableTokenCachedAfterFirstCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockSecretStore(ctrl)

	expiresAt := fixedNow(t).Add(30 * 24 * time.Hour).Unix()
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token").Return("token-atual", nil).Times(1)
	store.EXPECT().Read(gomock.Any(), "fb-marketing-token-metadata").
		Return(`{"kind":"short_lived","expires_at":`+formatInt(expiresAt)+`}`, nil).Times(1)

	tm := newManager(t, testCfg("http://unused"), store)

	first, err := tm.UsableToken(context.Background())
	require.NoError(t, err)
	second, err := tm.UsableToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
