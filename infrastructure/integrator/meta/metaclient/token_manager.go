package metaclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/secrets"
	"github.com/vfg2006/ads-warehouse-etl/internal/config"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
)

// TokenState é o estado do ciclo de vida da credencial
type TokenState string

const (
	TokenStateUnloaded     TokenState = "unloaded"
	TokenStateValid        TokenState = "valid"
	TokenStateExpiringSoon TokenState = "expiring_soon"
	TokenStateExpired      TokenState = "expired"
	// TokenStateRefreshing é transitório: só se entra nele a partir de
	// expiring_soon ou expired
	TokenStateRefreshing TokenState = "refreshing"
)

// Tipos de credencial
const (
	TokenKindShortLived  = "short_lived"
	TokenKindNonExpiring = "non_expiring"
)

// TokenMetadata é o conteúdo do secret de metadados que acompanha o token
type TokenMetadata struct {
	Kind        string `json:"kind"`
	ExpiresAt   int64  `json:"expires_at"` // unix; 0 = nunca expira
	RefreshedAt string `json:"refreshed_at,omitempty"`
}

// TokenManager gerencia o ciclo de vida do token de acesso da API do Meta:
// carrega do SecretStore, renova antes de expirar e grava o token renovado
// de volta. No máximo uma escrita no SecretStore por execução.
type TokenManager struct {
	cfg   *config.Config
	store secrets.SecretStore

	mu        sync.Mutex
	state     TokenState
	token     string
	meta      TokenMetadata
	wroteBack bool
	audit     domain.TokenRefresh

	// injetáveis em teste
	httpClient *http.Client
	now        func() time.Time
}

// NewTokenManager cria uma nova instância do gerenciador de tokens
func NewTokenManager(cfg *config.Config, store secrets.SecretStore) *TokenManager {
	return &TokenManager{
		cfg:        cfg,
		store:      store,
		state:      TokenStateUnloaded,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// State retorna o estado corrente do token
func (tm *TokenManager) State() TokenState {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.state
}

// Audit retorna o registro auditável da renovação desta execução
func (tm *TokenManager) Audit() domain.TokenRefresh {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.audit
}

// UsableToken retorna um token válido para uso contra a API, renovando
// antes se estiver perto de expirar. Falha de troca dentro da janela de
// validade não é fatal: devolve o token antigo com warning. Falha depois
// da expiração aborta a execução com AuthError.
func (tm *TokenManager) UsableToken(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.state == TokenStateValid && tm.token != "" {
		return tm.token, nil
	}

	// Override por variável de ambiente, só para desenvolvimento local
	if tm.cfg.Meta.AccessToken != "" {
		logrus.Info("Usando token de acesso da variável de ambiente")
		tm.token = tm.cfg.Meta.AccessToken
		tm.state = TokenStateValid
		return tm.token, nil
	}

	if err := tm.load(ctx); err != nil {
		return "", err
	}

	tm.classify()

	switch tm.state {
	case TokenStateValid:
		return tm.token, nil
	case TokenStateExpiringSoon, TokenStateExpired:
		return tm.refresh(ctx)
	default:
		return "", NewAuthError(ErrTokenInvalid, "estado de token desconhecido")
	}
}

// load lê o token e seus metadados do SecretStore
func (tm *TokenManager) load(ctx context.Context) error {
	token, err := tm.store.Read(ctx, tm.cfg.Meta.TokenSecretName)
	if err != nil {
		return NewAuthError(ErrTokenMissing, err.Error())
	}
	tm.token = token

	raw, err := tm.store.Read(ctx, tm.cfg.Meta.TokenMetadataSecretName)
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(raw), &tm.meta); jsonErr == nil {
			return nil
		}
	}

	// Sem metadados confiáveis: consultar o endpoint de debug para
	// descobrir validade e expiração
	logrus.Warn("Metadados do token ausentes ou ilegíveis; consultando debug_token")

	appID, appSecret, err := tm.appCredentials(ctx)
	if err != nil {
		return err
	}

	info, err := DebugToken(ctx, tm.httpClient, tm.token, appID, appSecret, tm.cfg.Meta.BaseURL, tm.cfg.Meta.Version)
	if err != nil {
		return NewAuthError(ErrTokenInvalid, err.Error())
	}
	if !info.IsValid {
		return NewAuthError(ErrTokenInvalid, "debug_token reporta token inválido")
	}

	tm.meta = TokenMetadata{Kind: TokenKindShortLived, ExpiresAt: info.ExpiresAt}
	if info.ExpiresAt == 0 {
		tm.meta.Kind = TokenKindNonExpiring
	}

	return nil
}

// classify decide o estado a partir do tipo e da expiração
func (tm *TokenManager) classify() {
	if tm.meta.Kind == TokenKindNonExpiring || tm.meta.ExpiresAt == 0 {
		// Token de system user nunca expira: pula a checagem inteira
		logrus.Info("Token não expira (system user); pulando verificação de expiração")
		tm.state = TokenStateValid
		return
	}

	expiresAt := time.Unix(tm.meta.ExpiresAt, 0)
	remaining := expiresAt.Sub(tm.now())
	threshold := time.Duration(tm.cfg.Meta.RefreshThresholdDays) * 24 * time.Hour

	switch {
	case remaining <= 0:
		tm.state = TokenStateExpired
	case remaining < threshold:
		logrus.Infof("Token expira em %s (menos que o limiar de %d dias); renovação necessária",
			expiresAt.Format(time.RFC3339), tm.cfg.Meta.RefreshThresholdDays)
		tm.state = TokenStateExpiringSoon
	default:
		tm.state = TokenStateValid
	}
}

// refresh troca o token por um novo de longa duração e grava no SecretStore
func (tm *TokenManager) refresh(ctx context.Context) (string, error) {
	wasExpired := tm.state == TokenStateExpired
	tm.state = TokenStateRefreshing
	tm.audit.Attempted = true

	appID, appSecret, err := tm.appCredentials(ctx)
	if err != nil {
		return "", err
	}

	resp, exchangeErr := ExchangeToken(ctx, tm.httpClient, tm.token, appID, appSecret, tm.cfg.Meta.BaseURL, tm.cfg.Meta.Version)
	if exchangeErr != nil {
		if wasExpired {
			// Depois da expiração real não há recuperação automática:
			// é preciso um novo token emitido manualmente
			tm.state = TokenStateExpired
			return "", NewAuthError(ErrTokenExpired, exchangeErr.Error())
		}

		// Ainda dentro da janela de validade: seguir com o token antigo
		remaining := time.Unix(tm.meta.ExpiresAt, 0).Sub(tm.now())
		tm.audit.Warning = exchangeErr.Error()
		logrus.WithError(exchangeErr).Warnf(
			"Falha ao renovar token, mas o atual ainda é válido por %s; seguindo com o token antigo", remaining)
		tm.state = TokenStateValid
		return tm.token, nil
	}

	expiresAt := tm.now().Unix() + resp.ExpiresIn
	tm.token = resp.AccessToken
	tm.meta = TokenMetadata{
		Kind:        TokenKindShortLived,
		ExpiresAt:   expiresAt,
		RefreshedAt: tm.now().Format(time.RFC3339),
	}
	tm.state = TokenStateValid
	tm.audit.Refreshed = true
	tm.audit.ExpiresAt = time.Unix(expiresAt, 0)

	tm.writeBack(ctx)

	logrus.Infof("Token renovado com sucesso. Nova expiração: %s", tm.audit.ExpiresAt.Format(time.RFC3339))
	return tm.token, nil
}

// writeBack grava o token renovado e seus metadados. É a única escrita no
// SecretStore da execução; falha aqui não derruba a execução, o token novo
// continua utilizável em memória.
func (tm *TokenManager) writeBack(ctx context.Context) {
	if tm.wroteBack {
		return
	}
	tm.wroteBack = true

	if err := tm.store.Write(ctx, tm.cfg.Meta.TokenSecretName, tm.token); err != nil {
		logrus.WithError(err).Error("Erro ao gravar token renovado no SecretStore")
		return
	}

	metaJSON, _ := json.Marshal(tm.meta)
	if err := tm.store.Write(ctx, tm.cfg.Meta.TokenMetadataSecretName, string(metaJSON)); err != nil {
		// Metadados são opcionais; a próxima execução cai no debug_token
		logrus.WithError(err).Warn("Erro ao gravar metadados do token")
	}

	tm.audit.WroteSecret = true
}

// appCredentials resolve app id/secret da configuração ou do SecretStore
func (tm *TokenManager) appCredentials(ctx context.Context) (string, string, error) {
	if tm.cfg.Meta.AppID != "" && tm.cfg.Meta.AppSecret != "" {
		return tm.cfg.Meta.AppID, tm.cfg.Meta.AppSecret, nil
	}

	appID, err := tm.store.Read(ctx, tm.cfg.Meta.AppIDSecretName)
	if err != nil {
		return "", "", NewAuthError(ErrTokenInvalid, "app id não encontrado: "+err.Error())
	}
	appSecret, err := tm.store.Read(ctx, tm.cfg.Meta.AppSecretSecretName)
	if err != nil {
		return "", "", NewAuthError(ErrTokenInvalid, "app secret não encontrado: "+err.Error())
	}

	return appID, appSecret, nil
}
