package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App       App       `mapstructure:",squash"`
	Server    Server    `mapstructure:",squash"`
	GCP       GCP       `mapstructure:",squash"`
	Meta      Meta      `mapstructure:",squash"`
	Fetch     Fetch     `mapstructure:",squash"`
	Load      Load      `mapstructure:",squash"`
	DailySync DailySync `mapstructure:",squash"`
	Export    Export    `mapstructure:",squash"`

	// AccountIDs é a lista de contas de anúncio a sincronizar. Vem da
	// configuração e é tratada como valor imutável durante a execução.
	AccountIDs []string `mapstructure:"-"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type GCP struct {
	Project string `mapstructure:"gcp_project"`
	// Table no formato project.dataset.table ou dataset.table
	Table string `mapstructure:"bq_table"`
}

type Meta struct {
	BaseURL   string `mapstructure:"meta_base_url"`
	URL       string `mapstructure:"-"`
	Version   string `mapstructure:"meta_version"`
	AppID     string `mapstructure:"meta_app_id"`
	AppSecret string `mapstructure:"meta_app_secret"`

	// AccessToken, quando definido via ambiente, ignora o Secret Manager.
	// Útil apenas para desenvolvimento local.
	AccessToken string `mapstructure:"meta_access_token"`

	TokenSecretName         string `mapstructure:"meta_token_secret_name"`
	TokenMetadataSecretName string `mapstructure:"meta_token_metadata_secret_name"`
	AppIDSecretName         string `mapstructure:"meta_app_id_secret_name"`
	AppSecretSecretName     string `mapstructure:"meta_app_secret_secret_name"`

	// RefreshThresholdDays: renovar o token quando faltar menos que isso
	// para expirar.
	RefreshThresholdDays int `mapstructure:"meta_token_refresh_threshold_days"`
}

type Fetch struct {
	MaxRetries            int           `mapstructure:"fetch_max_retries"`
	BackoffBaseSeconds    int           `mapstructure:"fetch_backoff_base_seconds"`
	BackoffMaxSeconds     int           `mapstructure:"fetch_backoff_max_seconds"`
	RequestTimeoutSeconds int           `mapstructure:"fetch_request_timeout_seconds"`
	MaxConcurrentAccounts int           `mapstructure:"fetch_max_concurrent_accounts"`
	DeadlineMargin        time.Duration `mapstructure:"-"`
	DeadlineMarginSeconds int           `mapstructure:"fetch_deadline_margin_seconds"`
}

type Load struct {
	MaxBatchRows  int  `mapstructure:"load_max_batch_rows"`
	MaxBatchBytes int  `mapstructure:"load_max_batch_bytes"`
	DryRun        bool `mapstructure:"load_dry_run"`
}

type DailySync struct {
	CronSchedule string `mapstructure:"daily_sync_cron"`
	Enabled      bool   `mapstructure:"daily_sync_enabled"`
}

type Export struct {
	Dir string `mapstructure:"export_dir"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("GCP_PROJECT", "")
	viper.SetDefault("BQ_TABLE", "ads.ad_data")

	viper.SetDefault("META_BASE_URL", "https://graph.facebook.com")
	viper.SetDefault("META_VERSION", "v22.0")
	viper.SetDefault("META_APP_ID", "")
	viper.SetDefault("META_APP_SECRET", "")
	viper.SetDefault("META_ACCESS_TOKEN", "") // ONLY LOCAL

	viper.SetDefault("META_TOKEN_SECRET_NAME", "fb-marketing-token")
	viper.SetDefault("META_TOKEN_METADATA_SECRET_NAME", "fb-marketing-token-metadata")
	viper.SetDefault("META_APP_ID_SECRET_NAME", "fb-app-id")
	viper.SetDefault("META_APP_SECRET_SECRET_NAME", "fb-app-secret")
	viper.SetDefault("META_TOKEN_REFRESH_THRESHOLD_DAYS", 7)

	viper.SetDefault("FETCH_MAX_RETRIES", 3)              // tentativas por página
	viper.SetDefault("FETCH_BACKOFF_BASE_SECONDS", 2)     // espera base entre tentativas
	viper.SetDefault("FETCH_BACKOFF_MAX_SECONDS", 60)     // teto da espera com jitter
	viper.SetDefault("FETCH_REQUEST_TIMEOUT_SECONDS", 30) // timeout por requisição
	viper.SetDefault("FETCH_MAX_CONCURRENT_ACCOUNTS", 3)  // pool de workers por conta
	viper.SetDefault("FETCH_DEADLINE_MARGIN_SECONDS", 120)

	viper.SetDefault("LOAD_MAX_BATCH_ROWS", 500)
	viper.SetDefault("LOAD_MAX_BATCH_BYTES", 9*1024*1024) // limite de payload do streaming insert
	viper.SetDefault("LOAD_DRY_RUN", false)

	viper.SetDefault("DAILY_SYNC_CRON", "0 3 * * *") // todos os dias às 3h da manhã
	viper.SetDefault("DAILY_SYNC_ENABLED", false)

	viper.SetDefault("EXPORT_DIR", os.TempDir())

	viper.SetDefault("ACCOUNT_IDS", "")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Meta.URL = fmt.Sprintf("%s/%s", config.Meta.BaseURL, config.Meta.Version)
	config.Fetch.DeadlineMargin = time.Duration(config.Fetch.DeadlineMarginSeconds) * time.Second

	// Lista de contas separada por vírgula; espaços são tolerados
	for _, id := range strings.Split(viper.GetString("ACCOUNT_IDS"), ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			config.AccountIDs = append(config.AccountIDs, id)
		}
	}

	return config, nil
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../.env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Debug("Nenhum arquivo .env encontrado; usando apenas variáveis de ambiente")
}
