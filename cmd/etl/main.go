package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/integrator/meta"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/secrets"
	bqwarehouse "github.com/vfg2006/ads-warehouse-etl/infrastructure/warehouse/bigquery"
	"github.com/vfg2006/ads-warehouse-etl/internal/api"
	"github.com/vfg2006/ads-warehouse-etl/internal/config"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
	"github.com/vfg2006/ads-warehouse-etl/internal/export"
	"github.com/vfg2006/ads-warehouse-etl/internal/scheduler"
	"github.com/vfg2006/ads-warehouse-etl/internal/usecases/loading"
	"github.com/vfg2006/ads-warehouse-etl/internal/usecases/syncing"
	"github.com/vfg2006/ads-warehouse-etl/pkg/utils"
)

func main() {
	mode := flag.String("mode", "daily", "modo de execução: daily, backfill, reload ou serve")
	startDate := flag.String("start", "", "data inicial do backfill (YYYY-MM-DD)")
	endDate := flag.String("end", "", "data final do backfill (YYYY-MM-DD)")
	reloadFile := flag.String("file", "", "CSV exportado a recarregar no modo reload")
	flag.Parse()

	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	secretStore, err := secrets.NewSecretManagerStore(ctx, cfg.GCP.Project)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao Secret Manager")
	}
	defer secretStore.Close()

	wh := bqConn(ctx, cfg)
	defer wh.Close()

	tokenManager := metaclient.NewTokenManager(cfg, secretStore)
	metaClient := metaclient.NewClient(cfg, tokenManager)
	metaIntegrator := meta.New(cfg, metaClient)

	loader := loading.NewService(cfg, wh)
	exporter := export.NewCSVExporter(cfg.Export.Dir)
	orchestrator := syncing.NewService(cfg, metaIntegrator, wh, loader, exporter)

	switch *mode {
	case "serve":
		serve(ctx, cfg, orchestrator)

	case "daily":
		runOnce(ctx, orchestrator, syncing.RunOptions{Mode: domain.RunModeDaily})

	case "backfill":
		window, err := parseWindow(*startDate, *endDate)
		if err != nil {
			logrus.Fatal(err)
		}
		runOnce(ctx, orchestrator, syncing.RunOptions{Mode: domain.RunModeBackfill, Window: window})

	case "reload":
		if *reloadFile == "" {
			logrus.Fatal("modo reload exige -file com o caminho do CSV exportado")
		}
		runOnce(ctx, orchestrator, syncing.RunOptions{Mode: domain.RunModeReload, ReloadPath: *reloadFile})

	default:
		logrus.Fatalf("modo desconhecido %q; valores aceitos: daily, backfill, reload, serve", *mode)
	}
}

// serve sobe o servidor de controle com o agendador diário em background
func serve(ctx context.Context, cfg *config.Config, orchestrator *syncing.Service) {
	dailySync := scheduler.NewDailySyncService(cfg, orchestrator)
	if err := dailySync.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de sincronização diária")
	} else {
		logrus.Info("Agendador de sincronização diária iniciado com sucesso")
	}

	server, err := api.New(cfg, orchestrator, dailySync)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// runOnce executa o pipeline uma vez e imprime o relatório da execução
func runOnce(ctx context.Context, orchestrator *syncing.Service, opts syncing.RunOptions) {
	report, err := orchestrator.Run(ctx, opts)
	if report != nil {
		fmt.Println(utils.PrettyJson(report))
	}
	if err != nil {
		logrus.WithError(err).Fatal("Execução terminou em falha")
	}
}

func parseWindow(start, end string) (domain.FetchWindow, error) {
	if start == "" || end == "" {
		return domain.FetchWindow{}, fmt.Errorf("modo backfill exige -start e -end no formato YYYY-MM-DD")
	}

	startAt, err := utils.ParseDate(start)
	if err != nil {
		return domain.FetchWindow{}, fmt.Errorf("data inicial inválida: %w", err)
	}
	endAt, err := utils.ParseDate(end)
	if err != nil {
		return domain.FetchWindow{}, fmt.Errorf("data final inválida: %w", err)
	}

	return domain.NewFetchWindow(startAt, endAt)
}

// bqConn cria o cliente do destino no BigQuery
func bqConn(ctx context.Context, cfg *config.Config) *bqwarehouse.Warehouse {
	wh, err := bqwarehouse.New(ctx, cfg.GCP.Project, cfg.GCP.Table)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao BigQuery")
	}

	logrus.WithFields(logrus.Fields{
		"project": cfg.GCP.Project,
		"table":   cfg.GCP.Table,
	}).Info("Conexão com o BigQuery estabelecida com sucesso")
	return wh
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}
