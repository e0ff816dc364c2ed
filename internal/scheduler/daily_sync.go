package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/internal/config"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
	"github.com/vfg2006/ads-warehouse-etl/internal/usecases/syncing"
)

// DailySyncService agenda a sincronização diária do pipeline: uma execução
// no modo daily por disparo do cron, cobrindo sempre o dia de ontem.
type DailySyncService struct {
	scheduler    *gocron.Scheduler
	cfg          *config.Config
	orchestrator *syncing.Service

	mu                 sync.Mutex
	lastRunStartedAt   time.Time
	lastRunCompletedAt time.Time
}

// NewDailySyncService cria uma nova instância do serviço de sincronização diária
func NewDailySyncService(cfg *config.Config, orchestrator *syncing.Service) *DailySyncService {
	logrus.WithFields(logrus.Fields{
		"cron_schedule": cfg.DailySync.CronSchedule,
		"sync_enabled":  cfg.DailySync.Enabled,
		"accounts":      len(cfg.AccountIDs),
	}).Info("Configuração do agendador de sincronização diária carregada")

	return &DailySyncService{
		scheduler:    gocron.NewScheduler(time.Local),
		cfg:          cfg,
		orchestrator: orchestrator,
	}
}

// Start inicia o agendador
func (s *DailySyncService) Start(ctx context.Context) error {
	if !s.cfg.DailySync.Enabled {
		logrus.Info("Sincronização diária desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.cfg.DailySync.CronSchedule).Info("Iniciando agendador de sincronização diária")

	_, err := s.scheduler.Cron(s.cfg.DailySync.CronSchedule).Do(func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar sincronização diária: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de sincronização diária")
		s.scheduler.Stop()
	}()

	return nil
}

// runSync dispara uma execução diária do pipeline. Execução já em andamento
// não é erro: o disparo é simplesmente ignorado.
func (s *DailySyncService) runSync(ctx context.Context) {
	s.mu.Lock()
	s.lastRunStartedAt = time.Now()
	s.mu.Unlock()

	report, err := s.orchestrator.Run(ctx, syncing.RunOptions{Mode: domain.RunModeDaily})
	if err != nil {
		if errors.Is(err, syncing.ErrRunInProgress) {
			logrus.Info("Sincronização já em andamento, ignorando disparo do cron")
			return
		}
		logrus.WithError(err).Error("Sincronização diária terminou em falha")
	}

	s.mu.Lock()
	s.lastRunCompletedAt = time.Now()
	s.mu.Unlock()

	if report != nil {
		logrus.WithFields(logrus.Fields{
			"run_id":     report.RunID,
			"status":     string(report.Status),
			"fetched":    report.RecordsFetched,
			"duplicates": report.DuplicatesFound,
		}).Info("Sincronização diária concluída")
	}
}

// TriggerManualSync inicia manualmente uma sincronização diária
func (s *DailySyncService) TriggerManualSync() {
	if s.orchestrator.Running() {
		logrus.Info("Sincronização já em andamento, ignorando solicitação manual")
		return
	}

	logrus.Info("Iniciando sincronização manual")
	go s.runSync(context.Background())
}

// GetStatus retorna o status atual do agendador e da última execução
func (s *DailySyncService) GetStatus() map[string]any {
	s.mu.Lock()
	startedAt := s.lastRunStartedAt
	completedAt := s.lastRunCompletedAt
	s.mu.Unlock()

	status := map[string]any{
		"sync_enabled":          s.cfg.DailySync.Enabled,
		"sync_cron":             s.cfg.DailySync.CronSchedule,
		"sync_running":          s.orchestrator.Running(),
		"accounts":              len(s.cfg.AccountIDs),
		"last_run_started_at":   startedAt,
		"last_run_completed_at": completedAt,
	}

	if report := s.orchestrator.LastReport(); report != nil {
		status["last_run_id"] = report.RunID
		status["last_run_status"] = string(report.Status)
		status["last_run_window"] = report.Window
	}

	return status
}
