package syncing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-warehouse-etl/internal/config"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
	"github.com/vfg2006/ads-warehouse-etl/internal/usecases/deduplicating"
	"github.com/vfg2006/ads-warehouse-etl/internal/usecases/reconciling"
)

// RunOptions define o modo da execução e seus parâmetros
type RunOptions struct {
	Mode       domain.RunMode
	Window     domain.FetchWindow // backfill
	ReloadPath string             // reload
}

// Service é o orquestrador do pipeline: busca, deduplicação, reconciliação
// de schema e carga, numa máquina de estados com um relatório estruturado no
// fim. No máximo uma execução por vez.
type Service struct {
	cfg      *config.Config
	fetcher  Fetcher
	schema   SchemaReader
	loader   Loader
	exporter Exporter
	dedup    *deduplicating.Service
	now      func() time.Time

	mu         sync.Mutex
	running    bool
	lastReport *domain.RunReport
}

// NewService cria uma nova instância do orquestrador
func NewService(cfg *config.Config, fetcher Fetcher, schema SchemaReader, loader Loader, exporter Exporter) *Service {
	return &Service{
		cfg:      cfg,
		fetcher:  fetcher,
		schema:   schema,
		loader:   loader,
		exporter: exporter,
		dedup:    deduplicating.NewService(),
		now:      time.Now,
	}
}

// Running informa se há uma execução em andamento
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastReport retorna o relatório da última execução concluída, se houver
func (s *Service) LastReport() *domain.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// Run executa o pipeline completo no modo pedido. Sempre devolve um
// relatório, mesmo em falha; o erro retornado é o motivo fatal, quando há.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*domain.RunReport, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	report := &domain.RunReport{
		RunID:     uuid.NewString(),
		Mode:      opts.Mode,
		Status:    domain.RunStatusIdle,
		StartedAt: s.now(),
	}

	defer func() {
		report.FinishedAt = s.now()
		s.mu.Lock()
		s.running = false
		s.lastReport = report
		s.mu.Unlock()

		logrus.WithFields(logrus.Fields{
			"run_id":   report.RunID,
			"mode":     string(report.Mode),
			"status":   string(report.Status),
			"duration": report.FinishedAt.Sub(report.StartedAt).String(),
		}).Info("sync: execução encerrada")
	}()

	err := s.run(ctx, opts, report)
	if err != nil {
		report.Status = domain.RunStatusFailed
		report.Error = err.Error()
		return report, err
	}
	return report, nil
}

func (s *Service) run(ctx context.Context, opts RunOptions, report *domain.RunReport) error {
	var records []domain.RawRecord
	var window domain.FetchWindow

	switch opts.Mode {
	case domain.RunModeReload:
		if opts.ReloadPath == "" {
			return ErrReloadPathRequired
		}
		loaded, err := s.exporter.Read(opts.ReloadPath)
		if err != nil {
			return err
		}
		records = loaded

	case domain.RunModeBackfill:
		if opts.Window.StartDate.IsZero() {
			return ErrWindowRequired
		}
		window = opts.Window
		report.Window = window.String()

		fetched, err := s.fetchPhase(ctx, window, report)
		if err != nil {
			return err
		}
		records = fetched

	default:
		window = domain.YesterdayWindow(s.now())
		report.Window = window.String()

		fetched, err := s.fetchPhase(ctx, window, report)
		if err != nil {
			return err
		}
		records = fetched
	}

	s.transition(report, domain.RunStatusDeduplicating)
	deduped := s.dedup.Deduplicate(records)
	report.DuplicatesFound = deduped.Duplicates

	s.transition(report, domain.RunStatusReconcilingSchema)
	known, err := s.schema.Schema(ctx)
	if err != nil {
		return NewSyncError(ErrSchemaRead, err.Error())
	}

	reconciler := reconciling.NewService(known)
	mark := reconciler.Snapshot()
	reconciled := reconciler.Reconcile(deduped.Records)
	report.LossyCoercions = reconciled.LossyCoercions

	if opts.Mode == domain.RunModeBackfill {
		path, err := s.exporter.Export(window, reconciler.Catalog(), reconciled.Rows)
		if err != nil {
			return err
		}
		report.ExportPath = path
	}

	s.transition(report, domain.RunStatusLoading)
	loadReport, err := s.loader.Load(ctx, reconciled.Rows, reconciler.Catalog(), reconciler.Catalog().FieldsSince(mark))
	report.Load = loadReport
	if err != nil {
		return err
	}

	if len(report.FailedAccounts) > 0 || len(report.RetriableGaps) > 0 {
		s.transition(report, domain.RunStatusPartiallySucceeded)
	} else {
		s.transition(report, domain.RunStatusSucceeded)
	}
	return nil
}

// fetchPhase busca todas as contas para a janela, com concorrência limitada
// por conta e chunking da janela em dias. O resultado é concatenado numa
// ordem determinística: contas na ordem configurada, dias em ordem
// cronológica dentro de cada conta.
func (s *Service) fetchPhase(ctx context.Context, window domain.FetchWindow, report *domain.RunReport) ([]domain.RawRecord, error) {
	accounts := s.cfg.AccountIDs
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	s.transition(report, domain.RunStatusAuthenticating)
	if _, err := s.fetcher.UsableToken(ctx); err != nil {
		report.TokenRefresh = s.fetcher.TokenAudit()
		return nil, err
	}
	report.TokenRefresh = s.fetcher.TokenAudit()

	s.transition(report, domain.RunStatusFetching)

	chunks := window.ChunkByDay()
	type chunkResult struct {
		records []domain.RawRecord
		skipped int
		err     error
		gap     bool
	}

	results := make([][]chunkResult, len(accounts))
	semaphore := make(chan struct{}, s.cfg.Fetch.MaxConcurrentAccounts)
	var wg sync.WaitGroup

	var authMu sync.Mutex
	var authErr error

	for i, accountID := range accounts {
		results[i] = make([]chunkResult, len(chunks))

		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, accountID string) {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			for j, chunk := range chunks {
				authMu.Lock()
				fatal := authErr != nil
				authMu.Unlock()
				if fatal {
					return
				}

				if s.deadlineClose(ctx) {
					// Melhor parar inteiro num chunk do que ser morto no
					// meio de uma inserção
					results[i][j] = chunkResult{gap: true}
					logrus.WithFields(logrus.Fields{
						"account_id": accountID,
						"chunk":      chunk.String(),
					}).Warn("sync: margem de deadline atingida; chunk adiado")
					continue
				}

				outcome, err := s.fetcher.FetchAccountWindow(ctx, accountID, chunk)
				if err != nil {
					if metaclient.IsAuthError(err) {
						authMu.Lock()
						authErr = err
						authMu.Unlock()
						return
					}
					results[i][j] = chunkResult{err: err, gap: true}
					continue
				}
				results[i][j] = chunkResult{records: outcome.Records, skipped: outcome.Skipped}
			}
		}(i, accountID)
	}

	wg.Wait()

	if authErr != nil {
		// Token expirado no meio da execução derruba a execução inteira
		return nil, authErr
	}

	merged := make([]domain.RawRecord, 0)
	var fetchedChunks, erroredChunks int
	for i, accountID := range accounts {
		failed := 0
		for j, res := range results[i] {
			if res.gap {
				failed++
				if res.err != nil {
					erroredChunks++
				}
				gap := accountID + " " + chunks[j].String()
				report.RetriableGaps = append(report.RetriableGaps, gap)
				if res.err != nil {
					report.FailedAccounts = append(report.FailedAccounts, domain.AccountFailure{
						AccountID: accountID,
						Window:    chunks[j].String(),
						Reason:    res.err.Error(),
					})
				}
				continue
			}

			fetchedChunks++
			report.RecordsSkipped += res.skipped
			for _, rec := range res.records {
				// A API às vezes devolve linhas fora da janela pedida
				if !window.Contains(rec.DateStart()) {
					report.RecordsSkipped++
					continue
				}
				merged = append(merged, rec)
			}
		}

		if failed > 0 {
			logrus.WithFields(logrus.Fields{
				"account_id": accountID,
				"chunks":     failed,
			}).Warn("sync: conta com chunks não buscados nesta execução")
		}
	}

	// Sucesso parcial exige pelo menos uma conta buscada. Falha de busca em
	// todas as contas é fatal; lacunas só de deadline seguem como parcial.
	if erroredChunks > 0 && fetchedChunks == 0 {
		return nil, NewSyncError(ErrAllAccountsFailed, "nenhum chunk foi buscado com sucesso")
	}

	report.RecordsFetched = len(merged)
	return merged, nil
}

// deadlineClose verifica se o tempo restante do contexto é menor que a
// margem configurada
func (s *Service) deadlineClose(ctx context.Context) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return false
	}
	return deadline.Sub(s.now()) < s.cfg.Fetch.DeadlineMargin
}

func (s *Service) transition(report *domain.RunReport, to domain.RunStatus) {
	logrus.WithFields(logrus.Fields{
		"run_id": report.RunID,
		"from":   string(report.Status),
		"to":     string(to),
	}).Debug("sync: transição de estado")
	report.Status = to
}
