package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-warehouse-etl/internal/domain"
	"github.com/vfg2006/ads-warehouse-etl/internal/scheduler"
	"github.com/vfg2006/ads-warehouse-etl/internal/usecases/syncing"
	"github.com/vfg2006/ads-warehouse-etl/pkg/apiErrors"
	"github.com/vfg2006/ads-warehouse-etl/pkg/utils"
)

// Modos de execução aceitos pela API de controle
const (
	RunModeDaily    = "daily"
	RunModeBackfill = "backfill"
	RunModeReload   = "reload"
)

// SyncServices contém os serviços necessários para disparar execuções
type SyncServices struct {
	Orchestrator *syncing.Service
	DailySync    *scheduler.DailySyncService
}

// RunSync dispara manualmente uma execução do pipeline no modo pedido. A
// execução roda em background; a resposta só confirma o disparo.
func RunSync(services SyncServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - RunSync")

		mode := httprouter.ParamsFromContext(r.Context()).ByName("mode")
		if mode == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Modo de execução não especificado", nil)
			return
		}

		if services.Orchestrator.Running() {
			apiErrors.WriteError(w, apiErrors.ErrSyncInProgress, "Já existe uma execução em andamento", nil)
			return
		}

		opts := syncing.RunOptions{}

		switch mode {
		case RunModeDaily:
			opts.Mode = domain.RunModeDaily

		case RunModeBackfill:
			opts.Mode = domain.RunModeBackfill

			start, err := utils.ParseDate(r.URL.Query().Get("start_date"))
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "start_date inválida; formato esperado YYYY-MM-DD", nil)
				return
			}
			end, err := utils.ParseDate(r.URL.Query().Get("end_date"))
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "end_date inválida; formato esperado YYYY-MM-DD", nil)
				return
			}

			window, err := domain.NewFetchWindow(start, end)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
				return
			}
			opts.Window = window

		case RunModeReload:
			opts.Mode = domain.RunModeReload
			opts.ReloadPath = r.URL.Query().Get("file")
			if opts.ReloadPath == "" {
				apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Parâmetro file é obrigatório no modo reload", nil)
				return
			}

		default:
			apiErrors.WriteError(w, apiErrors.ErrInvalidRunMode, "Modo inválido. Valores aceitos: daily, backfill, reload", nil)
			return
		}

		go func() {
			if _, err := services.Orchestrator.Run(context.Background(), opts); err != nil {
				logrus.WithError(err).Error("Execução disparada pela API terminou em falha")
			}
		}()

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Execução iniciada com sucesso",
			"mode":    mode,
		})
	}
}

// GetSyncStatus retorna o status do agendador e da execução corrente
func GetSyncStatus(services SyncServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - GetSyncStatus")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(services.DailySync.GetStatus())
	}
}

// GetSyncReport retorna o relatório estruturado da última execução
func GetSyncReport(services SyncServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - GetSyncReport")

		report := services.Orchestrator.LastReport()
		if report == nil {
			apiErrors.WriteError(w, apiErrors.ErrNoReport, "Nenhuma execução concluída ainda", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}
