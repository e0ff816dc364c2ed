package domain

import "time"

// RunMode define como a janela de busca é escolhida.
type RunMode string

const (
	RunModeDaily    RunMode = "daily"
	RunModeBackfill RunMode = "backfill"
	RunModeReload   RunMode = "reload"
)

// RunStatus é o estado corrente (e terminal) de uma execução.
type RunStatus string

const (
	RunStatusIdle               RunStatus = "idle"
	RunStatusAuthenticating     RunStatus = "authenticating"
	RunStatusFetching           RunStatus = "fetching"
	RunStatusDeduplicating      RunStatus = "deduplicating"
	RunStatusReconcilingSchema  RunStatus = "reconciling_schema"
	RunStatusLoading            RunStatus = "loading"
	RunStatusSucceeded          RunStatus = "succeeded"
	RunStatusPartiallySucceeded RunStatus = "partially_succeeded"
	RunStatusFailed             RunStatus = "failed"
)

// Terminal indica se o status encerra a execução.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSucceeded || s == RunStatusPartiallySucceeded || s == RunStatusFailed
}

// AccountFailure registra uma conta cuja busca falhou, com o motivo.
type AccountFailure struct {
	AccountID string `json:"account_id"`
	Window    string `json:"window"`
	Reason    string `json:"reason"`
}

// TokenRefresh é o registro auditável da escrita de credencial da execução.
// A renovação de token nunca é uma mutação silenciosa em background.
type TokenRefresh struct {
	Attempted   bool      `json:"attempted"`
	Refreshed   bool      `json:"refreshed"`
	WroteSecret bool      `json:"wrote_secret"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Warning     string    `json:"warning,omitempty"`
}

// LoadBatch é um conjunto limitado de linhas destinado a uma única partição.
type LoadBatch struct {
	ID        string
	Partition string
	Rows      []ReconciledRow
}

// LoadReport resume o resultado da fase de carga.
type LoadReport struct {
	Batches       int      `json:"batches"`
	RowsSubmitted int      `json:"rows_submitted"`
	RowsLoaded    int      `json:"rows_loaded"`
	FieldsAdded   int      `json:"fields_added"`
	Partitions    []string `json:"partitions"`
	DryRun        bool     `json:"dry_run"`
}

// RunReport é o relatório estruturado com que toda execução termina.
type RunReport struct {
	RunID           string           `json:"run_id"`
	Mode            RunMode          `json:"mode"`
	Status          RunStatus        `json:"status"`
	Window          string           `json:"window,omitempty"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	RecordsFetched  int              `json:"records_fetched"`
	RecordsSkipped  int              `json:"records_skipped"`
	DuplicatesFound int              `json:"duplicates_found"`
	LossyCoercions  int              `json:"lossy_coercions"`
	TokenRefresh    TokenRefresh     `json:"token_refresh"`
	FailedAccounts  []AccountFailure `json:"failed_accounts,omitempty"`
	RetriableGaps   []string         `json:"retriable_gaps,omitempty"`
	Load            *LoadReport      `json:"load,omitempty"`
	ExportPath      string           `json:"export_path,omitempty"`
	Error           string           `json:"error,omitempty"`
}
