package handler

import (
	"net/http"

	"github.com/vfg2006/ads-warehouse-etl/internal/api/handler/router"
)

func Healthcheck() []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
	}
}

func Sync(services SyncServices) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/sync/run/:mode",
			Method:  http.MethodPost,
			Handler: RunSync(services),
		},
		{
			Path:    "/v1/sync/status",
			Method:  http.MethodGet,
			Handler: GetSyncStatus(services),
		},
		{
			Path:    "/v1/sync/report",
			Method:  http.MethodGet,
			Handler: GetSyncReport(services),
		},
	}
}
