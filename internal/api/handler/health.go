package handler

import (
	"net/http"

	"github.com/Rrens/nlsql/internal/api/response"
	"github.com/Rrens/nlsql/internal/service"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including database connectivity
func ReadyCheck(exportService *service.ExportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := exportService.Ready(r.Context()); err != nil {
			response.ServiceUnavailable(w, "database not ready")
			return
		}

		response.OK(w, map[string]string{
			"status":   "ready",
			"database": exportService.DatabaseType(),
		})
	}
}
