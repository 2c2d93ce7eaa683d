package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/zonewatch/internal/logger"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload asks the topology reloader for an immediate run
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := []logger.Field{
			logger.String("remote_ip", r.RemoteAddr),
			logger.String("request_id", middleware.GetReqID(r.Context())),
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual topology reload triggered via endpoint", fields...)
			writeJSON(w, http.StatusAccepted, reloadResponse{Triggered: true, Message: "reload triggered"})
		default:
			d.Logger.Warn("topology reload already in progress", fields...)
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{Message: "reload already in progress, please wait"})
		}
	}
}
