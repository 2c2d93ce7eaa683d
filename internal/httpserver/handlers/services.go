package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/fault"
	"github.com/MrSnakeDoc/zonewatch/internal/logger"
)

const maxBodyBytes = 1 << 16

type heartbeatRequest struct {
	Host   string `json:"host"`
	Binary string `json:"binary"`
	Topic  string `json:"topic"`
}

type serviceStatusRequest struct {
	Host   string `json:"host"`
	Binary string `json:"binary"`
}

type serviceStatus struct {
	Host   string `json:"host"`
	Binary string `json:"binary"`
	Status string `json:"status"`
}

type serviceView struct {
	ID        string  `json:"id"`
	Binary    string  `json:"binary"`
	Host      string  `json:"host"`
	Zone      string  `json:"zone"`
	Status    string  `json:"status"`
	State     string  `json:"state"`
	UpdatedAt *string `json:"updated_at"`
}

func statusOf(disabled bool) string {
	if disabled {
		return "disabled"
	}
	return "enabled"
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ServiceHeartbeat records a report from a service, registering it on first sight
func ServiceHeartbeat(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req heartbeatRequest
		if err := decodeBody(w, r, &req); err != nil {
			fault.Write(w, http.StatusBadRequest, fault.BadRequest, "invalid heartbeat body")
			return
		}
		if req.Host == "" || req.Binary == "" {
			fault.Write(w, http.StatusBadRequest, fault.BadRequest, "host and binary are required")
			return
		}

		if _, err := d.Store.Heartbeat(r.Context(), req.Host, req.Binary, req.Topic, d.Now()); err != nil {
			d.Logger.Error("failed to record heartbeat",
				logger.String("host", req.Host),
				logger.String("binary", req.Binary),
				logger.Error(err))
			fault.Write(w, http.StatusInternalServerError, fault.Compute, "failed to record heartbeat")
			return
		}

		d.Metrics.RecordHeartbeat()
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServiceEnable clears the disabled flag of a service
func ServiceEnable(d deps.Deps) http.HandlerFunc { return setServiceStatus(d, false) }

// ServiceDisable sets the disabled flag of a service
func ServiceDisable(d deps.Deps) http.HandlerFunc { return setServiceStatus(d, true) }

func setServiceStatus(d deps.Deps, disabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req serviceStatusRequest
		if err := decodeBody(w, r, &req); err != nil {
			fault.Write(w, http.StatusBadRequest, fault.BadRequest, "invalid service body")
			return
		}
		if req.Host == "" || req.Binary == "" {
			fault.Write(w, http.StatusBadRequest, fault.BadRequest, "host and binary are required")
			return
		}

		record, err := d.Store.SetDisabled(r.Context(), req.Host, req.Binary, disabled)
		switch {
		case errors.Is(err, domain.ErrServiceNotFound):
			fault.Write(w, http.StatusNotFound, fault.NotFound, err.Error())
			return
		case err != nil:
			d.Logger.Error("failed to update service status",
				logger.String("host", req.Host),
				logger.String("binary", req.Binary),
				logger.Error(err))
			fault.Write(w, http.StatusInternalServerError, fault.Compute, "failed to update service")
			return
		}

		d.Logger.Info("service status changed",
			logger.String("host", record.Host),
			logger.String("binary", record.Binary),
			logger.String("status", statusOf(record.Disabled)))

		writeJSON(w, http.StatusOK, map[string]serviceStatus{
			"service": {Host: record.Host, Binary: record.Binary, Status: statusOf(record.Disabled)},
		})
	}
}

// ListServices lists registered services with their zone and liveness.
// The host and binary query parameters filter the result.
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Resolver.Services(r.Context())
		if err != nil {
			d.Logger.Error("failed to list services", logger.Error(err))
			fault.Write(w, http.StatusInternalServerError, fault.Compute, "failed to list services")
			return
		}

		host := r.URL.Query().Get("host")
		binary := r.URL.Query().Get("binary")

		views := make([]serviceView, 0, len(records))
		for _, svc := range d.Liveness.Annotate(records) {
			rec := svc.Record
			if (host != "" && rec.Host != host) || (binary != "" && rec.Binary != binary) {
				continue
			}
			state := "down"
			if svc.Alive {
				state = "up"
			}
			var updated *string
			if ts := rec.LastSeen(); !ts.IsZero() {
				s := domain.FormatTimestamp(ts)
				updated = &s
			}
			views = append(views, serviceView{
				ID:        rec.ID,
				Binary:    rec.Binary,
				Host:      rec.Host,
				Zone:      rec.ZoneLabel,
				Status:    statusOf(rec.Disabled),
				State:     state,
				UpdatedAt: updated,
			})
		}

		writeJSON(w, http.StatusOK, map[string][]serviceView{"services": views})
	}
}
