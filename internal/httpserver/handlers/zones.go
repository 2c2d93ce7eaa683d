package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/fault"
	"github.com/MrSnakeDoc/zonewatch/internal/logger"
	"github.com/MrSnakeDoc/zonewatch/internal/metrics"
	"github.com/MrSnakeDoc/zonewatch/internal/presenter"
)

// Response formats, also used as metric labels
const (
	formatJSON = "json"
	formatXML  = "xml"
	formatText = "text"
)

// ZoneSummary serves the zone index: names and availability only
func ZoneSummary(d deps.Deps) http.HandlerFunc {
	return zoneView(d, metrics.ViewSummary, func(_ context.Context, observed []domain.ObservedService) ([]domain.Zone, error) {
		return d.Aggregator.Summary(observed)
	})
}

// ZoneDetail serves the zone -> host -> service tree
func ZoneDetail(d deps.Deps) http.HandlerFunc {
	return zoneView(d, metrics.ViewDetail, func(ctx context.Context, observed []domain.ObservedService) ([]domain.Zone, error) {
		return d.Aggregator.Detail(ctx, observed, d.Resolver)
	})
}

type buildFunc func(ctx context.Context, observed []domain.ObservedService) ([]domain.Zone, error)

func zoneView(d deps.Deps, view string, build buildFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		format := negotiate(r)

		zones, body, err := buildView(r.Context(), d, format, build)
		if err != nil {
			d.Metrics.RecordAggregationError(view, err)
			d.Logger.Error("failed to build zone view",
				logger.String("view", view),
				logger.String("project_id", chi.URLParam(r, "projectID")),
				logger.Error(err))
			fault.Write(w, http.StatusInternalServerError, fault.Compute,
				"The server has either erred or is incapable of performing the requested operation.")
			return
		}

		w.Header().Set("Content-Type", contentType(format))
		w.WriteHeader(http.StatusOK)
		if _, err := body.WriteTo(w); err != nil {
			d.Logger.Warn("failed to write zone view",
				logger.String("view", view),
				logger.Error(err))
			return
		}

		d.Metrics.RecordZones(view, zones)
		d.Metrics.RecordRequest(view, format, time.Since(start))
	}
}

// buildView aggregates and encodes the view fully before anything is written
func buildView(ctx context.Context, d deps.Deps, format string, build buildFunc) ([]domain.Zone, *bytes.Buffer, error) {
	observed, err := observeServices(ctx, d)
	if err != nil {
		return nil, nil, err
	}

	zones, err := build(ctx, observed)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := encode(&buf, format, zones); err != nil {
		return nil, nil, err
	}
	return zones, &buf, nil
}

// observeServices reads the registry and annotates every record with liveness
func observeServices(ctx context.Context, d deps.Deps) ([]domain.ObservedService, error) {
	records, err := d.Resolver.Services(ctx)
	if err != nil {
		return nil, err
	}
	return d.Liveness.Annotate(records), nil
}

func negotiate(r *http.Request) string {
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "application/xml"):
		return formatXML
	case strings.Contains(accept, "text/plain"):
		return formatText
	default:
		return formatJSON
	}
}

func encode(w io.Writer, format string, zones []domain.Zone) error {
	switch format {
	case formatXML:
		return presenter.EncodeXML(w, zones)
	case formatText:
		return presenter.RenderTree(w, zones)
	default:
		return presenter.EncodeJSON(w, zones)
	}
}

func contentType(format string) string {
	switch format {
	case formatXML:
		return "application/xml"
	case formatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

type hostZoneResponse struct {
	Host             string `json:"host"`
	AvailabilityZone string `json:"availability_zone"`
}

// HostZone reports the zone a compute host resolves to
func HostZone(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := chi.URLParam(r, "host")
		if host == "" {
			fault.Write(w, http.StatusBadRequest, fault.BadRequest, "host is required")
			return
		}

		zone, err := d.Resolver.HostZone(r.Context(), host)
		if err != nil {
			d.Logger.Error("failed to resolve host zone", logger.String("host", host), logger.Error(err))
			fault.Write(w, http.StatusInternalServerError, fault.Compute, "failed to resolve host zone")
			return
		}

		writeJSON(w, http.StatusOK, hostZoneResponse{Host: host, AvailabilityZone: zone})
	}
}
