package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/trajectory/internal/tle"
	"github.com/star/trajectory/internal/trajectory"
	"github.com/star/trajectory/internal/units"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps an error class to an HTTP status and a client-safe message.
// Propagation failures and invariant violations do not leak internals.
// A request abandoned by its client maps to 503 and is not an error.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, trajectory.ErrInvalidInput),
		errors.Is(err, units.ErrUnspecifiedUnit),
		errors.Is(err, units.ErrUnknownUnit):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, tle.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, tle.ErrUnavailable):
		return http.StatusBadGateway, "TLE source unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	case errors.Is(err, trajectory.ErrPropagation):
		return http.StatusInternalServerError, "propagation failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeServiceError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error("request failed", "component", "api", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, msg)
}

func positionHandler(logger *slog.Logger, svc *trajectory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		t, err := parseTime(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		id, err := parseIdentifier(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		u, err := parseUnits(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		sel := trajectory.PositionSelectionFromMask(parseFields(q))
		if err := CheckPositionUnits(sel, u); err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		pos, md, err := svc.Position(r.Context(), id, t, sel)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		resp, err := NewPositionResponse(pos, md, u)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func lookAnglesHandler(logger *slog.Logger, svc *trajectory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		t, err := parseTime(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		id, err := parseIdentifier(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		observer, err := parseObserver(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		u, err := parseUnits(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		sel := trajectory.LookAngleSelectionFromMask(parseFields(q))
		if err := CheckLookAngleUnits(sel, u); err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		la, md, err := svc.LookAngles(r.Context(), id, t, observer, sel)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		resp, err := NewLookAnglesResponse(la, md, u)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func passesHandler(logger *slog.Logger, svc *trajectory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		id, err := parseIdentifier(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		req, err := parsePassRequest(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		u, err := parseUnits(q)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		if err := CheckPassUnits(u); err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		ps, md, err := svc.Passes(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		resp, err := NewPassesResponse(ps, md, u)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type epochRange struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

type tleMetadataResponse struct {
	Source         string     `json:"source"`
	FetchedAt      time.Time  `json:"fetched_at"`
	AgeSeconds     float64    `json:"age_seconds"`
	SatelliteCount int        `json:"satellite_count"`
	EpochRange     epochRange `json:"epoch_range"`
}

func tleMetadataHandler(store *tle.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := store.Get()
		if ds == nil {
			writeError(w, http.StatusServiceUnavailable, "no TLE dataset loaded")
			return
		}
		writeJSON(w, http.StatusOK, tleMetadataResponse{
			Source:         ds.Source,
			FetchedAt:      ds.FetchedAt,
			AgeSeconds:     store.AgeSeconds(),
			SatelliteCount: ds.Len(),
			EpochRange:     epochRange{Min: ds.EpochRange.Min, Max: ds.EpochRange.Max},
		})
	}
}

type tleRecordResponse struct {
	NORADID int       `json:"norad_id"`
	Name    string    `json:"name"`
	Epoch   time.Time `json:"epoch"`
	Line1   string    `json:"line1"`
	Line2   string    `json:"line2"`
}

func tleRecordHandler(logger *slog.Logger, source tle.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.PathValue("norad_id")
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "norad_id must be a positive integer")
			return
		}

		rec, err := source.Lookup(r.Context(), tle.ByNORAD(id))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tleRecordResponse{
			NORADID: rec.NORADID,
			Name:    rec.Name,
			Epoch:   rec.Epoch,
			Line1:   rec.Line1,
			Line2:   rec.Line2,
		})
	}
}
