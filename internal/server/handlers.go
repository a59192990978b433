package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gruposillas/lol-activity/pkg/client"
	"github.com/gruposillas/lol-activity/pkg/metrics"
	"github.com/gruposillas/lol-activity/pkg/report"
)

const (
	modeNormal = "normal"
	modeRanked = "ranked"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "OK")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.config.Ready == nil {
		writeText(w, http.StatusOK, "OK")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.config.Ready.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed")
		writeText(w, http.StatusServiceUnavailable, "redis unavailable")
		return
	}
	writeText(w, http.StatusOK, "OK")
}

// handlePlayed serves GET /played/{player}?days=N&mode=ranked.
func (s *Server) handlePlayed(w http.ResponseWriter, r *http.Request) {
	player, err := url.PathUnescape(chi.URLParam(r, "player"))
	if err != nil || player == "" {
		writeText(w, http.StatusBadRequest, "invalid player name")
		return
	}

	days := s.config.DefaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 0 {
			writeText(w, http.StatusBadRequest, "days must be a non-negative number")
			return
		}
	}

	mode := modeNormal
	switch m := r.URL.Query().Get("mode"); m {
	case "", modeNormal:
	case modeRanked:
		mode = modeRanked
	default:
		writeText(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", m))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.LookupTimeout)
	defer cancel()

	start := time.Now()
	activity, err := s.activities.Activity(ctx, player, days, mode == modeRanked)
	metrics.ActivityLookupDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		status, outcome := lookupStatus(err)
		metrics.ActivityLookups.WithLabelValues(mode, outcome).Inc()

		s.logger.Warn().
			Err(err).
			Str("request_id", RequestIDFrom(r.Context())).
			Str("player", player).
			Str("mode", mode).
			Int("status", status).
			Msg("Activity lookup failed")

		writeText(w, status, report.ErrorMessage(err, player))
		return
	}

	metrics.ActivityLookups.WithLabelValues(mode, "ok").Inc()
	writeText(w, http.StatusOK, report.Render(activity, s.config.Platform))
}

// lookupStatus maps a lookup failure to a response status and metric outcome.
func lookupStatus(err error) (int, string) {
	switch {
	case client.IsThrottled(err):
		return http.StatusTooManyRequests, "throttled"
	case client.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
