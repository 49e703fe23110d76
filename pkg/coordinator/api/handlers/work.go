package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/luchenqun/lucky-dog/internal/logger"
	"github.com/luchenqun/lucky-dog/pkg/coordinator"
	"github.com/luchenqun/lucky-dog/pkg/metrics"
	"github.com/luchenqun/lucky-dog/pkg/models"
	"github.com/luchenqun/lucky-dog/pkg/stats"
	"github.com/luchenqun/lucky-dog/pkg/store"
	"github.com/luchenqun/lucky-dog/pkg/wallet"
)

// WorkHandler serves the lease/report cycle and the operator endpoints.
type WorkHandler struct {
	coord   *coordinator.Coordinator
	sweeper *coordinator.Sweeper
}

// NewWorkHandler creates a work handler.
func NewWorkHandler(coord *coordinator.Coordinator, sweeper *coordinator.Sweeper) *WorkHandler {
	return &WorkHandler{coord: coord, sweeper: sweeper}
}

// WorkRequest is the body of POST /work/request.
type WorkRequest struct {
	CPUCount int    `json:"cpuCount"`
	ClientID string `json:"clientId"`
}

// WorkResponse is the response of POST /work/request.
type WorkResponse struct {
	Success       bool               `json:"success"`
	Passwords     []string           `json:"passwords"`
	Encrypt       *wallet.Descriptor `json:"encrypt,omitempty"`
	BatchID       string             `json:"batchId,omitempty"`
	Count         int                `json:"count"`
	PasswordFound bool               `json:"passwordFound,omitempty"`
}

// ResultRequest is the body of POST /work/result.
type ResultRequest struct {
	BatchID       string   `json:"batchId"`
	ClientID      string   `json:"clientId"`
	Success       bool     `json:"success"`
	FoundPassword string   `json:"foundPassword,omitempty"`
	Passwords     []string `json:"passwords"`
}

// ResultResponse is the response of POST /work/result.
type ResultResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ShouldStop    bool   `json:"shouldStop,omitempty"`
	PasswordFound bool   `json:"passwordFound,omitempty"`
}

// FoundRequest is the body of POST /work/found.
type FoundRequest struct {
	Password string `json:"password"`
	ClientID string `json:"clientId"`
}

// StatsResponse is the response of GET /work/stats.
type StatsResponse struct {
	stats.Snapshot
	PasswordFound     bool     `json:"passwordFound"`
	Database          string   `json:"database"`
	ResetAllowed      bool     `json:"resetAllowed"`
	TokenRequired     bool     `json:"tokenRequired"`
	ActiveClients     int      `json:"activeClients"`
	ActiveClientsList []string `json:"activeClientsList"`
	Uptime            int64    `json:"uptime"`
	UptimeFormatted   string   `json:"uptimeFormatted"`
}

// Stats handles GET /work/stats.
//
// The aggregate counts come from the TTL cache; the liveness list and
// formatted uptime are recomputed on every read because both are cheap
// and time-sensitive.
func (h *WorkHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.coord.Stats.Get(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrStatsUpdating) {
			ServiceUnavailable(w, "updating")
			return
		}
		logger.Error("Failed to compute stats", "error", err)
		InternalServerError(w, "failed to compute stats")
		return
	}

	active := h.coord.Liveness.Active()
	uptime := h.coord.Uptime()

	WriteJSON(w, http.StatusOK, StatsResponse{
		Snapshot:          *snapshot,
		PasswordFound:     h.coord.Latch.IsSet(),
		Database:          h.coord.Store.Name(),
		ResetAllowed:      h.coord.ResetAllowed(),
		TokenRequired:     h.coord.Token != "",
		ActiveClients:     len(active),
		ActiveClientsList: active,
		Uptime:            int64(uptime.Seconds()),
		UptimeFormatted:   stats.FormatUptime(uptime),
	})
}

// Request handles POST /work/request: leases a batch of candidates.
func (h *WorkHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req WorkRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ClientID == "" {
		BadRequest(w, "clientId is required")
		return
	}

	h.coord.Liveness.Touch(req.ClientID)

	// Latch short-circuit: never hand out work once the password is
	// found, and tell the worker to stop.
	if h.coord.Latch.IsSet() {
		WriteJSON(w, http.StatusOK, WorkResponse{
			Success:       false,
			Passwords:     []string{},
			PasswordFound: true,
		})
		return
	}

	batch, err := h.coord.Store.ReserveBatch(r.Context(), store.BatchSize(req.CPUCount))
	if err != nil {
		logger.Error("Failed to reserve batch", "client", req.ClientID, "error", err)
		InternalServerError(w, "failed to reserve batch")
		return
	}

	if len(batch) == 0 {
		// Store exhausted; workers back off and retry.
		WriteJSON(w, http.StatusOK, WorkResponse{Success: false, Passwords: []string{}})
		return
	}

	pwds := make([]string, len(batch))
	for i, c := range batch {
		pwds[i] = c.Pwd
	}

	batchID := fmt.Sprintf("%s-%d", req.ClientID, time.Now().UnixMilli())
	h.coord.Metrics.LeasesTotal.Inc()
	h.coord.Metrics.LeasedPwdTotal.Add(float64(len(pwds)))
	logger.Info("Batch leased", "client", req.ClientID, "batch", batchID, "count", len(pwds))

	WriteJSON(w, http.StatusOK, WorkResponse{
		Success:   true,
		Passwords: pwds,
		Encrypt:   h.coord.Wallet,
		BatchID:   batchID,
		Count:     len(pwds),
	})
}

// Result handles POST /work/result.
//
// A success report sets the durable latch BEFORE the worker is
// acknowledged, so a crash in between still leaves the latch set. A
// failure report marks the carried passphrases CHECKED.
func (h *WorkHandler) Result(w http.ResponseWriter, r *http.Request) {
	var req ResultRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ClientID == "" {
		BadRequest(w, "clientId is required")
		return
	}

	h.coord.Liveness.Touch(req.ClientID)

	if req.Success {
		if err := h.coord.Latch.Set(req.ClientID, req.FoundPassword); err != nil {
			logger.Error("Failed to persist found latch", "client", req.ClientID, "error", err)
			InternalServerError(w, "failed to persist found state")
			return
		}
		h.coord.Metrics.ResultsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		logger.Warn("Password found", "client", req.ClientID, "batch", req.BatchID)

		WriteJSON(w, http.StatusOK, ResultResponse{
			Success:       true,
			Message:       "password recorded",
			ShouldStop:    true,
			PasswordFound: true,
		})
		return
	}

	// The worker's list is trusted as-is: unknown passphrases are
	// no-ops in the store and repeats are absorbed by the status guard.
	updated, err := h.coord.Store.MarkCheckedByPwd(r.Context(), req.Passwords)
	if err != nil {
		logger.Error("Failed to mark batch checked", "batch", req.BatchID, "error", err)
		InternalServerError(w, "failed to mark batch checked")
		return
	}
	h.coord.Metrics.ResultsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
	logger.Debug("Batch checked", "client", req.ClientID, "batch", req.BatchID, "updated", updated)

	WriteJSON(w, http.StatusOK, ResultResponse{
		Success:       true,
		Message:       fmt.Sprintf("%d passwords marked checked", updated),
		ShouldStop:    h.coord.Latch.IsSet(),
		PasswordFound: h.coord.Latch.IsSet(),
	})
}

// Found handles POST /work/found: the explicit, idempotent latch set.
// Every confirmation appends a marker stanza on purpose (audit trail);
// duplicates are not silently deduplicated.
func (h *WorkHandler) Found(w http.ResponseWriter, r *http.Request) {
	var req FoundRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ClientID == "" || req.Password == "" {
		BadRequest(w, "clientId and password are required")
		return
	}

	h.coord.Liveness.Touch(req.ClientID)

	if err := h.coord.Latch.Set(req.ClientID, req.Password); err != nil {
		logger.Error("Failed to persist found latch", "client", req.ClientID, "error", err)
		InternalServerError(w, "failed to persist found state")
		return
	}
	logger.Warn("Password found confirmed", "client", req.ClientID)

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"passwordFound": true,
	})
}

// ResetTimeout handles POST /work/reset-timeout: forces a sweeper pass
// without waiting for the next tick.
func (h *WorkHandler) ResetTimeout(w http.ResponseWriter, r *http.Request) {
	reclaimed, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		logger.Error("Forced sweep failed", "error", err)
		InternalServerError(w, "failed to reclaim stale leases")
		return
	}
	logger.Info("Forced sweep completed", "reclaimed", reclaimed)

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"resetCount": reclaimed,
	})
}

// ResetFound handles POST /work/reset-found: clears the latch and flips
// every row back to UNCHECKED. Policy-gated: permitted only when the
// active store is the designated sample store.
func (h *WorkHandler) ResetFound(w http.ResponseWriter, r *http.Request) {
	if !h.coord.ResetAllowed() {
		Forbidden(w, models.ErrResetNotAllowed.Error())
		return
	}

	if err := h.coord.Latch.Reset(); err != nil {
		logger.Error("Failed to reset found latch", "error", err)
		InternalServerError(w, "failed to reset found state")
		return
	}

	count, err := h.coord.Store.ResetAll(r.Context())
	if err != nil {
		logger.Error("Failed to reset records", "error", err)
		InternalServerError(w, "failed to reset records")
		return
	}
	h.coord.Stats.Invalidate()
	logger.Warn("Sample store reset", "rows", count)

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"resetCount": count,
	})
}
