package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quillon/acatflow/internal/audit"
	"github.com/quillon/acatflow/internal/common"
	"github.com/quillon/acatflow/internal/learning"
	"github.com/quillon/acatflow/internal/model"
	"github.com/quillon/acatflow/internal/validation"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "acatflow",
		"version": s.version,
	})
}

func (s *Server) handleFirms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, validation.ContraFirms())
}

// handleValidate runs the rule engine first and only escalates clean records
// to the AI analyzer. On escalation the AI verdict supersedes the rule
// verdict except for warnings, which accumulate.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var rec model.TransferRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ruleVerdict := validation.Evaluate(rec)
	if !ruleVerdict.IsValid || len(ruleVerdict.Suggestions) > 0 || s.analyzer == nil {
		writeJSON(w, http.StatusOK, ruleVerdict)
		return
	}

	aiVerdict := s.analyzer.AnalyzeTransfer(r.Context(), rec)
	common.LogDebug("AI escalation completed", common.Fields{
		"contra_firm": rec.ContraFirm,
		"is_valid":    aiVerdict.IsValid,
		"suggestions": len(aiVerdict.Suggestions),
	})

	merged := model.Verdict{
		IsValid:            aiVerdict.IsValid,
		Suggestions:        aiVerdict.Suggestions,
		Warnings:           append(ruleVerdict.Warnings, aiVerdict.Warnings...),
		SuccessProbability: aiVerdict.SuccessProbability,
		Analysis:           aiVerdict.Analysis,
	}
	writeJSON(w, http.StatusOK, merged)
}

type submitRequest struct {
	Transfer            model.TransferRecord `json:"transfer"`
	AcceptedSuggestions []string             `json:"accepted_suggestions"`
	CustomModifications map[string]any       `json:"custom_modifications"`
	Outcome             string               `json:"outcome"`
}

// handleSubmit simulates downstream submission. There is no real clearing
// connection; the endpoint records the learning signal and echoes what the
// caller accepted.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := req.Transfer.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var outcome learning.Outcome
	switch req.Outcome {
	case "accepted":
		outcome = learning.OutcomeAccepted
	case "rejected":
		outcome = learning.OutcomeRejected
	case "":
		outcome = learning.OutcomeUnknown
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid outcome: %q", req.Outcome))
		return
	}

	verdict := validation.Evaluate(req.Transfer)
	s.learning.RecordValidationOutcome(req.Transfer.ContraFirm, verdict, outcome)
	s.learning.RecordAcceptedFields(req.Transfer.ContraFirm, req.AcceptedSuggestions)

	submissionID := fmt.Sprintf("ACAT_%s_%s", req.Transfer.DeliveringAccount, req.Transfer.ReceivingAccount)
	s.audit.Record("submit", "transfer_submission", submissionID, requestActor(r), map[string]any{
		"contra_firm":          req.Transfer.ContraFirm,
		"accepted_suggestions": req.AcceptedSuggestions,
		"outcome":              req.Outcome,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "success",
		"message":              "Transfer submitted successfully",
		"submission_id":        submissionID,
		"accepted_suggestions": req.AcceptedSuggestions,
		"custom_modifications": req.CustomModifications,
	})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var rec model.TransferRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tracked, err := s.tracking.Create(r.Context(), rec, requestActor(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create record: %v", err))
		return
	}
	writeJSON(w, http.StatusCreated, tracked)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.tracking.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list records: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordId")
	tracked, err := s.tracking.Get(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("record %q not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get record: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, tracked)
}

type statusUpdateRequest struct {
	Status model.Status `json:"status"`
	Reason string       `json:"reason"`
	Actor  string       `json:"actor"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordId")

	var req statusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if !model.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status: %q", req.Status))
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = requestActor(r)
	}

	tracked, err := s.tracking.UpdateStatus(r.Context(), id, req.Status, req.Reason, actor)
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("record %q not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update status: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, tracked)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordId")
	if err := s.tracking.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete record: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.learning.GlobalInsights())
}

func (s *Server) handleFirmProfile(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "firmCode")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"profile":    s.learning.Profile(code),
		"top_issues": s.learning.TopIssues(code, limit),
		"firm_name":  validation.ContraFirmName(code),
	})
}

// handleAuditEntries lists audit entries, newest last. Query params:
// action, entity_type, entity_id, limit.
func (s *Server) handleAuditEntries(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			filter.Limit = v
		}
	}

	entries := s.audit.Entries(filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
