package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/auth"
	"github.com/introloop/referral-engine/pkg/models"
	"github.com/introloop/referral-engine/pkg/services"
)

// SubmitRecommendationsBody is a connector's submission payload.
type SubmitRecommendationsBody struct {
	CandidateIDs       []uuid.UUID `json:"candidate_ids"`
	ExternalProfileURL string      `json:"external_profile_url,omitempty"`
	LetterSubject      string      `json:"letter_subject,omitempty"`
	LetterBody         string      `json:"letter_body,omitempty"`
}

// SubmitRecommendationsResponse returns what was created and where the job
// landed afterwards.
type SubmitRecommendationsResponse struct {
	Recommendations []*models.Recommendation `json:"recommendations"`
	JobStatus       models.JobStatus         `json:"job_status"`
}

// UpdateRecommendationStatusRequest is the staff status-change payload.
type UpdateRecommendationStatusRequest struct {
	Status models.RecommendationStatus `json:"status"`
}

// UpdateRecommendationStatusResponse reports the recomputed job status.
type UpdateRecommendationStatusResponse struct {
	Status    models.RecommendationStatus `json:"status"`
	JobStatus models.JobStatus            `json:"job_status"`
}

// RecommendationsHandler handles recommendation HTTP requests. Submission is
// authenticated by the link token in the path, not by a staff JWT.
type RecommendationsHandler struct {
	recommendationService services.RecommendationService
	linkService           services.LinkService
	logger                *zap.Logger
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(
	recommendationService services.RecommendationService,
	linkService services.LinkService,
	logger *zap.Logger,
) *RecommendationsHandler {
	return &RecommendationsHandler{
		recommendationService: recommendationService,
		linkService:           linkService,
		logger:                logger,
	}
}

// RegisterRoutes registers the recommendations handler's routes on the given mux.
func (h *RecommendationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/links/{token}/recommendations", h.Submit)
	mux.HandleFunc("PATCH /api/recommendations/{id}", authMiddleware.RequireStaff(h.UpdateStatus))
}

// Submit handles POST /api/links/{token}/recommendations.
func (h *RecommendationsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	linkToken := r.PathValue("token")

	claims, err := h.linkService.Verify(r.Context(), linkToken)
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_link", invalidLinkMessage); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var body SubmitRecommendationsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	created, jobStatus, err := h.recommendationService.Submit(r.Context(), claims, linkToken, &services.SubmitRecommendationsRequest{
		CandidateIDs:       body.CandidateIDs,
		ExternalProfileURL: body.ExternalProfileURL,
		LetterSubject:      body.LetterSubject,
		LetterBody:         body.LetterBody,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptySubmission) {
			if err := ErrorResponse(w, http.StatusBadRequest, "empty_submission", apperrors.ErrEmptySubmission.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to submit recommendations",
			zap.String("job_id", claims.JobID.String()),
			zap.String("connector_id", claims.ConnectorID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to submit recommendations"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, SubmitRecommendationsResponse{
		Recommendations: created,
		JobStatus:       jobStatus,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateStatus handles PATCH /api/recommendations/{id}.
func (h *RecommendationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid recommendation ID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req UpdateRecommendationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	jobStatus, err := h.recommendationService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidStatus):
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_status", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Recommendation not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to update recommendation status",
				zap.String("recommendation_id", id.String()),
				zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to update recommendation"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, UpdateRecommendationStatusResponse{
		Status:    req.Status,
		JobStatus: jobStatus,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
