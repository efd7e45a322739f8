package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/auth"
	"github.com/introloop/referral-engine/pkg/models"
	"github.com/introloop/referral-engine/pkg/repositories"
	"github.com/introloop/referral-engine/pkg/services"
)

// CreateJobRequest is the staff payload to open a job on a candidate's behalf.
type CreateJobRequest struct {
	Title       string    `json:"title"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Description string    `json:"description,omitempty"`
}

// JobResponse is a job plus its best-match summary: the highest cached score
// among candidates reachable through any relationship edge, when one exists.
type JobResponse struct {
	*models.Job
	BestMatchScore *float64 `json:"best_match_score,omitempty"`
}

// MatchSummarySource yields the best cached score among a candidate set.
type MatchSummarySource interface {
	BestFor(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (float64, bool, error)
}

// JobsHandler handles job HTTP requests. All routes are staff-only.
type JobsHandler struct {
	jobRepo        repositories.JobRepository
	matches        MatchSummarySource
	edges          services.RelationshipCandidateSource
	scoringService services.ScoringService
	logger         *zap.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(
	jobRepo repositories.JobRepository,
	matches MatchSummarySource,
	edges services.RelationshipCandidateSource,
	scoringService services.ScoringService,
	logger *zap.Logger,
) *JobsHandler {
	return &JobsHandler{
		jobRepo:        jobRepo,
		matches:        matches,
		edges:          edges,
		scoringService: scoringService,
		logger:         logger,
	}
}

// RegisterRoutes registers the jobs handler's routes on the given mux.
func (h *JobsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/jobs", authMiddleware.RequireStaff(h.Create))
	mux.HandleFunc("GET /api/jobs/{id}", authMiddleware.RequireStaff(h.Get))
	mux.HandleFunc("POST /api/jobs/{id}/score", authMiddleware.RequireStaff(h.Score))
	mux.HandleFunc("POST /api/jobs/{jobId}/matches/{candidateId}/validate",
		authMiddleware.RequireStaff(h.ValidateMatch))
}

// Create handles POST /api/jobs.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.Title == "" || req.CandidateID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "title and candidate_id are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	job := &models.Job{
		Title:       req.Title,
		CandidateID: req.CandidateID,
		Description: req.Description,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		h.logger.Error("Failed to create job", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create job"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, job); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/jobs/{id}.
// The response carries the job and, when any reachable candidate has been
// scored, the best match score as a one-number fit summary.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid job ID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	job, err := h.jobRepo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Job not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get job", zap.String("job_id", id.String()), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get job"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	resp := JobResponse{Job: job}
	resp.BestMatchScore = h.bestMatchScore(r.Context(), job.ID)

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// bestMatchScore is advisory display data; failures are logged and the
// summary omitted rather than failing the job read.
func (h *JobsHandler) bestMatchScore(ctx context.Context, jobID uuid.UUID) *float64 {
	known, err := h.edges.AllKnownCandidateIDs(ctx)
	if err != nil {
		h.logger.Warn("Failed to load candidate population for match summary",
			zap.String("job_id", jobID.String()), zap.Error(err))
		return nil
	}
	if len(known) == 0 {
		return nil
	}

	best, ok, err := h.matches.BestFor(ctx, jobID, known)
	if err != nil {
		h.logger.Warn("Failed to compute best match score",
			zap.String("job_id", jobID.String()), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return &best
}

// Score handles POST /api/jobs/{id}/score.
// Runs the batch scoring loop for the job and reports counts.
func (h *JobsHandler) Score(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid job ID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.scoringService.ScoreJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Job not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to score job", zap.String("job_id", id.String()), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to score job"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ValidateMatch handles POST /api/jobs/{jobId}/matches/{candidateId}/validate.
func (h *JobsHandler) ValidateMatch(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("jobId"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid job ID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	candidateID, err := uuid.Parse(r.PathValue("candidateId"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid candidate ID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.scoringService.ValidateMatch(r.Context(), jobID, candidateID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Match not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to validate match",
			zap.String("job_id", jobID.String()),
			zap.String("candidate_id", candidateID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to validate match"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "validated"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
