package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/auth"
	"github.com/introloop/referral-engine/pkg/services"
	"github.com/introloop/referral-engine/pkg/token"
)

// invalidLinkMessage is the single message every link failure collapses into.
// Malformed, forged and expired tokens must be indistinguishable to callers.
const invalidLinkMessage = "invalid or expired link"

// IssueLinkRequest is the staff request to mint a recommendation link.
type IssueLinkRequest struct {
	ConnectorID uuid.UUID `json:"connector_id"`
	JobID       uuid.UUID `json:"job_id"`
}

// IssueLinkResponse carries the minted token and its expiry.
type IssueLinkResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LinksHandler handles recommendation-link HTTP requests.
type LinksHandler struct {
	linkService services.LinkService
	logger      *zap.Logger
}

// NewLinksHandler creates a new links handler.
func NewLinksHandler(linkService services.LinkService, logger *zap.Logger) *LinksHandler {
	return &LinksHandler{
		linkService: linkService,
		logger:      logger,
	}
}

// RegisterRoutes registers the links handler's routes on the given mux.
// Issuing is staff-only; resolving is public, gated by the token itself.
func (h *LinksHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/links", authMiddleware.RequireStaff(h.Issue))
	mux.HandleFunc("GET /api/links/{token}", h.Resolve)
}

// Issue handles POST /api/links.
// Mints a link scoping one connector to one job.
func (h *LinksHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.ConnectorID == uuid.Nil || req.JobID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "connector_id and job_id are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	tok, expiresAt, err := h.linkService.Issue(r.Context(), req.ConnectorID, req.JobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Connector or job not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to issue link",
			zap.String("connector_id", req.ConnectorID.String()),
			zap.String("job_id", req.JobID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to issue link"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, IssueLinkResponse{Token: tok, ExpiresAt: expiresAt}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Resolve handles GET /api/links/{token}.
// Returns the job, connector and candidate list behind a valid link. Every
// failure mode returns the same generic 401.
func (h *LinksHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	tok := r.PathValue("token")

	resolved, err := h.linkService.Resolve(r.Context(), tok)
	if err != nil {
		if errors.Is(err, token.ErrInvalid) || errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_link", invalidLinkMessage); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to resolve link", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to resolve link"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, resolved); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
