package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/domain/repository"
	"github.com/vidlink/vidlink/internal/usecase"
)

// Request/Response types

type CreateLinkRequest struct {
	Ref string `json:"ref"`
}

type LinkResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	EmbedURL    string `json:"embed_url"`
	PlayURL     string `json:"play_url"`
	CreatedAt   string `json:"created_at"`
}

// LinkHandler handles link management HTTP requests.
type LinkHandler struct {
	svc           usecase.LinkService
	publicBaseURL string
}

// NewLinkHandler creates a new LinkHandler. publicBaseURL is the external
// base used to build embed and playback URLs.
func NewLinkHandler(svc usecase.LinkService, publicBaseURL string) *LinkHandler {
	return &LinkHandler{
		svc:           svc,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Create handles POST /v1/links
func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Ref) == "" {
		Error(w, http.StatusBadRequest, "invalid_ref", "Content reference is required")
		return
	}

	link, err := h.svc.CreateLink(r.Context(), req.Ref)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, h.toLinkResponse(link))
}

// Get handles GET /v1/links/{id}
func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.GetLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, h.toLinkResponse(link))
}

func (h *LinkHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrBadReference):
		Error(w, http.StatusBadRequest, "invalid_ref", "Content reference is not a recognized ID or share URL")
	case errors.Is(err, repository.ErrLinkNotFound):
		Error(w, http.StatusNotFound, "link_not_found", "Link not found or expired")
	case errors.Is(err, repository.ErrContentNotFound):
		Error(w, http.StatusNotFound, "content_not_found", "Origin has no content for this reference")
	case errors.Is(err, repository.ErrOriginUnavailable):
		Error(w, http.StatusBadGateway, "origin_unavailable", "Origin did not answer")
	case errors.Is(err, model.ErrInvalidOriginURL),
		errors.Is(err, model.ErrEmptyDisplayName),
		errors.Is(err, model.ErrDisplayNameTooLong),
		errors.Is(err, model.ErrInvalidDimensions):
		Error(w, http.StatusBadGateway, "bad_origin_metadata", "Origin returned unusable video metadata")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func (h *LinkHandler) toLinkResponse(l *model.Link) LinkResponse {
	return LinkResponse{
		ID:          l.ID,
		DisplayName: l.DisplayName,
		Width:       l.Width,
		Height:      l.Height,
		EmbedURL:    fmt.Sprintf("%s/v/%s", h.publicBaseURL, l.ID),
		PlayURL:     fmt.Sprintf("%s/play/%s/%s", h.publicBaseURL, l.ID, playbackFileName(l.DisplayName)),
		CreatedAt:   l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
