package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"lms/internal/api/v1/dto"
	"lms/internal/middleware"
	"lms/internal/model"
	"lms/internal/service"

	"github.com/go-playground/validator/v10"
)

// MediaHandler handles media upload/download endpoints
type MediaHandler struct {
	mediaService service.MediaService
	validate     *validator.Validate
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(mediaService service.MediaService, validate *validator.Validate) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, validate: validate}
}

// RegisterRoutes mounts media routes
func (h *MediaHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/media", authMw(http.HandlerFunc(h.listMedia)))
	mux.Handle("/media/", authMw(http.HandlerFunc(h.handleMedia)))
}

func (h *MediaHandler) handleMedia(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/media/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] == "uploads" && r.Method == http.MethodPost:
		h.initiateUpload(w, r)
	case len(parts) == 1 && parts[0] != "":
		mediaID := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.getMedia(w, r, mediaID)
		case http.MethodDelete:
			h.deleteMedia(w, r, mediaID)
		default:
			http.NotFound(w, r)
		}
	case len(parts) == 2 && parts[1] == "complete" && r.Method == http.MethodPost:
		h.completeUpload(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "download" && r.Method == http.MethodGet:
		h.downloadURL(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// initiateUpload godoc
// @Summary Initiate a media upload
// @Description Validates the declared file against tenant limits and returns a presigned PUT URL.
// @Tags media
// @Accept json
// @Produce json
// @Param upload body dto.MediaUploadDTO true "Upload declaration"
// @Success 201 {object} dto.MediaUploadResponseDTO
// @Failure 400 {string} string "File rejected by tenant upload policy"
// @Router /media/uploads [post]
func (h *MediaHandler) initiateUpload(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.MediaUploadDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	media := &model.Media{
		TenantID:    tenant.ID,
		OwnerID:     userID,
		LessonID:    req.LessonID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	}
	created, uploadURL, err := h.mediaService.InitiateUpload(r.Context(), media)
	if err != nil {
		writeServiceError(w, err, "Failed to initiate upload")
		return
	}
	writeJSON(w, http.StatusCreated, dto.MediaUploadResponseDTO{
		Media:     mediaResponse(created),
		UploadURL: uploadURL,
	})
}

// completeUpload godoc
// @Summary Complete a media upload
// @Description Verifies the object exists in storage and marks the media ready.
// @Tags media
// @Produce json
// @Param mediaId path string true "Media ID"
// @Success 200 {object} dto.MediaResponseDTO
// @Failure 409 {string} string "Object not found in storage"
// @Router /media/{mediaId}/complete [post]
func (h *MediaHandler) completeUpload(w http.ResponseWriter, r *http.Request, mediaID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	media, err := h.mediaService.CompleteUpload(r.Context(), tenant.ID, mediaID, userID)
	if err != nil {
		writeServiceError(w, err, "Failed to complete upload")
		return
	}
	writeJSON(w, http.StatusOK, mediaResponse(media))
}

// getMedia godoc
// @Summary Get media metadata
// @Tags media
// @Produce json
// @Param mediaId path string true "Media ID"
// @Success 200 {object} dto.MediaResponseDTO
// @Failure 404 {string} string "Media not found"
// @Router /media/{mediaId} [get]
func (h *MediaHandler) getMedia(w http.ResponseWriter, r *http.Request, mediaID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	media, err := h.mediaService.GetMediaByID(r.Context(), tenant.ID, mediaID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve media")
		return
	}
	writeJSON(w, http.StatusOK, mediaResponse(media))
}

// listMedia godoc
// @Summary List the caller's media
// @Tags media
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.MediaResponseDTO
// @Router /media [get]
func (h *MediaHandler) listMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	limit, offset := parsePagination(r)
	media, err := h.mediaService.ListMediaByOwner(r.Context(), tenant.ID, userID, limit, offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list media")
		return
	}
	resp := make([]dto.MediaResponseDTO, 0, len(media))
	for i := range media {
		resp = append(resp, mediaResponse(&media[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// downloadURL godoc
// @Summary Get a presigned download URL
// @Description Only ready media can be downloaded.
// @Tags media
// @Produce json
// @Param mediaId path string true "Media ID"
// @Success 200 {object} dto.MediaDownloadResponseDTO
// @Failure 409 {string} string "Media is not ready"
// @Router /media/{mediaId}/download [get]
func (h *MediaHandler) downloadURL(w http.ResponseWriter, r *http.Request, mediaID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	url, err := h.mediaService.DownloadURL(r.Context(), tenant.ID, mediaID)
	if err != nil {
		writeServiceError(w, err, "Failed to create download URL")
		return
	}
	writeJSON(w, http.StatusOK, dto.MediaDownloadResponseDTO{DownloadURL: url})
}

// deleteMedia godoc
// @Summary Delete media
// @Description Removes the object from storage and deletes the record. Owner only.
// @Tags media
// @Param mediaId path string true "Media ID"
// @Success 204
// @Failure 403 {string} string "Media belongs to another user"
// @Router /media/{mediaId} [delete]
func (h *MediaHandler) deleteMedia(w http.ResponseWriter, r *http.Request, mediaID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	if err := h.mediaService.DeleteMedia(r.Context(), tenant.ID, mediaID, userID); err != nil {
		writeServiceError(w, err, "Failed to delete media")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mediaResponse(m *model.Media) dto.MediaResponseDTO {
	return dto.MediaResponseDTO{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		LessonID:    m.LessonID,
		Filename:    m.Filename,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
