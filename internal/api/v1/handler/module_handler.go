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

// ModuleHandler handles module-related endpoints
type ModuleHandler struct {
	moduleService service.ModuleService
	lessonService service.LessonService
	validate      *validator.Validate
}

// NewModuleHandler creates a new ModuleHandler
func NewModuleHandler(moduleService service.ModuleService, lessonService service.LessonService, validate *validator.Validate) *ModuleHandler {
	return &ModuleHandler{
		moduleService: moduleService,
		lessonService: lessonService,
		validate:      validate,
	}
}

// RegisterRoutes mounts module routes
func (h *ModuleHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/modules", authMw(http.HandlerFunc(h.handleCollection)))
	mux.Handle("/modules/", authMw(http.HandlerFunc(h.handleModule)))
}

func (h *ModuleHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.createModule(w, r)
}

func (h *ModuleHandler) handleModule(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/modules/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		moduleID := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.getModule(w, r, moduleID)
		case http.MethodPut:
			h.updateModule(w, r, moduleID)
		case http.MethodDelete:
			h.deleteModule(w, r, moduleID)
		default:
			http.NotFound(w, r)
		}
	case len(parts) == 2 && parts[1] == "publish" && r.Method == http.MethodPost:
		h.publishModule(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "archive" && r.Method == http.MethodPost:
		h.archiveModule(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "lessons" && r.Method == http.MethodGet:
		h.listLessons(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// createModule godoc
// @Summary Create a module
// @Description Creates a draft module within a course.
// @Tags modules
// @Accept json
// @Produce json
// @Param module body dto.ModuleCreateDTO true "Module creation request"
// @Success 201 {object} dto.ModuleResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 404 {string} string "Course not found"
// @Router /modules [post]
func (h *ModuleHandler) createModule(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	var req dto.ModuleCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	module := &model.Module{
		TenantID: tenant.ID,
		CourseID: req.CourseID,
		Title:    req.Title,
	}
	if req.Description != nil {
		module.Description = *req.Description
	}
	if req.Position != nil {
		module.Position = *req.Position
	}
	created, err := h.moduleService.CreateModule(r.Context(), module)
	if err != nil {
		writeServiceError(w, err, "Failed to create module")
		return
	}
	writeJSON(w, http.StatusCreated, moduleResponse(created))
}

// getModule godoc
// @Summary Get a module
// @Tags modules
// @Produce json
// @Param moduleId path string true "Module ID"
// @Success 200 {object} dto.ModuleResponseDTO
// @Failure 404 {string} string "Module not found"
// @Router /modules/{moduleId} [get]
func (h *ModuleHandler) getModule(w http.ResponseWriter, r *http.Request, moduleID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	module, err := h.moduleService.GetModuleByID(r.Context(), tenant.ID, moduleID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve module")
		return
	}
	writeJSON(w, http.StatusOK, moduleResponse(module))
}

// updateModule godoc
// @Summary Update a module
// @Tags modules
// @Accept json
// @Produce json
// @Param moduleId path string true "Module ID"
// @Param module body dto.ModuleUpdateDTO true "Module update request"
// @Success 200 {object} dto.ModuleResponseDTO
// @Failure 404 {string} string "Module not found"
// @Router /modules/{moduleId} [put]
func (h *ModuleHandler) updateModule(w http.ResponseWriter, r *http.Request, moduleID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	var req dto.ModuleUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	module, err := h.moduleService.GetModuleByID(r.Context(), tenant.ID, moduleID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve module")
		return
	}
	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Description != nil {
		module.Description = *req.Description
	}
	if req.Position != nil {
		module.Position = *req.Position
	}
	updated, err := h.moduleService.UpdateModule(r.Context(), module)
	if err != nil {
		writeServiceError(w, err, "Failed to update module")
		return
	}
	writeJSON(w, http.StatusOK, moduleResponse(updated))
}

// publishModule godoc
// @Summary Publish a module
// @Tags modules
// @Produce json
// @Param moduleId path string true "Module ID"
// @Success 200 {object} dto.ModuleResponseDTO
// @Failure 409 {string} string "Module cannot be published"
// @Router /modules/{moduleId}/publish [post]
func (h *ModuleHandler) publishModule(w http.ResponseWriter, r *http.Request, moduleID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	module, err := h.moduleService.PublishModule(r.Context(), tenant.ID, moduleID)
	if err != nil {
		writeServiceError(w, err, "Failed to publish module")
		return
	}
	writeJSON(w, http.StatusOK, moduleResponse(module))
}

// archiveModule godoc
// @Summary Archive a module
// @Description Archives a module. Archiving is terminal.
// @Tags modules
// @Produce json
// @Param moduleId path string true "Module ID"
// @Success 200 {object} dto.ModuleResponseDTO
// @Failure 404 {string} string "Module not found"
// @Router /modules/{moduleId}/archive [post]
func (h *ModuleHandler) archiveModule(w http.ResponseWriter, r *http.Request, moduleID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	module, err := h.moduleService.ArchiveModule(r.Context(), tenant.ID, moduleID)
	if err != nil {
		writeServiceError(w, err, "Failed to archive module")
		return
	}
	writeJSON(w, http.StatusOK, moduleResponse(module))
}

// deleteModule godoc
// @Summary Delete a module
// @Description Deletes a draft module.
// @Tags modules
// @Param moduleId path string true "Module ID"
// @Success 204
// @Failure 409 {string} string "Only draft modules can be deleted"
// @Router /modules/{moduleId} [delete]
func (h *ModuleHandler) deleteModule(w http.ResponseWriter, r *http.Request, moduleID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	if err := h.moduleService.DeleteModule(r.Context(), tenant.ID, moduleID); err != nil {
		writeServiceError(w, err, "Failed to delete module")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listLessons godoc
// @Summary List lessons of a module
// @Tags modules
// @Produce json
// @Param moduleId path string true "Module ID"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.LessonResponseDTO
// @Router /modules/{moduleId}/lessons [get]
func (h *ModuleHandler) listLessons(w http.ResponseWriter, r *http.Request, moduleID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	limit, offset := parsePagination(r)
	lessons, err := h.lessonService.ListLessonsByModule(r.Context(), tenant.ID, moduleID, limit, offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list lessons")
		return
	}
	resp := make([]dto.LessonResponseDTO, 0, len(lessons))
	for i := range lessons {
		resp = append(resp, lessonResponse(&lessons[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func moduleResponse(m *model.Module) dto.ModuleResponseDTO {
	return dto.ModuleResponseDTO{
		ID:          m.ID,
		CourseID:    m.CourseID,
		Title:       m.Title,
		Description: m.Description,
		Position:    m.Position,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
