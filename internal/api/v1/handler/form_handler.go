package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"clientzap/internal/api/v1/dto"
	"clientzap/internal/middleware"
	"clientzap/internal/model"
	"clientzap/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// FormHandler handles form and submission endpoints.
type FormHandler struct {
	formSvc  service.FormService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(formSvc service.FormService, validate *validator.Validate, logger zerolog.Logger) *FormHandler {
	return &FormHandler{formSvc: formSvc, validate: validate, logger: logger}
}

// RegisterRoutes mounts form routes. The submit route is public: clients
// reach forms through their share code without an account.
func (h *FormHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/forms", authMw(http.HandlerFunc(h.handleForms)))
	mux.Handle("/forms/", authMw(http.HandlerFunc(h.handleForm)))
	mux.Handle("/submit/", http.HandlerFunc(h.submit))
}

func (h *FormHandler) handleForms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createForm(w, r)
	case http.MethodGet:
		h.listForms(w, r)
	default:
		http.NotFound(w, r)
	}
}

// createForm godoc
// @Summary Create a new intake form
// @Description Creates a form with a generated share code, subject to the plan's form limit.
// @Tags forms
// @Accept json
// @Produce json
// @Param form body dto.FormCreateDTO true "Form creation request"
// @Success 201 {object} dto.FormResponseDTO
// @Failure 400 {string} string "invalid payload or validation failed"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "form limit reached"
// @Router /forms [post]
func (h *FormHandler) createForm(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req dto.FormCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	form, err := h.formSvc.CreateForm(r.Context(), userID, req.Name)
	if errors.Is(err, service.ErrFormLimitReached) {
		http.Error(w, "form limit reached for current plan", http.StatusForbidden)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create form")
		http.Error(w, "failed to create form", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, formResponse(form))
}

// listForms godoc
// @Summary List the authenticated user's forms
// @Tags forms
// @Produce json
// @Success 200 {array} dto.FormResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Router /forms [get]
func (h *FormHandler) listForms(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	forms, err := h.formSvc.ListForms(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list forms")
		http.Error(w, "failed to list forms", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.FormResponseDTO, 0, len(forms))
	for i := range forms {
		resp = append(resp, formResponse(&forms[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *FormHandler) handleForm(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/forms/")
	if sub, ok := strings.CutSuffix(rest, "/submissions"); ok {
		h.listSubmissions(w, r, sub)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getForm(w, r, rest)
	case http.MethodDelete:
		h.deleteForm(w, r, rest)
	default:
		http.NotFound(w, r)
	}
}

// getForm godoc
// @Summary Get a form
// @Tags forms
// @Produce json
// @Param formId path string true "Form ID"
// @Success 200 {object} dto.FormResponseDTO
// @Failure 404 {string} string "form not found"
// @Router /forms/{formId} [get]
func (h *FormHandler) getForm(w http.ResponseWriter, r *http.Request, formID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	form, err := h.formSvc.GetForm(r.Context(), formID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch form")
		http.Error(w, "failed to fetch form", http.StatusInternalServerError)
		return
	}
	if form == nil || form.UserID != userID {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, formResponse(form))
}

// deleteForm godoc
// @Summary Delete a form and its submissions
// @Tags forms
// @Param formId path string true "Form ID"
// @Success 200 {object} dto.AckResponseDTO
// @Failure 404 {string} string "form not found"
// @Router /forms/{formId} [delete]
func (h *FormHandler) deleteForm(w http.ResponseWriter, r *http.Request, formID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	err := h.formSvc.DeleteForm(r.Context(), userID, formID)
	if errors.Is(err, service.ErrFormNotFound) {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to delete form")
		http.Error(w, "failed to delete form", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.AckResponseDTO{Success: true})
}

// listSubmissions godoc
// @Summary List submissions collected by a form
// @Tags forms
// @Produce json
// @Param formId path string true "Form ID"
// @Success 200 {array} dto.SubmissionResponseDTO
// @Failure 404 {string} string "form not found"
// @Router /forms/{formId}/submissions [get]
func (h *FormHandler) listSubmissions(w http.ResponseWriter, r *http.Request, formID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	form, err := h.formSvc.GetForm(r.Context(), formID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch form")
		http.Error(w, "failed to fetch form", http.StatusInternalServerError)
		return
	}
	if form == nil || form.UserID != userID {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	submissions, err := h.formSvc.ListSubmissions(r.Context(), formID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list submissions")
		http.Error(w, "failed to list submissions", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.SubmissionResponseDTO, 0, len(submissions))
	for i := range submissions {
		resp = append(resp, submissionResponse(&submissions[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// submit godoc
// @Summary Submit a client response to a shared form
// @Description Public endpoint keyed by the form's share code; enforces the owner's submission cap.
// @Tags forms
// @Accept json
// @Produce json
// @Param shareCode path string true "Form share code"
// @Param submission body dto.SubmissionCreateDTO true "Submission"
// @Success 201 {object} dto.SubmissionResponseDTO
// @Failure 403 {string} string "submission limit reached"
// @Failure 404 {string} string "form not found"
// @Router /submit/{shareCode} [post]
func (h *FormHandler) submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	shareCode := strings.TrimPrefix(r.URL.Path, "/submit/")
	if shareCode == "" || strings.Contains(shareCode, "/") {
		http.NotFound(w, r)
		return
	}
	var req dto.SubmissionCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	sub, err := h.formSvc.SubmitForm(r.Context(), shareCode, &model.FormSubmission{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		Data:        req.Data,
	})
	if errors.Is(err, service.ErrFormNotFound) {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, service.ErrSubmissionLimitReached) {
		http.Error(w, "this form is no longer accepting submissions", http.StatusForbidden)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to record submission")
		http.Error(w, "failed to record submission", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, submissionResponse(sub))
}

func formResponse(f *model.Form) dto.FormResponseDTO {
	return dto.FormResponseDTO{
		FormID:    f.FormID,
		Name:      f.Name,
		ShareCode: f.ShareCode,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func submissionResponse(s *model.FormSubmission) dto.SubmissionResponseDTO {
	return dto.SubmissionResponseDTO{
		SubmissionID: s.SubmissionID,
		FormID:       s.FormID,
		ClientName:   s.ClientName,
		ClientEmail:  s.ClientEmail,
		Data:         s.Data,
		CreatedAt:    s.CreatedAt,
	}
}
