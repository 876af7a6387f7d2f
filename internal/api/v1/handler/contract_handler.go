package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"clientzap/internal/api/v1/dto"
	"clientzap/internal/middleware"
	"clientzap/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ContractHandler handles contract generation and listing.
type ContractHandler struct {
	contractSvc service.ContractService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(contractSvc service.ContractService, validate *validator.Validate, logger zerolog.Logger) *ContractHandler {
	return &ContractHandler{contractSvc: contractSvc, validate: validate, logger: logger}
}

// RegisterRoutes mounts contract routes.
func (h *ContractHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/contracts", authMw(http.HandlerFunc(h.handleContracts)))
}

func (h *ContractHandler) handleContracts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.generate(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.NotFound(w, r)
	}
}

// generate godoc
// @Summary Generate a contract PDF and store it
// @Description Renders the agreement as a PDF, stores it and returns a time-limited download URL. Pro plan only.
// @Tags contracts
// @Accept json
// @Produce json
// @Param contract body dto.ContractCreateDTO true "Contract contents"
// @Success 201 {object} dto.ContractResponseDTO
// @Failure 400 {string} string "invalid payload or validation failed"
// @Failure 403 {string} string "saved contracts require the pro plan"
// @Router /contracts [post]
func (h *ContractHandler) generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req dto.ContractCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	contract, url, err := h.contractSvc.GenerateContract(r.Context(), userID, req.Title, req.ClientName, req.Body)
	if errors.Is(err, service.ErrContractsNotAllowed) {
		http.Error(w, "saved contracts require the pro plan", http.StatusForbidden)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate contract")
		http.Error(w, "failed to generate contract", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ContractResponseDTO{
		ContractID:  contract.ContractID,
		Title:       contract.Title,
		ClientName:  contract.ClientName,
		DownloadURL: url,
		CreatedAt:   contract.CreatedAt,
	})
}

// list godoc
// @Summary List the authenticated user's contracts
// @Description Each entry carries a fresh time-limited download URL.
// @Tags contracts
// @Produce json
// @Success 200 {array} dto.ContractResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Router /contracts [get]
func (h *ContractHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	contracts, err := h.contractSvc.ListContracts(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list contracts")
		http.Error(w, "failed to list contracts", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.ContractResponseDTO, 0, len(contracts))
	for i := range contracts {
		c := &contracts[i]
		url, err := h.contractSvc.GetDownloadURL(r.Context(), c.StoragePath)
		if err != nil {
			h.logger.Warn().Err(err).Str("contract_id", c.ContractID).Msg("failed to presign download url")
			url = ""
		}
		resp = append(resp, dto.ContractResponseDTO{
			ContractID:  c.ContractID,
			Title:       c.Title,
			ClientName:  c.ClientName,
			DownloadURL: url,
			CreatedAt:   c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
