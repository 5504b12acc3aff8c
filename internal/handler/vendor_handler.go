package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nicksonlangat/clinicsync-api/internal/vendors"
)

type CreateVendorRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
	CreatedBy   string `json:"created_by" validate:"required,uuid4"`
}

type UpdateVendorRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
}

type VendorHandler struct {
	service  vendors.Service
	validate *validator.Validate
}

func NewVendorHandler(service vendors.Service) *VendorHandler {
	return &VendorHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *VendorHandler) RegisterRoutes(router chi.Router) {
	router.Post("/vendors", h.handleCreateVendor)
	router.Get("/vendors", h.handleListVendors)
	router.Get("/vendors/{id}", h.handleGetVendorByID)
	router.Put("/vendors/{id}", h.handleUpdateVendor)
	router.Delete("/vendors/{id}", h.handleDeleteVendor)
}

func (h *VendorHandler) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateVendorRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode create vendor request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	createdBy, _ := uuid.FromString(requestPayload.CreatedBy)
	domainVendor := vendors.Vendor{
		Name:        requestPayload.Name,
		Email:       requestPayload.Email,
		PhoneNumber: requestPayload.PhoneNumber,
		Location:    requestPayload.Location,
		CreatedBy:   createdBy,
	}

	createdVendor, err := h.service.CreateVendor(r.Context(), &domainVendor)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to create vendor via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create vendor")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdVendor)
}

func (h *VendorHandler) handleListVendors(w http.ResponseWriter, r *http.Request) {
	createdByParam := r.URL.Query().Get("created_by")
	createdBy, err := uuid.FromString(createdByParam)
	if err != nil {
		log.Warn().Err(err).Str("created_by", createdByParam).Msg("handler: failed to parse created_by query parameter")
		respondWithError(w, http.StatusBadRequest, "Invalid created_by parameter")
		return
	}

	vendorList, err := h.service.ListVendors(r.Context(), createdBy)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list vendors via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list vendors")
		return
	}

	respondWithJSON(w, http.StatusOK, vendorList)
}

func (h *VendorHandler) handleGetVendorByID(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	foundVendor, err := h.service.GetVendorByID(r.Context(), vendorID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to get vendor via service")

		clientMessage := "Failed to get vendor"
		if errors.Is(err, vendors.ErrVendorNotFound) {
			clientMessage = "Vendor not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, foundVendor)
}

func (h *VendorHandler) handleUpdateVendor(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateVendorRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode update vendor request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	domainVendor := vendors.Vendor{
		ID:          vendorID,
		Name:        requestPayload.Name,
		Email:       requestPayload.Email,
		PhoneNumber: requestPayload.PhoneNumber,
		Location:    requestPayload.Location,
	}

	updatedVendor, err := h.service.UpdateVendor(r.Context(), &domainVendor)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to update vendor via service")

		clientMessage := "Failed to update vendor"
		if errors.Is(err, vendors.ErrVendorNotFound) {
			clientMessage = "Vendor not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedVendor)
}

func (h *VendorHandler) handleDeleteVendor(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteVendor(r.Context(), vendorID); err != nil {
		log.Error().Err(err).Msg("handler: failed to delete vendor via service")

		clientMessage := "Failed to delete vendor"
		if errors.Is(err, vendors.ErrVendorNotFound) {
			clientMessage = "Vendor not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
