package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nicksonlangat/clinicsync-api/internal/clinic"
)

type CreateClinicRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Location    string `json:"location"`
	OpeningHour string `json:"opening_hour"`
	ClosingHour string `json:"closing_hour"`
	Email       string `json:"clinic_email" validate:"omitempty,email"`
	PhoneNumber string `json:"clinic_phone_number"`
	CreatedBy   string `json:"created_by" validate:"required,uuid4"`
}

type CreatePatientRequest struct {
	ClinicID    string    `json:"clinic_id" validate:"required,uuid4"`
	FirstName   string    `json:"first_name" validate:"required,min=2"`
	LastName    string    `json:"last_name" validate:"required,min=2"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	Gender      string    `json:"gender" validate:"required,oneof=Male Female"`
	Age         int       `json:"age" validate:"min=0"`
	BloodGroup  string    `json:"blood_group"`
	IsAllergic  bool      `json:"is_allergic"`
	LastVisit   time.Time `json:"last_visit"`
	CreatedBy   string    `json:"created_by" validate:"required,uuid4"`
}

type CreateStaffRequest struct {
	ClinicID    string `json:"clinic_id" validate:"required,uuid4"`
	FirstName   string `json:"first_name" validate:"required,min=2"`
	LastName    string `json:"last_name" validate:"required,min=2"`
	Role        string `json:"role" validate:"required"`
	PhoneNumber string `json:"phone_number"`
	CreatedBy   string `json:"created_by" validate:"required,uuid4"`
}

type ClinicHandler struct {
	service  clinic.Service
	validate *validator.Validate
}

func NewClinicHandler(service clinic.Service) *ClinicHandler {
	return &ClinicHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ClinicHandler) RegisterRoutes(router chi.Router) {
	router.Post("/clinics", h.handleCreateClinic)
	router.Get("/clinics", h.handleListClinics)
	router.Get("/clinics/{id}", h.handleGetClinicByID)

	router.Post("/patients", h.handleCreatePatient)
	router.Get("/patients/{id}", h.handleGetPatientByID)
	router.Get("/clinics/{id}/patients", h.handleListPatients)
	router.Get("/clinics/{id}/patients/stats", h.handlePatientStats)

	router.Post("/staff", h.handleCreateStaff)
	router.Get("/clinics/{id}/staff", h.handleListStaff)
	router.Get("/clinics/{id}/staff/stats", h.handleStaffStats)
}

func (h *ClinicHandler) handleCreateClinic(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateClinicRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode create clinic request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	createdBy, _ := uuid.FromString(requestPayload.CreatedBy)
	domainClinic := clinic.Clinic{
		Name:        requestPayload.Name,
		Location:    requestPayload.Location,
		OpeningHour: requestPayload.OpeningHour,
		ClosingHour: requestPayload.ClosingHour,
		Email:       requestPayload.Email,
		PhoneNumber: requestPayload.PhoneNumber,
		CreatedBy:   createdBy,
	}

	createdClinic, err := h.service.CreateClinic(r.Context(), &domainClinic)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to create clinic via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create clinic")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdClinic)
}

func (h *ClinicHandler) handleListClinics(w http.ResponseWriter, r *http.Request) {
	createdByParam := r.URL.Query().Get("created_by")
	createdBy, err := uuid.FromString(createdByParam)
	if err != nil {
		log.Warn().Err(err).Str("created_by", createdByParam).Msg("handler: failed to parse created_by query parameter")
		respondWithError(w, http.StatusBadRequest, "Invalid created_by parameter")
		return
	}

	clinics, err := h.service.ListClinics(r.Context(), createdBy)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list clinics via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list clinics")
		return
	}

	respondWithJSON(w, http.StatusOK, clinics)
}

func (h *ClinicHandler) handleGetClinicByID(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	foundClinic, err := h.service.GetClinicByID(r.Context(), clinicID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to get clinic via service")

		clientMessage := "Failed to get clinic"
		if errors.Is(err, clinic.ErrClinicNotFound) {
			clientMessage = "Clinic not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, foundClinic)
}

func (h *ClinicHandler) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreatePatientRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode create patient request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	clinicID, _ := uuid.FromString(requestPayload.ClinicID)
	createdBy, _ := uuid.FromString(requestPayload.CreatedBy)
	domainPatient := clinic.Patient{
		ClinicID:    clinicID,
		FirstName:   requestPayload.FirstName,
		LastName:    requestPayload.LastName,
		PhoneNumber: requestPayload.PhoneNumber,
		Address:     requestPayload.Address,
		Gender:      clinic.Gender(requestPayload.Gender),
		Age:         requestPayload.Age,
		BloodGroup:  requestPayload.BloodGroup,
		IsAllergic:  requestPayload.IsAllergic,
		LastVisit:   requestPayload.LastVisit,
		CreatedBy:   createdBy,
	}
	if domainPatient.LastVisit.IsZero() {
		domainPatient.LastVisit = time.Now().UTC()
	}

	createdPatient, err := h.service.CreatePatient(r.Context(), &domainPatient)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to create patient via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create patient")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdPatient)
}

func (h *ClinicHandler) handleGetPatientByID(w http.ResponseWriter, r *http.Request) {
	patientID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	foundPatient, err := h.service.GetPatientByID(r.Context(), patientID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to get patient via service")

		clientMessage := "Failed to get patient"
		if errors.Is(err, clinic.ErrPatientNotFound) {
			clientMessage = "Patient not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, foundPatient)
}

func (h *ClinicHandler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	patients, err := h.service.ListPatients(r.Context(), clinicID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list patients via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list patients")
		return
	}

	respondWithJSON(w, http.StatusOK, patients)
}

func (h *ClinicHandler) handlePatientStats(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	stats, err := h.service.PatientStats(r.Context(), clinicID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to compute patient stats via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to compute patient stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *ClinicHandler) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateStaffRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode create staff request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	clinicID, _ := uuid.FromString(requestPayload.ClinicID)
	createdBy, _ := uuid.FromString(requestPayload.CreatedBy)
	domainStaff := clinic.Staff{
		ClinicID:    clinicID,
		FirstName:   requestPayload.FirstName,
		LastName:    requestPayload.LastName,
		Role:        requestPayload.Role,
		PhoneNumber: requestPayload.PhoneNumber,
		CreatedBy:   createdBy,
	}

	createdStaff, err := h.service.CreateStaff(r.Context(), &domainStaff)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to create staff via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create staff")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdStaff)
}

func (h *ClinicHandler) handleListStaff(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	staffList, err := h.service.ListStaff(r.Context(), clinicID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list staff via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list staff")
		return
	}

	respondWithJSON(w, http.StatusOK, staffList)
}

func (h *ClinicHandler) handleStaffStats(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	stats, err := h.service.StaffStats(r.Context(), clinicID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to compute staff stats via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to compute staff stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
