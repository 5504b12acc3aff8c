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

	"github.com/nicksonlangat/clinicsync-api/internal/reservation"
)

type CreateReservationRequest struct {
	PatientID       string    `json:"patient_id" validate:"required,uuid4"`
	DoctorID        string    `json:"doctor_id" validate:"required,uuid4"`
	ReservationDate time.Time `json:"reservation_date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Description     string    `json:"description"`
	Treatment       string    `json:"treatment"`
	CreatedBy       string    `json:"created_by" validate:"required,uuid4"`
}

type UpdateReservationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Complete Cancelled"`
}

type CreateBillRequest struct {
	ReservationID string `json:"reservation_id" validate:"required,uuid4"`
	Description   string `json:"description"`
	CreatedBy     string `json:"created_by" validate:"required,uuid4"`
}

type ReservationHandler struct {
	service  reservation.Service
	validate *validator.Validate
}

func NewReservationHandler(service reservation.Service) *ReservationHandler {
	return &ReservationHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ReservationHandler) RegisterRoutes(router chi.Router) {
	router.Post("/reservations", h.handleCreateReservation)
	router.Get("/reservations", h.handleListReservations)
	router.Get("/reservations/{id}", h.handleGetReservationByID)
	router.Patch("/reservations/{id}/status", h.handleUpdateReservationStatus)
	router.Get("/reservations/{id}/bills", h.handleListBills)

	router.Post("/bills", h.handleCreateBill)
	router.Get("/bills/{id}", h.handleGetBillByID)
	router.Post("/bills/{id}/pay", h.handleMarkBillPaid)
}

func (h *ReservationHandler) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateReservationRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode create reservation request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	patientID, _ := uuid.FromString(requestPayload.PatientID)
	doctorID, _ := uuid.FromString(requestPayload.DoctorID)
	createdBy, _ := uuid.FromString(requestPayload.CreatedBy)

	domainReservation := reservation.Reservation{
		PatientID:       patientID,
		DoctorID:        doctorID,
		ReservationDate: requestPayload.ReservationDate,
		StartTime:       requestPayload.StartTime,
		EndTime:         requestPayload.EndTime,
		Description:     requestPayload.Description,
		Treatment:       requestPayload.Treatment,
		CreatedBy:       createdBy,
	}
	if domainReservation.ReservationDate.IsZero() {
		domainReservation.ReservationDate = time.Now().UTC()
	}

	createdReservation, err := h.service.CreateReservation(r.Context(), &domainReservation)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to create reservation via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create reservation")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdReservation)
}

func (h *ReservationHandler) handleListReservations(w http.ResponseWriter, r *http.Request) {
	createdByParam := r.URL.Query().Get("created_by")
	createdBy, err := uuid.FromString(createdByParam)
	if err != nil {
		log.Warn().Err(err).Str("created_by", createdByParam).Msg("handler: failed to parse created_by query parameter")
		respondWithError(w, http.StatusBadRequest, "Invalid created_by parameter")
		return
	}

	reservations, err := h.service.ListReservations(r.Context(), createdBy)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list reservations via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list reservations")
		return
	}

	respondWithJSON(w, http.StatusOK, reservations)
}

func (h *ReservationHandler) handleGetReservationByID(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	foundReservation, err := h.service.GetReservationByID(r.Context(), reservationID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to get reservation via service")

		clientMessage := "Failed to get reservation"
		if errors.Is(err, reservation.ErrReservationNotFound) {
			clientMessage = "Reservation not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, foundReservation)
}

func (h *ReservationHandler) handleUpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateReservationStatusRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode reservation status request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	updatedReservation, err := h.service.UpdateReservationStatus(r.Context(), reservationID, reservation.Status(requestPayload.Status))
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to update reservation status via service")

		clientMessage := "Failed to update reservation status"
		if errors.Is(err, reservation.ErrReservationNotFound) {
			clientMessage = "Reservation not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedReservation)
}

func (h *ReservationHandler) handleListBills(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	bills, err := h.service.ListBillsByReservation(r.Context(), reservationID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list bills via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list bills")
		return
	}

	respondWithJSON(w, http.StatusOK, bills)
}

func (h *ReservationHandler) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateBillRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode create bill request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	reservationID, _ := uuid.FromString(requestPayload.ReservationID)
	createdBy, _ := uuid.FromString(requestPayload.CreatedBy)
	domainBill := reservation.Bill{
		ReservationID: reservationID,
		Description:   requestPayload.Description,
		CreatedBy:     createdBy,
	}

	createdBill, err := h.service.CreateBill(r.Context(), &domainBill)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to create bill via service")

		clientMessage := "Failed to create bill"
		if errors.Is(err, reservation.ErrReservationNotFound) {
			clientMessage = "Reservation not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, createdBill)
}

func (h *ReservationHandler) handleGetBillByID(w http.ResponseWriter, r *http.Request) {
	billID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	foundBill, err := h.service.GetBillByID(r.Context(), billID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to get bill via service")

		clientMessage := "Failed to get bill"
		if errors.Is(err, reservation.ErrBillNotFound) {
			clientMessage = "Bill not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, foundBill)
}

func (h *ReservationHandler) handleMarkBillPaid(w http.ResponseWriter, r *http.Request) {
	billID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	paidBill, err := h.service.MarkBillPaid(r.Context(), billID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to mark bill paid via service")

		clientMessage := "Failed to mark bill paid"
		if errors.Is(err, reservation.ErrBillNotFound) {
			clientMessage = "Bill not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, paidBill)
}
