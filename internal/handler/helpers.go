package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/nicksonlangat/clinicsync-api/internal/clinic"
	"github.com/nicksonlangat/clinicsync-api/internal/order"
	"github.com/nicksonlangat/clinicsync-api/internal/product"
	"github.com/nicksonlangat/clinicsync-api/internal/reservation"
	"github.com/nicksonlangat/clinicsync-api/internal/vendors"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("handler: failed to write JSON response")
	}
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = fmt.Sprintf("failed on the '%s' rule", fieldErr.Tag())
	}
	return details
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrOrderItemNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, product.ErrCategoryNotFound),
		errors.Is(err, vendors.ErrVendorNotFound),
		errors.Is(err, clinic.ErrClinicNotFound),
		errors.Is(err, clinic.ErrPatientNotFound),
		errors.Is(err, clinic.ErrStaffNotFound),
		errors.Is(err, reservation.ErrReservationNotFound),
		errors.Is(err, reservation.ErrBillNotFound):
		return http.StatusNotFound
	case errors.Is(err, product.ErrSKUConflict),
		errors.Is(err, order.ErrOrderNumberConflict),
		errors.Is(err, reservation.ErrNumberConflict):
		return http.StatusConflict
	case errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, reservation.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleValidationError renders validator failures as a structured 400 and
// everything else as a 500.
func handleValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: formatValidationErrors(validationErrors),
		})
		return
	}
	log.Error().Err(err).Type("validation_error_type", err).Msg("handler: unexpected error type during validation")
	respondWithError(w, http.StatusInternalServerError, "Internal validation error")
}
