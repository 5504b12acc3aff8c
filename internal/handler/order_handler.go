package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/nicksonlangat/clinicsync-api/internal/order"
)

type CreateOrderItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid4"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	VendorID  string                   `json:"vendor_id" validate:"required,uuid4"`
	Notes     string                   `json:"notes"`
	CreatedBy string                   `json:"created_by" validate:"required,uuid4"`
	Items     []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderItemRequest struct {
	ID        string          `json:"id" validate:"omitempty,uuid4"`
	ProductID string          `json:"product_id" validate:"omitempty,uuid4"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	IsNew     bool            `json:"is_new"`
}

// UpdateOrderRequest is a partial update: an omitted vendor_id keeps the
// stored vendor and omitted notes keep the stored notes.
type UpdateOrderRequest struct {
	VendorID string                   `json:"vendor_id" validate:"omitempty,uuid4"`
	Notes    *string                  `json:"notes"`
	Items    []UpdateOrderItemRequest `json:"items" validate:"dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Complete Cancelled"`
}

type UpdateItemStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Received"`
}

// UpdateItemQuantityRequest deliberately allows zero: a quantity of zero
// (or below) removes the item from its order.
type UpdateItemQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{id}", h.handleGetOrderByID)
	router.Put("/orders/{id}", h.handleUpdateOrder)
	router.Patch("/orders/{id}/status", h.handleUpdateOrderStatus)
	router.Delete("/orders/{id}", h.handleDeleteOrder)
	router.Post("/orders/{id}/send-email", h.handleSendEmail)

	router.Post("/orders/{id}/items", h.handleAddItem)
	router.Patch("/order-items/{id}/quantity", h.handleUpdateItemQuantity)
	router.Patch("/order-items/{id}/status", h.handleUpdateItemStatus)
	router.Delete("/order-items/{id}", h.handleDeleteItem)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode create order request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	vendorID, _ := uuid.FromString(requestPayload.VendorID)
	createdBy, _ := uuid.FromString(requestPayload.CreatedBy)

	domainOrder := order.Order{
		VendorID:  vendorID,
		Notes:     requestPayload.Notes,
		CreatedBy: createdBy,
		Items:     make([]order.OrderItem, 0, len(requestPayload.Items)),
	}
	for _, item := range requestPayload.Items {
		productID, _ := uuid.FromString(item.ProductID)
		domainOrder.Items = append(domainOrder.Items, order.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	createdOrder, err := h.service.CreateOrder(r.Context(), &domainOrder)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to create order via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdOrder)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	createdByParam := r.URL.Query().Get("created_by")
	createdBy, err := uuid.FromString(createdByParam)
	if err != nil {
		log.Warn().Err(err).Str("created_by", createdByParam).Msg("handler: failed to parse created_by query parameter")
		respondWithError(w, http.StatusBadRequest, "Invalid created_by parameter")
		return
	}

	orders, err := h.service.ListOrdersByCreator(r.Context(), createdBy)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list orders via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	foundOrder, err := h.service.GetOrderByID(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to get order via service")

		clientMessage := "Failed to get order"
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, foundOrder)
}

func (h *OrderHandler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode update order request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	vendorID, _ := uuid.FromString(requestPayload.VendorID)
	details := order.DetailsInput{
		VendorID: vendorID,
		Notes:    requestPayload.Notes,
	}

	items := make([]order.ItemInput, 0, len(requestPayload.Items))
	for _, item := range requestPayload.Items {
		itemID, _ := uuid.FromString(item.ID)
		productID, _ := uuid.FromString(item.ProductID)
		items = append(items, order.ItemInput{
			ID:        itemID,
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			IsNew:     item.IsNew,
		})
	}

	updatedOrder, err := h.service.UpdateOrder(r.Context(), orderID, details, items)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to update order via service")

		clientMessage := "Failed to update order"
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedOrder)
}

func (h *OrderHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateOrderStatusRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode order status request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	updatedOrder, err := h.service.UpdateOrderStatus(r.Context(), orderID, order.Status(requestPayload.Status))
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to update order status via service")

		clientMessage := "Failed to update order status"
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedOrder)
}

func (h *OrderHandler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), orderID); err != nil {
		log.Error().Err(err).Msg("handler: failed to delete order via service")

		clientMessage := "Failed to delete order"
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.SendEmail(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to send order email via service")

		clientMessage := "Failed to send order email"
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload CreateOrderItemRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode add item request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	productID, _ := uuid.FromString(requestPayload.ProductID)
	updatedOrder, err := h.service.AddItem(r.Context(), orderID, order.ItemInput{
		ProductID: productID,
		Quantity:  requestPayload.Quantity,
		Price:     requestPayload.Price,
		IsNew:     true,
	})
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to add order item via service")

		clientMessage := "Failed to add order item"
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedOrder)
}

func (h *OrderHandler) handleUpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateItemQuantityRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode item quantity request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updatedOrder, err := h.service.UpdateItemQuantity(r.Context(), itemID, requestPayload.Quantity)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to update item quantity via service")

		clientMessage := "Failed to update item quantity"
		if errors.Is(err, order.ErrOrderItemNotFound) {
			clientMessage = "Order item not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedOrder)
}

func (h *OrderHandler) handleUpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateItemStatusRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode item status request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	updatedOrder, err := h.service.UpdateItemStatus(r.Context(), itemID, order.ItemStatus(requestPayload.Status))
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to update item status via service")

		clientMessage := "Failed to update item status"
		if errors.Is(err, order.ErrOrderItemNotFound) {
			clientMessage = "Order item not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedOrder)
}

func (h *OrderHandler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	updatedOrder, err := h.service.DeleteItem(r.Context(), itemID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to delete order item via service")

		clientMessage := "Failed to delete order item"
		if errors.Is(err, order.ErrOrderItemNotFound) {
			clientMessage = "Order item not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedOrder)
}

// parseIDParam reads the {id} URL parameter as a UUID, writing a 400 when
// it does not parse.
func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("id", idParam).Msg("handler: failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}
