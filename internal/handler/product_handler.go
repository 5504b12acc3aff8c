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

	"github.com/nicksonlangat/clinicsync-api/internal/product"
)

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2"`
	StockNumber int             `json:"stock_number" validate:"min=0"`
	Price       decimal.Decimal `json:"price"`
	VendorID    string          `json:"vendor_id" validate:"required,uuid4"`
	CategoryID  string          `json:"category_id" validate:"required,uuid4"`
	CreatedBy   string          `json:"created_by" validate:"required,uuid4"`
}

type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2"`
	StockNumber int             `json:"stock_number" validate:"min=0"`
	Price       decimal.Decimal `json:"price"`
	VendorID    string          `json:"vendor_id" validate:"required,uuid4"`
	CategoryID  string          `json:"category_id" validate:"required,uuid4"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

type ProductHandler struct {
	service  product.Service
	validate *validator.Validate
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Post("/products", h.handleCreateProduct)
	router.Get("/products", h.handleListProducts)
	router.Get("/products/stats", h.handleProductStats)
	router.Get("/products/{id}", h.handleGetProductByID)
	router.Put("/products/{id}", h.handleUpdateProduct)
	router.Patch("/products/{id}/stock", h.handleAdjustStock)
	router.Delete("/products/{id}", h.handleDeleteProduct)

	router.Post("/categories", h.handleCreateCategory)
	router.Get("/categories", h.handleListCategories)
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode create product request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	vendorID, _ := uuid.FromString(requestPayload.VendorID)
	categoryID, _ := uuid.FromString(requestPayload.CategoryID)
	createdBy, _ := uuid.FromString(requestPayload.CreatedBy)

	domainProduct := product.Product{
		Name:        requestPayload.Name,
		StockNumber: requestPayload.StockNumber,
		Price:       requestPayload.Price,
		VendorID:    vendorID,
		CategoryID:  categoryID,
		CreatedBy:   createdBy,
	}

	createdProduct, err := h.service.CreateProduct(r.Context(), &domainProduct)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to create product via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdProduct)
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	createdByParam := r.URL.Query().Get("created_by")
	createdBy, err := uuid.FromString(createdByParam)
	if err != nil {
		log.Warn().Err(err).Str("created_by", createdByParam).Msg("handler: failed to parse created_by query parameter")
		respondWithError(w, http.StatusBadRequest, "Invalid created_by parameter")
		return
	}

	products, err := h.service.ListProducts(r.Context(), createdBy)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list products via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) handleProductStats(w http.ResponseWriter, r *http.Request) {
	createdByParam := r.URL.Query().Get("created_by")
	createdBy, err := uuid.FromString(createdByParam)
	if err != nil {
		log.Warn().Err(err).Str("created_by", createdByParam).Msg("handler: failed to parse created_by query parameter")
		respondWithError(w, http.StatusBadRequest, "Invalid created_by parameter")
		return
	}

	stats, err := h.service.ProductStats(r.Context(), createdBy)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to compute product stats via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to compute product stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *ProductHandler) handleGetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	foundProduct, err := h.service.GetProductByID(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to get product via service")

		clientMessage := "Failed to get product"
		if errors.Is(err, product.ErrProductNotFound) {
			clientMessage = "Product not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, foundProduct)
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode update product request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	vendorID, _ := uuid.FromString(requestPayload.VendorID)
	categoryID, _ := uuid.FromString(requestPayload.CategoryID)

	domainProduct := product.Product{
		ID:          productID,
		Name:        requestPayload.Name,
		StockNumber: requestPayload.StockNumber,
		Price:       requestPayload.Price,
		VendorID:    vendorID,
		CategoryID:  categoryID,
	}

	updatedProduct, err := h.service.UpdateProduct(r.Context(), &domainProduct)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to update product via service")

		clientMessage := "Failed to update product"
		if errors.Is(err, product.ErrProductNotFound) {
			clientMessage = "Product not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedProduct)
}

func (h *ProductHandler) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload AdjustStockRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode adjust stock request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	updatedProduct, err := h.service.AdjustStock(r.Context(), productID, requestPayload.Delta)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to adjust stock via service")

		clientMessage := "Failed to adjust stock"
		if errors.Is(err, product.ErrProductNotFound) {
			clientMessage = "Product not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedProduct)
}

func (h *ProductHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), productID); err != nil {
		log.Error().Err(err).Msg("handler: failed to delete product via service")

		clientMessage := "Failed to delete product"
		if errors.Is(err, product.ErrProductNotFound) {
			clientMessage = "Product not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateCategoryRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("handler: failed to decode create category request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		handleValidationError(w, err)
		return
	}

	createdCategory, err := h.service.CreateCategory(r.Context(), &product.Category{Name: requestPayload.Name})
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to create category via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create category")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdCategory)
}

func (h *ProductHandler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list categories via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list categories")
		return
	}

	respondWithJSON(w, http.StatusOK, categories)
}
