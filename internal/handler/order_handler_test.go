package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nicksonlangat/clinicsync-api/internal/handler"
	"github.com/nicksonlangat/clinicsync-api/internal/order"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrdersByCreator(ctx context.Context, createdBy uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrder(ctx context.Context, orderID uuid.UUID, details order.DetailsInput, items []order.ItemInput) (*order.Order, error) {
	args := m.Called(ctx, orderID, details, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status) (*order.Order, error) {
	args := m.Called(ctx, orderID, newStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) AddItem(ctx context.Context, orderID uuid.UUID, input order.ItemInput) (*order.Order, error) {
	args := m.Called(ctx, orderID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*order.Order, error) {
	args := m.Called(ctx, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status order.ItemStatus) (*order.Order, error) {
	args := m.Called(ctx, itemID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) DeleteItem(ctx context.Context, itemID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) SendEmail(ctx context.Context, orderID uuid.UUID) (order.NotificationResult, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(order.NotificationResult), args.Error(1)
}

func newOrderRouter(svc order.Service) *chi.Mux {
	router := chi.NewRouter()
	handler.NewOrderHandler(svc).RegisterRoutes(router)
	return router
}

func TestOrderHandler_handleCreateOrder_Success(t *testing.T) {
	mockService := new(MockOrderService)
	router := newOrderRouter(mockService)

	vendorID := uuid.Must(uuid.NewV4())
	createdBy := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	requestDTO := handler.CreateOrderRequest{
		VendorID:  vendorID.String(),
		CreatedBy: createdBy.String(),
		Notes:     "urgent",
		Items: []handler.CreateOrderItemRequest{
			{ProductID: productID.String(), Quantity: 2, Price: decimal.RequireFromString("5.00")},
		},
	}

	responseOrder := order.Order{
		ID:          uuid.Must(uuid.NewV4()),
		OrderNumber: "ORD-12345",
		Status:      order.StatusPending,
		VendorID:    vendorID,
		CreatedBy:   createdBy,
	}

	mockService.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
		return o.VendorID == vendorID &&
			len(o.Items) == 1 &&
			o.Items[0].ProductID == productID &&
			o.Items[0].Quantity == 2
	})).Return(&responseOrder, nil).Once()

	jsonBody, err := json.Marshal(requestDTO)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var actual order.Order
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actual))
	assert.Equal(t, responseOrder.OrderNumber, actual.OrderNumber)
	assert.Equal(t, order.StatusPending, actual.Status)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_handleCreateOrder_ValidationFailure(t *testing.T) {
	mockService := new(MockOrderService)
	router := newOrderRouter(mockService)

	// Missing vendor_id and items.
	body := []byte(`{"created_by":"` + uuid.Must(uuid.NewV4()).String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var response handler.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, "Validation failed", response.Error)
	assert.Contains(t, response.Details, "VendorID")
	mockService.AssertNotCalled(t, "CreateOrder")
}

func TestOrderHandler_handleGetOrderByID_NotFound(t *testing.T) {
	mockService := new(MockOrderService)
	router := newOrderRouter(mockService)

	orderID := uuid.Must(uuid.NewV4())
	mockService.On("GetOrderByID", mock.Anything, orderID).Return(nil, order.ErrOrderNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_handleGetOrderByID_InvalidID(t *testing.T) {
	mockService := new(MockOrderService)
	router := newOrderRouter(mockService)

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "GetOrderByID")
}

func TestOrderHandler_handleUpdateOrder_OmittedFieldsStayUnset(t *testing.T) {
	mockService := new(MockOrderService)
	router := newOrderRouter(mockService)

	orderID := uuid.Must(uuid.NewV4())
	responseOrder := order.Order{ID: orderID, OrderNumber: "ORD-24680", Status: order.StatusPending}

	// A body without vendor_id or notes must not carry zero values into the
	// service: the vendor stays Nil and the notes pointer stays nil.
	mockService.On("UpdateOrder", mock.Anything, orderID, order.DetailsInput{}, []order.ItemInput{}).
		Return(&responseOrder, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/orders/"+orderID.String(), bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_handleUpdateOrderStatus_RejectsUnknownStatus(t *testing.T) {
	mockService := new(MockOrderService)
	router := newOrderRouter(mockService)

	orderID := uuid.Must(uuid.NewV4())
	body := []byte(`{"status":"Shipped"}`)
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String()+"/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "UpdateOrderStatus")
}

func TestOrderHandler_handleUpdateItemStatus_Success(t *testing.T) {
	mockService := new(MockOrderService)
	router := newOrderRouter(mockService)

	itemID := uuid.Must(uuid.NewV4())
	responseOrder := order.Order{
		ID:          uuid.Must(uuid.NewV4()),
		OrderNumber: "ORD-54321",
		Status:      order.StatusComplete,
	}
	mockService.On("UpdateItemStatus", mock.Anything, itemID, order.ItemReceived).
		Return(&responseOrder, nil).Once()

	body := []byte(`{"status":"Received"}`)
	req := httptest.NewRequest(http.MethodPatch, "/order-items/"+itemID.String()+"/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var actual order.Order
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actual))
	assert.Equal(t, order.StatusComplete, actual.Status)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_handleSendEmail_ReportsDeliveryOutcome(t *testing.T) {
	mockService := new(MockOrderService)
	router := newOrderRouter(mockService)

	orderID := uuid.Must(uuid.NewV4())
	mockService.On("SendEmail", mock.Anything, orderID).
		Return(order.NotificationResult{Delivered: false}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/send-email", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var result order.NotificationResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	assert.False(t, result.Delivered)
	mockService.AssertExpectations(t)
}
