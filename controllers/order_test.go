package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ruralreach/middleware"
	"ruralreach/models"
	"ruralreach/store"
	"ruralreach/utils"
)

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) Insert(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderStore) Save(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderStore) FindByBuyer(ctx context.Context, buyerID primitive.ObjectID, status string) ([]models.Order, error) {
	args := m.Called(ctx, buyerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderStore) FindBySeller(ctx context.Context, sellerID primitive.ObjectID, status string) ([]models.Order, error) {
	args := m.Called(ctx, sellerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderStore) Statistics(ctx context.Context, start, end *time.Time) (*models.OrderStatistics, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderStatistics), args.Error(1)
}

func (m *MockOrderStore) MonthlySales(ctx context.Context, year int) ([]models.MonthlySalesRow, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthlySalesRow), args.Error(1)
}

func authedRequest(method, target, body string, claims *utils.Claims, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)
	return req.WithContext(ctx)
}

func buyerClaims(buyerID primitive.ObjectID) *utils.Claims {
	return &utils.Claims{
		UserID: buyerID.Hex(),
		Email:  "buyer@example.com",
		Role:   models.RoleBuyer,
	}
}

func pendingOrder(buyerID primitive.ObjectID) *models.Order {
	return &models.Order{
		ID:      primitive.NewObjectID(),
		BuyerID: buyerID,
		Status:  models.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: primitive.NewObjectID(), SellerID: primitive.NewObjectID(),
				Price: 100, Quantity: 2, Subtotal: 200},
		},
		Payment:  models.Payment{Method: models.PaymentMethodUPI, Status: models.PaymentStatusCompleted},
		Pricing:  models.Pricing{Subtotal: 200, Tax: 36, Total: 236, Currency: "INR"},
		Revision: 1,
	}
}

func TestCancelOrder(t *testing.T) {
	mockStore := new(MockOrderStore)
	buyerID := primitive.NewObjectID()
	order := pendingOrder(buyerID)

	mockStore.On("Get", mock.Anything, order.ID).Return(order, nil)
	mockStore.On("Save", mock.Anything, mock.AnythingOfType("*models.Order")).
		Return(nil).
		Run(func(args mock.Arguments) {
			saved := args.Get(1).(*models.Order)
			assert.Equal(t, models.OrderStatusCancelled, saved.Status)
			assert.Equal(t, models.RefundStatusPending, saved.Cancellation.RefundStatus)
		})

	oc := &OrderController{Store: mockStore}
	req := authedRequest("POST", "/orders/"+order.ID.Hex()+"/cancel",
		`{"reason":"changed mind"}`, buyerClaims(buyerID), map[string]string{"id": order.ID.Hex()})
	rec := httptest.NewRecorder()

	oc.CancelOrder(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockStore.AssertExpectations(t)
}

func TestCancelOrderGuardRejected(t *testing.T) {
	mockStore := new(MockOrderStore)
	buyerID := primitive.NewObjectID()
	order := pendingOrder(buyerID)
	order.Status = models.OrderStatusShipped

	mockStore.On("Get", mock.Anything, order.ID).Return(order, nil)

	oc := &OrderController{Store: mockStore}
	req := authedRequest("POST", "/orders/"+order.ID.Hex()+"/cancel",
		`{"reason":"too late"}`, buyerClaims(buyerID), map[string]string{"id": order.ID.Hex()})
	rec := httptest.NewRecorder()

	oc.CancelOrder(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	mockStore.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCancelOrderForbiddenForOtherBuyer(t *testing.T) {
	mockStore := new(MockOrderStore)
	order := pendingOrder(primitive.NewObjectID())

	mockStore.On("Get", mock.Anything, order.ID).Return(order, nil)

	oc := &OrderController{Store: mockStore}
	req := authedRequest("POST", "/orders/"+order.ID.Hex()+"/cancel",
		`{"reason":"not mine"}`, buyerClaims(primitive.NewObjectID()), map[string]string{"id": order.ID.Hex()})
	rec := httptest.NewRecorder()

	oc.CancelOrder(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancelOrderConflictOnLostRace(t *testing.T) {
	mockStore := new(MockOrderStore)
	buyerID := primitive.NewObjectID()
	order := pendingOrder(buyerID)

	mockStore.On("Get", mock.Anything, order.ID).Return(order, nil)
	mockStore.On("Save", mock.Anything, mock.AnythingOfType("*models.Order")).
		Return(store.ErrConflict)

	oc := &OrderController{Store: mockStore}
	req := authedRequest("POST", "/orders/"+order.ID.Hex()+"/cancel",
		`{"reason":"changed mind"}`, buyerClaims(buyerID), map[string]string{"id": order.ID.Hex()})
	rec := httptest.NewRecorder()

	oc.CancelOrder(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelOrderRequiresReason(t *testing.T) {
	oc := &OrderController{Store: new(MockOrderStore)}
	orderID := primitive.NewObjectID()
	req := authedRequest("POST", "/orders/"+orderID.Hex()+"/cancel",
		`{}`, buyerClaims(primitive.NewObjectID()), map[string]string{"id": orderID.Hex()})
	rec := httptest.NewRecorder()

	oc.CancelOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestReturnOutsideWindow(t *testing.T) {
	mockStore := new(MockOrderStore)
	buyerID := primitive.NewObjectID()
	order := pendingOrder(buyerID)
	order.Status = models.OrderStatusDelivered
	delivered := time.Now().AddDate(0, 0, -10)
	order.Tracking.ActualDelivery = &delivered

	mockStore.On("Get", mock.Anything, order.ID).Return(order, nil)

	oc := &OrderController{Store: mockStore}
	req := authedRequest("POST", "/orders/"+order.ID.Hex()+"/return",
		`{"reason":"defective"}`, buyerClaims(buyerID), map[string]string{"id": order.ID.Hex()})
	rec := httptest.NewRecorder()

	oc.RequestReturn(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	mockStore.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRequestReturnWithinWindow(t *testing.T) {
	mockStore := new(MockOrderStore)
	buyerID := primitive.NewObjectID()
	order := pendingOrder(buyerID)
	order.Status = models.OrderStatusDelivered
	delivered := time.Now().AddDate(0, 0, -2)
	order.Tracking.ActualDelivery = &delivered

	mockStore.On("Get", mock.Anything, order.ID).Return(order, nil)
	mockStore.On("Save", mock.Anything, mock.AnythingOfType("*models.Order")).
		Return(nil).
		Run(func(args mock.Arguments) {
			saved := args.Get(1).(*models.Order)
			assert.NotNil(t, saved.Return)
			assert.Equal(t, models.ReturnStatusRequested, saved.Return.Status)
		})

	oc := &OrderController{Store: mockStore}
	req := authedRequest("POST", "/orders/"+order.ID.Hex()+"/return",
		`{"reason":"defective"}`, buyerClaims(buyerID), map[string]string{"id": order.ID.Hex()})
	rec := httptest.NewRecorder()

	oc.RequestReturn(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockStore.AssertExpectations(t)
}

func TestGetMyOrders(t *testing.T) {
	mockStore := new(MockOrderStore)
	buyerID := primitive.NewObjectID()
	orders := []models.Order{*pendingOrder(buyerID)}

	mockStore.On("FindByBuyer", mock.Anything, buyerID, "pending").Return(orders, nil)

	oc := &OrderController{Store: mockStore}
	req := authedRequest("GET", "/orders?status=pending", "", buyerClaims(buyerID), nil)
	rec := httptest.NewRecorder()

	oc.GetMyOrders(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), buyerID.Hex())
	mockStore.AssertExpectations(t)
}

func TestGetOrderNotFound(t *testing.T) {
	mockStore := new(MockOrderStore)
	orderID := primitive.NewObjectID()

	mockStore.On("Get", mock.Anything, orderID).Return(nil, store.ErrNotFound)

	oc := &OrderController{Store: mockStore}
	req := authedRequest("GET", "/orders/"+orderID.Hex(), "",
		buyerClaims(primitive.NewObjectID()), map[string]string{"id": orderID.Hex()})
	rec := httptest.NewRecorder()

	oc.GetOrder(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessRefundDefaultsToFullTotal(t *testing.T) {
	mockStore := new(MockOrderStore)
	order := pendingOrder(primitive.NewObjectID())

	mockStore.On("Get", mock.Anything, order.ID).Return(order, nil)
	mockStore.On("Save", mock.Anything, mock.AnythingOfType("*models.Order")).
		Return(nil).
		Run(func(args mock.Arguments) {
			saved := args.Get(1).(*models.Order)
			assert.Equal(t, models.PaymentStatusRefunded, saved.Payment.Status)
			assert.Equal(t, 236.0, saved.Payment.Refund.Amount)
			// Refund does not touch the order status
			assert.Equal(t, models.OrderStatusPending, saved.Status)
		})

	oc := &OrderController{Store: mockStore}
	admin := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}
	req := authedRequest("POST", "/admin/orders/"+order.ID.Hex()+"/refund",
		`{"reason":"damaged in transit"}`, admin, map[string]string{"id": order.ID.Hex()})
	rec := httptest.NewRecorder()

	oc.ProcessRefund(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockStore.AssertExpectations(t)
}

func TestGetMonthlySales(t *testing.T) {
	mockStore := new(MockOrderStore)
	rows := []models.MonthlySalesRow{{Month: 1, TotalOrders: 1, TotalRevenue: 500, AverageOrderValue: 500}}

	mockStore.On("MonthlySales", mock.Anything, 2024).Return(rows, nil)

	oc := &OrderController{Store: mockStore}
	admin := &utils.Claims{UserID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}
	req := authedRequest("GET", "/admin/orders/monthly-sales?year=2024", "", admin, nil)
	rec := httptest.NewRecorder()

	oc.GetMonthlySales(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_revenue":500`)
	mockStore.AssertExpectations(t)
}
