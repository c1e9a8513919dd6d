// controllers/order.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ruralreach/middleware"
	"ruralreach/models"
	"ruralreach/store"
	"ruralreach/utils"
)

// OrderStore is the persistence surface the order handlers rely on.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	FindByBuyer(ctx context.Context, buyerID primitive.ObjectID, status string) ([]models.Order, error)
	FindBySeller(ctx context.Context, sellerID primitive.ObjectID, status string) ([]models.Order, error)
	Statistics(ctx context.Context, start, end *time.Time) (*models.OrderStatistics, error)
	MonthlySales(ctx context.Context, year int) ([]models.MonthlySalesRow, error)
}

// OrderController handles order-related requests
type OrderController struct {
	Store             OrderStore
	CartCollection    *mongo.Collection
	ProductCollection *mongo.Collection
	UserCollection    *mongo.Collection
	EmailService      *utils.EmailService
}

// NewOrderController creates a new OrderController
func NewOrderController(client *mongo.Client, dbName string, orders OrderStore, emailService *utils.EmailService) *OrderController {
	db := client.Database(dbName)
	return &OrderController{
		Store:             orders,
		CartCollection:    db.Collection("carts"),
		ProductCollection: db.Collection("products"),
		UserCollection:    db.Collection("users"),
		EmailService:      emailService,
	}
}

func requestUserID(r *http.Request) (primitive.ObjectID, *utils.Claims, error) {
	claims, ok := r.Context().Value(middleware.UserContextKey).(*utils.Claims)
	if !ok {
		return primitive.NilObjectID, nil, errors.New("no claims in context")
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, nil, err
	}
	return userID, claims, nil
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Order not found", http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		http.Error(w, "Order was modified concurrently, please retry", http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// orderVisibleTo reports whether the user may read the order: the buyer,
// any seller with an item on it, or an admin.
func orderVisibleTo(order *models.Order, userID primitive.ObjectID, role string) bool {
	if role == models.RoleAdmin {
		return true
	}
	if order.BuyerID == userID {
		return true
	}
	return sellerOnOrder(order, userID)
}

func sellerOnOrder(order *models.Order, userID primitive.ObjectID) bool {
	for _, item := range order.Items {
		if item.SellerID == userID {
			return true
		}
	}
	return false
}

// CreateOrder creates a new order from the user's cart
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, claims, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var checkout struct {
		PaymentMethod   string                 `json:"payment_method"`
		ShippingAddress models.ShippingAddress `json:"shipping_address"`
		BillingAddress  models.BillingAddress  `json:"billing_address"`
		ShippingCost    float64                `json:"shipping_cost"`
		Discount        models.Discount        `json:"discount"`
		Notes           string                 `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&checkout); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !models.ValidPaymentMethod(checkout.PaymentMethod) {
		http.Error(w, "Invalid payment method", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Find the user's cart
	var cart models.Cart
	err = oc.CartCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err != nil {
		http.Error(w, "Cart not found", http.StatusNotFound)
		return
	}
	if len(cart.Items) == 0 {
		http.Error(w, "Cart is empty", http.StatusBadRequest)
		return
	}

	// Build order items from the cart, folding variant and customization
	// costs into each line's subtotal, and check stock
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		var product models.Product
		err := oc.ProductCollection.FindOne(ctx, bson.M{"_id": cartItem.ProductID}).Decode(&product)
		if err != nil {
			http.Error(w, fmt.Sprintf("Product with ID %s not found", cartItem.ProductID.Hex()), http.StatusNotFound)
			return
		}
		if product.Status != models.ProductStatusActive {
			http.Error(w, fmt.Sprintf("Product is not available: %s", product.Title), http.StatusBadRequest)
			return
		}
		if !product.InStock(cartItem.Quantity) {
			http.Error(w, fmt.Sprintf("Insufficient stock for product: %s", product.Title), http.StatusBadRequest)
			return
		}

		item := models.OrderItem{
			ProductID:     product.ID,
			SellerID:      product.SellerID,
			Title:         product.Title,
			Price:         product.Price.Amount,
			Quantity:      cartItem.Quantity,
			Variant:       cartItem.Variant,
			Customization: cartItem.Customization,
			SKU:           product.Inventory.SKU,
		}
		for _, image := range product.Images {
			if image.IsPrimary {
				item.Image = image.URL
				break
			}
		}
		item.Subtotal = models.ItemSubtotal(item)
		items = append(items, item)
	}

	// Deduct stock for each product
	for _, item := range items {
		_, err := oc.ProductCollection.UpdateOne(ctx, bson.M{"_id": item.ProductID}, bson.M{
			"$inc": bson.M{"inventory.stock": -item.Quantity},
		})
		if err != nil {
			http.Error(w, "Failed to update product stock", http.StatusInternalServerError)
			return
		}
	}

	order := models.NewOrder(userID, items, checkout.ShippingAddress, checkout.BillingAddress,
		checkout.PaymentMethod, checkout.ShippingCost, checkout.Discount)
	order.Notes.Buyer = checkout.Notes
	order.Metadata.UserAgent = r.UserAgent()
	order.Metadata.IPAddress = r.RemoteAddr

	// Payment gateway integration is out of scope: anything but COD is
	// treated as collected up front
	if checkout.PaymentMethod != models.PaymentMethodCOD {
		order.MarkPaid("", "mock-gateway")
	}

	if err := oc.Store.Insert(ctx, order); err != nil {
		middleware.RecordOrderOperation("create", false)
		http.Error(w, "Failed to create order", http.StatusInternalServerError)
		return
	}
	middleware.RecordOrderOperation("create", true)

	// Clear the user's cart
	_, err = oc.CartCollection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		log.Printf("Failed to clear cart for user %s: %v", userID.Hex(), err)
	}

	// Send confirmation email to buyer
	go func(email string, order *models.Order) {
		if err := oc.EmailService.SendOrderConfirmationEmail(email, order); err != nil {
			log.Printf("Failed to send email to %s: %v", email, err)
		}
	}(claims.Email, order)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}

// GetMyOrders retrieves the authenticated buyer's orders, newest first
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, err := oc.Store.FindByBuyer(ctx, userID, r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "Failed to retrieve orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

// GetSellerOrders retrieves orders containing the seller's items
func (oc *OrderController) GetSellerOrders(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, err := oc.Store.FindBySeller(ctx, userID, r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "Failed to retrieve orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

// GetOrder retrieves one order by id
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, claims, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := oc.Store.Get(ctx, orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if !orderVisibleTo(order, userID, claims.Role) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

// CancelOrder cancels an order on behalf of the buyer (or an admin). The
// cancellation guard is checked here, at the boundary, before mutating.
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, claims, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reason == "" {
		http.Error(w, "Cancellation reason is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := oc.Store.Get(ctx, orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if claims.Role != models.RoleAdmin && order.BuyerID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if !order.CanBeCancelled() {
		http.Error(w, "Order can no longer be cancelled", http.StatusConflict)
		return
	}

	order.Cancel(body.Reason, userID)

	if err := oc.Store.Save(ctx, order); err != nil {
		middleware.RecordOrderOperation("cancel", false)
		writeOrderError(w, err)
		return
	}
	middleware.RecordOrderOperation("cancel", true)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

// RequestReturn records a return request on a delivered order. The return
// window guard is checked here, at the boundary, before mutating.
func (oc *OrderController) RequestReturn(w http.ResponseWriter, r *http.Request) {
	userID, claims, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reason == "" {
		http.Error(w, "Return reason is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := oc.Store.Get(ctx, orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if claims.Role != models.RoleAdmin && order.BuyerID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if !order.CanBeReturned() {
		http.Error(w, "Order is not eligible for return", http.StatusConflict)
		return
	}

	order.RequestReturn(body.Reason)

	if err := oc.Store.Save(ctx, order); err != nil {
		middleware.RecordOrderOperation("return", false)
		writeOrderError(w, err)
		return
	}
	middleware.RecordOrderOperation("return", true)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

// UpdateTracking merges tracking data into an order (seller or admin)
func (oc *OrderController) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	userID, claims, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	var data models.TrackingData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := oc.Store.Get(ctx, orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if !sellerOnOrder(order, userID) && claims.Role != models.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	order.UpdateTracking(data)

	if err := oc.Store.Save(ctx, order); err != nil {
		middleware.RecordOrderOperation("tracking", false)
		writeOrderError(w, err)
		return
	}
	middleware.RecordOrderOperation("tracking", true)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

// UpdateStatus sets a new order status (seller or admin) and logs it on
// the timeline
func (oc *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, claims, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !models.ValidOrderStatus(body.Status) {
		http.Error(w, "Invalid order status", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := oc.Store.Get(ctx, orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if !sellerOnOrder(order, userID) && claims.Role != models.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if body.Message != "" {
		order.Status = body.Status
		order.AddTimelineEntry(body.Status, body.Message, userID)
	} else {
		order.SetStatus(body.Status, userID)
	}
	if body.Status == models.OrderStatusDelivered && order.Tracking.ActualDelivery == nil {
		now := time.Now()
		order.Tracking.ActualDelivery = &now
	}

	if err := oc.Store.Save(ctx, order); err != nil {
		middleware.RecordOrderOperation("status", false)
		writeOrderError(w, err)
		return
	}
	middleware.RecordOrderOperation("status", true)

	// Notify the buyer about the status change
	go func(order *models.Order) {
		if err := oc.EmailService.SendOrderStatusEmail(order.ShippingAddress.Email, order); err != nil {
			log.Printf("Failed to send email to %s: %v", order.ShippingAddress.Email, err)
		}
	}(order)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

// ProcessRefund starts a refund on an order's payment (admin only). The
// order status is untouched: a refund is a payment-level event.
func (oc *OrderController) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := oc.Store.Get(ctx, orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	order.ProcessRefund(body.Amount, body.Reason)

	if err := oc.Store.Save(ctx, order); err != nil {
		middleware.RecordOrderOperation("refund", false)
		writeOrderError(w, err)
		return
	}
	middleware.RecordOrderOperation("refund", true)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

// GetStatistics returns order aggregates for a date range (admin only)
func (oc *OrderController) GetStatistics(w http.ResponseWriter, r *http.Request) {
	var start, end *time.Time
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "Invalid start date", http.StatusBadRequest)
			return
		}
		start = &t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "Invalid end date", http.StatusBadRequest)
			return
		}
		end = &t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := oc.Store.Statistics(ctx, start, end)
	if err != nil {
		http.Error(w, "Failed to compute statistics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetMonthlySales returns per-month sales for a year (admin only)
func (oc *OrderController) GetMonthlySales(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sales, err := oc.Store.MonthlySales(ctx, year)
	if err != nil {
		http.Error(w, "Failed to compute monthly sales", http.StatusInternalServerError)
		return
	}
	if sales == nil {
		sales = []models.MonthlySalesRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sales)
}
