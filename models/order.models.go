package models

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusProcessing     = "processing"
	OrderStatusShipped        = "shipped"
	OrderStatusOutForDelivery = "out-for-delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
	OrderStatusReturned       = "returned"
)

// TaxRate is the flat GST rate applied to every order subtotal.
const TaxRate = 0.18

// ReturnWindowDays is the number of days after delivery during which a
// return can be requested.
const ReturnWindowDays = 7

// ValidOrderStatus reports whether status is a recognized order status.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// ItemVariant is a chosen product variant on an order item
type ItemVariant struct {
	Name           string  `bson:"name" json:"name"`
	Value          string  `bson:"value" json:"value"`
	AdditionalCost float64 `bson:"additional_cost" json:"additional_cost"`
}

// ItemCustomization is a buyer-chosen customization on an order item
type ItemCustomization struct {
	Name           string  `bson:"name" json:"name"`
	Value          string  `bson:"value" json:"value"`
	AdditionalCost float64 `bson:"additional_cost" json:"additional_cost"`
}

// OrderItem is one purchased line item. Subtotal carries the fully folded
// per-line amount (price*quantity plus variant and customization costs).
type OrderItem struct {
	ProductID     primitive.ObjectID  `bson:"product_id" json:"product_id"`
	SellerID      primitive.ObjectID  `bson:"seller_id" json:"seller_id"`
	Title         string              `bson:"title" json:"title"`
	Price         float64             `bson:"price" json:"price"`
	Quantity      int                 `bson:"quantity" json:"quantity"`
	Variant       *ItemVariant        `bson:"variant,omitempty" json:"variant,omitempty"`
	Customization []ItemCustomization `bson:"customization,omitempty" json:"customization,omitempty"`
	Subtotal      float64             `bson:"subtotal" json:"subtotal"`
	Image         string              `bson:"image,omitempty" json:"image,omitempty"`
	SKU           string              `bson:"sku,omitempty" json:"sku,omitempty"`
}

// ItemSubtotal computes the folded line amount for an item: unit price times
// quantity, plus the variant's additional cost and every customization's
// additional cost (each charged once per line).
func ItemSubtotal(item OrderItem) float64 {
	subtotal := item.Price * float64(item.Quantity)
	if item.Variant != nil {
		subtotal += item.Variant.AdditionalCost
	}
	for _, c := range item.Customization {
		subtotal += c.AdditionalCost
	}
	return subtotal
}

// Discount applied to the whole order
type Discount struct {
	Amount float64 `bson:"amount" json:"amount"`
	Code   string  `bson:"code,omitempty" json:"code,omitempty"`
	Type   string  `bson:"type,omitempty" json:"type,omitempty"` // "percentage" or "fixed"
}

// Pricing holds the derived money fields of an order. Subtotal, Tax and
// Total are recomputed from the items on every finalize; only Shipping and
// Discount are caller inputs.
type Pricing struct {
	Subtotal float64  `bson:"subtotal" json:"subtotal"`
	Shipping float64  `bson:"shipping" json:"shipping"`
	Tax      float64  `bson:"tax" json:"tax"`
	Discount Discount `bson:"discount" json:"discount"`
	Total    float64  `bson:"total" json:"total"`
	Currency string   `bson:"currency" json:"currency"`
}

// Coordinates of a delivery address
type Coordinates struct {
	Latitude  float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// ShippingAddress is where the order is delivered
type ShippingAddress struct {
	FullName    string       `bson:"full_name" json:"full_name"`
	Phone       string       `bson:"phone" json:"phone"`
	Email       string       `bson:"email" json:"email"`
	Address     string       `bson:"address" json:"address"`
	City        string       `bson:"city" json:"city"`
	State       string       `bson:"state" json:"state"`
	Pincode     string       `bson:"pincode" json:"pincode"`
	Landmark    string       `bson:"landmark,omitempty" json:"landmark,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// BillingAddress is the invoice address. When SameAsShipping is true the
// address fields are overwritten from the shipping address on every finalize.
type BillingAddress struct {
	FullName       string `bson:"full_name" json:"full_name"`
	Phone          string `bson:"phone" json:"phone"`
	Email          string `bson:"email" json:"email"`
	Address        string `bson:"address" json:"address"`
	City           string `bson:"city" json:"city"`
	State          string `bson:"state" json:"state"`
	Pincode        string `bson:"pincode" json:"pincode"`
	SameAsShipping bool   `bson:"same_as_shipping" json:"same_as_shipping"`
}

// TrackingUpdate is one append-only entry in the tracking history
type TrackingUpdate struct {
	Status    string    `bson:"status" json:"status"`
	Message   string    `bson:"message,omitempty" json:"message,omitempty"`
	Location  string    `bson:"location,omitempty" json:"location,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Tracking holds shipment tracking state for an order
type Tracking struct {
	TrackingNumber    string           `bson:"tracking_number,omitempty" json:"tracking_number,omitempty"`
	Carrier           string           `bson:"carrier,omitempty" json:"carrier,omitempty"`
	EstimatedDelivery *time.Time       `bson:"estimated_delivery,omitempty" json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time       `bson:"actual_delivery,omitempty" json:"actual_delivery,omitempty"`
	Updates           []TrackingUpdate `bson:"updates,omitempty" json:"updates,omitempty"`
}

// TrackingData carries a tracking update request. Zero-valued fields are
// left untouched on merge.
type TrackingData struct {
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	Carrier           string     `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time `json:"actual_delivery,omitempty"`
	Status            string     `json:"status,omitempty"`
	Message           string     `json:"message,omitempty"`
	Location          string     `json:"location,omitempty"`
}

// TimelineEntry is one append-only entry in the order's audit timeline
type TimelineEntry struct {
	Status    string             `bson:"status" json:"status"`
	Message   string             `bson:"message,omitempty" json:"message,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	UpdatedBy primitive.ObjectID `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// OrderNotes are free-text notes per party
type OrderNotes struct {
	Buyer  string `bson:"buyer,omitempty" json:"buyer,omitempty"`
	Seller string `bson:"seller,omitempty" json:"seller,omitempty"`
	Admin  string `bson:"admin,omitempty" json:"admin,omitempty"`
}

// Cancellation records why and by whom an order was cancelled
type Cancellation struct {
	Reason       string             `bson:"reason" json:"reason"`
	CancelledBy  primitive.ObjectID `bson:"cancelled_by,omitempty" json:"cancelled_by,omitempty"`
	CancelledAt  time.Time          `bson:"cancelled_at" json:"cancelled_at"`
	RefundStatus string             `bson:"refund_status" json:"refund_status"` // not-applicable, pending, processing, completed
}

// Return records a return request and its progress
type Return struct {
	Requested    bool       `bson:"requested" json:"requested"`
	Reason       string     `bson:"reason" json:"reason"`
	Status       string     `bson:"status" json:"status"` // requested, approved, rejected, picked-up, completed
	RequestedAt  time.Time  `bson:"requested_at" json:"requested_at"`
	ApprovedAt   *time.Time `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	CompletedAt  *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	RefundAmount float64    `bson:"refund_amount,omitempty" json:"refund_amount,omitempty"`
}

// Feedback is the buyer's post-delivery rating of the order
type Feedback struct {
	Rating      int       `bson:"rating" json:"rating"`
	Comment     string    `bson:"comment,omitempty" json:"comment,omitempty"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
}

// OrderMetadata records where the order came from
type OrderMetadata struct {
	Source    string `bson:"source" json:"source"` // web, mobile, api
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	IPAddress string `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	Referrer  string `bson:"referrer,omitempty" json:"referrer,omitempty"`
}

// Order is the persisted aggregate for one purchase. It owns its item,
// timeline and tracking-update lists and is always persisted as a whole
// document. Revision backs the store's compare-and-swap save.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderNumber     string             `bson:"order_number" json:"order_number"`
	BuyerID         primitive.ObjectID `bson:"buyer_id" json:"buyer_id"`
	Items           []OrderItem        `bson:"items" json:"items"`
	Pricing         Pricing            `bson:"pricing" json:"pricing"`
	ShippingAddress ShippingAddress    `bson:"shipping_address" json:"shipping_address"`
	BillingAddress  BillingAddress     `bson:"billing_address" json:"billing_address"`
	Payment         Payment            `bson:"payment" json:"payment"`
	Status          string             `bson:"status" json:"status"`
	Tracking        Tracking           `bson:"tracking" json:"tracking"`
	Timeline        []TimelineEntry    `bson:"timeline" json:"timeline"`
	Notes           OrderNotes         `bson:"notes,omitempty" json:"notes,omitempty"`
	Cancellation    *Cancellation      `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	Return          *Return            `bson:"return,omitempty" json:"return,omitempty"`
	Feedback        *Feedback          `bson:"feedback,omitempty" json:"feedback,omitempty"`
	Metadata        OrderMetadata      `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Revision        int64              `bson:"revision" json:"revision"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

const orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderNumber generates a human-readable unique order number:
// "RR" + the last 8 digits of the unix-milli timestamp + 3 random chars.
func NewOrderNumber() string {
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(ts) > 8 {
		ts = ts[len(ts)-8:]
	}
	var b strings.Builder
	for i := 0; i < 3; i++ {
		b.WriteByte(orderNumberCharset[rand.Intn(len(orderNumberCharset))])
	}
	return "RR" + ts + b.String()
}

// NewOrder builds a pending order from pre-folded items. Pricing is derived
// immediately and an initial timeline entry is recorded.
func NewOrder(buyerID primitive.ObjectID, items []OrderItem, shipping ShippingAddress, billing BillingAddress, paymentMethod string, shippingCost float64, discount Discount) *Order {
	now := time.Now()
	order := &Order{
		OrderNumber:     NewOrderNumber(),
		BuyerID:         buyerID,
		Items:           items,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Payment: Payment{
			Method: paymentMethod,
			Status: PaymentStatusPending,
		},
		Status: OrderStatusPending,
		Pricing: Pricing{
			Shipping: shippingCost,
			Discount: discount,
			Currency: "INR",
		},
		Metadata:  OrderMetadata{Source: "web"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	order.Timeline = append(order.Timeline, TimelineEntry{
		Status:    OrderStatusPending,
		Message:   "Order placed",
		Timestamp: now,
	})
	order.Finalize()
	return order
}

// RecalculatePricing re-derives subtotal, tax and total from the items.
// The total is not clamped: an oversized discount can drive it negative.
func (o *Order) RecalculatePricing() {
	subtotal := 0.0
	for _, item := range o.Items {
		subtotal += item.Subtotal
	}
	o.Pricing.Subtotal = subtotal
	o.Pricing.Tax = math.Round(subtotal * TaxRate)
	o.Pricing.Total = o.Pricing.Subtotal + o.Pricing.Shipping + o.Pricing.Tax - o.Pricing.Discount.Amount
}

// Finalize enforces the derived-field invariants before a persist: pricing
// is recomputed from the items and the billing address is copied from the
// shipping address when marked same-as-shipping.
func (o *Order) Finalize() {
	o.RecalculatePricing()

	if o.BillingAddress.SameAsShipping {
		o.BillingAddress = BillingAddress{
			FullName:       o.ShippingAddress.FullName,
			Phone:          o.ShippingAddress.Phone,
			Email:          o.ShippingAddress.Email,
			Address:        o.ShippingAddress.Address,
			City:           o.ShippingAddress.City,
			State:          o.ShippingAddress.State,
			Pincode:        o.ShippingAddress.Pincode,
			SameAsShipping: true,
		}
	}
}

// AddTimelineEntry appends an audit entry with a server timestamp.
func (o *Order) AddTimelineEntry(status, message string, updatedBy primitive.ObjectID) {
	o.Timeline = append(o.Timeline, TimelineEntry{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		UpdatedBy: updatedBy,
	})
}

// SetStatus writes a new order status and logs it on the timeline.
func (o *Order) SetStatus(status string, updatedBy primitive.ObjectID) {
	o.Status = status
	o.AddTimelineEntry(status, fmt.Sprintf("Order status updated to %s", status), updatedBy)
}

// UpdateTracking merges the given tracking data into the order's tracking
// state. If the data carries a status, an entry is appended to the
// tracking update history as well.
func (o *Order) UpdateTracking(data TrackingData) {
	if data.TrackingNumber != "" {
		o.Tracking.TrackingNumber = data.TrackingNumber
	}
	if data.Carrier != "" {
		o.Tracking.Carrier = data.Carrier
	}
	if data.EstimatedDelivery != nil {
		o.Tracking.EstimatedDelivery = data.EstimatedDelivery
	}
	if data.ActualDelivery != nil {
		o.Tracking.ActualDelivery = data.ActualDelivery
	}

	if data.Status != "" {
		message := data.Message
		if message == "" {
			message = fmt.Sprintf("Package %s", data.Status)
		}
		o.Tracking.Updates = append(o.Tracking.Updates, TrackingUpdate{
			Status:    data.Status,
			Message:   message,
			Location:  data.Location,
			Timestamp: time.Now(),
		})
	}
}

// Cancel marks the order cancelled and records the cancellation sub-record.
// A refund becomes pending only when the payment had already completed.
// Callers must check CanBeCancelled first; Cancel itself does not refuse.
func (o *Order) Cancel(reason string, cancelledBy primitive.ObjectID) {
	o.Status = OrderStatusCancelled

	refundStatus := RefundStatusNotApplicable
	if o.Payment.Status == PaymentStatusCompleted {
		refundStatus = RefundStatusPending
	}
	o.Cancellation = &Cancellation{
		Reason:       reason,
		CancelledBy:  cancelledBy,
		CancelledAt:  time.Now(),
		RefundStatus: refundStatus,
	}

	o.AddTimelineEntry(OrderStatusCancelled, fmt.Sprintf("Order cancelled: %s", reason), cancelledBy)
}

// RequestReturn records a return request. Callers must check CanBeReturned
// first; the mutation itself does not refuse.
func (o *Order) RequestReturn(reason string) {
	o.Return = &Return{
		Requested:   true,
		Reason:      reason,
		Status:      ReturnStatusRequested,
		RequestedAt: time.Now(),
	}
	o.AddTimelineEntry("return-requested", fmt.Sprintf("Return requested: %s", reason), primitive.NilObjectID)
}

// CanBeCancelled reports whether cancellation is still permissible. Orders
// that have shipped or reached a terminal state cannot be cancelled.
func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusReturned:
		return false
	}
	return true
}

// CanBeReturned reports whether a return request is within policy: the
// order must be delivered and within the return window. Delivery time falls
// back to the last update time when no actual delivery was recorded.
func (o *Order) CanBeReturned() bool {
	if o.Status != OrderStatusDelivered {
		return false
	}
	deliveredAt := o.UpdatedAt
	if o.Tracking.ActualDelivery != nil {
		deliveredAt = *o.Tracking.ActualDelivery
	}
	return time.Since(deliveredAt) <= ReturnWindowDays*24*time.Hour
}

// TotalItems is the summed quantity across all line items.
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// SellersCount is the number of distinct sellers across the line items.
func (o *Order) SellersCount() int {
	sellers := make(map[primitive.ObjectID]struct{}, len(o.Items))
	for _, item := range o.Items {
		sellers[item.SellerID] = struct{}{}
	}
	return len(sellers)
}

// AgeInDays is the number of whole days since the order was created.
func (o *Order) AgeInDays() int {
	return int(time.Since(o.CreatedAt).Hours() / 24)
}

// DeliveryStatus summarizes where the shipment stands relative to the
// estimated delivery date.
func (o *Order) DeliveryStatus() string {
	switch o.Status {
	case OrderStatusDelivered, OrderStatusOutForDelivery, OrderStatusShipped:
		return o.Status
	}
	if o.Tracking.EstimatedDelivery != nil {
		if time.Now().After(*o.Tracking.EstimatedDelivery) {
			return "delayed"
		}
		return "on-time"
	}
	return "unknown"
}
