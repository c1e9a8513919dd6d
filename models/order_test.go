package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testOrder() *Order {
	items := []OrderItem{
		{
			ProductID: primitive.NewObjectID(),
			SellerID:  primitive.NewObjectID(),
			Title:     "Handwoven Basket",
			Price:     100,
			Quantity:  2,
			Subtotal:  200,
		},
	}
	shipping := ShippingAddress{
		FullName: "Asha Devi",
		Phone:    "9876543210",
		Email:    "asha@example.com",
		Address:  "12 Village Road",
		City:     "Jaipur",
		State:    "Rajasthan",
		Pincode:  "302001",
	}
	billing := BillingAddress{SameAsShipping: true}
	return NewOrder(primitive.NewObjectID(), items, shipping, billing, PaymentMethodUPI, 0, Discount{})
}

func TestNewOrderPricing(t *testing.T) {
	order := testOrder()

	assert.Equal(t, 200.0, order.Pricing.Subtotal)
	assert.Equal(t, 36.0, order.Pricing.Tax)
	assert.Equal(t, 236.0, order.Pricing.Total)
	assert.Equal(t, "INR", order.Pricing.Currency)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, PaymentStatusPending, order.Payment.Status)
	assert.Len(t, order.Timeline, 1)
}

func TestRecalculatePricingWithShippingAndDiscount(t *testing.T) {
	order := testOrder()
	order.Pricing.Shipping = 50
	order.Pricing.Discount = Discount{Amount: 30, Code: "WELCOME", Type: "fixed"}
	order.RecalculatePricing()

	assert.Equal(t, 200.0, order.Pricing.Subtotal)
	assert.Equal(t, 36.0, order.Pricing.Tax)
	assert.Equal(t, 256.0, order.Pricing.Total)
}

func TestRecalculatePricingNoNegativeClamp(t *testing.T) {
	order := testOrder()
	order.Pricing.Discount = Discount{Amount: 1000, Type: "fixed"}
	order.RecalculatePricing()

	// An oversized discount legitimately drives the total negative
	assert.Equal(t, -764.0, order.Pricing.Total)
}

func TestPricingFollowsItemMutation(t *testing.T) {
	order := testOrder()
	extra := OrderItem{
		ProductID: primitive.NewObjectID(),
		SellerID:  primitive.NewObjectID(),
		Title:     "Clay Pot",
		Price:     150,
		Quantity:  1,
		Subtotal:  150,
	}
	order.Items = append(order.Items, extra)
	order.Finalize()

	assert.Equal(t, 350.0, order.Pricing.Subtotal)
	assert.Equal(t, 63.0, order.Pricing.Tax)
	assert.Equal(t, 413.0, order.Pricing.Total)
}

func TestItemSubtotal(t *testing.T) {
	item := OrderItem{
		Price:    100,
		Quantity: 2,
		Variant:  &ItemVariant{Name: "size", Value: "large", AdditionalCost: 25},
		Customization: []ItemCustomization{
			{Name: "engraving", Value: "AD", AdditionalCost: 10},
			{Name: "gift-wrap", Value: "yes", AdditionalCost: 5},
		},
	}

	assert.Equal(t, 240.0, ItemSubtotal(item))
}

func TestFinalizeCopiesBillingAddress(t *testing.T) {
	order := testOrder()
	order.Finalize()

	assert.True(t, order.BillingAddress.SameAsShipping)
	assert.Equal(t, order.ShippingAddress.FullName, order.BillingAddress.FullName)
	assert.Equal(t, order.ShippingAddress.Phone, order.BillingAddress.Phone)
	assert.Equal(t, order.ShippingAddress.Email, order.BillingAddress.Email)
	assert.Equal(t, order.ShippingAddress.Address, order.BillingAddress.Address)
	assert.Equal(t, order.ShippingAddress.City, order.BillingAddress.City)
	assert.Equal(t, order.ShippingAddress.State, order.BillingAddress.State)
	assert.Equal(t, order.ShippingAddress.Pincode, order.BillingAddress.Pincode)
}

func TestFinalizeKeepsDistinctBillingAddress(t *testing.T) {
	order := testOrder()
	order.BillingAddress = BillingAddress{
		FullName:       "Billing Name",
		City:           "Mumbai",
		SameAsShipping: false,
	}
	order.Finalize()

	assert.Equal(t, "Billing Name", order.BillingAddress.FullName)
	assert.Equal(t, "Mumbai", order.BillingAddress.City)
}

func TestOrderNumberFormat(t *testing.T) {
	number := NewOrderNumber()

	assert.True(t, strings.HasPrefix(number, "RR"))
	assert.Len(t, number, 13)
	for _, r := range number {
		assert.True(t, (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'), "unexpected char %q", r)
	}
}

func TestCanBeCancelled(t *testing.T) {
	order := testOrder()

	cancellable := []string{OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing}
	for _, status := range cancellable {
		order.Status = status
		assert.True(t, order.CanBeCancelled(), "status %s should be cancellable", status)
	}

	notCancellable := []string{OrderStatusShipped, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned}
	for _, status := range notCancellable {
		order.Status = status
		assert.False(t, order.CanBeCancelled(), "status %s should not be cancellable", status)
	}
}

func TestCancelOrderWithCompletedPayment(t *testing.T) {
	order := testOrder()
	order.MarkPaid("txn-1", "mock-gateway")
	cancelledBy := order.BuyerID
	timelineBefore := len(order.Timeline)

	order.Cancel("changed mind", cancelledBy)

	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.NotNil(t, order.Cancellation)
	assert.Equal(t, "changed mind", order.Cancellation.Reason)
	assert.Equal(t, cancelledBy, order.Cancellation.CancelledBy)
	assert.Equal(t, RefundStatusPending, order.Cancellation.RefundStatus)
	assert.Len(t, order.Timeline, timelineBefore+1)
	assert.Equal(t, OrderStatusCancelled, order.Timeline[len(order.Timeline)-1].Status)
}

func TestCancelOrderWithPendingPayment(t *testing.T) {
	order := testOrder()

	order.Cancel("out of stock", order.BuyerID)

	assert.Equal(t, RefundStatusNotApplicable, order.Cancellation.RefundStatus)
}

func TestCanBeReturnedWithinWindow(t *testing.T) {
	order := testOrder()
	order.Status = OrderStatusDelivered
	delivered := time.Now().AddDate(0, 0, -3)
	order.Tracking.ActualDelivery = &delivered

	assert.True(t, order.CanBeReturned())
}

func TestCanBeReturnedOutsideWindow(t *testing.T) {
	order := testOrder()
	order.Status = OrderStatusDelivered
	delivered := time.Now().AddDate(0, 0, -10)
	order.Tracking.ActualDelivery = &delivered

	assert.False(t, order.CanBeReturned())
}

func TestCanBeReturnedFallsBackToUpdatedAt(t *testing.T) {
	order := testOrder()
	order.Status = OrderStatusDelivered
	order.UpdatedAt = time.Now().AddDate(0, 0, -2)

	assert.True(t, order.CanBeReturned())
}

func TestCanBeReturnedRequiresDelivered(t *testing.T) {
	order := testOrder()
	order.Status = OrderStatusShipped
	delivered := time.Now()
	order.Tracking.ActualDelivery = &delivered

	assert.False(t, order.CanBeReturned())
}

func TestRequestReturn(t *testing.T) {
	order := testOrder()
	order.Status = OrderStatusDelivered
	timelineBefore := len(order.Timeline)

	order.RequestReturn("defective")

	assert.NotNil(t, order.Return)
	assert.True(t, order.Return.Requested)
	assert.Equal(t, "defective", order.Return.Reason)
	assert.Equal(t, ReturnStatusRequested, order.Return.Status)
	assert.Len(t, order.Timeline, timelineBefore+1)
}

func TestProcessRefundDefaultsToTotal(t *testing.T) {
	order := testOrder()
	order.MarkPaid("txn-2", "mock-gateway")
	order.Status = OrderStatusShipped

	order.ProcessRefund(0, "damaged in transit")

	assert.Equal(t, PaymentStatusRefunded, order.Payment.Status)
	assert.NotNil(t, order.Payment.Refund)
	assert.Equal(t, order.Pricing.Total, order.Payment.Refund.Amount)
	assert.Equal(t, RefundStatusProcessing, order.Payment.Refund.Status)
	assert.NotEmpty(t, order.Payment.Refund.RefundID)
	// Refund is a payment-level event: order status stays put
	assert.Equal(t, OrderStatusShipped, order.Status)
}

func TestProcessRefundPartialAmount(t *testing.T) {
	order := testOrder()
	order.MarkPaid("txn-3", "mock-gateway")

	order.ProcessRefund(50, "partial damage")

	assert.Equal(t, 50.0, order.Payment.Refund.Amount)
}

func TestSetStatusAppendsTimeline(t *testing.T) {
	order := testOrder()
	timelineBefore := len(order.Timeline)

	order.SetStatus(OrderStatusConfirmed, primitive.NilObjectID)

	assert.Equal(t, OrderStatusConfirmed, order.Status)
	assert.Len(t, order.Timeline, timelineBefore+1)
	last := order.Timeline[len(order.Timeline)-1]
	assert.Equal(t, OrderStatusConfirmed, last.Status)
	assert.Equal(t, "Order status updated to confirmed", last.Message)
}

func TestUpdateTrackingMergesAndAppends(t *testing.T) {
	order := testOrder()
	estimated := time.Now().AddDate(0, 0, 5)

	order.UpdateTracking(TrackingData{
		TrackingNumber:    "TRK123",
		Carrier:           "IndiaPost",
		EstimatedDelivery: &estimated,
		Status:            "in-transit",
		Location:          "Jaipur hub",
	})

	assert.Equal(t, "TRK123", order.Tracking.TrackingNumber)
	assert.Equal(t, "IndiaPost", order.Tracking.Carrier)
	assert.Len(t, order.Tracking.Updates, 1)
	assert.Equal(t, "in-transit", order.Tracking.Updates[0].Status)
	assert.Equal(t, "Package in-transit", order.Tracking.Updates[0].Message)
	assert.Equal(t, "Jaipur hub", order.Tracking.Updates[0].Location)
}

func TestUpdateTrackingWithoutStatusDoesNotAppend(t *testing.T) {
	order := testOrder()

	order.UpdateTracking(TrackingData{Carrier: "IndiaPost"})

	assert.Equal(t, "IndiaPost", order.Tracking.Carrier)
	assert.Empty(t, order.Tracking.Updates)
}

func TestDerivedCounters(t *testing.T) {
	order := testOrder()
	seller := order.Items[0].SellerID
	order.Items = append(order.Items, OrderItem{
		ProductID: primitive.NewObjectID(),
		SellerID:  seller,
		Title:     "Clay Pot",
		Price:     150,
		Quantity:  3,
		Subtotal:  450,
	})

	assert.Equal(t, 5, order.TotalItems())
	assert.Equal(t, 1, order.SellersCount())
}

func TestValidOrderStatus(t *testing.T) {
	assert.True(t, ValidOrderStatus(OrderStatusOutForDelivery))
	assert.False(t, ValidOrderStatus("teleported"))
}
