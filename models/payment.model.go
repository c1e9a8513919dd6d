package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusCancelled  = "cancelled"
)

// Payment methods
const (
	PaymentMethodUPI        = "upi"
	PaymentMethodCard       = "card"
	PaymentMethodNetbanking = "netbanking"
	PaymentMethodCOD        = "cod"
	PaymentMethodWallet     = "wallet"
)

// Refund statuses (payment refunds and cancellation refund tracking)
const (
	RefundStatusNotApplicable = "not-applicable"
	RefundStatusPending       = "pending"
	RefundStatusProcessing    = "processing"
	RefundStatusCompleted     = "completed"
	RefundStatusFailed        = "failed"
)

// Return statuses
const (
	ReturnStatusRequested = "requested"
	ReturnStatusApproved  = "approved"
	ReturnStatusRejected  = "rejected"
	ReturnStatusPickedUp  = "picked-up"
	ReturnStatusCompleted = "completed"
)

// ValidPaymentMethod reports whether method is a recognized payment method.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodUPI, PaymentMethodCard, PaymentMethodNetbanking,
		PaymentMethodCOD, PaymentMethodWallet:
		return true
	}
	return false
}

// Refund is the refund sub-record on a payment
type Refund struct {
	Amount      float64   `bson:"amount" json:"amount"`
	Reason      string    `bson:"reason,omitempty" json:"reason,omitempty"`
	Status      string    `bson:"status" json:"status"`
	RefundID    string    `bson:"refund_id,omitempty" json:"refund_id,omitempty"`
	ProcessedAt time.Time `bson:"processed_at" json:"processed_at"`
}

// Payment is the payment sub-record embedded in an order
type Payment struct {
	Method         string     `bson:"method" json:"method"`
	Status         string     `bson:"status" json:"status"`
	TransactionID  string     `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	PaymentGateway string     `bson:"payment_gateway,omitempty" json:"payment_gateway,omitempty"`
	PaidAt         *time.Time `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	FailureReason  string     `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	Refund         *Refund    `bson:"refund,omitempty" json:"refund,omitempty"`
}

// MarkPaid records a completed payment with its gateway transaction id.
func (o *Order) MarkPaid(transactionID, gateway string) {
	now := time.Now()
	if transactionID == "" {
		transactionID = uuid.New().String()
	}
	o.Payment.Status = PaymentStatusCompleted
	o.Payment.TransactionID = transactionID
	o.Payment.PaymentGateway = gateway
	o.Payment.PaidAt = &now
}

// ProcessRefund starts a refund on the order's payment. A non-positive
// amount refunds the full order total. The order status itself is left
// untouched: a refund is a payment-level event, independent of shipment.
func (o *Order) ProcessRefund(amount float64, reason string) {
	if amount <= 0 {
		amount = o.Pricing.Total
	}
	o.Payment.Refund = &Refund{
		Amount:      amount,
		Reason:      reason,
		Status:      RefundStatusProcessing,
		RefundID:    uuid.New().String(),
		ProcessedAt: time.Now(),
	}
	o.Payment.Status = PaymentStatusRefunded
}
