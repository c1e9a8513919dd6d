// utils/email.go
package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/keighl/postmark"

	"ruralreach/models"
)

// EmailService handles sending emails using Postmark
type EmailService struct {
	client *postmark.Client
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService() *EmailService {
	apiToken := os.Getenv("POSTMARK_API_TOKEN")
	if apiToken == "" {
		panic("POSTMARK_API_TOKEN is not set in environment variables")
	}
	client := postmark.NewClient(apiToken, "")
	return &EmailService{
		client: client,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	_, err := es.client.SendEmail(postmark.Email{
		From:     os.Getenv("EMAIL_SENDER"),
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Email sent to %s", toEmail)
	return nil
}

// SendVerificationEmail sends an email verification link to the user
func (es *EmailService) SendVerificationEmail(toEmail, token string) error {
	subject := "Verify Your Email - RuralReach"
	verificationLink := fmt.Sprintf("http://localhost:%s/verify?token=%s", os.Getenv("PORT"), token)
	htmlContent := fmt.Sprintf(
		"<strong>Please verify your email by clicking on the following link:</strong> <a href=\"%s\">Verify Email</a>",
		verificationLink,
	)

	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderConfirmationEmail sends an order confirmation email to the buyer
func (es *EmailService) SendOrderConfirmationEmail(toEmail string, order *models.Order) error {
	subject := "Order Confirmation - RuralReach"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Thank you for supporting rural artisans! Your order <strong>%s</strong> has been placed successfully.<br><br>Total Amount: <strong>%s %.2f</strong><br>Payment Method: <strong>%s</strong><br><br>You can track your order from your dashboard.",
		order.OrderNumber,
		order.Pricing.Currency,
		order.Pricing.Total,
		order.Payment.Method,
	)

	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderStatusEmail notifies the buyer that the order status changed
func (es *EmailService) SendOrderStatusEmail(toEmail string, order *models.Order) error {
	subject := "Order Update - RuralReach"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Your order <strong>%s</strong> is now <strong>%s</strong>.<br><br>Thank you for shopping with us!",
		order.OrderNumber,
		order.Status,
	)

	return es.SendEmail(toEmail, subject, htmlContent)
}
