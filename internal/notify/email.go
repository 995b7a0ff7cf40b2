package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"

	"github.com/iliyamo/ticket-ledger/internal/model"
	"github.com/iliyamo/ticket-ledger/internal/queue"
)

// DefaultSender is used when MAIL_FROM is not set.
const DefaultSender = "TheaterHub <onboarding@resend.dev>"

// EmailSender is the part of the Resend client Email needs.
type EmailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Email sends the booking confirmation through Resend. It implements
// Notifier for direct delivery and queue.Mailer for the consumer.
type Email struct {
	sender EmailSender
	from   string
}

// NewEmail builds an Email notifier backed by a Resend client.
func NewEmail(apiKey, from string) *Email {
	return NewEmailWithSender(resend.NewClient(apiKey).Emails, from)
}

// NewEmailWithSender builds an Email notifier around any sender.
func NewEmailWithSender(sender EmailSender, from string) *Email {
	if from == "" {
		from = DefaultSender
	}
	return &Email{sender: sender, from: from}
}

func (e *Email) Notify(ctx context.Context, order model.Order, show model.Show) error {
	return e.SendConfirmation(ctx, queue.NewOrderConfirmedEvent(order, show))
}

// SendConfirmation renders and sends the confirmation for ev. The request
// to Resend is abandoned when ctx ends.
func (e *Email) SendConfirmation(ctx context.Context, ev queue.OrderConfirmedEvent) error {
	if ev.CustomerEmail == "" {
		return fmt.Errorf("%w: order %s has no email address", model.ErrNotification, ev.OrderID)
	}
	html, err := RenderConfirmation(ev)
	if err != nil {
		return fmt.Errorf("%w: render: %w", model.ErrNotification, err)
	}
	_, err = e.sender.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{ev.CustomerEmail},
		Subject: "Booking Confirmation - " + ev.ShowTitle,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("%w: resend: %w", model.ErrNotification, err)
	}
	return nil
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="background-color: #4F46E5; color: white; padding: 20px; text-align: center;">Booking Confirmed!</h1>
    <h2>Thank you for your purchase, {{.CustomerName}}!</h2>
    <p>Your tickets have been confirmed. Here are your booking details:</p>
    <h3>{{.ShowTitle}}</h3>
    <table>
      <tr><td>Order Number:</td><td><strong>{{.OrderID}}</strong></td></tr>
      <tr><td>Date:</td><td><strong>{{.ShowDate}}</strong></td></tr>
      <tr><td>Time:</td><td><strong>{{.ShowTime}}</strong></td></tr>
      <tr><td>Venue:</td><td><strong>{{.Venue}}</strong></td></tr>
      <tr><td>Number of Tickets:</td><td><strong>{{.Tickets}}</strong></td></tr>
      <tr><td>Subtotal:</td><td><strong>${{.Subtotal}}</strong></td></tr>
      <tr><td>Service Tax (10%):</td><td><strong>${{.ServiceTax}}</strong></td></tr>
      <tr><td>Total Paid:</td><td><strong>${{.TotalPrice}}</strong></td></tr>
    </table>
    <p><strong>Important:</strong> Please bring a valid ID to the venue. Your tickets will be available at the box office under the name "{{.CustomerName}}".</p>
  </div>
</body>
</html>
`))

// RenderConfirmation returns the confirmation email body for ev.
func RenderConfirmation(ev queue.OrderConfirmedEvent) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, ev); err != nil {
		return "", err
	}
	return buf.String(), nil
}
