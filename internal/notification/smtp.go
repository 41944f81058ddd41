// Package notification sends transactional e-mail when a booking is
// confirmed. Delivery is best effort: a failed send is logged and never
// affects the confirmed booking.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers booking notifications.
type Sender interface {
	SendBookingConfirmed(ctx context.Context, toEmail string, data BookingConfirmedData) error
}

// BookingConfirmedData fills the confirmation template.
type BookingConfirmedData struct {
	GuestName  string
	PropertyID string
	StartDate  string
	EndDate    string
}

// SMTPSender sends mail over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

var confirmationTemplate = template.Must(template.New("booking_confirmed").Parse(`
<html>
<body style="font-family: sans-serif; color: #111827;">
  <h2>Buchung bestätigt</h2>
  <p>Guten Tag {{.GuestName}},</p>
  <p>Ihre Zahlung ist eingegangen und Ihre Buchung ist bestätigt.</p>
  <table cellpadding="4">
    <tr><td>Mietbeginn</td><td><strong>{{.StartDate}}</strong></td></tr>
    <tr><td>Mietende</td><td><strong>{{.EndDate}}</strong></td></tr>
  </table>
  <p>Der Mietvertrag folgt in Kürze.</p>
</body>
</html>`))

// SendBookingConfirmed delivers the confirmation mail.
func (s *SMTPSender) SendBookingConfirmed(ctx context.Context, toEmail string, data BookingConfirmedData) error {
	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render confirmation mail: %w", err)
	}
	return s.send(ctx, toEmail, "Ihre Buchung ist bestätigt", body.String())
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

var _ Sender = (*SMTPSender)(nil)
