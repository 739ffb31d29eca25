package mailer

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendJeezReceipt(toEmail, fullName string, quantity, newBalance string) error
	SendVipActivated(toEmail, fullName, plan string, expiresAt time.Time) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string
}

func NewEmailService(host string, port int, username, password, senderName, clientURL string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
		clientURL:   clientURL,
	}
}

func (s *emailService) send(toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendJeezReceipt(toEmail, fullName string, quantity, newBalance string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Thanks for your purchase, %s!</h2>
			<p><strong>%s Jeez</strong> were added to your wallet.</p>
			<p>Your balance is now <strong>%s Jeez</strong>.</p>
			<p><a href="%s/wallet">Open your wallet</a></p>
		</div>
	`, displayName(fullName), quantity, newBalance, s.clientURL)
	return s.send(toEmail, "Your Jeez purchase", body)
}

func (s *emailService) SendVipActivated(toEmail, fullName, plan string, expiresAt time.Time) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to VIP, %s!</h2>
			<p>Your <strong>%s</strong> plan is active until <strong>%s</strong>.</p>
			<p><a href="%s/vip">Manage your subscription</a></p>
		</div>
	`, displayName(fullName), plan, expiresAt.UTC().Format("January 2, 2006"), s.clientURL)
	return s.send(toEmail, "Your VIP subscription is active", body)
}

func displayName(fullName string) string {
	if fullName == "" {
		return "there"
	}
	return fullName
}
