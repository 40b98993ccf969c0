package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendRejectionNotice(toEmail, taskTitle, feedback string) error
	SendApprovalNotice(toEmail, taskTitle string, amountCents int64) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendRejectionNotice(toEmail, taskTitle, feedback string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your submission was not accepted")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Submission update</h2>
			<p>Your submission for <strong>%s</strong> was reviewed and not accepted.</p>
			<p>Reviewer feedback:</p>
			<blockquote style="border-left: 3px solid #ccc; padding-left: 10px;">%s</blockquote>
			<p>You can record a new attempt at any time while the task is open.</p>
		</div>
	`, taskTitle, feedback)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return err
	}
	return nil
}

func (s *emailService) SendApprovalNotice(toEmail, taskTitle string, amountCents int64) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your submission was approved")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Submission approved</h2>
			<p>Your submission for <strong>%s</strong> was approved.</p>
			<p>Amount credited to your wallet: <strong>$%.2f</strong></p>
		</div>
	`, taskTitle, float64(amountCents)/100)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return err
	}
	return nil
}
