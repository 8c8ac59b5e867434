package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendReauthorizationNotice(toEmail, workspaceID string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	baseURL     string
}

func NewEmailService(host string, port int, email, password, senderName, baseURL string) IEmailService {
	d := gomail.NewDialer(host, port, email, password)

	return &emailService{
		dialer:      d,
		senderEmail: email,
		senderName:  senderName,
		baseURL:     baseURL,
	}
}

// SendReauthorizationNotice tells the operator that a workspace token could
// not be refreshed and the OAuth flow must be run again.
func (s *emailService) SendReauthorizationNotice(toEmail, workspaceID string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Re-authorization required for workspace %s", workspaceID))

	authorizeLink := fmt.Sprintf("%s/api/oauth/authorize", s.baseURL)
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Agent access interrupted</h2>
			<p>The access token for workspace <b>%s</b> has expired and could not be refreshed.</p>
			<p>The agent will not respond to issue events for this workspace until it is re-authorized:</p>
			<p><a href="%s">%s</a></p>
		</div>
	`, workspaceID, authorizeLink, authorizeLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send re-auth notice for %s: %v\n", workspaceID, err)
		return err
	}

	fmt.Printf("[MAILER] Re-auth notice sent for workspace %s\n", workspaceID)
	return nil
}
