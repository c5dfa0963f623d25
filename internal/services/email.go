package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"

	"quizzer-backend/internal/models"
)

type EmailService struct {
	host        string
	port        string
	user        string
	pass        string
	from        string
	frontendURL string
	devMode     bool
}

func NewEmailService(host, port, user, pass, from, frontendURL string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		frontendURL: frontendURL,
		devMode:     devMode,
	}
}

var resultEmailTemplate = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); overflow: hidden;">
    <div style="background: linear-gradient(135deg, #6366f1 0%, #8b5cf6 100%); padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px; font-weight: 700;">AI Quizzer</h1>
      <p style="color: rgba(255,255,255,0.85); margin: 8px 0 0; font-size: 14px;">Attempt {{.AttemptNo}}</p>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">Your Quiz Results</h2>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 8px;"><strong>Subject:</strong> {{.Subject}}</p>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 8px;"><strong>Grade:</strong> {{.Grade}}</p>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 24px;"><strong>Score:</strong> {{.Score}} / {{.Total}}</p>
      <h3 style="margin: 0 0 8px; font-size: 16px; color: #1e293b;">Suggestions</h3>
      <ul style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 24px; padding-left: 20px;">
        {{range .Suggestions}}<li>{{.}}</li>
        {{end}}
      </ul>
      <a href="{{.HistoryURL}}" style="display: inline-block; background: #6366f1; color: white; text-decoration: none; padding: 12px 32px; border-radius: 8px; font-weight: 600; font-size: 14px;">
        View History
      </a>
    </div>
  </div>
</body>
</html>`))

// ResultEmail renders the subject line and HTML body for a graded submission.
func (s *EmailService) ResultEmail(n models.ResultNotification) (string, string, error) {
	subject := fmt.Sprintf("Your Quiz Results (Attempt %d)", n.AttemptNo)

	var buf bytes.Buffer
	err := resultEmailTemplate.Execute(&buf, struct {
		models.ResultNotification
		HistoryURL string
	}{n, s.frontendURL + "/history"})
	if err != nil {
		return "", "", fmt.Errorf("failed to render result email: %w", err)
	}
	return subject, buf.String(), nil
}

func (s *EmailService) SendResultEmail(to string, n models.ResultNotification) error {
	subject, body, err := s.ResultEmail(n)
	if err != nil {
		return err
	}
	return s.sendHTML(to, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		log.Printf("📧 Body:\n%s", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent to %s: %s", to, subject)
	return nil
}
