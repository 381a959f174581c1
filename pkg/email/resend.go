package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/resendlabs/resend-go"
)

type EmailService struct {
	client       *resend.Client
	from         string
	fromName     string
	templatesDir string
	logger       *log.Logger
}

func NewEmailService() *EmailService {
	return &EmailService{
		client:       resend.NewClient(os.Getenv("RESEND_API_KEY")),
		from:         os.Getenv("EMAIL_FROM_ADDRESS"),
		fromName:     os.Getenv("EMAIL_FROM_NAME"),
		templatesDir: "pkg/email/templates",
		logger:       log.New(os.Stdout, "EMAIL: ", log.LstdFlags),
	}
}

func (s *EmailService) SendWelcomeEmail(email, fullName string, signupCredits int) error {
	s.logger.Printf("Sending welcome email to: %s (%s)", email, fullName)

	templateData := map[string]interface{}{
		"FullName": fullName,
		"Credits":  signupCredits,
		"Year":     time.Now().Year(),
	}

	html, err := s.parseTemplate("welcome.html", templateData)
	if err != nil {
		s.logger.Printf("Template error: %v", err)
		return err
	}

	return s.send(email, "Welcome to Draworld!", html)
}

func (s *EmailService) SendPurchaseReceiptEmail(email, fullName, packageName string, credits int) error {
	s.logger.Printf("Sending purchase receipt to: %s", email)

	templateData := map[string]interface{}{
		"FullName":    fullName,
		"PackageName": packageName,
		"Credits":     credits,
		"Year":        time.Now().Year(),
	}

	html, err := s.parseTemplate("purchase_receipt.html", templateData)
	if err != nil {
		s.logger.Printf("Template error: %v", err)
		return err
	}

	return s.send(email, "Your Draworld credits are ready", html)
}

func (s *EmailService) send(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.fromName, s.from),
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	if _, err := s.client.Emails.Send(params); err != nil {
		s.logger.Printf("Failed to send email to %s: %v", to, err)
		return err
	}
	return nil
}

func (s *EmailService) parseTemplate(name string, data map[string]interface{}) (string, error) {
	tmpl, err := template.ParseFiles(filepath.Join(s.templatesDir, name))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
