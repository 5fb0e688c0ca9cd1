// utils/email.go
package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SendOperatorCredentials emails the one-time generated password to a newly
// created agency's operator. Delivery is best effort; the agency creation
// has already committed and the password is also returned in the response.
func SendOperatorCredentials(agencyName, email, password string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASSWORD")
	fromEmail := os.Getenv("SMTP_FROM")
	if fromEmail == "" {
		fromEmail = smtpUser
	}

	smtpPort := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			smtpPort = port
		}
	}

	if smtpHost == "" {
		log.Println("SMTP_HOST not configured, skipping credentials email")
		return nil
	}

	body := fmt.Sprintf(`
		<h2>Welcome to Commission Tracker</h2>
		<p>An operator account has been created for <strong>%s</strong>.</p>
		<p>Login email: <strong>%s</strong><br>
		Temporary password: <strong>%s</strong></p>
		<p>Please sign in and change this password. It will not be shown again.</p>
	`, agencyName, email, password)

	m := gomail.NewMessage()
	m.SetHeader("From", fromEmail)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your agency operator account")
	m.SetBody("text/html", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}
