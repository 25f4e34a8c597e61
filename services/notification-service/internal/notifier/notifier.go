package notifier

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

// Notifier delivers a rendered notification to one recipient.
type Notifier interface {
	Notify(to, subject, body string) error
}

// ConsoleNotifier logs instead of sending; used when SMTP is not configured.
type ConsoleNotifier struct{}

func NewConsole() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (c *ConsoleNotifier) Notify(to, subject, body string) error {
	log.Printf("[notify] to=%s %s :: %s\n", to, subject, body)
	return nil
}

// EmailNotifier sends plain-text mail over SMTP.
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmail(host string, port int, user, pass, from string) *EmailNotifier {
	return &EmailNotifier{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

func (e *EmailNotifier) Notify(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
