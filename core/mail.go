package core

import "net/mail"

type (
	// EmailMessage is a plain-text notification handed to an EmailService.
	// Parent notifications are short generated texts; no templating needed here.
	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.BodyStr != "" }
