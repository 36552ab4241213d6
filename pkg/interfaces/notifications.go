package interfaces

import "context"

// PDFRenderer converts an HTML document into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// MailMessage is an outgoing notification email.
type MailMessage struct {
	From        string
	ReplyTo     string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers notification emails.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}
