package notify

import (
	"context"

	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// LogMailer records outgoing notifications in the log instead of sending
// them. It is the default until an SMTP relay is configured.
type LogMailer struct {
	logger interfaces.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger interfaces.Logger) *LogMailer {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg interfaces.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.WithContext(ctx).Info("notify.mail.logged",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
		"bytes", len(msg.HTML),
	)
	return nil
}
