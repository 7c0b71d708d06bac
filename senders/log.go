package senders

import (
	"context"

	"github.com/google/uuid"
)

// logSender writes emails to the log instead of sending them.
type logSender struct {
	base
}

func (e *logSender) Send(ctx context.Context, subject, body, recipient string) (string, error) {
	id := uuid.NewString()
	e.log.Sugar().Infow("Email (log provider)", "id", id, "recipient", recipient, "subject", subject, "body", body)
	return id, nil
}
