package senders

import (
	"context"

	"go.uber.org/zap"

	"github.com/fiffu/framenotify/config"
	"github.com/fiffu/framenotify/senders/email"
)

// OperatorAlerter emails the site operator when delivery fails.
type OperatorAlerter struct {
	log       *zap.Logger
	sender    Sender
	recipient string
}

func NewOperatorAlerter(log *zap.Logger, cfg *config.Config, registry Registry) (*OperatorAlerter, error) {
	sender, err := registry.Get(cfg.EmailProvider)
	if err != nil {
		return nil, err
	}
	return &OperatorAlerter{log, sender, cfg.AdminEmail}, nil
}

func (a *OperatorAlerter) DeliveryFailed(ctx context.Context, url string, cause error) {
	if a.recipient == "" {
		a.log.Sugar().Warnw("ADMIN_EMAIL is not set, skipping delivery failure email", "url", url, "err", cause)
		return
	}

	format := &email.DeliveryFailureFormat{URL: url, Error: cause.Error()}
	id, err := a.sender.Send(ctx, format.Subject(), format.Body(), a.recipient)
	if err != nil {
		a.log.Sugar().Errorw("Failed to send delivery failure email", "recipient", a.recipient, "err", err)
		return
	}
	a.log.Sugar().Infow("Sent delivery failure email to "+a.recipient, "message_id", id)
}
