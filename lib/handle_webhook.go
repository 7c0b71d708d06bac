package lib

import (
	"context"

	"go.uber.org/zap"

	"github.com/fiffu/framenotify/lib/webhook"
)

type handleWebhook struct {
	log       *zap.Logger
	validator *webhook.Validator
	processor *webhook.Processor
}

// HandleWebhook validates and verifies a raw webhook body, then applies it.
// Boundary failures come back as *webhook.ValidationError.
func (svc *handleWebhook) HandleWebhook(ctx context.Context, body []byte) (webhook.Result, error) {
	hook, err := svc.validator.Validate(ctx, body)
	if err != nil {
		svc.log.Sugar().Warnw("Rejected webhook", "err", err)
		return webhook.Result{}, err
	}

	svc.log.Sugar().Infow("Accepted webhook", "fid", hook.Header.FID, "event", hook.Event.Kind, "verification", hook.Mode)
	return svc.processor.Process(ctx, hook.Envelope, hook.Header, hook.Payload)
}
