package senders

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiffu/framenotify/config"
)

type Sender interface {
	Send(ctx context.Context, subject, body, recipient string) (string, error)
}

// Registry maps an EMAIL_PROVIDER value to its sender.
type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return map[string]Sender{
		"mailgun": &mailgunSender{base},
		"ses":     &sesSender{base: base},
		"log":     &logSender{base},
	}
}

func (r Registry) Get(provider string) (Sender, error) {
	sender, ok := r[provider]
	if !ok {
		return nil, fmt.Errorf("unknown email provider %q", provider)
	}
	return sender, nil
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
