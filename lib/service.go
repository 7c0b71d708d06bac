package lib

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiffu/framenotify/config"
	"github.com/fiffu/framenotify/lib/scheduler"
	"github.com/fiffu/framenotify/lib/store"
	"github.com/fiffu/framenotify/lib/webhook"
)

type Service struct {
	cfg *config.Config
	log *zap.Logger

	Subscriptions store.SubscriptionStore
	Events        store.EventLog
	Posts         store.PostStore

	*handleWebhook
	*publishPost
	*migrateLegacy
}

func NewService(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	subs store.SubscriptionStore,
	events store.EventLog,
	posts store.PostStore,
	queue scheduler.Queue,
	validator *webhook.Validator,
	processor *webhook.Processor,
) *Service {
	return &Service{
		cfg, log,
		subs, events, posts,
		&handleWebhook{log, validator, processor},
		&publishPost{cfg, log, posts, queue},
		&migrateLegacy{log, subs},
	}
}
