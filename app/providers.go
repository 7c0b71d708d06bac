package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiffu/framenotify/config"
	"github.com/fiffu/framenotify/lib/dispatch"
	"github.com/fiffu/framenotify/lib/scheduler"
	"github.com/fiffu/framenotify/lib/signature"
	"github.com/fiffu/framenotify/lib/store"
	"github.com/fiffu/framenotify/senders"
)

// NewKeyRegistry returns nil when no RPC endpoint is configured, which leaves
// webhook verification in signature-only mode.
func NewKeyRegistry(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (signature.KeyRegistry, error) {
	if cfg.Chain.RPCURL == "" {
		log.Sugar().Warn("RPC_URL is not set, webhook keys will not be checked against the key registry")
		return nil, nil
	}

	client, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})

	log.Sugar().Infow("Key registry enabled", "address", cfg.Chain.KeyRegistryAddress)
	return signature.NewChainRegistry(client, cfg.Chain.KeyRegistryAddress)
}

func NewQueue(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB) (scheduler.Queue, error) {
	switch cfg.Scheduler.Backend {
	case "database":
		return scheduler.NewDBQueue(db), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		log.Sugar().Infow("Using redis task queue", "addr", cfg.Redis.Addr)
		return scheduler.NewRedisQueue(client, "framenotify"), nil

	default:
		return nil, fmt.Errorf("unknown SCHEDULER_BACKEND %q", cfg.Scheduler.Backend)
	}
}

func NewDispatcher(
	cfg *config.Config,
	log *zap.Logger,
	subs store.SubscriptionStore,
	posts store.PostStore,
	queue scheduler.Queue,
	alerter *senders.OperatorAlerter,
	transport http.RoundTripper,
) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(log, subs, posts, queue, alerter, transport, dispatch.Options{
		SiteName:   cfg.SiteName,
		ChunkSize:  cfg.Notifications.ChunkSize,
		RetryDelay: cfg.Notifications.RetryDelay,
		Timeout:    cfg.Notifications.DeliveryTimeout,
	})
}

func NewRunner(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, queue scheduler.Queue, dispatcher *dispatch.Dispatcher) *scheduler.Runner {
	runner := scheduler.NewRunner(log, queue, dispatcher)
	runner.Hook(lc, cfg.Scheduler.Poll)
	return runner
}
