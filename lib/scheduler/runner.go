package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiffu/framenotify/lib/models"
)

const drainBatch = 50

type Handler interface {
	HandleTask(ctx context.Context, task models.Task) error
}

type HandlerFunc func(ctx context.Context, task models.Task) error

func (f HandlerFunc) HandleTask(ctx context.Context, task models.Task) error {
	return f(ctx, task)
}

// Runner periodically drains due tasks from a Queue into a Handler. Tasks
// are acked after the handler returns, whatever the outcome.
type Runner struct {
	log     *zap.Logger
	queue   Queue
	handler Handler
	cron    *cron.Cron
	now     func() time.Time

	mu sync.Mutex
}

func NewRunner(log *zap.Logger, queue Queue, handler Handler) *Runner {
	cronLog := cron.PrintfLogger(zap.NewStdLog(log))
	c := cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))
	return &Runner{
		log:     log,
		queue:   queue,
		handler: handler,
		cron:    c,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Hook schedules draining on spec while the fx app runs.
func (r *Runner) Hook(lc fx.Lifecycle, spec string) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
				return err
			}
			r.cron.Start()
			r.log.Sugar().Infow("Task runner started", "spec", spec)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			r.log.Sugar().Info("Trying to stop task runner")
			select {
			case <-r.cron.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}

func (r *Runner) tick() {
	if _, err := r.Drain(context.Background()); err != nil {
		r.log.Sugar().Errorw("Failed to drain due tasks", "err", err)
	}
}

// Drain handles every task due now and returns how many were handled.
func (r *Runner) Drain(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handled := 0
	for {
		tasks, err := r.queue.Due(ctx, r.now(), drainBatch)
		if err != nil {
			return handled, err
		}
		if len(tasks) == 0 {
			return handled, nil
		}

		for _, task := range tasks {
			if err := r.handler.HandleTask(ctx, task); err != nil {
				r.log.Sugar().Errorw("Task failed", "task_id", task.ID, "kind", task.Kind, "post_id", task.PostID, "err", err)
			}
			if err := r.queue.Ack(ctx, task.ID); err != nil {
				return handled, err
			}
			handled++
		}
	}
}
