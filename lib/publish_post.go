package lib

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fiffu/framenotify/config"
	"github.com/fiffu/framenotify/lib/models"
	"github.com/fiffu/framenotify/lib/scheduler"
	"github.com/fiffu/framenotify/lib/store"
)

type publishPost struct {
	cfg   *config.Config
	log   *zap.Logger
	posts store.PostStore
	queue scheduler.Queue
}

// SavePost stores the post. When it transitions into the published state and
// notifications are enabled, a publish task is queued to run immediately.
func (svc *publishPost) SavePost(ctx context.Context, post *models.Post) (bool, error) {
	previous, err := svc.posts.Save(ctx, post)
	if err != nil {
		return false, err
	}

	if !post.IsPublished() || previous == models.PostStatusPublish {
		return false, nil
	}
	if !svc.cfg.Notifications.Enabled {
		svc.log.Sugar().Infow("Post published but notifications are disabled", "post_id", post.ID)
		return false, nil
	}

	task := scheduler.NewTask(models.TaskPublish, post.ID, "", nil, time.Now())
	if err := svc.queue.Push(ctx, task); err != nil {
		return false, err
	}
	svc.log.Sugar().Infow("Scheduled publish notifications", "post_id", post.ID, "task_id", task.ID, "previous_status", previous)
	return true, nil
}
