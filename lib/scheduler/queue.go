package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fiffu/framenotify/lib/models"
)

// Queue holds deferred tasks until they fall due.
type Queue interface {
	Push(ctx context.Context, task *models.Task) error
	// Due returns up to limit tasks whose run-at is not after now, earliest
	// first.
	Due(ctx context.Context, now time.Time, limit int) (models.Tasks, error)
	Ack(ctx context.Context, id string) error
}

func NewTask(kind string, postID uint64, url string, tokens []string, runAt time.Time) *models.Task {
	return &models.Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		PostID:    postID,
		URL:       url,
		Tokens:    tokens,
		RunAt:     runAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
}

type DBQueue struct {
	db *gorm.DB
}

func NewDBQueue(db *gorm.DB) *DBQueue {
	return &DBQueue{db}
}

func (q *DBQueue) Push(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	return q.db.WithContext(ctx).Create(task).Error
}

func (q *DBQueue) Due(ctx context.Context, now time.Time, limit int) (models.Tasks, error) {
	var tasks models.Tasks
	tx := q.db.WithContext(ctx).
		Where("run_at <= ?", now.UTC()).
		Order("run_at, created_at").
		Limit(limit).
		Find(&tasks)
	return tasks, tx.Error
}

func (q *DBQueue) Ack(ctx context.Context, id string) error {
	return q.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{}).Error
}
