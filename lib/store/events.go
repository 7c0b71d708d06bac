package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/fiffu/framenotify/lib/models"
)

// EventLog is append-only.
type EventLog interface {
	Record(ctx context.Context, event *models.Event) error
	List(ctx context.Context, limit int) (models.Events, error)
}

type eventLog struct {
	db *gorm.DB
}

func NewEventLog(db *gorm.DB) EventLog {
	return &eventLog{db}
}

func (l *eventLog) Record(ctx context.Context, event *models.Event) error {
	return l.db.WithContext(ctx).Create(event).Error
}

func (l *eventLog) List(ctx context.Context, limit int) (models.Events, error) {
	var events models.Events
	tx := l.db.WithContext(ctx).Order("timestamp desc, id desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	tx = tx.Find(&events)
	return events, tx.Error
}
