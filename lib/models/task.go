package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TaskPublish = "publish"
	TaskRetry   = "retry"
)

// Task is a deferred delivery invocation. Publish tasks carry only the post;
// retry tasks also carry the destination URL and the tokens still owed.
type Task struct {
	ID        string                      `gorm:"primaryKey" json:"id"`
	Kind      string                      `gorm:"not null" json:"kind"`
	PostID    uint64                      `gorm:"not null" json:"post_id"`
	URL       string                      `json:"url,omitempty"`
	Tokens    datatypes.JSONSlice[string] `json:"tokens,omitempty"`
	RunAt     time.Time                   `gorm:"not null;index" json:"run_at"`
	CreatedAt time.Time                   `json:"created_at"`
}

type Tasks []Task

func (Task) TableName() string {
	return "scheduled_tasks"
}
