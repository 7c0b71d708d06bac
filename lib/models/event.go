package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event is the audit record of one inbound webhook. It is never mutated.
type Event struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	EventType string         `gorm:"not null;index" json:"event_type"`
	FID       uint64         `gorm:"column:fid;not null;index" json:"fid"`
	Timestamp time.Time      `gorm:"not null" json:"timestamp"`
	FullEvent datatypes.JSON `json:"full_event"`
}

type Events []Event
