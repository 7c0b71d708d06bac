package app

import (
	"encoding/json"
	"time"

	"github.com/fiffu/framenotify/lib/models"
)

type SubscriptionView struct {
	ID        uint   `json:"id"`
	FID       uint64 `json:"fid"`
	AppKey    string `json:"app_key"`
	AppURL    string `json:"app_url"`
	Token     string `json:"token"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (view SubscriptionView) From(entity *models.Subscription) SubscriptionView {
	return SubscriptionView{
		ID:        entity.ID,
		FID:       entity.FID,
		AppKey:    entity.AppKey,
		AppURL:    entity.AppURL,
		Token:     entity.Token,
		Status:    entity.Status,
		CreatedAt: isoformat(entity.CreatedAt),
		UpdatedAt: isoformat(entity.UpdatedAt),
	}
}

type EventView struct {
	ID        uint            `json:"id"`
	EventType string          `json:"event_type"`
	FID       uint64          `json:"fid"`
	Timestamp string          `json:"timestamp"`
	FullEvent json.RawMessage `json:"full_event"`
}

func (view EventView) From(entity *models.Event) EventView {
	return EventView{
		ID:        entity.ID,
		EventType: entity.EventType,
		FID:       entity.FID,
		Timestamp: isoformat(entity.Timestamp),
		FullEvent: json.RawMessage(entity.FullEvent),
	}
}

type PostView struct {
	ID                    uint64 `json:"id"`
	Title                 string `json:"title"`
	Status                string `json:"status"`
	Permalink             string `json:"permalink"`
	SuppressNotifications bool   `json:"suppress_notifications"`
}

func (view PostView) From(entity *models.Post) PostView {
	return PostView{
		ID:                    entity.ID,
		Title:                 entity.Title,
		Status:                entity.Status,
		Permalink:             entity.Permalink,
		SuppressNotifications: entity.SuppressNotifications,
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}

func ptrs[T any](elems []T) []*T {
	out := make([]*T, len(elems))
	for i := range elems {
		out[i] = &elems[i]
	}
	return out
}

func isoformat(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
