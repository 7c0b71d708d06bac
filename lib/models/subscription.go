package models

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Subscription is one account's registration for push notifications from
// one client application. (FID, AppKey) is unique.
type Subscription struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	FID       uint64    `gorm:"column:fid;uniqueIndex:idx_fid_app_key;index" json:"fid"`
	AppKey    string    `gorm:"uniqueIndex:idx_fid_app_key;index" json:"app_key"`
	AppURL    string    `gorm:"not null" json:"app_url"`
	Token     string    `gorm:"not null;index" json:"token"`
	Status    string    `gorm:"not null;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Subscriptions []Subscription

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// TokensByURL groups tokens by delivery URL, keeping URLs in the order they
// first appear.
func (subs Subscriptions) TokensByURL() ([]string, map[string][]string) {
	urls := make([]string, 0)
	tokens := make(map[string][]string)
	for _, sub := range subs {
		if _, seen := tokens[sub.AppURL]; !seen {
			urls = append(urls, sub.AppURL)
		}
		tokens[sub.AppURL] = append(tokens[sub.AppURL], sub.Token)
	}
	return urls, tokens
}
