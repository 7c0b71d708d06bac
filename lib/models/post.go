package models

import "time"

const PostStatusPublish = "publish"

// Post is the content item a notification is built from. The publishing
// site owns it; we keep the fields we read plus the suppression flag.
type Post struct {
	ID                    uint64    `gorm:"primarykey;autoIncrement:false" json:"id"`
	Title                 string    `json:"title"`
	Excerpt               string    `json:"excerpt"`
	Content               string    `json:"content"`
	Permalink             string    `json:"permalink"`
	Status                string    `gorm:"index" json:"status"`
	SuppressNotifications bool      `json:"suppress_notifications"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublish
}

// DeliveredToken records a token the provider accepted for a post.
type DeliveredToken struct {
	PostID    uint64    `gorm:"primaryKey;autoIncrement:false"`
	Token     string    `gorm:"primaryKey"`
	CreatedAt time.Time
}
