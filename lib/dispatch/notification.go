package dispatch

import (
	"fmt"

	"github.com/fiffu/framenotify/lib/models"
)

const (
	TitleLimit = 32
	BodyLimit  = 128
)

// Notification is the fixed part of a delivery request body.
type Notification struct {
	NotificationID string `json:"notificationId"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	TargetURL      string `json:"targetUrl"`
}

type deliveryRequest struct {
	Notification
	Tokens []string `json:"tokens"`
}

type deliveryResponse struct {
	Result *deliveryResult `json:"result"`
}

type deliveryResult struct {
	SuccessfulTokens  []string `json:"successfulTokens"`
	InvalidTokens     []string `json:"invalidTokens"`
	RateLimitedTokens []string `json:"rateLimitedTokens"`
}

// NotificationID is stable for a post so that retries reuse it.
func NotificationID(postID uint64, siteName string) string {
	return fmt.Sprintf("farcaster_wp_notification_%d_%s", postID, Slug(siteName))
}

func BuildNotification(post *models.Post, siteName string) Notification {
	body := PlainText(post.Excerpt)
	if body == "" {
		body = PlainText(post.Content)
	}
	return Notification{
		NotificationID: NotificationID(post.ID, siteName),
		Title:          Ellipsize(PlainText(post.Title), TitleLimit),
		Body:           Truncate(body, BodyLimit),
		TargetURL:      post.Permalink,
	}
}
