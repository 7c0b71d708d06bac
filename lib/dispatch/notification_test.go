package dispatch

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/fiffu/framenotify/lib/models"
)

func TestBuildNotification_TitleEllipsis(t *testing.T) {
	post := &models.Post{ID: 7, Title: "A really quite long title that goes on and on", Excerpt: "x"}
	n := BuildNotification(post, "site")

	assert.Equal(t, TitleLimit, utf8.RuneCountInString(n.Title))
	assert.True(t, strings.HasSuffix(n.Title, "…"))
	assert.Equal(t, "A really quite long title that …", n.Title)
}

func TestBuildNotification_ShortTitleUntouched(t *testing.T) {
	n := BuildNotification(&models.Post{ID: 7, Title: "Exactly thirty-two characters!!!"}, "site")
	assert.Equal(t, "Exactly thirty-two characters!!!", n.Title)
}

func TestBuildNotification_BodyFallsBackToContent(t *testing.T) {
	content := "<p>" + strings.Repeat("é", 200) + "</p>"
	n := BuildNotification(&models.Post{ID: 7, Title: "t", Content: content}, "site")

	assert.Equal(t, BodyLimit, utf8.RuneCountInString(n.Body))
	assert.Equal(t, strings.Repeat("é", 128), n.Body)
}

func TestNotificationID(t *testing.T) {
	assert.Equal(t, "farcaster_wp_notification_12_my_great_blog", NotificationID(12, "My Great Blog!"))
	assert.Equal(t, "farcaster_wp_notification_12_caf_news", NotificationID(12, "Café -- News"))
}

func TestPlainText(t *testing.T) {
	testCases := map[string]string{
		"plain":                                    "plain",
		"  spaced \n\t out ":                       "spaced out",
		"<b>Bold</b> &amp; <i>italic</i>":          "Bold & italic",
		"<p>One</p>\n<p>Two</p>":                   "One Two",
		"before<script>alert(1)</script>after":     "beforeafter",
		"Tom &amp; Jerry":                          "Tom & Jerry",
		"<style>p{color:red}</style><p>styled</p>": "styled",
	}
	for in, want := range testCases {
		assert.Equal(t, want, PlainText(in), in)
	}
}

func TestChunk(t *testing.T) {
	tokens := make([]string, 205)
	for i := range tokens {
		tokens[i] = string(rune('a' + i%26))
	}

	chunks := Chunk(tokens, 100)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 5)

	assert.Empty(t, Chunk(nil, 100))
	assert.Len(t, Chunk(tokens[:100], 100), 1)
}
