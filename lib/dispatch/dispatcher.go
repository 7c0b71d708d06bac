package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"

	"github.com/fiffu/framenotify/lib/models"
	"github.com/fiffu/framenotify/lib/scheduler"
	"github.com/fiffu/framenotify/lib/store"
)

// Alerter tells the site operator that a delivery request failed.
type Alerter interface {
	DeliveryFailed(ctx context.Context, url string, cause error)
}

type Options struct {
	SiteName   string
	ChunkSize  int
	RetryDelay time.Duration
	Timeout    time.Duration
}

type Dispatcher struct {
	log       *zap.Logger
	subs      store.SubscriptionStore
	posts     store.PostStore
	queue     scheduler.Queue
	alerter   Alerter
	transport http.RoundTripper
	opts      Options
	now       func() time.Time
}

func NewDispatcher(
	log *zap.Logger,
	subs store.SubscriptionStore,
	posts store.PostStore,
	queue scheduler.Queue,
	alerter Alerter,
	transport http.RoundTripper,
	opts Options,
) *Dispatcher {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 100
	}
	return &Dispatcher{
		log, subs, posts, queue, alerter, transport, opts,
		func() time.Time { return time.Now().UTC() },
	}
}

// HandleTask runs a scheduled publish or retry.
func (d *Dispatcher) HandleTask(ctx context.Context, task models.Task) error {
	switch task.Kind {
	case models.TaskPublish:
		return d.Publish(ctx, task.PostID)
	case models.TaskRetry:
		return d.Retry(ctx, task.PostID, task.URL, task.Tokens)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

// Publish delivers the post to every active subscription, unless the post
// suppresses notifications.
func (d *Dispatcher) Publish(ctx context.Context, postID uint64) error {
	post, err := d.posts.Find(ctx, postID)
	if err != nil {
		return fmt.Errorf("find post %d: %w", postID, err)
	}
	if post.SuppressNotifications {
		d.log.Sugar().Infow("Notifications suppressed for post", "post_id", postID)
		return nil
	}

	subs, err := d.subs.ListActive(ctx)
	if err != nil {
		return err
	}

	notification := BuildNotification(post, d.opts.SiteName)
	urls, tokensByURL := subs.TokensByURL()
	d.log.Sugar().Infow("Publishing notifications", "post_id", postID, "urls", len(urls), "subscriptions", len(subs))
	for _, url := range urls {
		d.sendChunks(ctx, url, tokensByURL[url], notification, postID)
	}
	return nil
}

// Retry resends the post to the given tokens at one URL.
func (d *Dispatcher) Retry(ctx context.Context, postID uint64, url string, tokens []string) error {
	post, err := d.posts.Find(ctx, postID)
	if err != nil {
		return fmt.Errorf("find post %d: %w", postID, err)
	}
	notification := BuildNotification(post, d.opts.SiteName)
	d.log.Sugar().Infow("Retrying notifications", "post_id", postID, "url", url, "tokens", len(tokens))
	d.sendChunks(ctx, url, tokens, notification, postID)
	return nil
}

func (d *Dispatcher) sendChunks(ctx context.Context, url string, tokens []string, notification Notification, postID uint64) {
	for _, chunk := range Chunk(tokens, d.opts.ChunkSize) {
		result := d.send(ctx, url, deliveryRequest{notification, chunk}, postID)
		if result == nil {
			continue
		}
		d.processResult(ctx, url, result, postID)
	}
}

// send posts one chunk. A nil result means nothing further to process,
// either because the request failed and a retry was scheduled or because
// the provider answered without a result.
func (d *Dispatcher) send(ctx context.Context, url string, payload deliveryRequest, postID uint64) *deliveryResult {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	var body string
	err := requests.
		URL(url).
		Transport(d.transport).
		BodyJSON(&payload).
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		deliveryRequests.WithLabelValues("error").Inc()
		d.log.Sugar().Warnw("Delivery request failed", "url", url, "post_id", postID, "tokens", len(payload.Tokens), "err", err)
		d.alerter.DeliveryFailed(context.WithoutCancel(ctx), url, err)
		d.scheduleRetry(context.WithoutCancel(ctx), "transport_error", url, payload.Tokens, postID)
		return nil
	}
	deliveryRequests.WithLabelValues("ok").Inc()

	var resp deliveryResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		d.log.Sugar().Warnw("Unparseable delivery response", "url", url, "post_id", postID, "err", err)
		return nil
	}
	return resp.Result
}

func (d *Dispatcher) processResult(ctx context.Context, url string, result *deliveryResult, postID uint64) {
	deliveryTokens.WithLabelValues("successful").Add(float64(len(result.SuccessfulTokens)))
	deliveryTokens.WithLabelValues("invalid").Add(float64(len(result.InvalidTokens)))
	deliveryTokens.WithLabelValues("rate_limited").Add(float64(len(result.RateLimitedTokens)))

	if len(result.SuccessfulTokens) > 0 {
		if err := d.posts.RecordDeliveredTokens(ctx, postID, result.SuccessfulTokens); err != nil {
			d.log.Sugar().Errorw("Failed to record delivered tokens", "post_id", postID, "err", err)
		}
	}

	for _, token := range result.InvalidTokens {
		n, err := d.subs.DeactivateByToken(ctx, url, token)
		if err != nil {
			d.log.Sugar().Errorw("Failed to deactivate invalid token", "url", url, "err", err)
			continue
		}
		if n > 0 {
			d.log.Sugar().Infow("Deactivated subscription with invalid token", "url", url, "subscriptions", n)
		}
	}

	if len(result.RateLimitedTokens) > 0 {
		d.scheduleRetry(ctx, "rate_limited", url, result.RateLimitedTokens, postID)
	}
}

func (d *Dispatcher) scheduleRetry(ctx context.Context, reason, url string, tokens []string, postID uint64) {
	task := scheduler.NewTask(models.TaskRetry, postID, url, tokens, d.now().Add(d.opts.RetryDelay))
	if err := d.queue.Push(ctx, task); err != nil {
		d.log.Sugar().Errorw("Failed to schedule retry", "url", url, "post_id", postID, "tokens", len(tokens), "err", err)
		return
	}
	retriesScheduled.WithLabelValues(reason).Inc()
	d.log.Sugar().Infow("Scheduled retry", "reason", reason, "url", url, "post_id", postID, "tokens", len(tokens), "run_at", task.RunAt)
}

// Chunk splits tokens into consecutive slices of at most size entries.
func Chunk(tokens []string, size int) [][]string {
	var chunks [][]string
	for size < len(tokens) {
		tokens, chunks = tokens[size:], append(chunks, tokens[:size:size])
	}
	if len(tokens) > 0 {
		chunks = append(chunks, tokens)
	}
	return chunks
}
