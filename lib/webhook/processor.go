package webhook

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/fiffu/framenotify/lib/models"
	"github.com/fiffu/framenotify/lib/signature"
	"github.com/fiffu/framenotify/lib/store"
)

type Result struct {
	Success bool `json:"success"`
}

type Processor struct {
	log    *zap.Logger
	subs   store.SubscriptionStore
	events store.EventLog
	now    func() time.Time
}

func NewProcessor(log *zap.Logger, subs store.SubscriptionStore, events store.EventLog) *Processor {
	return &Processor{log, subs, events, func() time.Time { return time.Now().UTC() }}
}

// Process records the webhook in the event log and then applies it to the
// subscription store. An unrecognised event is returned as *InvalidEventError
// after it has been recorded.
func (p *Processor) Process(ctx context.Context, env signature.Envelope, header signature.Header, payload Payload) (Result, error) {
	p.record(ctx, env, header, payload)

	event := ParseEvent(payload.Event)
	var res Result
	switch event.Kind {
	case EventFrameAdded, EventNotificationsEnabled:
		res = p.addSubscription(ctx, header, payload.NotificationDetails)
	case EventFrameRemoved, EventNotificationsDisabled:
		res = p.removeSubscription(ctx, header)
	default:
		webhooksTotal.WithLabelValues("unknown", "invalid").Inc()
		return Result{}, &InvalidEventError{event.Raw}
	}

	outcome := "ok"
	if !res.Success {
		outcome = "failed"
	}
	webhooksTotal.WithLabelValues(event.Kind.String(), outcome).Inc()
	return res, nil
}

func (p *Processor) record(ctx context.Context, env signature.Envelope, header signature.Header, payload Payload) {
	full, err := json.Marshal(env)
	if err != nil {
		p.log.Sugar().Errorw("Failed to encode webhook for event log", "err", err)
		return
	}
	entry := &models.Event{
		EventType: payload.Event,
		FID:       header.FID,
		Timestamp: p.now(),
		FullEvent: full,
	}
	if err := p.events.Record(ctx, entry); err != nil {
		p.log.Sugar().Errorw("Failed to record webhook event", "fid", header.FID, "event", payload.Event, "err", err)
	}
}

func (p *Processor) addSubscription(ctx context.Context, header signature.Header, details *NotificationDetails) Result {
	if !details.Valid() {
		p.log.Sugar().Warnw("Subscription event without notification details", "fid", header.FID)
		return Result{Success: false}
	}

	changed, err := p.subs.Activate(ctx, header.FID, header.Key, details.URL, details.Token)
	if err != nil {
		p.log.Sugar().Errorw("Failed to activate subscription", "fid", header.FID, "err", err)
		return Result{Success: false}
	}
	if changed {
		p.log.Sugar().Infow("Subscription activated", "fid", header.FID, "url", details.URL)
	}
	return Result{Success: true}
}

func (p *Processor) removeSubscription(ctx context.Context, header signature.Header) Result {
	removed, err := p.subs.Deactivate(ctx, header.FID, header.Key)
	if err != nil {
		p.log.Sugar().Errorw("Failed to deactivate subscription", "fid", header.FID, "err", err)
		return Result{Success: false}
	}
	if removed {
		p.log.Sugar().Infow("Subscription deactivated", "fid", header.FID)
	}
	return Result{Success: true}
}
