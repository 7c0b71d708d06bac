package webhook

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fiffu/framenotify/lib/signature"
)

//go:embed envelope.schema.json
var envelopeSchema string

var envelopeSchemaLoader = gojsonschema.NewStringLoader(envelopeSchema)

type Verifier interface {
	Verify(ctx context.Context, env signature.Envelope) (*signature.Result, error)
}

// Webhook is an envelope that passed every boundary check.
type Webhook struct {
	Envelope signature.Envelope
	Header   signature.Header
	Payload  Payload
	Event    Event
	Mode     signature.Mode
}

type Validator struct {
	verifier Verifier
}

func NewValidator(verifier Verifier) *Validator {
	return &Validator{verifier}
}

// Validate runs the boundary checks in order: envelope shape, header,
// payload, notification details, then the signature.
func (v *Validator) Validate(ctx context.Context, body []byte) (*Webhook, error) {
	env, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}

	header, err := signature.DecodeHeader(env.Header)
	if err != nil || header.FID == 0 || header.Type == "" {
		return nil, &ValidationError{CodeInvalidHeader, "Invalid webhook header", err}
	}

	payload, event, err := decodePayload(env.Payload)
	if err != nil {
		return nil, err
	}

	if event.RequiresDetails() && !payload.NotificationDetails.Valid() {
		return nil, &ValidationError{Code: CodeInvalidNotificationDetails, Message: "Invalid notification details"}
	}

	res, err := v.verifier.Verify(ctx, env)
	switch {
	case errors.Is(err, signature.ErrSignatureInvalid), errors.Is(err, signature.ErrKeyInactive):
		return nil, &ValidationError{CodeSignatureFailed, "Signature verification failed", err}
	case err != nil:
		return nil, &ValidationError{CodeSignatureError, "Signature verification error", err}
	}

	return &Webhook{
		Envelope: env,
		Header:   res.Header,
		Payload:  payload,
		Event:    event,
		Mode:     res.Mode,
	}, nil
}

func parseEnvelope(body []byte) (signature.Envelope, error) {
	var env signature.Envelope

	result, err := gojsonschema.Validate(envelopeSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return env, &ValidationError{CodeInvalidParameters, "Invalid webhook parameters", err}
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return env, &ValidationError{Code: CodeInvalidParameters, Message: "Invalid webhook parameters: " + strings.Join(reasons, "; ")}
	}

	if err := json.Unmarshal(body, &env); err != nil {
		return env, &ValidationError{CodeInvalidParameters, "Invalid webhook parameters", err}
	}
	return env, nil
}

func decodePayload(segment string) (Payload, Event, error) {
	var payload Payload

	raw, err := signature.DecodeSegment(segment)
	if err != nil {
		return payload, Event{}, &ValidationError{CodeInvalidPayload, "Invalid webhook payload", err}
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, Event{}, &ValidationError{CodeInvalidPayload, "Invalid webhook payload", err}
	}

	event := ParseEvent(payload.Event)
	if event.Kind == EventUnknown {
		return payload, event, &ValidationError{CodeInvalidPayload, "Invalid webhook payload", &InvalidEventError{payload.Event}}
	}
	return payload, event, nil
}
