package webhook

import "fmt"

const (
	CodeInvalidParameters          = "invalid_webhook_parameters"
	CodeInvalidHeader              = "invalid_webhook_header"
	CodeInvalidPayload             = "invalid_webhook_payload"
	CodeInvalidNotificationDetails = "invalid_notification_details"
	CodeSignatureFailed            = "signature_verification_failed"
	CodeSignatureError             = "signature_verification_error"
)

// ValidationError rejects a webhook before it reaches the processor.
type ValidationError struct {
	Code    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type InvalidEventError struct {
	Value string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid event: %q", e.Value)
}
