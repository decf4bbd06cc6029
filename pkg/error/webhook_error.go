package error

import "net/http"

// WebhookError is returned when a chat platform webhook cannot be verified or
// an outbound platform call fails.
type WebhookError string

func (err WebhookError) Error() string {
	return string(err)
}

func (err WebhookError) ErrCode() string {
	return "WEBHOOK_ERROR"
}

func (err WebhookError) StatusCode() int {
	return http.StatusForbidden
}

// NluError wraps failures talking to an NLU backend.
type NluError string

func (err NluError) Error() string {
	return string(err)
}

func (err NluError) ErrCode() string {
	return "NLU_ERROR"
}

func (err NluError) StatusCode() int {
	return http.StatusBadGateway
}
