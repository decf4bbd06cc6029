package domain

import "net/http"

type ResultKind string

const (
	ResultRespond    ResultKind = "respond"
	ResultNoResponse ResultKind = "no_response"
)

// PipelineResult is what every pipeline stage returns: either a payload to
// keep processing (Respond) or a signal that nothing more is sent (NoResponse).
// InterruptProcessing and Action are only meaningful on Respond.
type PipelineResult[T any] struct {
	Kind                ResultKind `json:"kind"`
	Payload             T          `json:"payload"`
	StatusCode          int        `json:"status_code"`
	UserID              string     `json:"user_id"`
	InterruptProcessing bool       `json:"interrupt_processing,omitempty"`
	Action              string     `json:"action,omitempty"`
}

func Respond[T any](payload T, statusCode int, userID string) PipelineResult[T] {
	return PipelineResult[T]{
		Kind:       ResultRespond,
		Payload:    payload,
		StatusCode: statusCode,
		UserID:     userID,
	}
}

// RespondOK is Respond with status 200.
func RespondOK[T any](payload T, userID string) PipelineResult[T] {
	return Respond(payload, http.StatusOK, userID)
}

func NoResponse[T any](statusCode int, userID string) PipelineResult[T] {
	return PipelineResult[T]{
		Kind:       ResultNoResponse,
		StatusCode: statusCode,
		UserID:     userID,
	}
}

func (r PipelineResult[T]) IsNoResponse() bool {
	return r.Kind == ResultNoResponse
}

// Interrupt marks a Respond result so the NLU stage is skipped. action is
// handed to the synthetic NLU response built for the rest of the pipeline.
func (r PipelineResult[T]) Interrupt(action string) PipelineResult[T] {
	if r.IsNoResponse() {
		return r
	}
	r.InterruptProcessing = true
	r.Action = action
	return r
}

// ForwardNoResponse retypes a NoResponse so it can leave a stage whose
// payload type differs from the one that produced it.
func ForwardNoResponse[U, T any](r PipelineResult[T]) PipelineResult[U] {
	return NoResponse[U](r.StatusCode, r.UserID)
}
