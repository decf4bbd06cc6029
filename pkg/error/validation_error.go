package error

import "net/http"

type ValidationError string

func (err ValidationError) Error() string {
	return string(err)
}

func (err ValidationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// PayloadError is returned when a webhook body cannot be decoded.
type PayloadError string

func (err PayloadError) Error() string {
	return string(err)
}

func (err PayloadError) ErrCode() string {
	return "PAYLOAD_ERROR"
}

func (err PayloadError) StatusCode() int {
	return http.StatusBadRequest
}
