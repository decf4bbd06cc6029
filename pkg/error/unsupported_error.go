package error

import "net/http"

// UnsupportedError reports an operation the configured backend cannot do.
type UnsupportedError string

func (err UnsupportedError) Error() string {
	return string(err)
}

func (err UnsupportedError) ErrCode() string {
	return "UNSUPPORTED_ERROR"
}

func (err UnsupportedError) StatusCode() int {
	return http.StatusNotImplemented
}
