package utils

import (
	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/sirupsen/logrus"
)

// ResponseData is the JSON envelope returned by every admin endpoint.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics with err so the Recovery middleware can render it.
// Plain errors are wrapped as InternalServerError to keep the envelope stable.
func PanicIfNeeded(err any) {
	if err == nil {
		return
	}
	switch e := err.(type) {
	case pkgError.GenericError:
		panic(e)
	case error:
		logrus.Debugf("[REST] wrapping untyped error: %v", e)
		panic(pkgError.InternalServerError(e.Error()))
	default:
		panic(err)
	}
}
