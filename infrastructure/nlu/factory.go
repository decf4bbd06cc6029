package nlu

import (
	"fmt"
	"io"
	"time"

	"github.com/emundo/emubot/botengine/domain"
)

const (
	PlatformRasa       = "rasa"
	PlatformSnips      = "snips"
	PlatformStatic     = "static"
	PlatformDialogflow = "dialogflow"
)

// Backend pairs the query client of a platform with its context side channel.
type Backend struct {
	Client   domain.NluClient
	Contexts domain.ContextManager

	closer io.Closer
}

// Close releases connections held by the backend, if any.
func (b Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// New builds the backend for platform. doer may be nil to use a default
// fasthttp client.
func New(platform string, doer Doer, timeout time.Duration) (Backend, error) {
	switch platform {
	case PlatformRasa:
		return Backend{Client: NewRasaClient(doer, timeout), Contexts: NewContextClient(doer, timeout)}, nil
	case PlatformSnips:
		return Backend{Client: NewSnipsClient(doer, timeout), Contexts: NewContextClient(doer, timeout)}, nil
	case PlatformDialogflow:
		df := NewDialogflowClient(timeout)
		return Backend{Client: df, Contexts: df, closer: df}, nil
	case PlatformStatic, "":
		static := NewStaticClient()
		return Backend{Client: static, Contexts: static}, nil
	}
	return Backend{}, fmt.Errorf("unsupported nlu platform %q", platform)
}
