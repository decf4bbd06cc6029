package interceptor

import (
	"fmt"

	"github.com/emundo/emubot/botengine/domain"
)

const (
	NameMirror       = "mirror"
	NamePseudonymize = "pseudonymize"
	NameAttachment   = "attachment"
	NameWelcome      = "welcome"
)

// Names lists the interceptors to chain at each stage, by name.
type Names struct {
	ChatToCore []string
	NluToNlu   []string
	NluToCore  []string
}

// Deps carries the stateful interceptors a configuration may refer to.
type Deps struct {
	Pseudonymizer *Pseudonymizer
	Attachments   AttachmentGate
	Welcome       Welcome
}

// Build resolves configured names into the three stages. An empty stage
// becomes a Mirror.
func Build(names Names, deps Deps) (domain.Interceptors, error) {
	chatToCore, err := buildStage(names.ChatToCore, func(name string) (domain.Interceptor[domain.ChatRequest], error) {
		switch name {
		case NameMirror:
			return Mirror[domain.ChatRequest]{}, nil
		case NamePseudonymize:
			if deps.Pseudonymizer == nil {
				return nil, fmt.Errorf("interceptor %q needs a pseudonym store", name)
			}
			return deps.Pseudonymizer.ChatToCore(), nil
		case NameAttachment:
			return deps.Attachments.ChatToCore(), nil
		case NameWelcome:
			return deps.Welcome.ChatToCore(), nil
		}
		return nil, fmt.Errorf("unknown chatToCore interceptor %q", name)
	})
	if err != nil {
		return domain.Interceptors{}, err
	}

	nluToNlu, err := buildStage(names.NluToNlu, func(name string) (domain.Interceptor[domain.NluResponse], error) {
		if name == NameMirror {
			return Mirror[domain.NluResponse]{}, nil
		}
		return nil, fmt.Errorf("unknown nluToNlu interceptor %q", name)
	})
	if err != nil {
		return domain.Interceptors{}, err
	}

	nluToCore, err := buildStage(names.NluToCore, func(name string) (domain.Interceptor[domain.NluResponse], error) {
		switch name {
		case NameMirror:
			return Mirror[domain.NluResponse]{}, nil
		case NamePseudonymize:
			if deps.Pseudonymizer == nil {
				return nil, fmt.Errorf("interceptor %q needs a pseudonym store", name)
			}
			return deps.Pseudonymizer.NluToCore(), nil
		case NameAttachment:
			return deps.Attachments.NluToCore(), nil
		case NameWelcome:
			return deps.Welcome.NluToCore(), nil
		}
		return nil, fmt.Errorf("unknown nluToCore interceptor %q", name)
	})
	if err != nil {
		return domain.Interceptors{}, err
	}

	return domain.Interceptors{ChatToCore: chatToCore, NluToNlu: nluToNlu, NluToCore: nluToCore}, nil
}

func buildStage[T any](names []string, resolve func(string) (domain.Interceptor[T], error)) (domain.Interceptor[T], error) {
	switch len(names) {
	case 0:
		return Mirror[T]{}, nil
	case 1:
		return resolve(names[0])
	}

	chain := make(Chain[T], 0, len(names))
	for _, name := range names {
		i, err := resolve(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, i)
	}
	return chain, nil
}
