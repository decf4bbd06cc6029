package interceptor

import (
	"context"
	"fmt"
	"time"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Pseudonymizer replaces platform user ids with stable random ids before a
// message reaches the NLU backends and restores them on the way back.
type Pseudonymizer struct {
	store domain.PseudonymStore
	newID func() string
}

func NewPseudonymizer(store domain.PseudonymStore) *Pseudonymizer {
	return &Pseudonymizer{store: store, newID: uuid.NewString}
}

// ChatToCore maps the platform id to its internal id, creating one on first
// contact. Invalid requests keep the platform id so the error reply reaches
// the sender.
func (p *Pseudonymizer) ChatToCore() domain.Interceptor[domain.ChatRequest] {
	return Func[domain.ChatRequest](func(ctx context.Context, userID string, req domain.ChatRequest) (domain.PipelineResult[domain.ChatRequest], error) {
		if req.Type == domain.RequestTypeInvalid {
			return domain.RespondOK(req, userID), nil
		}

		internalID, err := p.Pseudonymize(ctx, userID)
		if err != nil {
			return domain.PipelineResult[domain.ChatRequest]{}, err
		}
		return domain.RespondOK(req, internalID), nil
	})
}

// NluToCore maps an internal id back to the platform id. Unknown ids are
// passed through.
func (p *Pseudonymizer) NluToCore() domain.Interceptor[domain.NluResponse] {
	return Func[domain.NluResponse](func(ctx context.Context, userID string, resp domain.NluResponse) (domain.PipelineResult[domain.NluResponse], error) {
		platformID, err := p.store.PlatformID(ctx, userID)
		if err != nil {
			return domain.PipelineResult[domain.NluResponse]{}, fmt.Errorf("depseudonymize %s: %w", userID, err)
		}
		if platformID == "" {
			logrus.Debugf("[INTERCEPTOR] no pseudonym registered for %s, keeping id", userID)
			platformID = userID
		}
		return domain.RespondOK(resp, platformID), nil
	})
}

func (p *Pseudonymizer) Pseudonymize(ctx context.Context, platformID string) (string, error) {
	internalID, err := p.store.InternalID(ctx, platformID)
	if err != nil {
		return "", fmt.Errorf("pseudonymize %s: %w", platformID, err)
	}
	if internalID != "" {
		return internalID, nil
	}

	// Two first messages of the same user may both miss the lookup; the
	// store keeps whichever id it saw first and both callers use that one.
	candidate := domain.PseudonymEntry{
		PlatformID: platformID,
		InternalID: p.newID(),
		CreatedAt:  time.Now().UTC(),
	}
	stored, err := p.store.SaveIfAbsent(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("store pseudonym for %s: %w", platformID, err)
	}
	if stored.InternalID == candidate.InternalID {
		logrus.Debugf("[INTERCEPTOR] registered pseudonym %s", stored.InternalID)
	}
	return stored.InternalID, nil
}
