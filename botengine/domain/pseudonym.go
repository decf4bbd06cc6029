package domain

import (
	"context"
	"time"
)

// PseudonymEntry links a platform user id to the internal id sent to NLU
// backends.
type PseudonymEntry struct {
	PlatformID string    `json:"platform_id"`
	InternalID string    `json:"internal_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// PseudonymStore persists pseudonym mappings. Lookups return "" and no error
// when the id is unknown. Implementations: memory (default), Valkey, SQL.
type PseudonymStore interface {
	InternalID(ctx context.Context, platformID string) (string, error)
	PlatformID(ctx context.Context, internalID string) (string, error)
	Save(ctx context.Context, entry PseudonymEntry) error
	// SaveIfAbsent stores entry unless the platform id is already mapped and
	// returns the mapping that is stored afterwards. Concurrent callers for
	// the same platform id all get the same entry.
	SaveIfAbsent(ctx context.Context, entry PseudonymEntry) (PseudonymEntry, error)
	Delete(ctx context.Context, platformID string) error
	List(ctx context.Context) ([]PseudonymEntry, error)
}
