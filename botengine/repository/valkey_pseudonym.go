package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/emundo/emubot/infrastructure/valkey"
)

// ValkeyPseudonymStore implements domain.PseudonymStore on Valkey. Each
// mapping is stored twice: the full entry under the platform id and the
// platform id under the internal id.
type ValkeyPseudonymStore struct {
	client         *valkey.Client
	platformPrefix string
	internalPrefix string
}

func NewValkeyPseudonymStore(client *valkey.Client) *ValkeyPseudonymStore {
	return &ValkeyPseudonymStore{
		client:         client,
		platformPrefix: client.Key("pseudonym", "platform") + ":",
		internalPrefix: client.Key("pseudonym", "internal") + ":",
	}
}

func (s *ValkeyPseudonymStore) inner() valkeylib.Client {
	return s.client.Inner()
}

func (s *ValkeyPseudonymStore) entry(ctx context.Context, platformID string) (*domain.PseudonymEntry, error) {
	cmd := s.inner().B().Get().Key(s.platformPrefix + platformID).Build()

	data, err := s.inner().Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pseudonym: %w", err)
	}

	var entry domain.PseudonymEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pseudonym: %w", err)
	}
	return &entry, nil
}

func (s *ValkeyPseudonymStore) InternalID(ctx context.Context, platformID string) (string, error) {
	entry, err := s.entry(ctx, platformID)
	if err != nil || entry == nil {
		return "", err
	}
	return entry.InternalID, nil
}

func (s *ValkeyPseudonymStore) PlatformID(ctx context.Context, internalID string) (string, error) {
	cmd := s.inner().B().Get().Key(s.internalPrefix + internalID).Build()

	platformID, err := s.inner().Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsNil(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get platform id: %w", err)
	}
	return platformID, nil
}

func (s *ValkeyPseudonymStore) Save(ctx context.Context, entry domain.PseudonymEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal pseudonym: %w", err)
	}

	resps := s.inner().DoMulti(ctx,
		s.inner().B().Set().Key(s.platformPrefix+entry.PlatformID).Value(string(data)).Build(),
		s.inner().B().Set().Key(s.internalPrefix+entry.InternalID).Value(entry.PlatformID).Build(),
	)
	for _, resp := range resps {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to save pseudonym: %w", err)
		}
	}
	return nil
}

// SaveIfAbsent claims the platform key with SET NX. The reverse key is only
// written by the winner; losers read the winning entry back.
func (s *ValkeyPseudonymStore) SaveIfAbsent(ctx context.Context, entry domain.PseudonymEntry) (domain.PseudonymEntry, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return domain.PseudonymEntry{}, fmt.Errorf("failed to marshal pseudonym: %w", err)
	}

	cmd := s.inner().B().Set().Key(s.platformPrefix + entry.PlatformID).Value(string(data)).Nx().Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		if !valkey.IsNil(err) {
			return domain.PseudonymEntry{}, fmt.Errorf("failed to save pseudonym: %w", err)
		}

		existing, err := s.entry(ctx, entry.PlatformID)
		if err != nil {
			return domain.PseudonymEntry{}, err
		}
		if existing == nil {
			return domain.PseudonymEntry{}, fmt.Errorf("pseudonym for %s vanished after a concurrent save", entry.PlatformID)
		}
		return *existing, nil
	}

	cmd = s.inner().B().Set().Key(s.internalPrefix + entry.InternalID).Value(entry.PlatformID).Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return domain.PseudonymEntry{}, fmt.Errorf("failed to save internal id: %w", err)
	}
	return entry, nil
}

func (s *ValkeyPseudonymStore) Delete(ctx context.Context, platformID string) error {
	entry, err := s.entry(ctx, platformID)
	if err != nil || entry == nil {
		return err
	}

	cmd := s.inner().B().Del().Key(s.platformPrefix+platformID, s.internalPrefix+entry.InternalID).Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete pseudonym: %w", err)
	}
	return nil
}

func (s *ValkeyPseudonymStore) List(ctx context.Context) ([]domain.PseudonymEntry, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.inner().B().Scan().Cursor(cursor).Match(s.platformPrefix + "*").Count(100).Build()
		result, err := s.inner().Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to scan pseudonyms: %w", err)
		}

		keys = append(keys, result.Elements...)
		cursor = result.Cursor
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return []domain.PseudonymEntry{}, nil
	}

	cmd := s.inner().B().Mget().Key(keys...).Build()
	values, err := s.inner().Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to mget pseudonyms: %w", err)
	}

	entries := make([]domain.PseudonymEntry, 0, len(values))
	for _, val := range values {
		if val == "" {
			continue
		}
		var entry domain.PseudonymEntry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			logrus.Warnf("[ValkeyPseudonymStore] failed to unmarshal entry: %v", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
