package health

import (
	"context"
	"time"
)

type EntityType string

const (
	EntityDatabase  EntityType = "database"
	EntityValkey    EntityType = "valkey"
	EntityTransport EntityType = "transport"
)

type Status string

const (
	StatusOk    Status = "OK"
	StatusError Status = "ERROR"
)

// Check tests one dependency. Ping returns nil when it is usable.
type Check struct {
	EntityType EntityType
	EntityID   string
	Ping       func(ctx context.Context) error
}

type HealthRecord struct {
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Status      Status     `json:"status"`
	LastMessage string     `json:"last_message,omitempty"`
	LastChecked time.Time  `json:"last_checked"`
}

type IHealthUsecase interface {
	CheckAll(ctx context.Context) []HealthRecord
	Healthy(records []HealthRecord) bool
}
