package usecase

import (
	"context"
	"time"

	"github.com/emundo/emubot/domains/health"
	"github.com/sirupsen/logrus"
)

const healthCheckTimeout = 3 * time.Second

type healthService struct {
	checks []health.Check
}

func NewHealthService(checks ...health.Check) health.IHealthUsecase {
	return &healthService{checks: checks}
}

func (s *healthService) CheckAll(ctx context.Context) []health.HealthRecord {
	records := make([]health.HealthRecord, 0, len(s.checks))
	for _, check := range s.checks {
		records = append(records, s.run(ctx, check))
	}
	return records
}

func (s *healthService) run(ctx context.Context, check health.Check) health.HealthRecord {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	record := health.HealthRecord{
		EntityType:  check.EntityType,
		EntityID:    check.EntityID,
		Status:      health.StatusOk,
		LastChecked: time.Now().UTC(),
	}
	if err := check.Ping(ctx); err != nil {
		logrus.WithError(err).Warnf("[HEALTH] %s %s is unhealthy", check.EntityType, check.EntityID)
		record.Status = health.StatusError
		record.LastMessage = err.Error()
	}
	return record
}

func (s *healthService) Healthy(records []health.HealthRecord) bool {
	for _, r := range records {
		if r.Status != health.StatusOk {
			return false
		}
	}
	return true
}
