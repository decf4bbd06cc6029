package repository

import (
	"context"
	"errors"
	"time"

	"github.com/emundo/emubot/botengine/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pseudonymModel struct {
	PlatformID string    `gorm:"primaryKey;column:platform_id"`
	InternalID string    `gorm:"column:internal_id;uniqueIndex;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (pseudonymModel) TableName() string {
	return "pseudonyms"
}

// PseudonymGormRepository implements domain.PseudonymStore on SQLite or
// Postgres.
type PseudonymGormRepository struct {
	db *gorm.DB
}

func NewPseudonymGormRepository(db *gorm.DB) *PseudonymGormRepository {
	return &PseudonymGormRepository{db: db}
}

// Init creates the schema using AutoMigrate.
func (r *PseudonymGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&pseudonymModel{})
}

func (r *PseudonymGormRepository) InternalID(ctx context.Context, platformID string) (string, error) {
	var model pseudonymModel
	err := r.db.WithContext(ctx).First(&model, "platform_id = ?", platformID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return model.InternalID, err
}

func (r *PseudonymGormRepository) PlatformID(ctx context.Context, internalID string) (string, error) {
	var model pseudonymModel
	err := r.db.WithContext(ctx).First(&model, "internal_id = ?", internalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return model.PlatformID, err
}

// Save inserts the mapping or replaces the one stored for the platform id.
func (r *PseudonymGormRepository) Save(ctx context.Context, entry domain.PseudonymEntry) error {
	model := pseudonymModel{
		PlatformID: entry.PlatformID,
		InternalID: entry.InternalID,
		CreatedAt:  entry.CreatedAt,
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveIfAbsent inserts with ON CONFLICT DO NOTHING and reads the stored row
// back, so a lost race yields the winner's mapping.
func (r *PseudonymGormRepository) SaveIfAbsent(ctx context.Context, entry domain.PseudonymEntry) (domain.PseudonymEntry, error) {
	model := pseudonymModel{
		PlatformID: entry.PlatformID,
		InternalID: entry.InternalID,
		CreatedAt:  entry.CreatedAt,
	}
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error; err != nil {
		return domain.PseudonymEntry{}, err
	}

	var stored pseudonymModel
	if err := db.First(&stored, "platform_id = ?", entry.PlatformID).Error; err != nil {
		return domain.PseudonymEntry{}, err
	}
	return domain.PseudonymEntry{
		PlatformID: stored.PlatformID,
		InternalID: stored.InternalID,
		CreatedAt:  stored.CreatedAt,
	}, nil
}

func (r *PseudonymGormRepository) Delete(ctx context.Context, platformID string) error {
	return r.db.WithContext(ctx).Delete(&pseudonymModel{}, "platform_id = ?", platformID).Error
}

func (r *PseudonymGormRepository) List(ctx context.Context) ([]domain.PseudonymEntry, error) {
	var models []pseudonymModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]domain.PseudonymEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, domain.PseudonymEntry{
			PlatformID: m.PlatformID,
			InternalID: m.InternalID,
			CreatedAt:  m.CreatedAt,
		})
	}
	return entries, nil
}
