package repository

import (
	"context"
	"errors"
	"time"

	"github.com/damoang/angple-pages/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutosaveRepository handles editor draft data operations
type AutosaveRepository interface {
	// Save creates or updates the draft of a member for a page
	Save(ctx context.Context, autosave *domain.PageAutosave) error
	// Find returns nil, nil when there is no draft
	Find(ctx context.Context, pageID, memberID string) (*domain.PageAutosave, error)
	Delete(ctx context.Context, pageID, memberID string) error
}

type autosaveRepository struct {
	db *gorm.DB
}

// NewAutosaveRepository creates a new AutosaveRepository
func NewAutosaveRepository(db *gorm.DB) AutosaveRepository {
	return &autosaveRepository{db: db}
}

// Save creates or updates an autosave entry using ON DUPLICATE KEY UPDATE
func (r *autosaveRepository) Save(ctx context.Context, autosave *domain.PageAutosave) error {
	autosave.CreatedAt = time.Now()

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "page_id"}, {Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "base_version", "created_at"}),
	}).Create(autosave).Error
}

func (r *autosaveRepository) Find(ctx context.Context, pageID, memberID string) (*domain.PageAutosave, error) {
	var autosave domain.PageAutosave
	err := r.db.WithContext(ctx).
		Where("page_id = ? AND member_id = ?", pageID, memberID).
		First(&autosave).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &autosave, nil
}

func (r *autosaveRepository) Delete(ctx context.Context, pageID, memberID string) error {
	return r.db.WithContext(ctx).
		Where("page_id = ? AND member_id = ?", pageID, memberID).
		Delete(&domain.PageAutosave{}).Error
}
