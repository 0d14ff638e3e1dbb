package repository

import (
	"context"
	"errors"

	"github.com/damoang/angple-pages/internal/domain"
	"gorm.io/gorm"
)

type PageRevisionRepository struct {
	db *gorm.DB
}

func NewPageRevisionRepository(db *gorm.DB) *PageRevisionRepository {
	return &PageRevisionRepository{db: db}
}

// ListByPage returns the revisions of a page without documents, newest first
func (r *PageRevisionRepository) ListByPage(ctx context.Context, pageID string, limit int) ([]domain.PageRevision, error) {
	var records []domain.PageRevision
	err := r.db.WithContext(ctx).
		Omit("document").
		Where("page_id = ?", pageID).
		Order("version DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindByVersion returns nil, nil when the revision does not exist
func (r *PageRevisionRepository) FindByVersion(ctx context.Context, pageID string, version int) (*domain.PageRevision, error) {
	var rev domain.PageRevision
	err := r.db.WithContext(ctx).
		Where("page_id = ? AND version = ?", pageID, version).
		First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rev, nil
}
