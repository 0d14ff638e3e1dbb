package repository

import (
	"context"
	"errors"
	"time"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PageRepository handles page data operations
type PageRepository interface {
	Create(ctx context.Context, page *domain.Page) error
	// FindByID returns nil, nil when the page does not exist
	FindByID(ctx context.Context, id string) (*domain.Page, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Page, error)
	List(ctx context.Context, limit, offset int) ([]domain.Page, int64, error)
	// SaveDocument replaces the document of a page if it is still at
	// baseVersion, records the replaced document as a revision and returns
	// the new version.
	SaveDocument(ctx context.Context, id string, baseVersion int, doc datatypes.JSON, blockCount int, memberID string) (int, error)
	Delete(ctx context.Context, id string) error
}

type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) Create(ctx context.Context, page *domain.Page) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *pageRepository) FindByID(ctx context.Context, id string) (*domain.Page, error) {
	var page domain.Page
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) FindBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	var page domain.Page
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &page, nil
}

// List returns pages without their documents, most recently updated first
func (r *pageRepository) List(ctx context.Context, limit, offset int) ([]domain.Page, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Page{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pages []domain.Page
	err := r.db.WithContext(ctx).
		Omit("document").
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&pages).Error
	return pages, total, err
}

func (r *pageRepository) SaveDocument(ctx context.Context, id string, baseVersion int, doc datatypes.JSON, blockCount int, memberID string) (int, error) {
	newVersion := baseVersion + 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.Page
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrPageNotFound
			}
			return err
		}
		if current.Version != baseVersion {
			return common.ErrVersionConflict
		}

		now := time.Now()
		if err := tx.Create(&domain.PageRevision{
			PageID:     id,
			Version:    current.Version,
			Document:   current.Document,
			BlockCount: current.BlockCount,
			SavedBy:    current.UpdatedBy,
			SavedAt:    current.UpdatedAt,
		}).Error; err != nil {
			return err
		}

		// version guard: a concurrent save between the read and this update
		// leaves RowsAffected at zero
		result := tx.Model(&domain.Page{}).
			Where("id = ? AND version = ?", id, baseVersion).
			Updates(map[string]interface{}{
				"document":    doc,
				"block_count": blockCount,
				"version":     newVersion,
				"updated_by":  memberID,
				"updated_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

func (r *pageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", id).Delete(&domain.PageRevision{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", id).Delete(&domain.PageAutosave{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Page{}).Error
	})
}
