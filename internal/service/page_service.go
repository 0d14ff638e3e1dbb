package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/domain"
	"github.com/damoang/angple-pages/internal/editor"
	"github.com/damoang/angple-pages/internal/repository"
	"github.com/damoang/angple-pages/pkg/cache"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

// Draft is an unsaved document left by an editor session
type Draft struct {
	BaseVersion int             `json:"base_version"`
	Document    editor.Document `json:"document"`
	SavedAt     time.Time       `json:"saved_at"`
}

// PageService business logic for pages and their stored documents
type PageService interface {
	Create(ctx context.Context, req *domain.CreatePageRequest, memberID string) (*domain.Page, error)
	Get(ctx context.Context, id string) (*domain.Page, error)
	List(ctx context.Context, page, limit int) ([]domain.PageListItem, int64, error)
	Delete(ctx context.Context, id string) error

	// LoadDocument returns the stored document and its version
	LoadDocument(ctx context.Context, id string) (editor.Document, int, error)
	// SaveDocument stores doc if the page is still at baseVersion
	SaveDocument(ctx context.Context, id string, baseVersion int, doc editor.Document, memberID string) (int, error)
	Preview(ctx context.Context, id string) ([]editor.View, error)

	Revisions(ctx context.Context, id string, limit int) ([]domain.RevisionListItem, error)
	Revision(ctx context.Context, id string, version int) (*domain.PageRevision, error)

	SaveDraft(ctx context.Context, id, memberID string, draft *Draft) error
	// LoadDraft returns nil, nil when the member has no draft
	LoadDraft(ctx context.Context, id, memberID string) (*Draft, error)
	DiscardDraft(ctx context.Context, id, memberID string) error
}

type pageService struct {
	pages     repository.PageRepository
	revisions *repository.PageRevisionRepository
	autosaves repository.AutosaveRepository
	cache     cache.Service
	registry  *editor.Registry
	draftTTL  time.Duration
	log       zerolog.Logger
}

// NewPageService creates a new PageService
func NewPageService(
	pages repository.PageRepository,
	revisions *repository.PageRevisionRepository,
	autosaves repository.AutosaveRepository,
	cacheService cache.Service,
	registry *editor.Registry,
	draftTTL time.Duration,
	log zerolog.Logger,
) PageService {
	return &pageService{
		pages:     pages,
		revisions: revisions,
		autosaves: autosaves,
		cache:     cacheService,
		registry:  registry,
		draftTTL:  draftTTL,
		log:       log,
	}
}

func (s *pageService) Create(ctx context.Context, req *domain.CreatePageRequest, memberID string) (*domain.Page, error) {
	doc, err := editor.ParseDocument(req.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}

	existing, err := s.pages.FindBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.ErrSlugTaken
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	page := &domain.Page{
		ID:         uuid.NewString(),
		Slug:       req.Slug,
		Title:      req.Title,
		Document:   datatypes.JSON(data),
		Version:    1,
		BlockCount: editor.CountAll(doc),
		Status:     domain.PageStatusDraft,
		CreatedBy:  memberID,
		UpdatedBy:  memberID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.pages.Create(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *pageService) Get(ctx context.Context, id string) (*domain.Page, error) {
	page, err := s.pages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, common.ErrPageNotFound
	}
	return page, nil
}

func (s *pageService) List(ctx context.Context, page, limit int) ([]domain.PageListItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	pages, total, err := s.pages.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	items := make([]domain.PageListItem, len(pages))
	for i := range pages {
		items[i] = pages[i].ToListItem()
	}
	return items, total, nil
}

func (s *pageService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.pages.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *pageService) LoadDocument(ctx context.Context, id string) (editor.Document, int, error) {
	page, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	doc, err := editor.ParseDocument(page.Document)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: page %s: %v", common.ErrInvalidDocument, id, err)
	}
	return doc, page.Version, nil
}

func (s *pageService) SaveDocument(ctx context.Context, id string, baseVersion int, doc editor.Document, memberID string) (int, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}
	version, err := s.pages.SaveDocument(ctx, id, baseVersion, datatypes.JSON(data), editor.CountAll(doc), memberID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, id)
	return version, nil
}

// Preview projects the stored document, reading through the page cache
func (s *pageService) Preview(ctx context.Context, id string) ([]editor.View, error) {
	if data, err := s.cache.GetPage(ctx, id); err == nil {
		var views []editor.View
		if json.Unmarshal(data, &views) == nil {
			return views, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) && !errors.Is(err, cache.ErrUnavailable) {
		s.log.Warn().Err(err).Str("page_id", id).Msg("page cache read failed")
	}

	doc, _, err := s.LoadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	views := editor.Project(s.registry, doc)
	if err := s.cache.SetPage(ctx, id, views); err != nil {
		s.log.Warn().Err(err).Str("page_id", id).Msg("page cache write failed")
	}
	return views, nil
}

func (s *pageService) Revisions(ctx context.Context, id string, limit int) ([]domain.RevisionListItem, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	records, err := s.revisions.ListByPage(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	items := make([]domain.RevisionListItem, len(records))
	for i, r := range records {
		items[i] = domain.RevisionListItem{
			ID:         r.ID,
			Version:    r.Version,
			BlockCount: r.BlockCount,
			SavedBy:    r.SavedBy,
			SavedAt:    r.SavedAt.Format(time.RFC3339),
		}
	}
	return items, nil
}

func (s *pageService) Revision(ctx context.Context, id string, version int) (*domain.PageRevision, error) {
	rev, err := s.revisions.FindByVersion(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, common.ErrRevisionNotFound
	}
	return rev, nil
}

// SaveDraft keeps the draft in redis, or in page_autosaves when redis is
// not configured.
func (s *pageService) SaveDraft(ctx context.Context, id, memberID string, draft *Draft) error {
	if draft.SavedAt.IsZero() {
		draft.SavedAt = time.Now()
	}
	if s.cache.IsAvailable() {
		data, err := json.Marshal(draft)
		if err != nil {
			return err
		}
		return s.cache.SetDraft(ctx, id, memberID, data, s.draftTTL)
	}

	data, err := json.Marshal(draft.Document)
	if err != nil {
		return err
	}
	return s.autosaves.Save(ctx, &domain.PageAutosave{
		PageID:      id,
		MemberID:    memberID,
		Document:    datatypes.JSON(data),
		BaseVersion: draft.BaseVersion,
	})
}

func (s *pageService) LoadDraft(ctx context.Context, id, memberID string) (*Draft, error) {
	data, err := s.cache.GetDraft(ctx, id, memberID)
	switch {
	case err == nil:
		var draft Draft
		if err := json.Unmarshal(data, &draft); err != nil {
			return nil, fmt.Errorf("%w: draft: %v", common.ErrInvalidDocument, err)
		}
		return &draft, nil
	case errors.Is(err, cache.ErrMiss), errors.Is(err, cache.ErrUnavailable):
	default:
		return nil, err
	}

	// redis에 없으면 DB 자동저장 조회
	row, err := s.autosaves.Find(ctx, id, memberID)
	if err != nil || row == nil {
		return nil, err
	}
	doc, err := editor.ParseDocument(row.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: autosave: %v", common.ErrInvalidDocument, err)
	}
	return &Draft{BaseVersion: row.BaseVersion, Document: doc, SavedAt: row.CreatedAt}, nil
}

func (s *pageService) DiscardDraft(ctx context.Context, id, memberID string) error {
	if err := s.cache.DeleteDraft(ctx, id, memberID); err != nil {
		return err
	}
	return s.autosaves.Delete(ctx, id, memberID)
}

func (s *pageService) invalidate(ctx context.Context, id string) {
	if err := s.cache.InvalidatePage(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("page_id", id).Msg("page cache invalidation failed")
	}
}
