package service

import (
	"context"
	"testing"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/domain"
	"github.com/damoang/angple-pages/internal/editor"
	"github.com/damoang/angple-pages/internal/repository"
	"github.com/damoang/angple-pages/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const heroPageJSON = `[
  {"id":"hero","type":"hero","content":{"title":"Welcome","subtitle":"Sub"}},
  {"id":"cols","type":"columns","content":{"columnCount":2,"columns":[
    {"blocks":[{"id":"btn","type":"button","content":{"text":"Go"}}]},
    {"blocks":[]}
  ]}},
  {"id":"txt","type":"text","content":{"text":"<p>body</p>"}}
]`

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Page{}, &domain.PageRevision{}, &domain.PageAutosave{}))
	return db
}

// newTestPageService wires the page service over sqlite without redis
func newTestPageService(t *testing.T) PageService {
	t.Helper()
	db := setupTestDB(t)
	return NewPageService(
		repository.NewPageRepository(db),
		repository.NewPageRevisionRepository(db),
		repository.NewAutosaveRepository(db),
		cache.NewService(nil),
		editor.DefaultRegistry(),
		0,
		zerolog.Nop(),
	)
}

func createPage(t *testing.T, svc PageService, slug string) *domain.Page {
	t.Helper()
	page, err := svc.Create(context.Background(), &domain.CreatePageRequest{
		Title:    "Landing",
		Slug:     slug,
		Document: datatypes.JSON(heroPageJSON),
	}, "admin")
	require.NoError(t, err)
	return page
}

func TestPageService_Create(t *testing.T) {
	svc := newTestPageService(t)
	ctx := context.Background()

	page := createPage(t, svc, "landing")
	assert.NotEmpty(t, page.ID)
	assert.Equal(t, 1, page.Version)
	assert.Equal(t, 4, page.BlockCount)
	assert.Equal(t, domain.PageStatusDraft, page.Status)

	_, err := svc.Create(ctx, &domain.CreatePageRequest{Title: "Dup", Slug: "landing"}, "admin")
	assert.ErrorIs(t, err, common.ErrSlugTaken)

	_, err = svc.Create(ctx, &domain.CreatePageRequest{
		Title:    "Broken",
		Slug:     "broken",
		Document: datatypes.JSON(`[{"id":"a","type":"text","content":{}},{"id":"a","type":"text","content":{}}]`),
	}, "admin")
	assert.ErrorIs(t, err, common.ErrInvalidDocument)

	empty, err := svc.Create(ctx, &domain.CreatePageRequest{Title: "Empty", Slug: "empty"}, "admin")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(empty.Document))
}

func TestPageService_GetAndList(t *testing.T) {
	svc := newTestPageService(t)
	ctx := context.Background()
	createPage(t, svc, "one")
	createPage(t, svc, "two")

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrPageNotFound)

	items, total, err := svc.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 1)

	items, _, err = svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestPageService_SaveDocumentAndRevisions(t *testing.T) {
	svc := newTestPageService(t)
	ctx := context.Background()
	page := createPage(t, svc, "landing")

	doc, version, err := svc.LoadDocument(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	next, err := svc.SaveDocument(ctx, page.ID, version, doc[:1], "editor-1")
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	_, err = svc.SaveDocument(ctx, page.ID, version, doc, "editor-2")
	assert.ErrorIs(t, err, common.ErrVersionConflict)

	stored, err := svc.Get(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.BlockCount)
	assert.Equal(t, "editor-1", stored.UpdatedBy)

	revs, err := svc.Revisions(ctx, page.ID, 10)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, 1, revs[0].Version)
	assert.Equal(t, 4, revs[0].BlockCount)

	rev, err := svc.Revision(ctx, page.ID, 1)
	require.NoError(t, err)
	old, err := editor.ParseDocument(rev.Document)
	require.NoError(t, err)
	assert.Len(t, old, 3)

	_, err = svc.Revision(ctx, page.ID, 9)
	assert.ErrorIs(t, err, common.ErrRevisionNotFound)
}

func TestPageService_DraftFallsBackToDatabase(t *testing.T) {
	svc := newTestPageService(t)
	ctx := context.Background()
	page := createPage(t, svc, "landing")

	draft, err := svc.LoadDraft(ctx, page.ID, "editor-1")
	require.NoError(t, err)
	assert.Nil(t, draft)

	doc, _, err := svc.LoadDocument(ctx, page.ID)
	require.NoError(t, err)
	require.NoError(t, svc.SaveDraft(ctx, page.ID, "editor-1", &Draft{BaseVersion: 1, Document: doc[1:]}))

	draft, err = svc.LoadDraft(ctx, page.ID, "editor-1")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, 1, draft.BaseVersion)
	assert.Equal(t, []string{"cols", "btn", "txt"}, editor.IDs(draft.Document))

	other, err := svc.LoadDraft(ctx, page.ID, "editor-2")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, svc.DiscardDraft(ctx, page.ID, "editor-1"))
	draft, err = svc.LoadDraft(ctx, page.ID, "editor-1")
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestPageService_Preview(t *testing.T) {
	svc := newTestPageService(t)
	page := createPage(t, svc, "landing")

	views, err := svc.Preview(context.Background(), page.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "Welcome", views[0].Fields["title"])
	require.Len(t, views[1].Slots, 2)
	assert.Equal(t, "btn", views[1].Slots[0][0].ID)

	_, err = svc.Preview(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrPageNotFound)
}

func TestPageService_Delete(t *testing.T) {
	svc := newTestPageService(t)
	ctx := context.Background()
	page := createPage(t, svc, "landing")

	require.NoError(t, svc.Delete(ctx, page.ID))
	_, err := svc.Get(ctx, page.ID)
	assert.ErrorIs(t, err, common.ErrPageNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, page.ID), common.ErrPageNotFound)
}
