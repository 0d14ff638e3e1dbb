package migration

import (
	"testing"

	"github.com/damoang/angple-pages/internal/domain"
	"github.com/damoang/angple-pages/internal/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestRun_SeedsOnce(t *testing.T) {
	db := openDB(t)

	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	var pages []domain.Page
	require.NoError(t, db.Find(&pages).Error)
	require.Len(t, pages, 1)
	assert.Equal(t, "home", pages[0].Slug)

	doc, err := editor.ParseDocument(pages[0].Document)
	require.NoError(t, err)
	assert.Equal(t, pages[0].BlockCount, editor.CountAll(doc))
	assert.Equal(t, 4, pages[0].BlockCount)
}

func TestDrop(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Run(db))
	require.NoError(t, Drop(db))

	for _, table := range Tables {
		assert.False(t, db.Migrator().HasTable(table), table)
	}
}
