package migration

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/damoang/angple-pages/internal/domain"
	"github.com/damoang/angple-pages/internal/editor"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tables managed by Run, in drop order
var Tables = []string{"page_autosaves", "page_revisions", "pages"}

// Run executes AutoMigrate for the page tables and seeds a home page if empty.
func Run(db *gorm.DB) error {
	// 1. AutoMigrate - 테이블 없으면 생성, 있으면 skip
	if err := db.AutoMigrate(&domain.Page{}, &domain.PageRevision{}, &domain.PageAutosave{}); err != nil {
		return err
	}

	// 2. Seed - pages 테이블이 비어있을 때만 기본 페이지 삽입
	var count int64
	if err := db.Model(&domain.Page{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return seedPages(db)
	}
	return nil
}

// HomeDocument is the document of the seeded home page
func HomeDocument() editor.Document {
	reg := editor.DefaultRegistry()
	hero, _ := reg.NewBlock(editor.TypeHero)
	hero.Content = hero.Content.With("title", "앙플 페이지에 오신 것을 환영합니다")
	text, _ := reg.NewBlock(editor.TypeText)
	cols, _ := reg.NewBlock(editor.TypeColumns)
	btn, _ := reg.NewBlock(editor.TypeButton)
	cols.Slots[0].Blocks = append(cols.Slots[0].Blocks, btn)
	return editor.Document{hero, text, cols}
}

func seedPages(db *gorm.DB) error {
	doc := HomeDocument()
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	now := time.Now()
	return db.Create(&domain.Page{
		ID:         "00000000-0000-7000-8000-000000000001",
		Slug:       "home",
		Title:      "홈",
		Document:   datatypes.JSON(data),
		Version:    1,
		BlockCount: editor.CountAll(doc),
		Status:     domain.PageStatusPublished,
		CreatedBy:  "system",
		UpdatedBy:  "system",
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error
}

// Drop removes every page table
func Drop(db *gorm.DB) error {
	for _, t := range Tables {
		if err := db.Migrator().DropTable(t); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	return nil
}
