package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Page statuses
const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
)

// Page is a block-document page (pages table)
type Page struct {
	ID    string `gorm:"column:id;primaryKey;size:36" json:"id"`
	Slug  string `gorm:"column:slug;size:100;uniqueIndex" json:"slug"`
	Title string `gorm:"column:title;size:255" json:"title"`
	// Document is the serialized block list
	Document   datatypes.JSON `gorm:"column:document;type:json" json:"document"`
	Version    int            `gorm:"column:version;not null;default:0" json:"version"`
	BlockCount int            `gorm:"column:block_count;not null;default:0" json:"block_count"`
	Status     string         `gorm:"column:status;size:20;default:draft" json:"status"`
	CreatedBy  string         `gorm:"column:created_by;size:50" json:"created_by"`
	UpdatedBy  string         `gorm:"column:updated_by;size:50" json:"updated_by"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name for Page
func (Page) TableName() string {
	return "pages"
}

// CreatePageRequest represents request for creating a page
type CreatePageRequest struct {
	Title    string         `json:"title" validate:"required,max=255"`
	Slug     string         `json:"slug" validate:"required,max=100,lowercase"`
	Document datatypes.JSON `json:"document,omitempty"`
}

// PageListItem represents an item in the page list
type PageListItem struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Version    int    `json:"version"`
	BlockCount int    `json:"block_count"`
	Status     string `json:"status"`
	UpdatedBy  string `json:"updated_by"`
	UpdatedAt  string `json:"updated_at"`
}

// ToListItem converts Page to PageListItem
func (p *Page) ToListItem() PageListItem {
	return PageListItem{
		ID:         p.ID,
		Slug:       p.Slug,
		Title:      p.Title,
		Version:    p.Version,
		BlockCount: p.BlockCount,
		Status:     p.Status,
		UpdatedBy:  p.UpdatedBy,
		UpdatedAt:  p.UpdatedAt.Format(time.RFC3339),
	}
}
