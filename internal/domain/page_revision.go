package domain

import (
	"time"

	"gorm.io/datatypes"
)

// PageRevision is the document a page had before a save replaced it
type PageRevision struct {
	ID         uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PageID     string         `gorm:"column:page_id;size:36;index:idx_page_version" json:"page_id"`
	Version    int            `gorm:"column:version;index:idx_page_version" json:"version"`
	Document   datatypes.JSON `gorm:"column:document;type:json" json:"document,omitempty"`
	BlockCount int            `gorm:"column:block_count" json:"block_count"`
	SavedBy    string         `gorm:"column:saved_by;size:50" json:"saved_by"`
	SavedAt    time.Time      `gorm:"column:saved_at" json:"saved_at"`
}

func (PageRevision) TableName() string {
	return "page_revisions"
}

// RevisionListItem is a revision without its document
type RevisionListItem struct {
	ID         uint   `json:"id"`
	Version    int    `json:"version"`
	BlockCount int    `json:"block_count"`
	SavedBy    string `json:"saved_by"`
	SavedAt    string `json:"saved_at"`
}
