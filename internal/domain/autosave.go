package domain

import (
	"time"

	"gorm.io/datatypes"
)

// PageAutosave is the unsaved document a member left in an editor session
// (page_autosaves table). One row per page and member.
type PageAutosave struct {
	ID       int            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PageID   string         `gorm:"column:page_id;size:36;uniqueIndex:idx_autosave_page_member" json:"page_id"`
	MemberID string         `gorm:"column:member_id;size:50;uniqueIndex:idx_autosave_page_member" json:"member_id"`
	Document datatypes.JSON `gorm:"column:document;type:json" json:"document"`
	// BaseVersion is the page version the draft was edited from
	BaseVersion int       `gorm:"column:base_version" json:"base_version"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name for PageAutosave
func (PageAutosave) TableName() string {
	return "page_autosaves"
}
