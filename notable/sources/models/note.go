package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note is one row of the notes collection. The JSON names match the
// Supabase table so the same struct decodes PostgREST responses.
type Note struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;index"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Summary   *string   `json:"summary,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Note) TableName() string {
	return "notes"
}

// BeforeCreate assigns the id in Go so the schema does not depend on a
// database extension.
func (n *Note) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// SummaryText returns the summary or "" when none is attached.
func (n Note) SummaryText() string {
	if n.Summary == nil {
		return ""
	}
	return *n.Summary
}

// HasSummary reports whether a non-blank summary is attached.
func (n Note) HasSummary() bool {
	return strings.TrimSpace(n.SummaryText()) != ""
}

// NoteUpdate is a partial update; nil fields are left unchanged.
type NoteUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Summary *string `json:"summary,omitempty"`
}

func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Summary == nil
}

// Columns returns the update as a column map, the shape both gorm and
// PostgREST accept.
func (u NoteUpdate) Columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Content != nil {
		updates["content"] = *u.Content
	}
	if u.Summary != nil {
		updates["summary"] = *u.Summary
	}
	return updates
}

// Apply copies the set fields onto n.
func (u NoteUpdate) Apply(n *Note) {
	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Content != nil {
		n.Content = *u.Content
	}
	if u.Summary != nil {
		s := *u.Summary
		n.Summary = &s
	}
}

// StringPtr is a convenience for building NoteUpdate values.
func StringPtr(s string) *string {
	return &s
}
