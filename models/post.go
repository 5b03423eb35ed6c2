package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post categories offered by the editor.
const (
	CategoryUncategorized = "uncategorized"
	CategoryJavaScript    = "javascript"
	CategoryReactJS       = "reactjs"
	CategoryNextJS        = "nextjs"
)

// Categories lists every accepted post category, default first.
var Categories = []string{CategoryUncategorized, CategoryJavaScript, CategoryReactJS, CategoryNextJS}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Post represents a blog article written by a user.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	UserID    string    `gorm:"size:36;index;not null" bson:"userId" json:"userId"`
	Title     string    `gorm:"size:255;not null;uniqueIndex" bson:"title" json:"title"`
	Slug      string    `gorm:"size:255;not null;uniqueIndex" bson:"slug" json:"slug"`
	Category  string    `gorm:"size:32;index;default:'uncategorized'" bson:"category" json:"category"`
	Content   string    `gorm:"type:longtext;not null" bson:"content" json:"content"`
	Image     string    `gorm:"size:1024" bson:"image" json:"image"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PostFilter narrows a post listing. Zero values mean "no constraint".
type PostFilter struct {
	UserID     string
	Category   string
	Slug       string
	PostID     string
	SearchTerm string
	StartIndex int
	Limit      int
	Ascending  bool
}

// PrepareCreate assigns an id and timestamps when absent.
func (p *Post) PrepareCreate() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// BeforeCreate hook ensures id and timestamps are set.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	p.PrepareCreate()
	return nil
}

// BeforeUpdate refreshes UpdatedAt.
func (p *Post) BeforeUpdate(tx *gorm.DB) error {
	p.UpdatedAt = time.Now()
	return nil
}
