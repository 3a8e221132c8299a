package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// JSONMap stores opaque structured data as a JSON column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}

	return json.Unmarshal(data, m)
}

type Post struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Slug          string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Excerpt       string     `gorm:"type:text" json:"excerpt"`
	Status        string     `gorm:"size:20;not null;default:draft;index:idx_posts_status_published" json:"status"`
	FeaturedImage *string    `gorm:"size:255" json:"featured_image"`
	MetaData      JSONMap    `gorm:"type:jsonb" json:"meta_data,omitempty"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User      `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	PublishedAt   *time.Time `gorm:"index:idx_posts_status_published" json:"published_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsPublished reports whether the post is effectively live. A post scheduled
// with a future published_at stays unpublished until that time passes.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished &&
		p.PublishedAt != nil &&
		!p.PublishedAt.After(time.Now())
}

func (p *Post) IsDraft() bool {
	return p.Status == StatusDraft
}
