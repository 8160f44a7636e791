package model

import "time"

// Article is a published piece of writing. Plain CRUD content with no
// workflow semantics.
type Article struct {
	ID        int64      `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Subtitle  string     `json:"subtitle" db:"subtitle"`
	Theme     string     `json:"theme" db:"theme"`
	Writer    string     `json:"writer" db:"writer"`
	Content   string     `json:"content" db:"content"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// Magazine is a published issue with externally hosted content.
type Magazine struct {
	ID           int64      `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	ThumbnailURL string     `json:"thumbnailUrl" db:"thumbnail_url"`
	ContentURL   string     `json:"contentUrl" db:"content_url"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}
