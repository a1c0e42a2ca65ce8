package models

import (
	"io"
	"time"
)

type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description,omitempty"`
	Content      string    `json:"content"`
	AuthorID     string    `json:"author_id"`
	Categories   []string  `json:"categories"`
	ThumbnailURL string    `json:"thumbnail_url"`
	ThumbnailKey string    `json:"-"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PostFilter struct {
	CategorySlug string
	Page
}

type PostPatch struct {
	Title       *string
	Description *string
	Content     *string
	Categories  []string
	Published   *bool
}

// Upload is a media payload headed for object storage.
type Upload struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Ext         string
}
