// Package models holds the posts domain's entities and request DTOs.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is an authored piece of content. The posts domain exists as the
// template's worked example of an owned CRUD resource.
type Post struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePostRequest is the create payload.
type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// UpdatePostRequest is the update payload. Nil fields are left unchanged.
type UpdatePostRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}
