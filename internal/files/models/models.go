// Package models holds the files domain's entities.
package models

import "time"

// File is a stored object owned by a user. URL is a short-lived presigned
// download link, populated on the way out.
type File struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url,omitempty"`
}
