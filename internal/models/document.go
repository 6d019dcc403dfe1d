// Package models defines core data structures for documents, search results, and backend payloads.
package models

import "time"

// Document represents an indexed document with the managed properties the backend can filter and facet on.
type Document struct {
	ID               string                 `json:"id" db:"id"`
	Title            string                 `json:"title" db:"title"`
	Content          string                 `json:"content" db:"content"`
	Path             string                 `json:"path,omitempty" db:"path"`
	FileType         string                 `json:"file_type,omitempty" db:"file_type"`
	Author           string                 `json:"author,omitempty" db:"author"`
	Size             int64                  `json:"size,omitempty" db:"size"`
	Metadata         map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	LastModifiedTime time.Time              `json:"last_modified_time" db:"last_modified_time"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`
}

// DocumentInput is the input for creating or updating a document.
type DocumentInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Path     string                 `json:"path,omitempty"`
	FileType string                 `json:"file_type,omitempty"`
	Author   string                 `json:"author,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
