// Package ingest turns an upload batch of file paths into in-memory documents.
package ingest

import "github.com/google/uuid"

// Document is one uploaded file. Index is its 0-based position in the batch.
type Document struct {
	ID      uuid.UUID
	Index   int
	Name    string
	Path    string
	Content []byte
	SHA256  string
}
