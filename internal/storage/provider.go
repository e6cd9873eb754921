// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/foamlinks/internal/models"

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every Markdown file under dir (relative to root).
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
}
