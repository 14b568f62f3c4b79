// Package storage defines the data-directory file abstraction.
package storage

import "github.com/starford/asterism/internal/models"

// Provider is the interface for data-directory file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Stat returns metadata for the file at path, including its checksum.
	Stat(path string) (models.FileMetadata, error)
	// Abs resolves path against the root.
	Abs(path string) (string, error)
}
