package repository

import (
	"context"

	"pdfapi/internal/model"
)

// Package repository holds the object index: the mapping from a caller-visible filename
// to the key the object is stored under. Implementations can live in subpackages (e.g., postgres).

// DocumentRepository defines data access for the object index.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create records a stored document and returns the stored record.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByFilename resolves a filename to its stored document.
	// Implementations return sql.ErrNoRows when the filename is unknown.
	FindByFilename(ctx context.Context, filename string) (*model.Document, error)
}

// directRepository is the index used when no database is configured:
// every filename maps to the storage key of the same name.
type directRepository struct{}

// NewDirect returns a DocumentRepository that records nothing and resolves filenames to themselves.
func NewDirect() DocumentRepository {
	return directRepository{}
}

func (directRepository) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	out := *doc
	return &out, nil
}

func (directRepository) FindByFilename(_ context.Context, filename string) (*model.Document, error) {
	return &model.Document{Filename: filename, StoragePath: filename}, nil
}
