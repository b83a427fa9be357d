package repository

import (
	"context"

	"pdfqa/internal/model"
)

// DocumentRepository defines data access for pdf_documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document row. The database assigns id and created_at;
	// the returned document carries them. Empty filename or file path is rejected
	// at this boundary regardless of what the caller validated.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID. Missing rows surface as sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.Document, error)

	// List returns all documents ordered by upload_date descending (most recent
	// first). The result set is unbounded; there is no pagination.
	List(ctx context.Context) ([]model.Document, error)

	// ListFilePaths returns the file_path column of every row. Used by the startup
	// reconciliation sweep to detect stored files with no matching row.
	ListFilePaths(ctx context.Context) ([]string, error)

	// Delete removes a document by ID. Deleting a nonexistent id returns
	// sql.ErrNoRows so callers can report not-found distinctly from success.
	Delete(ctx context.Context, id int64) error
}
