package postgres

import (
	"context"
	"database/sql"
	"errors"

	"pdfqa/internal/model"
	"pdfqa/internal/repository"
)

var ErrMissingFields = errors.New("filename and file_path are required")

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record with the
// database-assigned id and created_at.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if doc.Filename == "" || doc.FilePath == "" {
		return nil, ErrMissingFields
	}
	const q = `
		INSERT INTO pdf_documents (filename, file_path, upload_date, file_size, extracted_text)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, filename, file_path, upload_date, file_size, extracted_text, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.Filename,
		doc.FilePath,
		doc.UploadDate,
		doc.FileSize,
		doc.ExtractedText,
	)
	var out model.Document
	if err := row.Scan(
		&out.ID,
		&out.Filename,
		&out.FilePath,
		&out.UploadDate,
		&out.FileSize,
		&out.ExtractedText,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	const q = `
		SELECT id, filename, file_path, upload_date, file_size, extracted_text, created_at
		FROM pdf_documents
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.Filename,
		&d.FilePath,
		&d.UploadDate,
		&d.FileSize,
		&d.ExtractedText,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns every document ordered by upload_date descending.
func (r *DocumentPostgres) List(ctx context.Context) ([]model.Document, error) {
	const q = `
		SELECT id, filename, file_path, upload_date, file_size, extracted_text, created_at
		FROM pdf_documents
		ORDER BY upload_date DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(
			&d.ID,
			&d.Filename,
			&d.FilePath,
			&d.UploadDate,
			&d.FileSize,
			&d.ExtractedText,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// ListFilePaths returns the file_path of every row.
func (r *DocumentPostgres) ListFilePaths(ctx context.Context) ([]string, error) {
	const q = `SELECT file_path FROM pdf_documents`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Delete removes a document by ID. A missing row is reported as sql.ErrNoRows,
// never as a silent no-op.
func (r *DocumentPostgres) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM pdf_documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
