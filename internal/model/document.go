package model

import "time"

// Document represents an uploaded PDF and its extracted text.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// A Document is immutable after creation: there is no re-extraction or update
// operation, only create, read and delete.
type Document struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename"`
	FilePath      string    `json:"file_path"`
	UploadDate    time.Time `json:"upload_date"`
	FileSize      int64     `json:"file_size"`
	ExtractedText string    `json:"extracted_text"`
	CreatedAt     time.Time `json:"created_at"`
}
