package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"pdfqa/internal/extractor"
	"pdfqa/internal/llm"
	"pdfqa/internal/model"
	"pdfqa/internal/repository"
	"pdfqa/internal/storage"
)

var (
	ErrIDRequired        = errors.New("id is required")
	ErrNotFound          = errors.New("document not found")
	ErrReaderNil         = errors.New("reader is nil")
	ErrNotPDF            = errors.New("only PDF files are allowed")
	ErrEmptyFile         = errors.New("uploaded file is empty")
	ErrExtractionFailed  = errors.New("failed to extract text from PDF")
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	ErrQuestionRequired  = errors.New("question is required")
)

// uploadPrefix is the key namespace for stored PDF bytes.
const uploadPrefix = "uploads/"

// AskResult carries the provider's answer together with the source filename.
type AskResult struct {
	Answer   string `json:"answer"`
	Filename string `json:"pdf_filename"`
}

// DocumentService defines the use cases for handling PDF documents.
type DocumentService interface {
	// Upload validates and stores the PDF, extracts its text, and persists the
	// document row. Failed uploads leave no row and no stored file behind.
	Upload(ctx context.Context, r io.Reader, originalFilename string) (*model.Document, error)

	// List returns all documents, most recently uploaded first.
	List(ctx context.Context) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id int64) (*model.Document, error)

	// Ask answers a question against the document's extracted text. An unknown
	// id fails with ErrNotFound before any provider call is made.
	Ask(ctx context.Context, id int64, question string) (*AskResult, error)

	// Delete removes the document row, then its backing file. The two removals
	// are separate failure domains; a crash in between leaves an orphaned file
	// that Reconcile removes at the next startup.
	Delete(ctx context.Context, id int64) error

	// Reconcile deletes stored files that have no matching row. Intended to run
	// once at process start; returns the number of files removed.
	Reconcile(ctx context.Context) (int, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	extractor extractor.TextExtractor
	answerer  llm.Answerer
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, ex extractor.TextExtractor, ans llm.Answerer) DocumentService {
	return &documentService{store: store, repo: repo, extractor: ex, answerer: ans}
}

// storageKey derives the stored location from content and name, so re-uploading
// identical bytes under the same name lands on the same key.
func storageKey(originalFilename string, content []byte) string {
	sum := md5.Sum(content)
	return uploadPrefix + hex.EncodeToString(sum[:])[:8] + "_" + filepath.Base(originalFilename)
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename string) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if strings.ToLower(filepath.Ext(originalFilename)) != ".pdf" {
		return nil, ErrNotPDF
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	key := storageKey(originalFilename, content)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(content), storage.PutObjectOptions{
		Size:        int64(len(content)),
		ContentType: "application/pdf",
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	}); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	text, err := s.extractor.Extract(ctx, bytes.NewReader(content), int64(len(content)))
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("%w: %v; cleanup delete failed: %v", ErrExtractionFailed, err, delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("%w; cleanup delete failed: %v", ErrNoExtractableText, delErr)
		}
		return nil, ErrNoExtractableText
	}

	doc := &model.Document{
		Filename:      originalFilename,
		FilePath:      key,
		UploadDate:    time.Now().UTC(),
		FileSize:      int64(len(content)),
		ExtractedText: text,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the stored file so the failed upload leaves no trace
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns all documents ordered by upload date descending.
func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	return s.repo.List(ctx)
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id int64) (*model.Document, error) {
	if id <= 0 {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Ask fetches the document text and delegates to the answer provider.
func (s *documentService) Ask(ctx context.Context, id int64, question string) (*AskResult, error) {
	if id <= 0 {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrQuestionRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	answer, err := s.answerer.Answer(ctx, question, doc.ExtractedText)
	if err != nil {
		return nil, err
	}
	return &AskResult{Answer: answer, Filename: doc.Filename}, nil
}

// Delete removes the document row first (the row is the source of truth), then
// the backing file. A file already gone is not an error.
func (s *documentService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, doc.FilePath); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Reconcile removes stored files under the upload prefix with no matching row.
func (s *documentService) Reconcile(ctx context.Context) (int, error) {
	paths, err := s.repo.ListFilePaths(ctx)
	if err != nil {
		return 0, fmt.Errorf("list file paths: %w", err)
	}
	known := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		known[p] = struct{}{}
	}

	keys, err := s.store.List(ctx, uploadPrefix)
	if err != nil {
		return 0, fmt.Errorf("list stored files: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if _, ok := known[key]; ok {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotExist) {
			return removed, fmt.Errorf("delete orphan %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}
