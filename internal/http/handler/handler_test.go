package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pdfqa/internal/llm"
	"pdfqa/internal/model"
	"pdfqa/internal/service"
	serviceMocks "pdfqa/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTextPreview(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, textPreview(short))

	long := strings.Repeat("a", 250)
	got := textPreview(long)
	assert.Equal(t, 203, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))

	exact := strings.Repeat("b", 200)
	assert.Equal(t, exact, textPreview(exact))
}

func TestIndex(t *testing.T) {
	app := fiber.New()
	app.Get("/", Index())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "PDF Question Answering API", body["message"])
	assert.NotNil(t, body["endpoints"])
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
		_, perr := time.Parse(time.RFC3339, body["timestamp"])
		assert.NoError(t, perr)
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/pdfs", ListDocuments(mockSvc))

	t.Run("success with truncated preview", func(t *testing.T) {
		docs := []model.Document{
			{ID: 2, Filename: "b.pdf", FileSize: 20, ExtractedText: strings.Repeat("x", 300)},
			{ID: 1, Filename: "a.pdf", FileSize: 10, ExtractedText: "tiny"},
		}
		mockSvc.On("List", mock.Anything).Return(docs, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/pdfs", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []documentSummary
		json.NewDecoder(resp.Body).Decode(&result)
		require.Len(t, result, 2)
		assert.Equal(t, int64(2), result[0].ID)
		assert.Len(t, result[0].TextPreview, 203)
		assert.True(t, strings.HasSuffix(result[0].TextPreview, "..."))
		assert.Equal(t, "tiny", result[1].TextPreview)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/pdfs", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	part.Write([]byte(content))
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/upload-pdf", UploadDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		body, contentType := multipartBody(t, "sample.pdf", "%PDF-1.4 data")

		expectedDoc := &model.Document{ID: 1, Filename: "sample.pdf", FileSize: 13, ExtractedText: "page text"}
		mockSvc.On("Upload", mock.Anything, mock.Anything, "sample.pdf").Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/upload-pdf", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result documentSummary
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, int64(1), result.ID)
		assert.Equal(t, "sample.pdf", result.Filename)
		assert.Equal(t, "page text", result.TextPreview)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload-pdf", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("wrong file type", func(t *testing.T) {
		body, contentType := multipartBody(t, "notes.txt", "hello")
		mockSvc.On("Upload", mock.Anything, mock.Anything, "notes.txt").Return(nil, service.ErrNotPDF).Once()

		req := httptest.NewRequest(http.MethodPost, "/upload-pdf", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_FILE_TYPE", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no extractable text", func(t *testing.T) {
		body, contentType := multipartBody(t, "scan.pdf", "%PDF image only")
		mockSvc.On("Upload", mock.Anything, mock.Anything, "scan.pdf").Return(nil, service.ErrNoExtractableText).Once()

		req := httptest.NewRequest(http.MethodPost, "/upload-pdf", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NO_TEXT_CONTENT", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		body, contentType := multipartBody(t, "sample.pdf", "%PDF")
		mockSvc.On("Upload", mock.Anything, mock.Anything, "sample.pdf").Return(nil, errors.New("upload failed")).Once()

		req := httptest.NewRequest(http.MethodPost, "/upload-pdf", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/pdfs/:id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedDoc := &model.Document{ID: 7, Filename: "sample.pdf", ExtractedText: "full text"}
		mockSvc.On("Get", mock.Anything, int64(7)).Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/pdfs/7", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, int64(7), result.ID)
		assert.Equal(t, "full text", result.ExtractedText)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, int64(99)).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/pdfs/99", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/pdfs/not-a-number", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})
}

func TestAskQuestion(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/ask-question", AskQuestion(mockSvc))

	postJSON := func(t *testing.T, payload string) *http.Response {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/ask-question", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Ask", mock.Anything, int64(1), "What is this about?").
			Return(&service.AskResult{Answer: "Solar energy.", Filename: "sample.pdf"}, nil).Once()

		resp := postJSON(t, `{"pdf_id": 1, "question": "What is this about?"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result service.AskResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "Solar energy.", result.Answer)
		assert.Equal(t, "sample.pdf", result.Filename)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		resp := postJSON(t, `{not json`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_BODY", res.Error.Code)
	})

	t.Run("blank question", func(t *testing.T) {
		mockSvc.On("Ask", mock.Anything, int64(1), "  ").Return(nil, service.ErrQuestionRequired).Once()

		resp := postJSON(t, `{"pdf_id": 1, "question": "  "}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "QUESTION_REQUIRED", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown document", func(t *testing.T) {
		mockSvc.On("Ask", mock.Anything, int64(42), "q").Return(nil, service.ErrNotFound).Once()

		resp := postJSON(t, `{"pdf_id": 42, "question": "q"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("provider error maps to 502", func(t *testing.T) {
		mockSvc.On("Ask", mock.Anything, int64(1), "q").
			Return(nil, &llm.ProviderError{Kind: llm.ProviderErrorAPI, Detail: "status 500"}).Once()

		resp := postJSON(t, `{"pdf_id": 1, "question": "q"}`)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "PROVIDER_ERROR", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Delete("/pdfs/:id", DeleteDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, int64(3)).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/pdfs/3", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "PDF deleted successfully", body["message"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, int64(42)).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/pdfs/42", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/pdfs/abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, int64(5)).Return(errors.New("delete error")).Once()

		req := httptest.NewRequest(http.MethodDelete, "/pdfs/5", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockDocumentService)
	RegisterRoutes(app, nil, mockSvc)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// upload endpoint only allows POST
		req := httptest.NewRequest(http.MethodPut, "/upload-pdf", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
