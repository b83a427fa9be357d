package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"pdfqa/internal/model"
	"pdfqa/internal/service"
)

// previewLen is the number of extracted-text characters shown in summaries.
const previewLen = 200

// documentSummary is the list/upload response shape: full extracted text is
// replaced by a bounded preview.
type documentSummary struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	UploadDate  time.Time `json:"upload_date"`
	FileSize    int64     `json:"file_size"`
	TextPreview string    `json:"text_preview"`
}

type askRequest struct {
	PDFID    int64  `json:"pdf_id"`
	Question string `json:"question"`
}

func summarize(d *model.Document) documentSummary {
	return documentSummary{
		ID:          d.ID,
		Filename:    d.Filename,
		UploadDate:  d.UploadDate,
		FileSize:    d.FileSize,
		TextPreview: textPreview(d.ExtractedText),
	}
}

func textPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen]) + "..."
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/", Index())
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/upload-pdf", UploadDocument(docSvc))
	app.Post("/ask-question", AskQuestion(docSvc))
	app.Get("/pdfs", ListDocuments(docSvc))
	app.Get("/pdfs/:id", GetDocument(docSvc))
	app.Delete("/pdfs/:id", DeleteDocument(docSvc))
}

// Index describes the service and its endpoints.
func Index() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "PDF Question Answering API",
			"endpoints": fiber.Map{
				"upload": "POST /upload-pdf",
				"ask":    "POST /ask-question",
				"list":   "GET /pdfs",
				"delete": "DELETE /pdfs/{id}",
			},
		})
	}
}

// HealthCheck reports readiness: DB connectivity plus a timestamp.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// LivenessProbe is a bare liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadDocument accepts a multipart PDF (field name: file), stores it and
// returns a summary of the created document.
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := docSvc.Upload(c.UserContext(), f, fh.Filename)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(summarize(doc))
	}
}

// ListDocuments returns summaries of all documents, most recent upload first.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		summaries := make([]documentSummary, 0, len(docs))
		for i := range docs {
			summaries = append(summaries, summarize(&docs[i]))
		}
		return c.JSON(summaries)
	}
}

// GetDocument returns a single document including its full extracted text.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// AskQuestion answers a question about one stored document.
func AskQuestion(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req askRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := docSvc.Ask(c.UserContext(), req.PDFID, req.Question)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// DeleteDocument removes a document and its stored file.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "PDF deleted successfully"})
	}
}
