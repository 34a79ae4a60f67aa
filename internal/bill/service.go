package bill

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Aryan-Joshi-10/Fuel-Bill-Extraction-UsingLLM/internal/extraction"
)

// User-visible error strings for intake validation failures
const (
	errInvalidFileType = "Invalid file type. Allowed types: PDF, PNG, JPG, JPEG"
	errEmptyFile       = "File is empty"
)

// sweepAge is how old a leftover scratch file must be before the pre-batch
// safety-net sweep removes it
const sweepAge = 24 * time.Hour

// Extractor defines the interface for per-page bill extraction
type Extractor interface {
	// ExtractBill analyzes one page image and returns the normalized fields
	ExtractBill(ctx context.Context, pngImage []byte) (*extraction.BillFields, error)
	// Probe verifies the extraction service responds to a trivial request
	Probe(ctx context.Context) error
	// Close closes the extractor and releases resources
	Close() error
}

// PagesFunc converts validated file bytes into an ordered sequence of PNG
// page images
type PagesFunc func(data []byte, filename string) ([][]byte, error)

// IDGenerator generates unique IDs for scratch files and batches
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service orchestrates bill extraction batches
type Service struct {
	db          DB
	storage     Storage
	extractor   Extractor
	pages       PagesFunc
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default page extraction, ID generator
// and time source. db may be nil, in which case no history is recorded.
func NewService(db DB, storage Storage, extractor Extractor) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		extractor:   extractor,
		pages:       extraction.ExtractPages,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, extractor Extractor, pages PagesFunc, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		extractor:   extractor,
		pages:       pages,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ProcessBatch processes uploaded files in submission order and returns one
// Result per page of each file. A failing file or page never aborts its
// siblings; every submitted file yields at least one Result.
func (s *Service) ProcessBatch(ctx context.Context, uploads []Upload) []Result {
	// Safety-net sweep for scratch files leaked by prior crashed runs
	s.storage.CleanupOlderThan(sweepAge)

	results := make([]Result, 0, len(uploads))
	for _, upload := range uploads {
		results = append(results, s.processUpload(ctx, upload)...)
	}

	s.recordBatch(results)

	return results
}

// processUpload runs one file through intake, page extraction and per-page
// model extraction. The scratch copy is removed on every exit path.
func (s *Service) processUpload(ctx context.Context, upload Upload) []Result {
	name := upload.Filename
	if name == "" {
		name = "unknown"
	}

	if !AllowedFile(upload.Filename) {
		return []Result{{File: name, Error: errInvalidFileType}}
	}

	cleanFilename := sanitizeFilename(upload.Filename)

	if len(upload.Data) == 0 {
		return []Result{{File: cleanFilename, Error: errEmptyFile}}
	}

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", s.idGenerator.Generate(), cleanFilename), upload.Data)
	if err != nil {
		slog.Error("Failed to save upload", "filename", cleanFilename, "error", err)
		return []Result{{File: cleanFilename, Error: fmt.Sprintf("Error processing file: %v", err)}}
	}
	defer func() {
		if err := s.storage.Delete(savedPath); err != nil {
			slog.Error("Failed to clean up upload", "path", savedPath, "error", err)
		}
	}()

	data, err := s.storage.Get(savedPath)
	if err != nil {
		slog.Error("Failed to read back upload", "path", savedPath, "error", err)
		return []Result{{File: cleanFilename, Error: fmt.Sprintf("Error processing file: %v", err)}}
	}

	pages, err := s.pages(data, cleanFilename)
	if err != nil {
		slog.Error("Failed to extract pages", "filename", cleanFilename, "error", err)
		return []Result{{File: cleanFilename, Error: err.Error()}}
	}
	slog.Info("Extracted pages", "filename", cleanFilename, "pages", len(pages))

	base := strings.TrimSuffix(cleanFilename, filepath.Ext(cleanFilename))
	results := make([]Result, 0, len(pages))
	for i, page := range pages {
		identifier := base
		if len(pages) > 1 {
			identifier = fmt.Sprintf("%s_page%d", base, i+1)
		}

		fields, err := s.extractor.ExtractBill(ctx, page)
		if err != nil {
			slog.Error("Failed to extract bill", "identifier", identifier, "error", err)
			results = append(results, Result{File: identifier, Error: err.Error()})
			continue
		}
		results = append(results, Result{File: identifier, Data: fields})
	}

	return results
}

// recordBatch writes the batch to history. Persistence is write-behind and
// never fails the batch.
func (s *Service) recordBatch(results []Result) {
	if s.db == nil || len(results) == 0 {
		return
	}
	batch := &Batch{
		ID:        s.idGenerator.Generate(),
		CreatedAt: s.timeSource.Now(),
		Results:   results,
	}
	if err := s.db.SaveBatch(batch); err != nil {
		slog.Error("Failed to record batch", "batch_id", batch.ID, "error", err)
	}
}

// GetBatch retrieves a recorded batch by ID
func (s *Service) GetBatch(id string) (*Batch, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history is not enabled")
	}
	batch, err := s.db.GetBatch(id)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	return batch, nil
}

// ListBatches returns all recorded batches
func (s *Service) ListBatches() ([]*Batch, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history is not enabled")
	}
	batches, err := s.db.ListBatches()
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	return batches, nil
}

// Health probes the extraction service and the upload directory
func (s *Service) Health(ctx context.Context) HealthStatus {
	components := map[string]string{
		"gemini_api":       "healthy",
		"upload_directory": "healthy",
		"pdf_processing":   "healthy",
	}

	if err := s.extractor.Probe(ctx); err != nil {
		slog.Error("Health probe of extraction service failed", "error", err)
		components["gemini_api"] = "unhealthy"
	}

	if err := s.storage.Check(); err != nil {
		slog.Error("Health check of upload directory failed", "error", err)
		components["upload_directory"] = "unhealthy"
	}

	status := "healthy"
	for _, v := range components {
		if v != "healthy" {
			status = "unhealthy"
			break
		}
	}

	return HealthStatus{Status: status, Components: components}
}
