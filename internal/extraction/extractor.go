package extraction

import (
	"context"
	"errors"
)

// BillFields contains the structured information extracted from one fuel bill
// page. Every field is a string so that a missing value is representable as
// "" rather than null.
type BillFields struct {
	PumpName     string `json:"Petrol Pump Name"`
	Date         string `json:"Date"` // DD/MM/YYYY textual form, never parsed
	Product      string `json:"Product"`
	VolumeLitres string `json:"Volume(L)"`
	RatePerLitre string `json:"Rate per Litre"`
	TotalAmount  string `json:"Total Amount (Rs)"`
}

// VisionModel is the boundary to the remote vision-language model: text and
// an optional PNG image in, free-form text out. A nil/empty image sends a
// text-only request (used by health probes).
type VisionModel interface {
	Generate(ctx context.Context, instruction string, pngImage []byte) (string, error)
	// Close closes the model client and releases resources
	Close() error
}

var (
	// ErrExtractionService indicates the remote model call failed (timeout,
	// non-2xx, unreachable or empty reply). Calls are not retried here.
	ErrExtractionService = errors.New("extraction service error")

	// ErrMalformedResponse indicates the model reply did not contain a
	// parseable JSON object after fence stripping.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyDocument indicates a PDF with no renderable pages.
	ErrEmptyDocument = errors.New("no pages found in PDF")

	// ErrImageDecode indicates an undecodable raster image upload.
	ErrImageDecode = errors.New("decoding image")

	// ErrPDFProcessing indicates a PDF that could not be opened or rendered.
	ErrPDFProcessing = errors.New("processing PDF")
)

// Extractor sends one page image to the model with the fuel bill instruction
// and normalizes the reply into BillFields.
type Extractor struct {
	model VisionModel
}

// NewExtractor creates an Extractor backed by the given model
func NewExtractor(model VisionModel) *Extractor {
	return &Extractor{model: model}
}

// ExtractBill analyzes one bill page image and returns the normalized fields
func (e *Extractor) ExtractBill(ctx context.Context, pngImage []byte) (*BillFields, error) {
	text, err := e.model.Generate(ctx, billPrompt, pngImage)
	if err != nil {
		return nil, err
	}
	return parseBillJSON(text)
}

// Probe issues a trivial text-only request to verify the model responds
func (e *Extractor) Probe(ctx context.Context) error {
	_, err := e.model.Generate(ctx, "Test", nil)
	return err
}

// Close closes the underlying model client
func (e *Extractor) Close() error {
	return e.model.Close()
}
