package extraction

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// ExtractPages converts an uploaded file into an ordered sequence of PNG page
// images. Raster images yield exactly one page; PDFs are rasterized page by
// page in document order. A failure on any PDF page aborts extraction for
// that file only. Rasterization is attempted exactly once per file.
func ExtractPages(data []byte, filename string) ([][]byte, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "pdf" {
		return pdfPages(data)
	}
	page, err := imageToPNG(data)
	if err != nil {
		return nil, err
	}
	return [][]byte{page}, nil
}

// pdfPages rasterizes every page of a PDF to PNG
func pdfPages(data []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: opening document: %v", ErrPDFProcessing, err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, ErrEmptyDocument
	}

	pages := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		// go-fitz renders at 300 DPI by default, which keeps bill text legible
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("%w: rendering page %d: %v", ErrPDFProcessing, i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: encoding page %d: %v", ErrPDFProcessing, i+1, err)
		}
		pages = append(pages, buf.Bytes())
	}

	return pages, nil
}

// imageToPNG decodes a raster image upload and re-encodes it as PNG
func imageToPNG(data []byte) ([]byte, error) {
	var img image.Image
	var err error

	// Phone cameras often produce HEIC payloads behind a .jpg name, which
	// Go's standard image package cannot decode
	if isHEICFormat(data) {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encoding PNG: %v", ErrImageDecode, err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks the ftyp box brands that mark HEIC/HEIF containers
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
