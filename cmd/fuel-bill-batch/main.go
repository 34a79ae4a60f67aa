// fuel-bill-batch scans a directory of bill images and PDFs, extracts each
// one through the vision model and writes the results to a spreadsheet.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Aryan-Joshi-10/Fuel-Bill-Extraction-UsingLLM/internal/bill"
	"github.com/Aryan-Joshi-10/Fuel-Bill-Extraction-UsingLLM/internal/export"
	"github.com/Aryan-Joshi-10/Fuel-Bill-Extraction-UsingLLM/internal/extraction"
)

func main() {
	fs := ff.NewFlagSet("fuel-bill-batch")
	var (
		imagesDir   = fs.StringLong("images", "images", "Directory of bill images/PDFs to process")
		output      = fs.StringLong("output", "extracted_bills.xlsx", "Output spreadsheet path")
		scratchDir  = fs.StringLong("upload-dir", "", "Scratch directory (default: system temp)")
		scannerType = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GOOGLE_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-1.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FUEL_BILL"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var model extraction.VisionModel
	var err error
	switch *scannerType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GOOGLE_API_KEY environment variable")
			os.Exit(1)
		}
		model, err = extraction.NewGemini(apiKey, *geminiModel)
	case "ollama":
		model, err = extraction.NewOllama(*ollamaURL, *ollamaModel)
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize model", "error", err)
		os.Exit(1)
	}
	extractor := extraction.NewExtractor(model)
	defer extractor.Close()

	scratch := *scratchDir
	if scratch == "" {
		scratch = filepath.Join(os.TempDir(), "fuel-bill-batch")
	}
	store, err := bill.NewLocalStorage(scratch)
	if err != nil {
		slog.Error("Failed to initialize scratch storage", "error", err)
		os.Exit(1)
	}

	entries, err := os.ReadDir(*imagesDir)
	if err != nil {
		slog.Error("Failed to read images directory", "path", *imagesDir, "error", err)
		os.Exit(1)
	}

	uploads := make([]bill.Upload, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !bill.AllowedFile(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(*imagesDir, entry.Name()))
		if err != nil {
			slog.Error("Failed to read file", "file", entry.Name(), "error", err)
			continue
		}
		uploads = append(uploads, bill.Upload{Filename: entry.Name(), Data: data})
	}
	if len(uploads) == 0 {
		slog.Error("No processable files found", "path", *imagesDir)
		os.Exit(1)
	}

	// History is not recorded in batch mode
	service := bill.NewService(nil, store, extractor)
	results := service.ProcessBatch(context.Background(), uploads)

	for _, r := range results {
		if r.Error != "" {
			slog.Error("Extraction failed", "file", r.File, "error", r.Error)
		} else {
			slog.Info("Extracted bill", "file", r.File, "pump", r.Data.PumpName, "total", r.Data.TotalAmount)
		}
	}

	wb, err := export.WriteResults(results)
	if err != nil {
		slog.Error("Failed to build workbook", "error", err)
		os.Exit(1)
	}
	if err := wb.SaveAs(*output); err != nil {
		slog.Error("Failed to save workbook", "path", *output, "error", err)
		os.Exit(1)
	}

	slog.Info("Extraction complete", "output", *output, "results", len(results))
}
