package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Aryan-Joshi-10/Fuel-Bill-Extraction-UsingLLM/internal/bill"
	"github.com/Aryan-Joshi-10/Fuel-Bill-Extraction-UsingLLM/internal/extraction"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("fuel-bill-server")
	var (
		port        = fs.IntLong("port", 5000, "HTTP server port")
		uploadDir   = fs.StringLong("upload-dir", "uploads", "Upload scratch directory path")
		dbPath      = fs.StringLong("db", "fuel-bills.db", "Batch history database file path")
		maxUploadMB = fs.IntLong("max-upload-mb", 50, "Maximum upload size in MB")
		scannerType = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GOOGLE_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-1.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel    = fs.StringLong("log-level", "info", "Log level: 'debug' or 'info'")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FUEL_BILL"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *logLevel == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Initialize batch history database
	slog.Info("Initializing database...")
	db, err := bill.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize the vision model backend
	var model extraction.VisionModel
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
		slog.Info("Initializing Gemini model...", "model", *geminiModel)
		model, err = extraction.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama model...", "url", *ollamaURL, "model", *ollamaModel)
		model, err = extraction.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	extractor := extraction.NewExtractor(model)
	defer extractor.Close()

	// Initialize upload scratch storage
	slog.Info("Initializing upload storage...", "path", *uploadDir)
	store, err := bill.NewLocalStorage(*uploadDir)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	service := bill.NewService(db, store, extractor)

	// Initialize server
	basicAuth := bill.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := bill.NewServer(service, basicAuth, int64(*maxUploadMB)<<20)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
