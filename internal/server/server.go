// Package server exposes the HTTP API: health, retrieval-augmented chat,
// script execution, and document ingestion.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"seqassist/internal/domain"
)

// Retriever answers similarity queries and ingests documents.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
	ProcessPDF(ctx context.Context, path string) (domain.IngestReport, error)
}

// Executor runs analysis scripts.
type Executor interface {
	Run(ctx context.Context, code string) domain.ExecResult
}

// ChatModel generates answers.
type ChatModel interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Server holds the handler dependencies.
type Server struct {
	retriever Retriever
	executor  Executor
	chat      ChatModel
	topK      int
	logger    *slog.Logger
}

// Config wires the server together.
type Config struct {
	Retriever Retriever
	Executor  Executor
	Chat      ChatModel
	TopK      int
	Logger    *slog.Logger
}

// New builds a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 4
	}
	return &Server{
		retriever: cfg.Retriever,
		executor:  cfg.Executor,
		chat:      cfg.Chat,
		topK:      topK,
		logger:    logger,
	}
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /run-code", s.handleRunCode)
	mux.HandleFunc("POST /documents", s.handleUploadDocument)
	return s.withCORS(s.withLogging(mux))
}
