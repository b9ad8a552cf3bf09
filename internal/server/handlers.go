package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"seqassist/internal/llm"
)

type chatRequest struct {
	Message string `json:"message"`
	TopK    int    `json:"top_k,omitempty"`
}

type chatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

type runCodeRequest struct {
	Code string `json:"code"`
}

type runCodeResponse struct {
	Stdout      string `json:"stdout"`
	ImageBase64 string `json:"image_base64,omitempty"`
	Error       string `json:"error,omitempty"`
}

type uploadResponse struct {
	ChunksAdded int    `json:"chunks_added"`
	Summary     string `json:"summary,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	results, err := s.retriever.Retrieve(r.Context(), req.Message, topK)
	if err != nil {
		s.logger.Error("retrieval failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "retrieval failed"})
		return
	}
	sources := make([]string, len(results))
	for i, res := range results {
		sources[i] = res.Chunk.Content
	}

	system := llm.SystemPrompt(llm.FormatSources(sources))
	answer, err := s.chat.Chat(r.Context(), system, req.Message)
	if err != nil {
		s.logger.Error("chat model failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "language model unavailable: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer, Sources: sources})
}

func (s *Server) handleRunCode(w http.ResponseWriter, r *http.Request) {
	var req runCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "code is required"})
		return
	}
	res := s.executor.Run(r.Context(), req.Code)
	writeJSON(w, http.StatusOK, runCodeResponse{
		Stdout:      res.Stdout,
		ImageBase64: res.ImageBase64,
		Error:       res.Error,
	})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		s.logger.Error("create temp file", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not store upload"})
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not store upload"})
		return
	}
	tmp.Close()

	report, err := s.retriever.ProcessPDF(r.Context(), tmp.Name())
	if err != nil {
		s.logger.Error("ingestion failed", "file", header.Filename, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "ingestion failed"})
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{ChunksAdded: report.ChunksAdded, Summary: report.Summary})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
