package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"seqassist/internal/domain"
)

type stubRetriever struct {
	results []domain.SearchResult
	report  domain.IngestReport
	err     error
}

func (s *stubRetriever) Retrieve(context.Context, string, int) ([]domain.SearchResult, error) {
	return s.results, s.err
}

func (s *stubRetriever) ProcessPDF(context.Context, string) (domain.IngestReport, error) {
	return s.report, s.err
}

type stubExecutor struct {
	result domain.ExecResult
}

func (s *stubExecutor) Run(context.Context, string) domain.ExecResult { return s.result }

type stubChat struct {
	answer string
	err    error
	system string
}

func (s *stubChat) Chat(_ context.Context, system, _ string) (string, error) {
	s.system = system
	return s.answer, s.err
}

func newTestHandler(ret *stubRetriever, exec *stubExecutor, chat *stubChat) http.Handler {
	return New(Config{Retriever: ret, Executor: exec, Chat: chat}).Handler()
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&stubRetriever{}, &stubExecutor{}, &stubChat{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestChatHappyPath(t *testing.T) {
	ret := &stubRetriever{results: []domain.SearchResult{
		{Chunk: domain.Chunk{ID: "chunk-1", Content: "trimming removes adapters"}},
	}}
	chat := &stubChat{answer: "Adapters are removed during trimming."}
	h := newTestHandler(ret, &stubExecutor{}, chat)

	body := `{"message": "what does trimming do?"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != chat.answer {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "trimming removes adapters" {
		t.Fatalf("sources = %v", resp.Sources)
	}
	if !strings.Contains(chat.system, "trimming removes adapters") {
		t.Fatal("system prompt missing retrieved source")
	}
}

func TestChatEmptyMessage(t *testing.T) {
	h := newTestHandler(&stubRetriever{}, &stubExecutor{}, &stubChat{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message": "  "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatModelUnavailable(t *testing.T) {
	chat := &stubChat{err: errors.New("connection refused")}
	h := newTestHandler(&stubRetriever{}, &stubExecutor{}, chat)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message": "hi"}`)))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unavailable") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRunCode(t *testing.T) {
	exec := &stubExecutor{result: domain.ExecResult{Stdout: "42\n", ImageBase64: "aW1n"}}
	h := newTestHandler(&stubRetriever{}, exec, &stubChat{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run-code", strings.NewReader(`{"code": "print(42)"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp runCodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Stdout != "42\n" || resp.ImageBase64 != "aW1n" || resp.Error != "" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestRunCodeScriptErrorStillOK(t *testing.T) {
	exec := &stubExecutor{result: domain.ExecResult{Error: "division by zero"}}
	h := newTestHandler(&stubRetriever{}, exec, &stubChat{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run-code", strings.NewReader(`{"code": "x = 1/0"}`)))

	// Script failures are payload, not transport errors.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "division by zero") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestUploadDocument(t *testing.T) {
	ret := &stubRetriever{report: domain.IngestReport{ChunksAdded: 7, Summary: "a short summary"}}
	h := newTestHandler(ret, &stubExecutor{}, &stubChat{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "manual.pdf")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("%PDF-1.4 fake"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ChunksAdded != 7 || resp.Summary != "a short summary" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(&stubRetriever{}, &stubExecutor{}, &stubChat{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS allow-origin header")
	}
}
