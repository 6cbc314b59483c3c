package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/kbase/internal/types"
)

func TestClient_ErrorClasses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"bad request", http.StatusBadRequest, ErrRejected},
		{"conflict", http.StatusConflict, ErrRejected},
		{"rate limited", http.StatusTooManyRequests, ErrRejected},
		{"server error", http.StatusInternalServerError, ErrCommunication},
		{"unavailable", http.StatusServiceUnavailable, ErrCommunication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(ErrorResponse{Error: "nope"})
			}))
			defer srv.Close()

			err := NewClient(srv.URL).Get(context.Background(), "/x", nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var se *StatusError
			if !errors.As(err, &se) || se.StatusCode != tt.status || se.Message != "nope" {
				t.Errorf("unexpected status error: %#v", se)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Process(context.Background(), "d1")
	if !errors.Is(err, ErrCommunication) {
		t.Errorf("expected ErrCommunication, got %v", err)
	}
}

func TestClient_ListChunksQuery(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(types.ChunkPage{Total: 9, Page: 4, Limit: 1, Items: []types.Chunk{{ChunkID: 3, Text: "full"}}})
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL).ListChunks(context.Background(), "d1", types.ChunkQuery{Page: 4, Limit: 1, FullText: true})
	if err != nil {
		t.Fatalf("ListChunks() error = %v", err)
	}
	if gotPath != "/api/documents/d1/chunks" {
		t.Errorf("path = %s", gotPath)
	}
	if gotQuery != "full_text=true&limit=1&page=4" {
		t.Errorf("query = %s", gotQuery)
	}
	if page.Total != 9 || len(page.Items) != 1 || page.Items[0].Text != "full" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestClient_ResetProgressSendsOnlyOffset(t *testing.T) {
	var body map[string]any
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(types.Document{ID: "d1", Status: types.StatusPaused})
	}))
	defer srv.Close()

	doc, err := NewClient(srv.URL).ResetProgress(context.Background(), "d1")
	if err != nil {
		t.Fatalf("ResetProgress() error = %v", err)
	}
	if method != http.MethodPut {
		t.Errorf("method = %s", method)
	}
	if len(body) != 1 || body["parse_offset"] != float64(0) {
		t.Errorf("body = %v", body)
	}
	if doc.Status != types.StatusPaused {
		t.Errorf("status = %s", doc.Status)
	}
}

func TestClient_GetDocumentView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"d1","status":"processed","parse_offset":5,"chunk_count":5,"needs_confirmation":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	view, err := c.GetDocumentView(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetDocumentView() error = %v", err)
	}
	if !view.NeedsConfirmation || view.ChunkCount != 5 {
		t.Errorf("unexpected view: %+v", view)
	}

	doc, err := c.GetDocument(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.Status != types.StatusProcessed {
		t.Errorf("status = %s", doc.Status)
	}
}

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/kbs/kb1/documents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		if header.Filename != "notes.txt" || string(content) != "hello" {
			t.Errorf("got %s %q", header.Filename, content)
		}
		if cfg := r.FormValue("parsing_config"); !strings.Contains(cfg, `"chunk_size":200`) {
			t.Errorf("parsing_config = %s", cfg)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(types.Document{ID: "d1", Filename: header.Filename})
	}))
	defer srv.Close()

	size := 200
	doc, err := NewClient(srv.URL).Upload(context.Background(), "kb1", "/tmp/notes.txt", strings.NewReader("hello"), &types.ParsingConfig{ChunkSize: &size})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID != "d1" {
		t.Errorf("id = %s", doc.ID)
	}
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing/download") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"file missing"}`))
			return
		}
		w.Write([]byte("raw bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	var buf bytes.Buffer
	if err := c.Download(context.Background(), "d1", &buf); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if buf.String() != "raw bytes" {
		t.Errorf("content = %q", buf.String())
	}
	if err := c.Download(context.Background(), "missing", &buf); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
