package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/config"
	"github.com/jackzampolin/kbase/internal/home"
	"github.com/jackzampolin/kbase/internal/lifecycle"
	"github.com/jackzampolin/kbase/internal/types"
	"github.com/jackzampolin/kbase/internal/viewer"
)

const sampleText = `# Notes

The first paragraph talks about storage engines.
It spans two lines.

The second paragraph covers worker pools and queues.

The third paragraph is about pagination windows.
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T, yaml string) *config.Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	mgr, err := config.NewManager(path)
	require.NoError(t, err)
	return mgr
}

// newTestServer builds a fully initialized server behind httptest.
func newTestServer(t *testing.T, yaml string) (*Server, *api.Client, string) {
	t.Helper()

	h, err := home.New(t.TempDir())
	require.NoError(t, err)

	srv, err := New(Config{
		Home:          h,
		ConfigManager: newManager(t, "storage:\n  in_memory: true\n"+yaml),
		Logger:        testLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, srv.init(context.Background()))
	t.Cleanup(func() { srv.closeServices(context.Background()) })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, api.NewClient(ts.URL), ts.URL
}

func waitForStatus(t *testing.T, client *api.Client, id string, want types.Status) *types.Document {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		doc, err := client.GetDocument(context.Background(), id)
		require.NoError(t, err)
		if doc.Status == want {
			return doc
		}
		if time.Now().After(deadline) {
			t.Fatalf("document %s stuck in %s, want %s (fail_reason %q)", id, doc.Status, want, doc.FailReason)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func ptr[T any](v T) *T { return &v }

func TestServer_RequiresInit(t *testing.T) {
	h, err := home.New(t.TempDir())
	require.NoError(t, err)
	srv, err := New(Config{Home: h, Logger: testLogger()})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusServiceUnavailable},
		{"/api/kbs", http.StatusServiceUnavailable},
		{"/swagger.json", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServer_New_RequiresHome(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestServer_RateLimit(t *testing.T) {
	_, _, url := newTestServer(t, "server:\n  rate_limit: 0.001\n  burst: 1\n")

	resp, err := http.Get(url + "/api/kbs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(url + "/api/kbs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Health checks bypass the limiter.
	resp, err = http.Get(url + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_KnowledgeBases(t *testing.T) {
	ctx := context.Background()
	_, client, url := newTestServer(t, "")

	kb, err := client.CreateKnowledgeBase(ctx, api.KnowledgeBaseRequest{
		Name:      ptr("papers"),
		ChunkSize: ptr(400),
		Overlap:   ptr(40),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, kb.ID)
	assert.Equal(t, 400, kb.ChunkSize)

	got, err := client.GetKnowledgeBase(ctx, kb.ID)
	require.NoError(t, err)
	assert.Equal(t, "papers", got.Name)

	updated, err := client.UpdateKnowledgeBase(ctx, kb.ID, api.KnowledgeBaseRequest{AutoProcessOnUpload: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.AutoProcessOnUpload)
	assert.Equal(t, 400, updated.ChunkSize)

	list, err := client.ListKnowledgeBases(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = client.GetKnowledgeBase(ctx, "missing")
	assert.ErrorIs(t, err, api.ErrNotFound)

	t.Run("schema rejects unknown fields", func(t *testing.T) {
		resp, err := http.Post(url+"/api/kbs", "application/json", strings.NewReader(`{"name":"x","color":"red"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("overlap must be below chunk size", func(t *testing.T) {
		_, err := client.CreateKnowledgeBase(ctx, api.KnowledgeBaseRequest{
			Name:      ptr("bad"),
			ChunkSize: ptr(10),
			Overlap:   ptr(10),
		})
		assert.ErrorIs(t, err, api.ErrRejected)
	})
}

func TestAPI_DocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	_, client, _ := newTestServer(t, "")

	kb, err := client.CreateKnowledgeBase(ctx, api.KnowledgeBaseRequest{
		Name:      ptr("notes"),
		ChunkSize: ptr(60),
		Overlap:   ptr(5),
	})
	require.NoError(t, err)

	doc, err := client.Upload(ctx, kb.ID, "notes.md", strings.NewReader(sampleText), nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusNotStarted, doc.Status)
	assert.Equal(t, "md", doc.Filetype)

	view, err := client.GetDocumentView(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ChunkingConfig{ChunkSize: 60, Overlap: 5}, view.EffectiveConfig)
	assert.False(t, view.NeedsConfirmation)

	started, err := client.Process(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, started.Status.Running(), "status %s", started.Status)

	processed := waitForStatus(t, client, doc.ID, types.StatusProcessed)
	require.Greater(t, processed.ChunkCount, 1)
	assert.Equal(t, processed.ChunkCount, processed.ParseOffset)
	require.NotNil(t, processed.LastParsedConfig)
	assert.Equal(t, 60, processed.LastParsedConfig.ChunkSize)

	t.Run("chunks", func(t *testing.T) {
		page, err := client.ListChunks(ctx, doc.ID, types.ChunkQuery{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, processed.ChunkCount, page.Total)
		assert.Len(t, page.Items, processed.ChunkCount)
		for i, c := range page.Items {
			assert.Equal(t, i, c.ChunkID)
		}

		full, err := viewer.FullChunk(ctx, client, doc.ID, 0)
		require.NoError(t, err)
		assert.Contains(t, full.Text, "Notes")
		assert.False(t, full.Truncated)

		_, err = viewer.FullChunk(ctx, client, doc.ID, processed.ChunkCount)
		assert.ErrorIs(t, err, api.ErrNotFound)

		_, err = client.ListChunks(ctx, doc.ID, types.ChunkQuery{Page: 0, Limit: 10})
		assert.ErrorIs(t, err, api.ErrRejected)
	})

	t.Run("preview and download", func(t *testing.T) {
		p, err := client.Preview(ctx, doc.ID, 0)
		require.NoError(t, err)
		assert.Contains(t, p.Content, "worker pools")
		assert.False(t, p.HasMore)
		assert.Nil(t, p.NextOffset)

		var buf bytes.Buffer
		require.NoError(t, client.Download(ctx, doc.ID, &buf))
		assert.Equal(t, sampleText, buf.String())
	})

	t.Run("terminate is a no-op when not running", func(t *testing.T) {
		got, err := client.Terminate(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusProcessed, got.Status)
	})

	t.Run("rerun with unchanged config needs confirmation", func(t *testing.T) {
		view, err := client.GetDocumentView(ctx, doc.ID)
		require.NoError(t, err)
		assert.True(t, view.NeedsConfirmation)

		_, err = lifecycle.NewController(client, testLogger()).Process(ctx, doc.ID)
		assert.ErrorIs(t, err, lifecycle.ErrConfirmationRequired)
		got, err := client.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusProcessed, got.Status)

		_, err = client.UpdateParsingConfig(ctx, doc.ID, types.ParsingConfig{ChunkSize: ptr(80)})
		require.NoError(t, err)
		view, err = client.GetDocumentView(ctx, doc.ID)
		require.NoError(t, err)
		assert.False(t, view.NeedsConfirmation)
		assert.Equal(t, types.ChunkingConfig{ChunkSize: 80, Overlap: 5}, view.EffectiveConfig)
	})

	t.Run("stale progress report is rejected", func(t *testing.T) {
		err := client.ReportProgress(ctx, doc.ID, types.ProgressReport{Run: 99, Status: types.StatusProcessing})
		assert.ErrorIs(t, err, api.ErrRejected)
		var se *api.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusConflict, se.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		err := client.DeleteKnowledgeBase(ctx, kb.ID)
		assert.ErrorIs(t, err, api.ErrRejected)
		var se *api.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusConflict, se.StatusCode)

		require.NoError(t, client.DeleteDocument(ctx, doc.ID))
		_, err = client.GetDocument(ctx, doc.ID)
		assert.ErrorIs(t, err, api.ErrNotFound)

		docs, err := client.ListDocuments(ctx, kb.ID)
		require.NoError(t, err)
		assert.Empty(t, docs)

		require.NoError(t, client.DeleteKnowledgeBase(ctx, kb.ID))
		_, err = client.GetKnowledgeBase(ctx, kb.ID)
		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.ErrorIs(t, client.DeleteKnowledgeBase(ctx, kb.ID), api.ErrNotFound)
	})
}

func TestAPI_UploadAutoProcess(t *testing.T) {
	ctx := context.Background()
	_, client, _ := newTestServer(t, "")

	kb, err := client.CreateKnowledgeBase(ctx, api.KnowledgeBaseRequest{
		Name:                ptr("auto"),
		AutoProcessOnUpload: ptr(true),
	})
	require.NoError(t, err)

	doc, err := client.Upload(ctx, kb.ID, "notes.txt", strings.NewReader(sampleText), &types.ParsingConfig{ChunkSize: ptr(50), Overlap: ptr(5)})
	require.NoError(t, err)
	require.NotNil(t, doc.ParsingConfig)
	assert.NotEqual(t, types.StatusNotStarted, doc.Status)

	done := waitForStatus(t, client, doc.ID, types.StatusProcessed)
	require.NotNil(t, done.LastParsedConfig)
	assert.Equal(t, types.ChunkingConfig{ChunkSize: 50, Overlap: 5}, *done.LastParsedConfig)
}

func TestAPI_UploadRejected(t *testing.T) {
	ctx := context.Background()
	_, client, _ := newTestServer(t, "server:\n  max_upload_mb: 1\n")

	kb, err := client.CreateKnowledgeBase(ctx, api.KnowledgeBaseRequest{Name: ptr("files")})
	require.NoError(t, err)

	tests := []struct {
		name     string
		kbID     string
		filename string
		content  string
		status   int
	}{
		{"unsupported type", kb.ID, "tool.exe", "MZ", http.StatusBadRequest},
		{"invalid pdf", kb.ID, "paper.pdf", "not a pdf", http.StatusBadRequest},
		{"unknown knowledge base", "missing", "a.txt", "text", http.StatusNotFound},
		{"too large", kb.ID, "big.txt", strings.Repeat("x", 3<<19), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Upload(ctx, tt.kbID, tt.filename, strings.NewReader(tt.content), nil)
			var se *api.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
		})
	}

	docs, err := client.ListDocuments(ctx, kb.ID)
	require.NoError(t, err)
	assert.Empty(t, docs, "rejected uploads must not leave documents behind")
}

func TestAPI_UpdateDocumentValidation(t *testing.T) {
	ctx := context.Background()
	_, client, url := newTestServer(t, "")

	kb, err := client.CreateKnowledgeBase(ctx, api.KnowledgeBaseRequest{Name: ptr("v")})
	require.NoError(t, err)
	doc, err := client.Upload(ctx, kb.ID, "a.txt", strings.NewReader(sampleText), nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty body", `{}`, http.StatusBadRequest},
		{"unknown field", `{"status":"processed"}`, http.StatusBadRequest},
		{"negative offset", `{"parse_offset":-1}`, http.StatusBadRequest},
		{"offset past chunk count", `{"parse_offset":3}`, http.StatusBadRequest},
		{"offset zero", `{"parse_offset":0}`, http.StatusOK},
		{"override", `{"parsing_config":{"chunk_size":300}}`, http.StatusOK},
		{"clear override", `{"parsing_config":{}}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPut, url+"/api/documents/"+doc.ID, strings.NewReader(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	got, err := client.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParsingConfig)
}

func TestAPI_Swagger(t *testing.T) {
	_, _, url := newTestServer(t, "")

	resp, err := http.Get(url + "/swagger.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var spec struct {
		Swagger string         `json:"swagger"`
		Paths   map[string]any `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&spec))
	assert.Equal(t, "2.0", spec.Swagger)
	assert.Contains(t, spec.Paths, "/api/documents/{id}/chunks")
	assert.Contains(t, spec.Paths, "/api/documents/{id}/process")
}
