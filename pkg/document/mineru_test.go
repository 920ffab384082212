package document

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func mineruZip(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("result/full.md")
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestMinerUStrategy(t *testing.T) {
	var (
		polls    atomic.Int32
		uploaded []byte
		srvURL   string
	)
	zipped := mineruZip(t, "# Parsed\n\nbody")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v4/file-urls/batch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "en", body["language"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"batch_id": "b1", "file_urls": []string{srvURL + "/upload/b1"}},
		})
	})
	mux.HandleFunc("PUT /upload/b1", func(w http.ResponseWriter, r *http.Request) {
		uploaded, _ = io.ReadAll(r.Body)
	})
	mux.HandleFunc("GET /api/v4/extract-results/batch/b1", func(w http.ResponseWriter, r *http.Request) {
		state := "running"
		if polls.Add(1) >= 2 {
			state = "done"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{
				"batch_id": "b1",
				"extract_result": []map[string]any{{
					"file_name":        "doc.pdf",
					"state":            state,
					"full_zip_url":     srvURL + "/zip",
					"extract_progress": map[string]any{"extracted_pages": 1, "total_pages": 4},
				}},
			},
		})
	})
	mux.HandleFunc("GET /zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(zipped)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("%PDF-fake"), 0o644))

	var lastProgress [2]int
	s := NewMinerUStrategy(MinerUOptions{Endpoint: srv.URL, PollInterval: 10 * time.Millisecond, PollTimeout: 5 * time.Second})
	res := s.Process(t.Context(), Request{
		FileName: "doc.pdf",
		FilesDir: dir,
		Language: "en",
		Settings: types.TaskConfig{MinerUToken: "tok"},
		OnProgress: func(current, total int) {
			lastProgress = [2]int{current, total}
		},
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "doc.md", res.Data.MarkdownName)
	assert.Equal(t, 4, res.Data.Pages)
	assert.Equal(t, []byte("%PDF-fake"), uploaded)
	assert.Equal(t, [2]int{1, 4}, lastProgress)

	raw, err := os.ReadFile(filepath.Join(dir, "doc.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Parsed\n\nbody", string(raw))
}

func TestMinerUStrategyFailures(t *testing.T) {
	res := NewMinerUStrategy(MinerUOptions{}).Process(t.Context(), Request{FileName: "doc.pdf", FilesDir: t.TempDir()})
	assert.False(t, res.Success)
	assert.True(t, errors.Is(res.Err(), errors.ErrConfiguration))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/file-urls/batch":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{"batch_id": "b2", "file_urls": []string{"http://" + r.Host + "/upload"}},
			})
		case "/upload":
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{"extract_result": []map[string]any{{"file_name": "doc.pdf", "state": "failed", "err_msg": "bad pdf"}}},
			})
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("x"), 0o644))
	res = NewMinerUStrategy(MinerUOptions{Endpoint: srv.URL, PollInterval: 10 * time.Millisecond}).Process(t.Context(), Request{
		FileName: "doc.pdf",
		FilesDir: dir,
		Settings: types.TaskConfig{MinerUToken: "tok"},
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "bad pdf")
	assert.True(t, errors.Is(res.Err(), errors.ErrExternalService))
}

func TestMinerUTransferRetry(t *testing.T) {
	var (
		applies, uploads, downloads atomic.Int32
		srvURL                      string
	)
	zipped := mineruZip(t, "# Retried")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v4/file-urls/batch", func(w http.ResponseWriter, r *http.Request) {
		applies.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"batch_id": "b3", "file_urls": []string{srvURL + "/upload/b3"}},
		})
	})
	mux.HandleFunc("PUT /upload/b3", func(w http.ResponseWriter, r *http.Request) {
		if uploads.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	mux.HandleFunc("GET /api/v4/extract-results/batch/b3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"extract_result": []map[string]any{{
				"file_name": "doc.pdf", "state": "done", "full_zip_url": srvURL + "/zip",
			}}},
		})
	})
	mux.HandleFunc("GET /zip", func(w http.ResponseWriter, r *http.Request) {
		if downloads.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(zipped)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("%PDF-fake"), 0o644))
	res := NewMinerUStrategy(MinerUOptions{Endpoint: srv.URL, PollInterval: 10 * time.Millisecond}).Process(t.Context(), Request{
		FileName: "doc.pdf",
		FilesDir: dir,
		Settings: types.TaskConfig{MinerUToken: "tok"},
	})
	require.True(t, res.Success, res.Error)
	assert.EqualValues(t, 2, uploads.Load())
	assert.EqualValues(t, 2, downloads.Load())
	// 解析任务只提交一次
	assert.EqualValues(t, 1, applies.Load())
}

func TestMinerUApplyIsNotRetried(t *testing.T) {
	var applies atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		applies.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("%PDF-fake"), 0o644))
	res := NewMinerUStrategy(MinerUOptions{Endpoint: srv.URL}).Process(t.Context(), Request{
		FileName: "doc.pdf",
		FilesDir: dir,
		Settings: types.TaskConfig{MinerUToken: "tok"},
	})
	assert.False(t, res.Success)
	assert.True(t, errors.Is(res.Err(), errors.ErrExternalService))
	assert.EqualValues(t, 1, applies.Load())
}
