package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzhou/focusfield/internal/storage"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServer(db, 0)
}

func sampleFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.js")
	require.NoError(t, os.WriteFile(path, []byte("const x = 1;\nconsole.log(x);\nx = 2;"), 0o644))
	return path
}

func focusRequest(file string, line, column int) *http.Request {
	q := url.Values{}
	q.Set("file", file)
	q.Set("line", fmt.Sprint(line))
	q.Set("column", fmt.Sprint(column))
	return httptest.NewRequest(http.MethodGet, "/api/focus?"+q.Encode(), nil)
}

func TestHandleFocus(t *testing.T) {
	s := testServer(t)
	path := sampleFile(t)

	rec := httptest.NewRecorder()
	s.handleFocus(rec, focusRequest(path, 1, 7))
	require.Equal(t, http.StatusOK, rec.Code)

	var data FocusData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, "x", data.Context.Target.Name)
	assert.Equal(t, 1, data.Context.Range.StartLine)
	assert.Equal(t, 3, data.Context.Range.EndLine)
	assert.Equal(t, 6, data.Summary.RelationCount)
}

func TestHandleFocusErrors(t *testing.T) {
	s := testServer(t)
	path := sampleFile(t)

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{
			name: "missing file parameter",
			req:  httptest.NewRequest(http.MethodGet, "/api/focus?line=1&column=1", nil),
			code: http.StatusBadRequest,
		},
		{
			name: "non-numeric line",
			req:  httptest.NewRequest(http.MethodGet, "/api/focus?file=x&line=abc&column=1", nil),
			code: http.StatusBadRequest,
		},
		{
			name: "missing file on disk",
			req:  focusRequest("/does/not/exist.js", 1, 1),
			code: http.StatusNotFound,
		},
		{
			name: "cursor on nothing",
			req:  focusRequest(path, 1, 3),
			code: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.handleFocus(rec, tt.req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandleHistoryAndStats(t *testing.T) {
	s := testServer(t)
	path := sampleFile(t)

	// A successful focus call records history
	rec := httptest.NewRecorder()
	s.handleFocus(rec, focusRequest(path, 1, 7))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var history HistoryData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Analyses, 1)
	assert.Equal(t, "x", history.Analyses[0].TargetName)

	rec = httptest.NewRecorder()
	s.handleStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats StatsData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.AnalysisCount)
	assert.Equal(t, int64(6), stats.RelationCount)
}

func TestHandleHistoryWithoutDB(t *testing.T) {
	s := NewServer(nil, 0)

	rec := httptest.NewRecorder()
	s.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
