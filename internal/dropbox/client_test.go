// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dropbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-export/pkg/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := NewClient(ts.Client(), types.DropboxConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "paper-export/test"},
		Token:      "tok-123",
		ContentURL: ts.URL + "/",
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(http.DefaultClient, types.DropboxConfig{Token: "   "})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestExport_Success(t *testing.T) {
	var gotArg exportArg
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, exportEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "paper-export/test", r.Header.Get("User-Agent"))
		require.NoError(t, json.Unmarshal([]byte(r.Header.Get(apiArgHeader)), &gotArg))

		w.Header().Set(apiResultHeader, `{"export_metadata":{"name":"Trip.md"},"file_metadata":{"name":"Trip.paper","path_display":"/Notes/Trip.paper"}}`)
		w.Write([]byte("# Trip\n\nPack socks."))
	})

	doc, err := c.Export(context.Background(), "/Notes/Trip", types.FormatMarkdown)
	require.NoError(t, err)

	assert.Equal(t, "/Notes/Trip", gotArg.Path)
	assert.Equal(t, "markdown", gotArg.ExportFormat)
	assert.Equal(t, "Trip", doc.Name)
	assert.Equal(t, "/Notes/Trip", doc.RemotePath)
	assert.Equal(t, types.FormatMarkdown, doc.Format)
	assert.Equal(t, "# Trip\n\nPack socks.", string(doc.Content))
}

func TestExport_NameFallsBackToPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>hi</p>"))
	})

	doc, err := c.Export(context.Background(), "/Ideas", types.FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "Ideas", doc.Name)
}

func TestExport_NonASCIIPathIsEscaped(t *testing.T) {
	var raw string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw = r.Header.Get(apiArgHeader)
		w.Write([]byte("ok"))
	})

	_, err := c.Export(context.Background(), "/Café/🎉", types.FormatMarkdown)
	require.NoError(t, err)

	for _, b := range []byte(raw) {
		assert.Less(t, b, byte(0x7f), "header must be ASCII: %q", raw)
	}
	var arg exportArg
	require.NoError(t, json.Unmarshal([]byte(raw), &arg))
	assert.Equal(t, "/Café/🎉", arg.Path)
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		header    map[string]string
		wantKind  ErrorKind
		wantInMsg string
	}{
		{
			name:      "expired token",
			status:    http.StatusUnauthorized,
			body:      `{"error_summary": "expired_access_token/...", "error": {".tag": "expired_access_token"}}`,
			wantKind:  KindAuth,
			wantInMsg: "expired_access_token",
		},
		{
			name:      "not found",
			status:    http.StatusConflict,
			body:      `{"error_summary": "path/not_found/..", "error": {".tag": "path", "path": {".tag": "not_found"}}}`,
			wantKind:  KindNotFound,
			wantInMsg: "path/not_found",
		},
		{
			name:      "non exportable",
			status:    http.StatusConflict,
			body:      `{"error_summary": "non_exportable/..", "error": {".tag": "non_exportable"}}`,
			wantKind:  KindUnsupported,
			wantInMsg: "non_exportable",
		},
		{
			name:      "other conflict",
			status:    http.StatusConflict,
			body:      `{"error_summary": "retry_error/..."}`,
			wantKind:  KindOther,
			wantInMsg: "retry_error",
		},
		{
			name:      "throttled",
			status:    http.StatusTooManyRequests,
			body:      `{"error_summary": "too_many_requests/..."}`,
			header:    map[string]string{"Retry-After": "15"},
			wantKind:  KindRateLimited,
			wantInMsg: "retry after 15s",
		},
		{
			name:      "server error plain text",
			status:    http.StatusBadGateway,
			body:      "upstream unavailable",
			wantKind:  KindNetwork,
			wantInMsg: "upstream unavailable",
		},
		{
			name:      "bad request",
			status:    http.StatusBadRequest,
			body:      "Error in call to API function",
			wantKind:  KindOther,
			wantInMsg: "HTTP 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			doc, err := c.Export(context.Background(), "/Ideas", types.FormatMarkdown)
			require.Error(t, err)
			assert.Nil(t, doc)

			var se *ServiceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantKind, se.Kind)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, "/Ideas", se.Path)
			assert.Contains(t, err.Error(), tt.wantInMsg)
		})
	}
}

func TestExport_MalformedResultHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(apiResultHeader, "{not json")
		w.Write([]byte("body"))
	})

	_, err := c.Export(context.Background(), "/Ideas", types.FormatMarkdown)
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindMalformed, se.Kind)
}

func TestExport_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c, err := NewClient(http.DefaultClient, types.DropboxConfig{Token: "tok", ContentURL: url})
	require.NoError(t, err)

	_, err = c.Export(context.Background(), "/Ideas", types.FormatMarkdown)
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindNetwork, se.Kind)
	assert.Zero(t, se.Status)
}

func TestExport_SingleAttempt(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Export(context.Background(), "/Ideas", types.FormatMarkdown)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindAuth, classify(http.StatusForbidden, ""))
	assert.Equal(t, KindNotFound, classify(http.StatusConflict, "path/not_found/."))
	assert.Equal(t, KindUnsupported, classify(http.StatusConflict, "invalid_export_format/"))
	assert.Equal(t, KindNetwork, classify(http.StatusInternalServerError, ""))
	assert.Equal(t, KindOther, classify(http.StatusTeapot, ""))
}
