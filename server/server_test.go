package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/shadowtext/renderer"
	vectorrenderer "github.com/ByLCY/shadowtext/renderer/vector"
)

func newTestServer() *Server {
	r := renderer.New(vectorrenderer.NewRenderer(nil), renderer.Options{})
	return New(Config{Addr: "127.0.0.1:0", Renderer: r})
}

func TestNewDefaults(t *testing.T) {
	srv := newTestServer()
	assert.Equal(t, "127.0.0.1:0", srv.Addr())
	assert.Equal(t, 30*time.Second, srv.http.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.http.WriteTimeout)
}

func TestMessageReturnsJPEG(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/message?msg=Hi&size=20&font=Go", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	cfg, err := jpeg.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 70, cfg.Height)
}

func TestMessageMaxWidth(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/message?msg=A+rather+long+message&size=40&maxWidth=100", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cfg, err := jpeg.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Less(t, cfg.Height, 140)
}

func TestMessageBadRequests(t *testing.T) {
	srv := newTestServer()
	for _, target := range []string{
		"/message",
		"/message?msg=",
		"/message?msg=x&size=0",
		"/message?msg=x&size=abc",
		"/message?msg=x&size=100000",
		"/message?msg=x&maxWidth=-3",
	} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestMessageUnknownFontStillRenders(t *testing.T) {
	srv := newTestServer()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/message?msg=x&font=No+Such+Font", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFontsPageCompressed(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/fonts", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<option selected>Go</option>")
	assert.Contains(t, string(body), "Go Mono")
}

func TestFontsPagePlainWhenDisabled(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/fonts?disabledGzip=true&msg=%3Cb%3E", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;")
	assert.Contains(t, rec.Body.String(), `action="/message"`)
}

type brokenResponse struct{ header http.Header }

func (b *brokenResponse) Header() http.Header       { return b.header }
func (b *brokenResponse) WriteHeader(int)           {}
func (b *brokenResponse) Write([]byte) (int, error) { return 0, errors.New("client gone") }

func TestMessageEncodeFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := renderer.New(vectorrenderer.NewRenderer(nil), renderer.Options{})
	srv := New(Config{Renderer: r, Logger: logger})

	w := &brokenResponse{header: http.Header{}}
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/message?msg=Hi&size=20", nil))

	assert.Equal(t, "image/jpeg", w.header.Get("Content-Type"))
	assert.Contains(t, logs.String(), "jpeg encoding failed")
	assert.Contains(t, logs.String(), "message response truncated")
	assert.Contains(t, logs.String(), "client gone")
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
