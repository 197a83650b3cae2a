// Package server exposes the message renderer over HTTP.
//
//	GET /message?msg=Hello&font=Go&size=48&maxWidth=400  → image/jpeg
//	GET /fonts                                          → HTML form of font families
//	GET /healthz                                        → "ok"
package server

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/ByLCY/shadowtext/encoder"
	"github.com/ByLCY/shadowtext/fonts"
	"github.com/ByLCY/shadowtext/gziputil"
	"github.com/ByLCY/shadowtext/internal/logging"
	"github.com/ByLCY/shadowtext/layout"
	"github.com/ByLCY/shadowtext/renderer"
)

const (
	defaultSize = 48
	maxSize     = 512
	maxMessage  = 256
)

// Config holds server configuration.
type Config struct {
	Addr         string
	Renderer     *renderer.Renderer
	Quality      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Server serves rendered message images.
type Server struct {
	render  *renderer.Renderer
	quality int
	logger  *slog.Logger
	mux     *http.ServeMux
	http    *http.Server
}

// New creates a server. Zero timeouts fall back to 30 seconds.
func New(cfg Config) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	s := &Server{
		render:  cfg.Renderer,
		quality: cfg.Quality,
		logger:  logging.OrNop(cfg.Logger),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /message", s.handleMessage)
	s.mux.HandleFunc("GET /fonts", s.handleFonts)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.http.Addr }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server: listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server: shutdown")
		}
		return nil
	}
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	req, maxWidth, err := parseMessageQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := s.render.Render(req)
	switch {
	case errors.Is(err, layout.ErrEmptyMessage), errors.Is(err, layout.ErrInvalidSize):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.logger.Error("render message", "err", err)
		http.Error(w, "渲染失败", http.StatusInternalServerError)
		return
	}

	enc := encoder.New(encoder.WithQuality(s.quality), encoder.WithMaxWidth(maxWidth), encoder.WithLogger(s.logger))
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := enc.Encode(w, img); err != nil {
		// 头部已发出，只能记录日志；encoder 已按 Error 级别记录失败原因。
		s.logger.Debug("message response truncated", "path", r.URL.Path, "err", err)
	}
}

// parseMessageQuery 读取 msg/font/size/maxWidth 参数。
func parseMessageQuery(r *http.Request) (layout.Request, int, error) {
	q := r.URL.Query()
	req := layout.Request{
		Message: q.Get("msg"),
		Family:  q.Get("font"),
		Size:    defaultSize,
	}
	if req.Family == "" {
		req.Family = fonts.DefaultFamily
	}
	if !utf8.ValidString(req.Message) {
		return req, 0, errors.New("msg 不是有效的 UTF-8")
	}
	if len(req.Message) > maxMessage {
		return req, 0, errors.Errorf("msg 过长（最多 %d 字节）", maxMessage)
	}
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxSize {
			return req, 0, errors.Errorf("size 无效: %q", raw)
		}
		req.Size = n
	}
	maxWidth := 0
	if raw := q.Get("maxWidth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return req, 0, errors.Errorf("maxWidth 无效: %q", raw)
		}
		maxWidth = n
	}
	return req, maxWidth, nil
}

var fontsPage = template.Must(template.New("fonts").Parse(`<!DOCTYPE html>
<html>
<head><title>Message Image</title></head>
<body>
<h1>Message Image</h1>
<form action="/message" method="get">
  <p>Message: <input type="text" name="msg" value="{{.Message}}"></p>
  <p>Size: <input type="number" name="size" value="{{.Size}}" min="1" max="512"></p>
  <p>Font:
    <select name="font">
{{- range .Families}}
      <option{{if eq . $.Default}} selected{{end}}>{{.}}</option>
{{- end}}
    </select>
  </p>
  <p><input type="submit" value="Build Image"></p>
</form>
</body>
</html>
`))

type fontsView struct {
	Message  string
	Size     int
	Default  string
	Families []string
}

func (s *Server) handleFonts(w http.ResponseWriter, r *http.Request) {
	families, err := s.render.Families()
	if err != nil {
		s.logger.Error("list families", "err", err)
		http.Error(w, "无法枚举字体", http.StatusInternalServerError)
		return
	}
	view := fontsView{
		Message:  strings.TrimSpace(r.URL.Query().Get("msg")),
		Size:     defaultSize,
		Default:  fonts.DefaultFamily,
		Families: families,
	}
	if view.Message == "" {
		view.Message = "Hello"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	out := gziputil.Negotiate(w, r)
	if err := fontsPage.Execute(out, view); err != nil {
		s.logger.Error("render fonts page", "err", err)
	}
	if err := out.Close(); err != nil {
		s.logger.Warn("close response writer", "err", err)
	}
}
