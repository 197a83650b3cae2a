// Package gziputil holds small helpers for compressing HTTP responses.
//
//   - Supported: does the client accept gzip?
//   - Disabled: has the user passed a flag turning compression off for this
//     request (useful to compare sizes with and without gzip)?
//   - NewWriter: a gzipping text writer over a raw stream.
//   - Negotiate: pick brotli, gzip or identity for a response.
package gziputil

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// DisableParam is the request parameter that turns compression off.
const DisableParam = "disabledGzip"

// Supported reports whether the Accept-Encoding header mentions gzip.
func Supported(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

// Disabled reports whether the disabledGzip parameter is present and is not "false".
func Disabled(r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		return false
	}
	values, ok := r.Form[DisableParam]
	if !ok || len(values) == 0 {
		return false
	}
	return !strings.EqualFold(values[0], "false")
}

// TextWriter is a buffered text writer; Close flushes the buffer and the
// compressor but leaves the underlying stream open.
type TextWriter struct {
	*bufio.Writer
	c io.WriteCloser
}

// NewWriter wraps w in a gzip compressor.
func NewWriter(w io.Writer) *TextWriter {
	gz := gzip.NewWriter(w)
	return &TextWriter{Writer: bufio.NewWriter(gz), c: gz}
}

// Printf formats to the writer.
func (t *TextWriter) Printf(format string, args ...any) (int, error) {
	return fmt.Fprintf(t.Writer, format, args...)
}

func (t *TextWriter) Close() error {
	if err := t.Writer.Flush(); err != nil {
		t.c.Close()
		return err
	}
	return t.c.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Negotiate 根据 Accept-Encoding 选择压缩方式并设置响应头：
// disabledGzip 生效时不压缩；优先 br，其次 gzip。
func Negotiate(w http.ResponseWriter, r *http.Request) *TextWriter {
	w.Header().Add("Vary", "Accept-Encoding")
	if Disabled(r) {
		return &TextWriter{Writer: bufio.NewWriter(w), c: nopCloser{w}}
	}
	if acceptsToken(r.Header.Get("Accept-Encoding"), "br") {
		w.Header().Set("Content-Encoding", "br")
		w.Header().Del("Content-Length")
		bw := brotli.NewWriter(w)
		return &TextWriter{Writer: bufio.NewWriter(bw), c: bw}
	}
	if Supported(r) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		return NewWriter(w)
	}
	return &TextWriter{Writer: bufio.NewWriter(w), c: nopCloser{w}}
}

// acceptsToken 检查逗号分隔的编码列表中是否包含 token（忽略 q 参数，q=0 视为拒绝）。
func acceptsToken(header, token string) bool {
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(name), token) {
			continue
		}
		q := strings.ReplaceAll(params, " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}
