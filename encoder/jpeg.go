// Package encoder writes finished images as baseline JPEG.
//
// Failures are never swallowed: they are logged to the injected logger and
// returned wrapped in ErrEncoding, so callers can tell "wrote nothing" from
// "wrote a valid image".
package encoder

import (
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/ByLCY/shadowtext/internal/logging"
)

var (
	// ErrEncoding wraps every sink or codec failure.
	ErrEncoding = errors.New("encoder: jpeg encoding failed")
	// ErrNilImage is returned when there is nothing to encode.
	ErrNilImage = errors.New("encoder: image is nil")
)

// Encoder encodes images to JPEG.
type Encoder struct {
	quality  int
	maxWidth uint
	logger   *slog.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithQuality sets the JPEG quality (1-100). Out-of-range values keep the codec default.
func WithQuality(q int) Option {
	return func(e *Encoder) {
		if q >= 1 && q <= 100 {
			e.quality = q
		}
	}
}

// WithMaxWidth downsizes wider images before encoding, keeping the aspect ratio.
func WithMaxWidth(px int) Option {
	return func(e *Encoder) {
		if px > 0 {
			e.maxWidth = uint(px)
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Encoder) { e.logger = logging.OrNop(l) }
}

// New creates an encoder using the image/jpeg default quality.
func New(opts ...Option) *Encoder {
	e := &Encoder{quality: jpeg.DefaultQuality, logger: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Quality returns the configured JPEG quality.
func (e *Encoder) Quality() int { return e.quality }

// Encode writes img to w.
func (e *Encoder) Encode(w io.Writer, img image.Image) error {
	if img == nil {
		return ErrNilImage
	}
	if w == nil {
		return e.fail(errors.New("nil writer"), "destination", "writer")
	}
	if err := jpeg.Encode(w, e.prepare(img), &jpeg.Options{Quality: e.quality}); err != nil {
		return e.fail(err, "destination", "writer")
	}
	return nil
}

// WriteFile writes img to path. A partially written file is removed.
func (e *Encoder) WriteFile(path string, img image.Image) error {
	if img == nil {
		return ErrNilImage
	}
	f, err := os.Create(path)
	if err != nil {
		return e.fail(err, "path", path)
	}
	encErr := jpeg.Encode(f, e.prepare(img), &jpeg.Options{Quality: e.quality})
	closeErr := f.Close()
	if encErr == nil {
		encErr = closeErr
	}
	if encErr != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			e.logger.Warn("remove partial jpeg", "path", path, "err", rmErr)
		}
		return e.fail(encErr, "path", path)
	}
	return nil
}

// prepare 在超过最大宽度时等比缩小。
func (e *Encoder) prepare(img image.Image) image.Image {
	b := img.Bounds()
	if e.maxWidth == 0 || uint(b.Dx()) <= e.maxWidth {
		return img
	}
	return resize.Resize(e.maxWidth, 0, img, resize.Lanczos3)
}

func (e *Encoder) fail(err error, args ...any) error {
	e.logger.Error("jpeg encoding failed", append(args, "err", err)...)
	return &encodingError{err: err}
}

type encodingError struct{ err error }

func (e *encodingError) Error() string { return ErrEncoding.Error() + ": " + e.err.Error() }

func (e *encodingError) Unwrap() error { return e.err }

func (e *encodingError) Is(target error) bool { return target == ErrEncoding }
