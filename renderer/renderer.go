// Package renderer draws a message with an oblique, stretched shadow.
//
// The drawing backend is abstracted behind Graphics so any 2D raster library
// can serve it; see renderer/canvas and renderer/vector.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/ByLCY/shadowtext/internal/logging"
	"github.com/ByLCY/shadowtext/layout"
)

// ErrResourceUnavailable is matched by errors.Is when a backend cannot provide
// a font or a drawing surface.
var ErrResourceUnavailable = errors.New("renderer: graphics resource unavailable")

// Font 是一次绘制使用的字体：族名与像素字号，始终为常规字重。
type Font struct {
	Family string
	Size   int
}

// Graphics 是渲染所需的平台能力：测量、分配画布与枚举字体。
type Graphics interface {
	// Measure 返回 text 以 font 绘制时的宽度与行度量。
	// 未安装的字体族会被静默替换，实际使用的族名写入 Metrics.Family。
	Measure(font Font, text string) (layout.Metrics, error)
	// NewSurface 分配 width×height 的画布并以 background 填满。
	NewSurface(width, height int, background color.Color) (Surface, error)
	// Families 列出可用的字体族名。
	Families() ([]string, error)
}

// Surface 是一块独占的绘制画布。
type Surface interface {
	// DrawText 以 m（y 向下的像素坐标）变换后，将基线原点在 (0,0) 的文本绘制到画布上。
	DrawText(text string, font Font, m layout.Affine, col color.Color) error
	// Image 返回绘制完成的位图，之后画布不再修改。
	Image() (*image.RGBA, error)
	Close() error
}

// Options configures a Renderer.
type Options struct {
	Style  layout.Style
	Logger *slog.Logger
}

// Renderer is the message image renderer. It holds no per-call state and is
// safe for concurrent use when its Graphics is.
type Renderer struct {
	g      Graphics
	style  layout.Style
	logger *slog.Logger
}

// New creates a renderer over g. A zero Options.Style means layout.DefaultStyle.
func New(g Graphics, opts Options) *Renderer {
	style := opts.Style
	if style == (layout.Style{}) {
		style = layout.DefaultStyle()
	}
	return &Renderer{g: g, style: style, logger: logging.OrNop(opts.Logger)}
}

// Layout measures the message and computes the canvas geometry without drawing.
func (r *Renderer) Layout(req layout.Request) (layout.Debug, error) {
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return layout.Debug{}, err
	}
	metrics, err := r.g.Measure(Font{Family: req.Family, Size: req.Size}, req.Message)
	if err != nil {
		return layout.Debug{}, unavailable("measure", err)
	}
	geo, err := layout.Compute(metrics.Width, req.Size)
	if err != nil {
		return layout.Debug{}, err
	}
	if metrics.Family != "" && req.Family != "" && metrics.Family != req.Family {
		r.logger.Debug("font substituted", "requested", req.Family, "used", metrics.Family)
	}
	return layout.Debug{
		Request:  req,
		Metrics:  metrics,
		Geometry: geo,
		Shadow:   geo.ShadowTransform(r.style),
	}, nil
}

// Render 依次完成：测量 → 计算画布尺寸 → 填充背景 → 绘制变形阴影 → 绘制正常前景。
func (r *Renderer) Render(req layout.Request) (*image.RGBA, error) {
	info, err := r.Layout(req)
	if err != nil {
		return nil, err
	}
	geo := info.Geometry

	surface, err := r.g.NewSurface(geo.Width, geo.Height, r.style.Background)
	if err != nil {
		return nil, unavailable("surface", err)
	}
	defer func() {
		if cerr := surface.Close(); cerr != nil {
			r.logger.Warn("release surface", "err", cerr)
		}
	}()

	font := Font{Family: info.Request.Family, Size: info.Request.Size}
	if info.Metrics.Family != "" {
		font.Family = info.Metrics.Family
	}
	msg := info.Request.Message

	if err := surface.DrawText(msg, font, info.Shadow, r.style.ShadowColor); err != nil {
		return nil, unavailable("draw shadow", err)
	}
	if err := surface.DrawText(msg, font, geo.ForegroundTransform(), r.style.TextColor); err != nil {
		return nil, unavailable("draw text", err)
	}
	img, err := surface.Image()
	if err != nil {
		return nil, unavailable("rasterize", err)
	}

	r.logger.Debug("rendered message",
		"family", font.Family, "size", font.Size,
		"width", geo.Width, "height", geo.Height)
	return img, nil
}

// Families lists the font families the backend can draw with.
func (r *Renderer) Families() ([]string, error) {
	names, err := r.g.Families()
	if err != nil {
		return nil, unavailable("families", err)
	}
	return names, nil
}

type unavailableError struct {
	op  string
	err error
}

func unavailable(op string, err error) error {
	return &unavailableError{op: op, err: err}
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("renderer: %s: %v", e.op, e.err)
}

func (e *unavailableError) Unwrap() error { return e.err }

func (e *unavailableError) Is(target error) bool { return target == ErrResourceUnavailable }
