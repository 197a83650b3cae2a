package canvasrenderer

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/shadowtext/fonts"
	"github.com/ByLCY/shadowtext/internal/logging"
	"github.com/ByLCY/shadowtext/layout"
	"github.com/ByLCY/shadowtext/renderer"
)

// resolution 为 1px/mm：画布单位（mm）与像素一一对应。
var resolution = canvas.DPMM(1.0)

// Renderer implements renderer.Graphics via github.com/tdewolff/canvas.
type Renderer struct {
	// injected resources
	fontBlobs map[string]injectedFont // by lower-cased family name

	logger *slog.Logger

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *fontFamilyEntry
}

var _ renderer.Graphics = (*Renderer)(nil)

// injectedFont 保留调用方注册时的族名，查找时按小写键匹配。
type injectedFont struct {
	name string
	data []byte
}

// familyKey 是字体缓存与注入字体共用的键：忽略大小写与首尾空白。
func familyKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

type fontFamilyEntry struct {
	family *canvas.FontFamily
	name   string
}

// Options configures the canvas renderer.
type Options struct {
	// Fonts registers extra families by name; they take precedence over
	// built-in and system fonts.
	Fonts  map[string]Resource
	Logger *slog.Logger
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer using built-in and system fonts.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected fonts.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		fontBlobs:    map[string]injectedFont{},
		logger:       logging.OrNop(opts.Logger),
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[familyKey(name)] = injectedFont{name: name, data: res.Bytes}
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				// 读取失败时该字体视为不存在，绘制时回退到默认字体
				r.logger.Warn("read font", "family", name, "path", res.Path, "err", err)
				continue
			}
			r.fontBlobs[familyKey(name)] = injectedFont{name: name, data: data}
		}
	}
	return r
}

// Measure 返回文本宽度（像素，四舍五入）与字体的上升/下降高度。
func (r *Renderer) Measure(font renderer.Font, text string) (layout.Metrics, error) {
	entry, err := r.ensureFontFamily(font.Family)
	if err != nil {
		return layout.Metrics{}, err
	}
	face := entry.family.Face(toPt(font.Size), canvas.Black, canvas.FontRegular, canvas.FontNormal)
	metrics := face.Metrics()
	return layout.Metrics{
		Width:   int(math.Round(face.TextWidth(text))),
		Ascent:  metrics.Ascent,
		Descent: metrics.Descent,
		Family:  entry.name,
	}, nil
}

// NewSurface allocates a canvas of width×height pixels filled with background.
func (r *Renderer) NewSurface(width, height int, background color.Color) (renderer.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("画布尺寸无效: %dx%d", width, height)
	}
	c := canvas.New(float64(width), float64(height))
	ctx := canvas.NewContext(c)
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetFillColor(background)
	ctx.DrawPath(0, 0, canvas.Rectangle(float64(width), float64(height)))
	return &surface{
		r:          r,
		c:          c,
		ctx:        ctx,
		width:      width,
		height:     height,
		background: background,
	}, nil
}

// Families 返回内置字体、系统字体与注入字体的并集（排序、去重）。
func (r *Renderer) Families() ([]string, error) {
	names := fonts.Families()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, blob := range r.fontBlobs {
		if !seen[blob.name] {
			names = append(names, blob.name)
			seen[blob.name] = true
		}
	}
	sort.Strings(names)
	return names, nil
}

type surface struct {
	r          *Renderer
	c          *canvas.Canvas
	ctx        *canvas.Context
	width      int
	height     int
	background color.Color
}

// DrawText 将 y 向下的变换翻转到 canvas 默认的 y 向上坐标系后绘制文本。
func (s *surface) DrawText(text string, font renderer.Font, m layout.Affine, col color.Color) error {
	if s.ctx == nil {
		return errors.New("画布已释放")
	}
	entry, err := s.r.ensureFontFamily(font.Family)
	if err != nil {
		return err
	}
	face := entry.family.Face(toPt(font.Size), col, canvas.FontRegular, canvas.FontNormal)
	up := m.FlipY(float64(s.height))

	s.ctx.Push()
	s.ctx.SetView(canvas.Matrix{{up[0], up[1], up[2]}, {up[3], up[4], up[5]}})
	s.ctx.DrawText(0, 0, canvas.NewTextLine(face, text, canvas.Left))
	s.ctx.Pop()
	return nil
}

func (s *surface) Image() (*image.RGBA, error) {
	if s.c == nil {
		return nil, errors.New("画布已释放")
	}
	img := rasterizer.Draw(s.c, resolution, canvas.DefaultColorSpace)
	want := image.Rect(0, 0, s.width, s.height)
	if img.Bounds() == want {
		return img, nil
	}
	// 光栅化尺寸按 mm×dpmm 取整，偏差时裁剪/补齐到请求尺寸。
	out := image.NewRGBA(want)
	draw.Draw(out, want, image.NewUniform(s.background), image.Point{}, draw.Src)
	draw.Draw(out, want, img, img.Bounds().Min, draw.Src)
	return out, nil
}

func (s *surface) Close() error {
	s.c = nil
	s.ctx = nil
	return nil
}

func (r *Renderer) ensureFontFamily(name string) (*fontFamilyEntry, error) {
	key := familyKey(name)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry, nil
	}

	entry, err := r.loadFamily(name)
	if err != nil {
		r.logger.Debug("font unavailable, using fallback", "family", name, "err", err)
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, fbErr
		}
		r.fontFamilies[key] = fallback
		return fallback, nil
	}
	r.fontFamilies[key] = entry
	return entry, nil
}

func (r *Renderer) loadFamily(name string) (*fontFamilyEntry, error) {
	familyName := strings.TrimSpace(name)
	var data []byte
	if blob, ok := r.fontBlobs[familyKey(name)]; ok {
		familyName, data = blob.name, blob.data
	} else {
		src, err := fonts.Resolve(familyName)
		if err != nil {
			return nil, err
		}
		familyName, data = src.Family, src.Data
	}
	family := canvas.NewFontFamily(familyName)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, errors.Wrapf(err, "加载字体 %s 失败", familyName)
	}
	return &fontFamilyEntry{family: family, name: familyName}, nil
}

// fallback 必须在持有 fontMu 时调用。
func (r *Renderer) fallback() (*fontFamilyEntry, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	src := fonts.Default()
	family := canvas.NewFontFamily(src.Family)
	if err := family.LoadFont(src.Data, 0, canvas.FontRegular); err != nil {
		return nil, errors.Wrap(err, "加载默认字体失败")
	}
	r.fallbackFamily = &fontFamilyEntry{family: family, name: src.Family}
	return r.fallbackFamily, nil
}

// toPt 将像素字号转换为点：1px 对应 1mm，再换算到 pt。
func toPt(px int) float64 { return float64(px) * layout.MmToPt }
