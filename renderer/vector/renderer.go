// Package vectorrenderer implements renderer.Graphics on golang.org/x/image:
// opentype faces for metrics, sfnt glyph outlines and the vector rasterizer
// for transformed drawing.
package vectorrenderer

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ByLCY/shadowtext/fonts"
	"github.com/ByLCY/shadowtext/internal/logging"
	"github.com/ByLCY/shadowtext/layout"
	"github.com/ByLCY/shadowtext/renderer"
)

// Renderer caches parsed fonts; faces, buffers and rasterizers are per call.
type Renderer struct {
	logger *slog.Logger

	mu       sync.Mutex
	parsed   map[string]*parsedFont
	fallback *parsedFont
}

var _ renderer.Graphics = (*Renderer)(nil)

type parsedFont struct {
	name string
	font *sfnt.Font
}

// NewRenderer creates the renderer. logger may be nil.
func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{
		logger: logging.OrNop(logger),
		parsed: map[string]*parsedFont{},
	}
}

// Measure 在 1×1 的探针位图上创建 font.Drawer 测量文本。
func (r *Renderer) Measure(f renderer.Font, text string) (layout.Metrics, error) {
	pf, err := r.lookup(f.Family)
	if err != nil {
		return layout.Metrics{}, err
	}
	face, err := opentype.NewFace(pf.font, &opentype.FaceOptions{
		Size:    float64(f.Size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return layout.Metrics{}, errors.Wrap(err, "failed to create font face")
	}
	defer face.Close()

	probe := &font.Drawer{
		Dst:  image.NewRGBA(image.Rect(0, 0, 1, 1)),
		Src:  image.Black,
		Face: face,
	}
	advance := probe.MeasureString(text)
	metrics := face.Metrics()
	return layout.Metrics{
		Width:   advance.Round(),
		Ascent:  toFloat(metrics.Ascent),
		Descent: toFloat(metrics.Descent),
		Family:  pf.name,
	}, nil
}

// NewSurface allocates an RGBA image filled with background.
func (r *Renderer) NewSurface(width, height int, background color.Color) (renderer.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid surface size %dx%d", width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return &surface{r: r, img: img}, nil
}

// Families lists built-in and system families.
func (r *Renderer) Families() ([]string, error) {
	return fonts.Families(), nil
}

type surface struct {
	r   *Renderer
	img *image.RGBA
}

// DrawText 逐字取 sfnt 轮廓，按 m 变换后交给 vector.Rasterizer 一次性填充。
func (s *surface) DrawText(text string, f renderer.Font, m layout.Affine, col color.Color) error {
	if s.img == nil {
		return errors.New("surface released")
	}
	pf, err := s.r.lookup(f.Family)
	if err != nil {
		return err
	}

	var buf sfnt.Buffer
	ppem := fixed.I(f.Size)
	b := s.img.Bounds()
	ras := vector.NewRasterizer(b.Dx(), b.Dy())

	move := func(p fixed.Point26_6, pen fixed.Int26_6) (float32, float32) {
		x, y := m.Apply(toFloat(pen+p.X), toFloat(p.Y))
		return float32(x), float32(y)
	}

	var (
		pen     fixed.Int26_6
		prev    sfnt.GlyphIndex
		hasPrev bool
	)
	for _, rn := range text {
		idx, err := pf.font.GlyphIndex(&buf, rn)
		if err != nil {
			return errors.Wrapf(err, "glyph index for %q", rn)
		}
		if hasPrev {
			// 没有 kern 表时返回 ErrNotFound，忽略即可
			if k, err := pf.font.Kern(&buf, prev, idx, ppem, font.HintingNone); err == nil {
				pen += k
			}
		}
		segments, err := pf.font.LoadGlyph(&buf, idx, ppem, nil)
		if err != nil {
			return errors.Wrapf(err, "load glyph %q", rn)
		}
		open := false
		for _, seg := range segments {
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				if open {
					ras.ClosePath()
				}
				ras.MoveTo(move(seg.Args[0], pen))
				open = true
			case sfnt.SegmentOpLineTo:
				ras.LineTo(move(seg.Args[0], pen))
			case sfnt.SegmentOpQuadTo:
				bx, by := move(seg.Args[0], pen)
				cx, cy := move(seg.Args[1], pen)
				ras.QuadTo(bx, by, cx, cy)
			case sfnt.SegmentOpCubeTo:
				bx, by := move(seg.Args[0], pen)
				cx, cy := move(seg.Args[1], pen)
				dx, dy := move(seg.Args[2], pen)
				ras.CubeTo(bx, by, cx, cy, dx, dy)
			}
		}
		if open {
			ras.ClosePath()
		}
		advance, err := pf.font.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			return errors.Wrapf(err, "advance for %q", rn)
		}
		pen += advance
		prev, hasPrev = idx, true
	}

	ras.Draw(s.img, b, image.NewUniform(col), image.Point{})
	return nil
}

func (s *surface) Image() (*image.RGBA, error) {
	if s.img == nil {
		return nil, errors.New("surface released")
	}
	return s.img, nil
}

func (s *surface) Close() error {
	s.img = nil
	return nil
}

// lookup 解析并缓存字体；无法解析的字体静默回退到默认字体。
func (r *Renderer) lookup(family string) (*parsedFont, error) {
	key := strings.ToLower(strings.TrimSpace(family))
	r.mu.Lock()
	defer r.mu.Unlock()

	if pf, ok := r.parsed[key]; ok {
		return pf, nil
	}
	pf, err := load(family)
	if err != nil {
		r.logger.Debug("font unavailable, using fallback", "family", family, "err", err)
		if pf, err = r.defaultFont(); err != nil {
			return nil, err
		}
	}
	r.parsed[key] = pf
	return pf, nil
}

func (r *Renderer) defaultFont() (*parsedFont, error) {
	if r.fallback != nil {
		return r.fallback, nil
	}
	src := fonts.Default()
	f, err := opentype.Parse(src.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse default font")
	}
	r.fallback = &parsedFont{name: src.Family, font: f}
	return r.fallback, nil
}

func load(family string) (*parsedFont, error) {
	src, err := fonts.Resolve(family)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(src.Data)
	if err != nil {
		// .ttc 等字体集合取第一个字体
		coll, cerr := opentype.ParseCollection(src.Data)
		if cerr != nil {
			return nil, errors.Wrapf(err, "failed to parse font %s", src.Family)
		}
		if f, err = coll.Font(0); err != nil {
			return nil, errors.Wrapf(err, "failed to read font %s from collection", src.Family)
		}
	}
	return &parsedFont{name: src.Family, font: f}, nil
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
