package layout

// 该文件定义渲染请求、字体度量、画布几何与批量任务，供渲染器、编码器与调试 JSON 共用。

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyMessage is returned for a request without any text to draw.
	ErrEmptyMessage = errors.New("layout: message is empty")
	// ErrInvalidSize is returned for a non-positive font size.
	ErrInvalidSize = errors.New("layout: font size must be positive")
)

// Request 描述一次渲染：文本、字体族名与字号（像素）。
type Request struct {
	Message string `json:"message"`
	Family  string `json:"family"`
	Size    int    `json:"size"`
}

// Validate reports whether the request can be rendered.
func (r Request) Validate() error {
	if r.Size <= 0 {
		return errors.Wrapf(ErrInvalidSize, "size=%d", r.Size)
	}
	if r.Message == "" {
		return ErrEmptyMessage
	}
	if !utf8.ValidString(r.Message) {
		return errors.Errorf("layout: message is not valid UTF-8: %q", r.Message)
	}
	return nil
}

// Normalized 返回去掉换行后的请求副本（单行、单段落绘制）。
func (r Request) Normalized() Request {
	if strings.ContainsAny(r.Message, "\r\n") {
		r.Message = strings.Join(strings.FieldsFunc(r.Message, func(c rune) bool {
			return c == '\r' || c == '\n'
		}), " ")
	}
	return r
}

// Metrics 为字体探针返回的度量结果，单位为像素。
// Family 记录实际使用的字体族；若请求的字体不存在，这里会是替代字体的名字。
type Metrics struct {
	Width   int     `json:"width"`
	Ascent  float64 `json:"ascent"`
	Descent float64 `json:"descent"`
	Family  string  `json:"family"`
}

// Geometry 是根据文本宽度与字号推导出的画布尺寸与基线位置（像素）。
type Geometry struct {
	TextWidth int `json:"textWidth"`
	FontSize  int `json:"fontSize"`
	BaselineX int `json:"baselineX"`
	BaselineY int `json:"baselineY"`
	Width     int `json:"width"`
	Height    int `json:"height"`
}

// Style holds the colors and the shadow distortion applied when drawing.
type Style struct {
	Background  color.RGBA `json:"background"`
	ShadowColor color.RGBA `json:"shadowColor"`
	TextColor   color.RGBA `json:"textColor"`
	// Shear is the horizontal shear factor of the shadow layer.
	Shear float64 `json:"shear"`
	// Stretch is the vertical scale applied on top of the shear.
	Stretch float64 `json:"stretch"`
}

// Shadow constants, tuned by eye.
const (
	ShadowShear   = -0.95
	ShadowStretch = 3.0
)

// DefaultStyle returns white background, light-gray shadow and black text.
func DefaultStyle() Style {
	return Style{
		Background:  color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		ShadowColor: color.RGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff},
		TextColor:   color.RGBA{A: 0xff},
		Shear:       ShadowShear,
		Stretch:     ShadowStretch,
	}
}

// Job 是批量文件中的一条渲染任务。
type Job struct {
	Name    string  `json:"name"`
	Request Request `json:"request"`
	Out     string  `json:"out"`
	Quality int     `json:"quality,omitempty"`
}
