package layout

import (
	"github.com/pkg/errors"
	"golang.org/x/image/math/f64"
)

// Compute 根据测得的文本宽度 textWidth 与字号 fontSize 计算画布尺寸与基线。
//
//	baselineX = w / 10
//	width     = w + 2*(baselineX + s)
//	height    = s * 7 / 2
//	baselineY = height * 8 / 10
//
// 所有运算均为整数运算；左右各留出 baselineX+s 给倾斜的阴影。
func Compute(textWidth, fontSize int) (Geometry, error) {
	if fontSize <= 0 {
		return Geometry{}, errors.Wrapf(ErrInvalidSize, "size=%d", fontSize)
	}
	if textWidth < 0 {
		textWidth = 0
	}
	baselineX := textWidth / 10
	height := fontSize * 7 / 2
	return Geometry{
		TextWidth: textWidth,
		FontSize:  fontSize,
		BaselineX: baselineX,
		BaselineY: height * 8 / 10,
		Width:     textWidth + 2*(baselineX+fontSize),
		Height:    height,
	}, nil
}

// ForegroundTransform 只平移到基线原点，不带任何变形。
func (g Geometry) ForegroundTransform() Affine {
	return Identity().Translate(float64(g.BaselineX), float64(g.BaselineY))
}

// ShadowTransform 在基线平移之后叠加剪切与纵向拉伸：先 Shear(style.Shear, 0)，再 Scale(1, style.Stretch)。
func (g Geometry) ShadowTransform(style Style) Affine {
	return g.ForegroundTransform().Shear(style.Shear, 0).Scale(1, style.Stretch)
}

// Affine is a 2D affine matrix in y-down pixel space laid out like f64.Aff3:
//
//	x' = m[0]*x + m[1]*y + m[2]
//	y' = m[3]*x + m[4]*y + m[5]
//
// Translate, Shear and Scale post-concatenate, so the last call applies first
// to the drawn coordinates.
type Affine f64.Aff3

// Identity returns the identity transform.
func Identity() Affine { return Affine{1, 0, 0, 0, 1, 0} }

// Mul returns m·n.
func (m Affine) Mul(n Affine) Affine {
	return Affine{
		m[0]*n[0] + m[1]*n[3],
		m[0]*n[1] + m[1]*n[4],
		m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3],
		m[3]*n[1] + m[4]*n[4],
		m[3]*n[2] + m[4]*n[5] + m[5],
	}
}

func (m Affine) Translate(x, y float64) Affine { return m.Mul(Affine{1, 0, x, 0, 1, y}) }

func (m Affine) Shear(x, y float64) Affine { return m.Mul(Affine{1, x, 0, y, 1, 0}) }

func (m Affine) Scale(x, y float64) Affine { return m.Mul(Affine{x, 0, 0, 0, y, 0}) }

// Apply maps a point through the transform.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// FlipY converts a y-down transform into a y-up (Cartesian) one for a surface of
// the given height, assuming glyph outlines are also y-up.
func (m Affine) FlipY(height float64) Affine {
	return Affine{m[0], -m[1], m[2], -m[3], m[4], height - m[5]}
}
