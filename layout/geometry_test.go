package layout

import (
	"errors"
	"math"
	"testing"
)

func TestComputeHiAt20(t *testing.T) {
	g, err := Compute(17, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Height != 70 {
		t.Fatalf("height: got %d want 70", g.Height)
	}
	if g.BaselineX != 1 {
		t.Fatalf("baselineX: got %d want 1", g.BaselineX)
	}
	if g.Width != 17+2*(1+20) {
		t.Fatalf("width: got %d want %d", g.Width, 17+2*(1+20))
	}
	if g.BaselineY != 56 {
		t.Fatalf("baselineY: got %d want 56", g.BaselineY)
	}
}

func TestComputeSmallestSize(t *testing.T) {
	g, err := Compute(0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Height != 3 || g.BaselineY != 2 || g.Width != 2 {
		t.Fatalf("unexpected geometry for size 1: %+v", g)
	}
}

func TestComputeWidthAlwaysExceedsText(t *testing.T) {
	for w := 0; w < 500; w += 7 {
		for s := 1; s < 80; s += 3 {
			g, err := Compute(w, s)
			if err != nil {
				t.Fatalf("Compute(%d,%d): %v", w, s, err)
			}
			if g.Width <= w {
				t.Fatalf("Compute(%d,%d) width %d not > %d", w, s, g.Width, w)
			}
			if g.Height != s*7/2 {
				t.Fatalf("Compute(%d,%d) height %d", w, s, g.Height)
			}
		}
	}
}

func TestComputeRejectsNonPositiveSize(t *testing.T) {
	for _, s := range []int{0, -3} {
		if _, err := Compute(10, s); !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("size %d: expected ErrInvalidSize, got %v", s, err)
		}
	}
}

func TestComputeClampsNegativeWidth(t *testing.T) {
	g, err := Compute(-5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TextWidth != 0 || g.Width != 20 {
		t.Fatalf("unexpected geometry: %+v", g)
	}
}

func TestShadowTransformMatchesShearThenStretch(t *testing.T) {
	g := Geometry{BaselineX: 10, BaselineY: 50}
	m := g.ShadowTransform(DefaultStyle())

	// 基线上的点只平移。
	x, y := m.Apply(4, 0)
	if x != 14 || y != 50 {
		t.Fatalf("baseline point: got (%g,%g)", x, y)
	}
	// 基线上方 10 像素：纵向拉伸 3 倍，再按 -0.95 剪切向右偏移。
	x, y = m.Apply(0, -10)
	if math.Abs(x-(10+28.5)) > 1e-9 || math.Abs(y-20) > 1e-9 {
		t.Fatalf("glyph top: got (%g,%g)", x, y)
	}

	fx, fy := g.ForegroundTransform().Apply(0, -10)
	if fx != 10 || fy != 40 {
		t.Fatalf("foreground: got (%g,%g)", fx, fy)
	}
}

func TestFlipY(t *testing.T) {
	g := Geometry{BaselineX: 10, BaselineY: 50, Height: 70}
	down := g.ShadowTransform(DefaultStyle())
	up := down.FlipY(float64(g.Height))

	// 字形坐标 y 向上为正：(0, 10) 对应 y-down 的 (0, -10)。
	dx, dy := down.Apply(0, -10)
	ux, uy := up.Apply(0, 10)
	if math.Abs(ux-dx) > 1e-9 || math.Abs(uy-(70-dy)) > 1e-9 {
		t.Fatalf("flip mismatch: down=(%g,%g) up=(%g,%g)", dx, dy, ux, uy)
	}
}

func TestRequestValidate(t *testing.T) {
	if err := (Request{Message: "Hi", Size: 20}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Request{Message: "", Size: 20}).Validate(); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if err := (Request{Message: "Hi", Size: 0}).Validate(); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	if err := (Request{Message: "\xff", Size: 2}).Validate(); err == nil {
		t.Fatalf("expected invalid UTF-8 error")
	}
}

func TestRequestNormalized(t *testing.T) {
	r := Request{Message: "one\r\ntwo\nthree", Size: 2}.Normalized()
	if r.Message != "one two three" {
		t.Fatalf("unexpected message %q", r.Message)
	}
}
