package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// 批量文件里的字号可以带单位。位图按 72dpi 换算：1pt 等于 1 像素。

// Unit is the suffix a size was written with.
type Unit string

const (
	UnitPX Unit = "px"
	UnitPT Unit = "pt"
	UnitMM Unit = "mm"
	UnitCM Unit = "cm"
	UnitIN Unit = "in"
)

// Conversion constants between pt and mm.
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

var pxPerUnit = map[Unit]float64{
	UnitPX: 1,
	UnitPT: 1,
	UnitMM: MmToPt,
	UnitCM: 10 * MmToPt,
	UnitIN: 72,
}

// Length is a size value together with the unit it was written in.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Pixels rounds the length to whole pixels.
func (l Length) Pixels() int {
	return int(math.Round(l.Value * pxPerUnit[l.Unit]))
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + string(l.Unit)
}

// ParseLength 解析 "48"、"12pt"、"2.54cm" 这类长度；无单位按像素处理。
func ParseLength(s string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	l := Length{Unit: UnitPX}
	if len(v) > 2 {
		if _, ok := pxPerUnit[Unit(v[len(v)-2:])]; ok {
			l.Unit = Unit(v[len(v)-2:])
			v = strings.TrimSpace(v[:len(v)-2])
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Length{}, fmt.Errorf("无法解析长度 %q", s)
	}
	l.Value = f
	return l, nil
}
