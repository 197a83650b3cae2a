// Package fonts resolves font family names to font data.
//
// 内置字体来自 golang.org/x/image/font/gofont，始终可用；系统字体通过
// github.com/tdewolff/font 扫描常见字体目录获得。找不到的字体族会静默回退到
// DefaultFamily，调用方不应假设字体名一定精确匹配。
package fonts

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// DefaultFamily is used whenever a requested family cannot be found.
const DefaultFamily = "Go"

var builtin = map[string][]byte{
	DefaultFamily:  goregular.TTF,
	"Go Medium":    gomedium.TTF,
	"Go Mono":      gomono.TTF,
	"Go Smallcaps": gosmallcaps.TTF,
}

// Source is resolved font data.
type Source struct {
	// Family 为实际使用的字体族，可能与请求的名字不同。
	Family string
	Data   []byte
	// Path 为系统字体文件路径，内置字体为空。
	Path string
}

// Builtin returns the data of a built-in family, matched case-insensitively.
func Builtin(family string) (string, []byte, bool) {
	for name, data := range builtin {
		if strings.EqualFold(name, strings.TrimSpace(family)) {
			return name, data, true
		}
	}
	return "", nil, false
}

// BuiltinFamilies lists the embedded Go font families.
func BuiltinFamilies() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the fallback font.
func Default() Source {
	return Source{Family: DefaultFamily, Data: goregular.TTF}
}

// Resolve 依次查找内置字体与系统字体，找不到时返回默认字体（不报错）。
// 只有在系统字体文件存在却无法读取时才返回错误。
func Resolve(family string) (Source, error) {
	if strings.TrimSpace(family) == "" {
		return Default(), nil
	}
	if name, data, ok := Builtin(family); ok {
		return Source{Family: name, Data: data}, nil
	}
	name, path, ok := SystemFile(family)
	if !ok {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, errors.Wrapf(err, "读取系统字体 %s 失败", path)
	}
	return Source{Family: name, Data: data, Path: path}, nil
}

// Families 返回可用字体族：内置字体加系统字体，排序且去重。
func Families() []string {
	set := map[string]struct{}{}
	for _, name := range BuiltinFamilies() {
		set[name] = struct{}{}
	}
	for _, name := range SystemFamilies() {
		set[name] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
