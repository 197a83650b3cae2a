package fonts

import (
	"sort"
	"strings"
	"sync"

	"github.com/tdewolff/font"
)

var (
	systemOnce  sync.Once
	systemFonts *font.SystemFonts
)

// loadSystem 只扫描一次字体目录；目录不存在或扫描失败时视为没有系统字体。
func loadSystem() *font.SystemFonts {
	systemOnce.Do(func() {
		fonts, err := font.FindSystemFonts(font.DefaultFontDirs())
		if err != nil || fonts == nil {
			return
		}
		systemFonts = fonts
	})
	return systemFonts
}

// SystemFamilies lists the family names found in the host's font directories.
func SystemFamilies() []string {
	sys := loadSystem()
	if sys == nil {
		return nil
	}
	names := make([]string, 0, len(sys.Fonts))
	for name := range sys.Fonts {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SystemFile returns the file of the regular style of a system family.
// When the family has no regular style the first file by name is used.
func SystemFile(family string) (string, string, bool) {
	sys := loadSystem()
	if sys == nil {
		return "", "", false
	}
	want := strings.TrimSpace(family)
	for name, styles := range sys.Fonts {
		if !strings.EqualFold(name, want) || len(styles) == 0 {
			continue
		}
		if meta, ok := styles[font.Regular]; ok && meta.Filename != "" {
			return name, meta.Filename, true
		}
		files := make([]string, 0, len(styles))
		for _, meta := range styles {
			if meta.Filename != "" {
				files = append(files, meta.Filename)
			}
		}
		if len(files) == 0 {
			return "", "", false
		}
		sort.Strings(files)
		return name, files[0], true
	}
	return "", "", false
}
