package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// ${path|fallback} 在路径不存在时使用 fallback；没有 fallback 时保留原占位符。
func Interpolate(text string, data any) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path, fallback, hasFallback := strings.Cut(groups[1], "|")
		path = strings.TrimSpace(path)
		if path != "" {
			if val, ok := Lookup(data, path); ok && val != nil {
				return format(val)
			}
		}
		if hasFallback {
			return fallback
		}
		return match
	})
}

// Lookup resolves a dotted path with optional [i] indexes against decoded JSON data.
func Lookup(data any, path string) (any, bool) {
	steps, ok := splitPath(path)
	if !ok || data == nil {
		return nil, false
	}
	current := data
	for _, st := range steps {
		if current, ok = st.descend(current); !ok {
			return nil, false
		}
	}
	return current, true
}

// format 让 JSON 数字保持整数外观（json 解码后为 float64）。
func format(val any) string {
	if f, ok := val.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(val)
}

// step 是路径中的一级：键名或数组下标（index >= 0）。
type step struct {
	key   string
	index int
}

// splitPath 将 "a.b[0][1].c" 拆成 a、b、0、1、c 五步。
func splitPath(path string) ([]step, bool) {
	var steps []step
	for _, segment := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(segment, "[")
		if name != "" {
			steps = append(steps, step{key: name, index: -1})
		}
		for rest != "" {
			idxStr, tail, found := strings.Cut(rest, "]")
			if !found {
				return nil, false
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 0 {
				return nil, false
			}
			steps = append(steps, step{index: idx})
			rest = strings.TrimPrefix(tail, "[")
		}
	}
	return steps, len(steps) > 0
}

func (s step) descend(current any) (any, bool) {
	if s.index < 0 {
		switch c := current.(type) {
		case map[string]any:
			val, ok := c[s.key]
			return val, ok
		case map[string]string:
			val, ok := c[s.key]
			return val, ok
		}
		return nil, false
	}
	switch c := current.(type) {
	case []any:
		if s.index < len(c) {
			return c[s.index], true
		}
	case []string:
		if s.index < len(c) {
			return c[s.index], true
		}
	}
	return nil, false
}
