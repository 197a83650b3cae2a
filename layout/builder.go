package layout

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ByLCY/shadowtext/binding"
	"github.com/ByLCY/shadowtext/dsl"
)

var knownKeys = map[string]bool{
	"message": true,
	"font":    true,
	"size":    true,
	"out":     true,
	"quality": true,
}

// Build 根据 DSL AST 生成渲染任务列表；message 中的 ${...} 会用 data 插值。
func Build(doc *dsl.Document, data any, opts BuildOptions) ([]Job, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	opts = opts.withDefaults()

	defaults := doc.Defaults()
	if err := checkKeys(defaults, "defaults"); err != nil {
		return nil, err
	}
	base := props{family: opts.DefaultFamily, size: opts.DefaultSize}
	if err := base.apply(defaults, data); err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}

	banners := doc.Banners()
	if len(banners) == 0 {
		return nil, fmt.Errorf("文档中缺少 banner 段落")
	}
	seen := make(map[string]bool, len(banners))
	jobs := make([]Job, 0, len(banners))
	for _, b := range banners {
		if seen[b.Name] {
			return nil, fmt.Errorf("%s: banner %s 重复定义", b.Pos, b.Name)
		}
		seen[b.Name] = true

		if err := checkKeys(b.Block, "banner "+b.Name); err != nil {
			return nil, err
		}
		p := base
		if err := p.apply(b.Block, data); err != nil {
			return nil, fmt.Errorf("%s: banner %s: %w", b.Pos, b.Name, err)
		}
		req := Request{Message: p.message, Family: p.family, Size: p.size}.Normalized()
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("%s: banner %s: %w", b.Pos, b.Name, err)
		}
		out := p.out
		if out == "" {
			out = b.Name + ".jpg"
		}
		if opts.OutDir != "" && !filepath.IsAbs(out) {
			out = filepath.Join(opts.OutDir, out)
		}
		jobs = append(jobs, Job{Name: b.Name, Request: req, Out: out, Quality: p.quality})
	}
	return jobs, nil
}

type props struct {
	message string
	family  string
	size    int
	out     string
	quality int
}

func (p *props) apply(block *dsl.Block, data any) error {
	if block == nil {
		return nil
	}
	for _, st := range block.Statements {
		raw := st.Value.Text()
		switch st.Key {
		case "message":
			p.message = binding.Interpolate(raw, data)
		case "font":
			p.family = strings.TrimSpace(binding.Interpolate(raw, data))
		case "size":
			l, err := ParseLength(raw)
			if err != nil {
				return err
			}
			size := l.Pixels()
			if size <= 0 {
				return fmt.Errorf("无效字号 %q", raw)
			}
			p.size = size
		case "out":
			p.out = binding.Interpolate(raw, data)
		case "quality":
			q, err := strconv.Atoi(raw)
			if err != nil || q < 1 || q > 100 {
				return fmt.Errorf("quality 需为 1-100 的整数，实际 %q", raw)
			}
			p.quality = q
		}
	}
	return nil
}

func checkKeys(block *dsl.Block, where string) error {
	if block == nil {
		return nil
	}
	for _, st := range block.Statements {
		if !knownKeys[st.Key] {
			return fmt.Errorf("%s: %s 中存在未知属性 %s", st.Pos, where, st.Key)
		}
	}
	return nil
}
