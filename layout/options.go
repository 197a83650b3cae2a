package layout

// BuildOptions 配置批量任务构建时的默认值。
type BuildOptions struct {
	DefaultFamily string
	DefaultSize   int
	// OutDir 为相对输出路径的根目录；为空时保持原样。
	OutDir string
}

const defaultBannerSize = 36

func (o BuildOptions) withDefaults() BuildOptions {
	if o.DefaultSize <= 0 {
		o.DefaultSize = defaultBannerSize
	}
	return o
}
