package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/jpeg"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ByLCY/shadowtext/dsl"
	"github.com/ByLCY/shadowtext/encoder"
	"github.com/ByLCY/shadowtext/fonts"
	"github.com/ByLCY/shadowtext/layout"
	"github.com/ByLCY/shadowtext/renderer"
	canvasrenderer "github.com/ByLCY/shadowtext/renderer/canvas"
	vectorrenderer "github.com/ByLCY/shadowtext/renderer/vector"
	"github.com/ByLCY/shadowtext/server"
)

func main() {
	msg := flag.String("msg", "", "要渲染的消息文本")
	family := flag.String("font", fonts.DefaultFamily, "字体族名，未安装时回退到默认字体")
	size := flag.Int("size", 48, "字号（像素）")
	output := flag.String("out", "output/message.jpg", "JPEG 输出路径")
	backend := flag.String("backend", "canvas", "绘制后端：canvas 或 vector")
	listFonts := flag.Bool("fonts", false, "列出可用字体族后退出")
	input := flag.String("in", "", "批量 banner 文件路径")
	dataJSON := flag.String("data", "", "绑定到 banner 文件的 JSON 数据")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	quality := flag.Int("quality", jpeg.DefaultQuality, "JPEG 质量（1-100）")
	maxWidth := flag.Int("max-width", 0, "输出图片最大宽度，0 表示不缩放")
	serve := flag.String("serve", "", "以 HTTP 服务方式运行的监听地址，例如 :8080")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	g, err := newGraphics(*backend, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	r := renderer.New(g, renderer.Options{Logger: logger})

	switch {
	case *listFonts:
		names, err := r.Families()
		if err != nil {
			log.Fatalf("枚举字体失败: %v", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	case *serve != "":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		srv := server.New(server.Config{Addr: *serve, Renderer: r, Quality: *quality, Logger: logger})
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Fatalf("HTTP 服务异常退出: %v", err)
		}
	case *input != "":
		var inputData any
		if *dataJSON != "" {
			if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
				log.Fatalf("解析 data JSON 失败: %v", err)
			}
		}
		opts := options{quality: *quality, maxWidth: *maxWidth, debugPath: *debug, logger: logger}
		jobs, err := runBatch(*input, inputData, r, opts)
		if err != nil {
			log.Fatalf("批量生成失败: %v", err)
		}
		for _, job := range jobs {
			fmt.Printf("已生成图片：%s\n", job.Out)
		}
	default:
		req := layout.Request{Message: *msg, Family: *family, Size: *size}
		opts := options{quality: *quality, maxWidth: *maxWidth, debugPath: *debug, logger: logger}
		if err := runSingle(req, *output, r, opts); err != nil {
			log.Fatalf("生成图片失败: %v", err)
		}
		fmt.Printf("已生成图片：%s\n", *output)
	}
}

type options struct {
	quality   int
	maxWidth  int
	debugPath string
	logger    *slog.Logger
}

func newGraphics(name string, logger *slog.Logger) (renderer.Graphics, error) {
	switch name {
	case "canvas", "":
		return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Logger: logger}), nil
	case "vector":
		return vectorrenderer.NewRenderer(logger), nil
	default:
		return nil, fmt.Errorf("未知的绘制后端 %q（可选 canvas、vector）", name)
	}
}

// runSingle 渲染一条消息并写出 JPEG。
func runSingle(req layout.Request, outputPath string, r *renderer.Renderer, opts options) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	if opts.debugPath != "" {
		info, err := r.Layout(req)
		if err != nil {
			return fmt.Errorf("布局计算失败: %w", err)
		}
		if err := writeDebug(info, opts.debugPath); err != nil {
			return err
		}
	}
	return renderTo(req, outputPath, opts.quality, r, opts)
}

// runBatch 串联解析、任务构建与渲染。
func runBatch(inputPath string, data any, r *renderer.Renderer, opts options) ([]layout.Job, error) {
	if r == nil {
		return nil, fmt.Errorf("renderer 不能为空")
	}
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("无法打开 banner 文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析 banner 文件失败: %w", err)
	}

	jobs, err := layout.Build(doc, data, layout.BuildOptions{DefaultFamily: fonts.DefaultFamily})
	if err != nil {
		return nil, fmt.Errorf("构建任务失败: %w", err)
	}

	if opts.debugPath != "" {
		infos := make([]layout.Debug, 0, len(jobs))
		for _, job := range jobs {
			info, err := r.Layout(job.Request)
			if err != nil {
				return nil, fmt.Errorf("布局计算失败 (%s): %w", job.Name, err)
			}
			infos = append(infos, info)
		}
		if err := writeDebug(infos, opts.debugPath); err != nil {
			return nil, err
		}
	}

	for _, job := range jobs {
		q := opts.quality
		if job.Quality > 0 {
			q = job.Quality
		}
		if err := renderTo(job.Request, job.Out, q, r, opts); err != nil {
			return nil, fmt.Errorf("%s: %w", job.Name, err)
		}
	}
	return jobs, nil
}

func renderTo(req layout.Request, outputPath string, quality int, r *renderer.Renderer, opts options) error {
	img, err := r.Render(req)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	enc := encoder.New(
		encoder.WithQuality(quality),
		encoder.WithMaxWidth(opts.maxWidth),
		encoder.WithLogger(opts.logger),
	)
	if err := enc.WriteFile(outputPath, img); err != nil {
		return fmt.Errorf("写入 JPEG 失败: %w", err)
	}
	return nil
}

func writeDebug(v any, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(v, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
