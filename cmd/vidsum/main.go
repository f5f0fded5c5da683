package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"video-summary/config"
	"video-summary/internal/service"
	"video-summary/internal/storage"
	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 2
	}

	if opts.Version {
		printVersion()
	}
	if opts.Diagnose {
		if opts.Version {
			fmt.Println()
		}
		printDiagnose()
	}
	if opts.Version || opts.Diagnose {
		return 0
	}

	log.InitLogger(opts.Verbose)
	defer log.GetLogger().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	steps := &stepPrinter{out: stdout}
	if err = execute(ctx, opts, steps); err != nil {
		log.GetLogger().Error("处理失败", zap.String("url", opts.URL), zap.Error(err))
		fmt.Fprintf(stderr, "错误: %s\n", describeError(err))
		return 1
	}
	fmt.Fprintln(stdout, "处理完成!")
	return 0
}

type stepPrinter struct {
	out io.Writer
	n   int
}

func (p *stepPrinter) Step(format string, args ...any) {
	p.n++
	fmt.Fprintf(p.out, "[步骤 %d] %s\n", p.n, fmt.Sprintf(format, args...))
}

func execute(ctx context.Context, opts cliOptions, steps *stepPrinter) error {
	steps.Step("加载配置")
	if _, err := config.LoadOrCreateConfig(); err != nil {
		return err
	}
	applyOverrides(opts)
	if err := config.CheckConfig(); err != nil {
		return err
	}

	storage.InitDB()
	svc := service.NewService()

	mode := service.ModeSummary
	switch {
	case opts.Json:
		mode = service.ModeJSON
	case opts.NoSummary:
		mode = service.ModeSubtitles
	}

	if mode == service.ModeSummary && svc.ChatCompleter == nil {
		return apperrors.ErrLLMNotConfigured
	}

	steps.Step("获取字幕: %s", opts.URL)
	result, err := svc.Process(ctx, service.ProcessOptions{
		URL:    opts.URL,
		Format: types.ParseSubtitleFormat(opts.SubtitleFormat),
		Mode:   mode,
		Output: opts.Output,
	})
	if err != nil {
		return err
	}
	if result.CacheHit {
		steps.Step("使用缓存字幕: %s", result.Identifier)
	}

	switch mode {
	case service.ModeJSON:
		steps.Step("JSON已保存到: %s", result.JsonPath)
	case service.ModeSubtitles:
		steps.Step("字幕已保存到: %s", result.SubtitlePath)
		steps.Step("Markdown已保存到: %s", result.MarkdownPath)
	default:
		steps.Step("字幕已保存到: %s", result.SubtitlePath)
		steps.Step("总结已保存到: %s", result.SummaryPath)
		fmt.Fprintf(steps.out, "\n%s\n\n", result.Summary)
	}
	return nil
}

// applyOverrides lets command line flags win over the config file and
// environment.
func applyOverrides(opts cliOptions) {
	if opts.ApiKey != "" {
		config.Conf.Llm.ApiKey = opts.ApiKey
	}
	if opts.ApiBaseUrl != "" {
		config.Conf.Llm.BaseUrl = opts.ApiBaseUrl
	}
	if opts.Model != "" {
		config.Conf.Llm.Model = opts.Model
	}
	config.Conf.App.SubtitleFormat = opts.SubtitleFormat
}

func describeError(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch {
		case appErr.Detail != "":
			return appErr.Message + ": " + appErr.Detail
		case appErr.Cause != nil:
			return appErr.Message + ": " + appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}
