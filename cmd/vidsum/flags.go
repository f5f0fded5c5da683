package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"video-summary/config"
	"video-summary/internal/appdirs"
	"video-summary/internal/types"
	"video-summary/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var errInvalidURL = errors.New("URL必须以 http:// 或 https:// 开头")

type cliOptions struct {
	URL            string
	Output         string
	Model          string
	ApiKey         string
	ApiBaseUrl     string
	SubtitleFormat string
	Verbose        bool
	NoSummary      bool
	Json           bool
	Version        bool
	Diagnose       bool
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	flags := flag.NewFlagSet("vidsum", flag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.StringVar(&opts.URL, "u", "", "视频链接 (B站或YouTube)")
	flags.StringVar(&opts.URL, "url", "", "视频链接 (B站或YouTube)")
	flags.StringVar(&opts.Output, "o", "", "总结输出文件路径")
	flags.StringVar(&opts.Output, "output", "", "总结输出文件路径")
	flags.StringVar(&opts.Model, "m", "", "使用的模型名称")
	flags.StringVar(&opts.Model, "model", "", "使用的模型名称")
	flags.StringVar(&opts.ApiKey, "api-key", "", "LLM API 密钥")
	flags.StringVar(&opts.ApiBaseUrl, "api-base-url", "", "LLM API 基础URL")
	flags.StringVar(&opts.SubtitleFormat, "subtitle-format", string(types.SubtitleFormatSrt), "字幕格式: txt, srt, vtt, lrc")
	flags.BoolVar(&opts.Verbose, "v", false, "显示详细日志")
	flags.BoolVar(&opts.Verbose, "verbose", false, "显示详细日志")
	flags.BoolVar(&opts.NoSummary, "no-summary", false, "只提取字幕，不生成总结")
	flags.BoolVar(&opts.Json, "json", false, "以JSON格式输出字幕")
	flags.BoolVar(&opts.Version, "version", false, "print version information")
	flags.BoolVar(&opts.Diagnose, "diagnose", false, "print runtime diagnostics")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}

	opts.URL = strings.TrimSpace(opts.URL)
	if opts.Version || opts.Diagnose {
		return opts, nil
	}
	if err := validateURL(opts.URL); err != nil {
		return opts, err
	}
	switch opts.SubtitleFormat {
	case "txt", "srt", "vtt", "lrc":
	default:
		return opts, fmt.Errorf("不支持的字幕格式 unsupported subtitle format %q", opts.SubtitleFormat)
	}
	return opts, nil
}

func validateURL(url string) error {
	if url == "" {
		return errors.New("URL不能为空")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return errInvalidURL
	}
	return nil
}

func printVersion() {
	fmt.Printf("version: %s\ncommit: %s\ndate: %s\n", version, commit, date)
}

func printDiagnose() {
	fmt.Printf("runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("version: %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("date: %s\n", date)

	if wd, err := os.Getwd(); err == nil {
		fmt.Printf("working_dir: %s\n", wd)
	} else {
		fmt.Printf("working_dir: <error: %v>\n", err)
	}

	if configPath, err := config.ResolveConfigPath(); err == nil {
		printPath("config", configPath)
	} else {
		fmt.Printf("path.config: <error: %v>\n", err)
	}

	if logDir, err := log.ResolveLogDir(); err == nil {
		printPath("effective_log_dir", logDir)
	} else {
		fmt.Printf("path.effective_log_dir: <error: %v>\n", err)
	}
	if logFile, err := log.ResolveLogFilePath(); err == nil {
		printPath("log", logFile)
	}

	dirs, err := appdirs.Resolve()
	if err != nil {
		fmt.Printf("path.app_dirs: <error: %v>\n", err)
		return
	}
	printPath("subtitles", appdirs.SubtitleRootFor(dirs))
	printPath("summaries", appdirs.SummaryRootFor(dirs))
	printPath("database", appdirs.DBPathFor(dirs))
}

func printPath(name, value string) {
	_, err := os.Stat(value)
	switch {
	case err == nil:
		fmt.Printf("path.%s: %s (exists)\n", name, value)
	case os.IsNotExist(err):
		fmt.Printf("path.%s: %s (missing)\n", name, value)
	default:
		fmt.Printf("path.%s: %s (error=%v)\n", name, value, err)
	}
}
