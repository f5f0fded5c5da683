package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
	"video-summary/pkg/subtitle"
	"video-summary/pkg/util"
)

type ProcessMode int

const (
	// ModeSummary saves the subtitle pair and then the summary.
	ModeSummary ProcessMode = iota
	// ModeSubtitles saves the subtitle file and its Markdown reading version only.
	ModeSubtitles
	// ModeJSON saves the structured dump only.
	ModeJSON
)

type ProcessOptions struct {
	URL    string
	Format types.SubtitleFormat
	Mode   ProcessMode
	// Output overrides the default path of the mode's main artifact.
	Output string
}

type ProcessResult struct {
	Identifier   string
	Document     *types.SubtitleDocument
	CacheHit     bool
	SubtitlePath string
	MarkdownPath string
	JsonPath     string
	SummaryPath  string
	Summary      string
}

// Process runs the whole pipeline for one link: cache lookup, extraction with
// retry, cache update and output files for the requested mode.
func (s *Service) Process(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	format := opts.Format
	if format == "" {
		format = types.SubtitleFormatSrt
	}
	format = types.ParseSubtitleFormat(string(format))

	doc, result, err := s.LoadDocument(ctx, opts.URL, format)
	if err != nil {
		return nil, err
	}

	paths, err := s.OutputPathsFor(result.Identifier, doc.VideoInfo.Title, format)
	if err != nil {
		return nil, err
	}

	switch opts.Mode {
	case ModeJSON:
		result.JsonPath = firstNonEmpty(opts.Output, paths.Json)
		if err = s.SaveSubtitleJSON(doc, result.JsonPath); err != nil {
			return nil, err
		}
		return result, nil

	case ModeSubtitles:
		result.SubtitlePath = paths.Subtitle
		if opts.Output != "" {
			result.SubtitlePath = WithSuffix(opts.Output, SubtitleExt(format))
		}
		result.MarkdownPath = WithSuffix(result.SubtitlePath, ".md")
		if err = s.saveSubtitlePairOnce(doc, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	result.SubtitlePath = paths.Subtitle
	result.MarkdownPath = paths.Markdown
	result.SummaryPath = WithSuffix(firstNonEmpty(opts.Output, paths.Summary), ".md")
	if result.CacheHit && fileExists(result.MarkdownPath) && fileExists(result.SummaryPath) {
		log.GetLogger().Info("命中总结缓存，跳过字幕保存与总结生成 Summary already present",
			zap.String("summary", result.SummaryPath))
		if result.Summary, err = ReadSummary(result.SummaryPath); err != nil {
			return nil, err
		}
		return result, nil
	}
	if err = s.saveSubtitlePairOnce(doc, result); err != nil {
		return nil, err
	}

	summary, err := s.Summarize(ctx, doc)
	if err != nil {
		return nil, err
	}
	result.Summary = summary
	if err = s.SaveSummary(summary, doc, result.SummaryPath); err != nil {
		return nil, err
	}
	return result, nil
}

// LoadDocument returns the cached document for url when there is one, and
// otherwise extracts it and refreshes the cache. A cached document rendered in
// another format is re-rendered from its events.
func (s *Service) LoadDocument(ctx context.Context, url string, format types.SubtitleFormat) (*types.SubtitleDocument, *ProcessResult, error) {
	result := &ProcessResult{Identifier: util.ExtractUrlIdentifier(url)}

	if doc, ok := s.lookupCache(result.Identifier); ok {
		log.GetLogger().Info("命中字幕缓存 Subtitle cache hit", zap.String("identifier", result.Identifier))
		if rerendered, changed := Rerender(doc, format); changed {
			doc = rerendered
		}
		result.Document = doc
		result.CacheHit = true
		return doc, result, nil
	}

	doc, err := s.extractWithRetry(ctx, url, format)
	if err != nil {
		return nil, nil, err
	}
	result.Document = doc

	if s.Cache != nil && result.Identifier != "" {
		if err = s.Cache.SaveSubtitleCache(result.Identifier, doc); err != nil {
			log.GetLogger().Warn("字幕缓存保存失败（不影响主流程） Failed to save subtitle cache",
				zap.String("identifier", result.Identifier), zap.Error(err))
		}
	}
	return doc, result, nil
}

func (s *Service) lookupCache(identifier string) (*types.SubtitleDocument, bool) {
	if s.Cache == nil || identifier == "" {
		return nil, false
	}
	doc, ok, err := s.Cache.GetSubtitleCache(identifier)
	if err != nil {
		log.GetLogger().Warn("读取字幕缓存失败 Failed to read subtitle cache", zap.String("identifier", identifier), zap.Error(err))
		return nil, false
	}
	if !ok || doc == nil || len(doc.Subtitles) == 0 {
		return nil, false
	}
	return doc, true
}

// Rerender renders every page with events again in format. Pages without
// events keep their text.
func Rerender(doc *types.SubtitleDocument, format types.SubtitleFormat) (*types.SubtitleDocument, bool) {
	format = types.ParseSubtitleFormat(string(format))
	if doc.FirstPage().Format == format {
		return doc, false
	}
	out := *doc
	out.Subtitles = make([]types.SubtitlePage, len(doc.Subtitles))
	changed := false
	for i, page := range doc.Subtitles {
		if len(page.Body) > 0 {
			page.Subtitles = subtitle.Render(page.Body, format)
			page.Format = format
			changed = true
		}
		out.Subtitles[i] = page
	}
	return &out, changed
}

// extractWithRetry retries transient network failures with exponential
// backoff; any other error is returned at once.
func (s *Service) extractWithRetry(ctx context.Context, url string, format types.SubtitleFormat) (*types.SubtitleDocument, error) {
	attempts := max(s.MaxRetry, 1)
	delay := s.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		doc, err := s.ExtractSubtitles(ctx, url, format)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !apperrors.IsTransient(err) || attempt == attempts {
			break
		}

		log.GetLogger().Warn("获取字幕失败，准备重试 Extraction failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

func (s *Service) saveSubtitlePairOnce(doc *types.SubtitleDocument, result *ProcessResult) error {
	if result.CacheHit && fileExists(result.SubtitlePath) && fileExists(result.MarkdownPath) {
		log.GetLogger().Info("命中字幕文件缓存，跳过保存 Subtitle files already present",
			zap.String("subtitle", result.SubtitlePath), zap.String("markdown", result.MarkdownPath))
		return nil
	}
	return s.SaveSubtitlePair(doc, result.SubtitlePath, result.MarkdownPath)
}

func firstNonEmpty(values ...string) string {
	v, _ := lo.Coalesce(values...)
	return v
}
