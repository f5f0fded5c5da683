package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"video-summary/internal/adapter"
	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
	"video-summary/pkg/subtitle"
)

// ExtractSubtitles fetches url through the first matching adapter and renders
// its caption events in format. Missing subtitles are reported as a
// not-available AppError, never as an empty document.
func (s *Service) ExtractSubtitles(ctx context.Context, url string, format types.SubtitleFormat) (*types.SubtitleDocument, error) {
	url = strings.TrimSpace(url)
	a, ok := adapter.Find(s.getAdapters(), url)
	if !ok {
		log.GetLogger().Warn("不支持的视频平台URL Unsupported url", zap.String("url", url))
		return nil, apperrors.ErrUnsupportedURL
	}

	log.GetLogger().Info("开始获取字幕 Extracting subtitles", zap.String("url", url), zap.String("platform", string(a.Name())))
	bundle, err := a.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return BuildDocument(bundle, format)
}

// BuildDocument renders a bundle into the single-page document shape.
func BuildDocument(bundle *types.SubtitleBundle, format types.SubtitleFormat) (*types.SubtitleDocument, error) {
	if bundle == nil {
		return nil, apperrors.ErrSubtitleNotFound
	}
	format = types.ParseSubtitleFormat(string(format))
	rendered := subtitle.Render(bundle.Events, format)
	if strings.TrimSpace(rendered) == "" {
		return nil, apperrors.WrapWithDetail(apperrors.CodeSubtitleNotFound, apperrors.ErrSubtitleNotFound.Message,
			"渲染结果为空 rendered subtitles are empty", nil)
	}

	return &types.SubtitleDocument{
		VideoInfo: types.VideoInfo{
			Title:       bundle.VideoTitle,
			Owner:       bundle.Author,
			Duration:    bundle.DurationSeconds,
			Description: bundle.Description,
		},
		Subtitles: []types.SubtitlePage{{
			Page:         1,
			Part:         "1",
			Title:        bundle.VideoTitle,
			Subtitles:    rendered,
			Body:         bundle.Events,
			Source:       bundle.Source,
			Format:       format,
			Language:     bundle.TrackMeta.LanguageCode,
			LanguageName: bundle.TrackMeta.LanguageLabel,
			IsAI:         bundle.TrackMeta.IsMachineGenerated,
		}},
		Source:   bundle.Source,
		Platform: bundle.Platform,
	}, nil
}

// RenderReadingDocument returns the prose of every page with indexes, ranges
// and timestamps removed, pages separated by a blank line.
func (s *Service) RenderReadingDocument(doc *types.SubtitleDocument) string {
	if doc == nil {
		return ""
	}
	parts := make([]string, 0, len(doc.Subtitles))
	for _, page := range doc.Subtitles {
		if lines := pageReadingLines(page); len(lines) > 0 {
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}

// pageReadingLines prefers the source events so every format reads the same;
// older cache entries without a body fall back to the rendered text.
func pageReadingLines(page types.SubtitlePage) []string {
	if len(page.Body) > 0 {
		return subtitle.ReadingLines(subtitle.Render(page.Body, types.SubtitleFormatText))
	}
	return subtitle.ReadingLines(page.Subtitles)
}

// RenderStructuredDump is the archival tree of the whole document, the same
// shape the cache stores.
func (s *Service) RenderStructuredDump(doc *types.SubtitleDocument) map[string]any {
	if doc == nil {
		return map[string]any{}
	}
	pages := make([]map[string]any, 0, len(doc.Subtitles))
	for _, page := range doc.Subtitles {
		body := page.Body
		if body == nil {
			body = []types.CaptionEvent{}
		}
		pages = append(pages, map[string]any{
			"page":          page.Page,
			"part":          page.Part,
			"title":         page.Title,
			"subtitles":     page.Subtitles,
			"body":          body,
			"source":        page.Source,
			"format":        page.Format,
			"language":      page.Language,
			"language_name": page.LanguageName,
			"is_ai":         page.IsAI,
		})
	}
	return map[string]any{
		"video_info": map[string]any{
			"title":       doc.VideoInfo.Title,
			"owner":       doc.VideoInfo.Owner,
			"duration":    doc.VideoInfo.Duration,
			"description": doc.VideoInfo.Description,
		},
		"subtitles": pages,
		"source":    doc.Source,
		"platform":  doc.Platform,
	}
}
