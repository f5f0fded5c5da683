package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
	"video-summary/pkg/subtitle"
	"video-summary/pkg/util"
)

const (
	unknownTitle = "未知标题"
	unknownOwner = "未知UP主"
)

func formatDuration(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func titleOf(doc *types.SubtitleDocument) string {
	if doc.VideoInfo.Title == "" {
		return unknownTitle
	}
	return doc.VideoInfo.Title
}

func ownerOf(doc *types.SubtitleDocument) string {
	if doc.VideoInfo.Owner == "" {
		return unknownOwner
	}
	return doc.VideoInfo.Owner
}

// BuildSubtitleFile returns the subtitle file content. Structured formats are
// written verbatim; plain text gets a small header and per-page sections.
func BuildSubtitleFile(doc *types.SubtitleDocument) string {
	first := doc.FirstPage()
	if first.Format.IsStructured() {
		return first.Subtitles
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", titleOf(doc))
	fmt.Fprintf(&b, "UP主: %s\n", ownerOf(doc))
	fmt.Fprintf(&b, "时长: %s\n\n", formatDuration(doc.VideoInfo.Duration))
	b.WriteString("## 视频内容\n\n")

	parts := make([]string, 0, len(doc.Subtitles)*2)
	for _, page := range doc.Subtitles {
		if page.Title != "" {
			parts = append(parts, "## "+page.Title)
		}
		if lines := pageReadingLines(page); len(lines) > 0 {
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	b.WriteString(strings.Join(parts, "\n\n"))
	return b.String()
}

// BuildSubtitleMarkdown is the reading version: one line per caption with its
// start time only.
func BuildSubtitleMarkdown(doc *types.SubtitleDocument) string {
	platform := string(doc.Platform)
	if platform == "" {
		platform = "unknown"
	}
	source := string(doc.Source)
	if source == "" {
		source = string(types.SourceSubtitle)
	}

	lines := []string{
		"# " + titleOf(doc),
		"",
		fmt.Sprintf("- 平台: `%s`", platform),
		fmt.Sprintf("- 来源: `%s`", source),
		fmt.Sprintf("- UP主/作者: `%s`", ownerOf(doc)),
		fmt.Sprintf("- 时长: `%s`", formatDuration(doc.VideoInfo.Duration)),
		"",
		"## 字幕内容",
		"",
	}

	first := doc.FirstPage()
	if len(first.Body) > 0 {
		for _, e := range first.Body {
			if text := util.CleanText(e.Text); text != "" {
				lines = append(lines, fmt.Sprintf("- [%s] %s", subtitle.FormatTimestamp(e.Start, subtitle.StylePlain), text))
			}
		}
	} else {
		for _, line := range strings.Split(first.Subtitles, "\n") {
			if text := subtitle.StripTimestamps(line); text != "" {
				lines = append(lines, "- "+text)
			}
		}
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \n") + "\n"
}

func BuildSummaryMarkdown(summary string, doc *types.SubtitleDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - 视频总结\n\n", titleOf(doc))
	fmt.Fprintf(&b, "**UP主**: %s\n", ownerOf(doc))
	fmt.Fprintf(&b, "**时长**: %s\n\n", formatDuration(doc.VideoInfo.Duration))
	b.WriteString(summary)
	return b.String()
}

// ReadSummary returns the summary text of a file written by SaveSummary.
func ReadSummary(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeFileNotFound, apperrors.ErrFileNotFound.Message, err)
	}
	content := string(data)
	if i := strings.Index(content, "**时长**"); i >= 0 {
		if j := strings.Index(content[i:], "\n\n"); j >= 0 {
			return strings.TrimSpace(content[i+j:]), nil
		}
	}
	return strings.TrimSpace(content), nil
}

func writeOutputFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(apperrors.CodeFileWriteError, "创建输出目录失败 Failed to create output dir", err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return apperrors.Wrap(apperrors.CodeFileWriteError, "写入文件失败 Failed to write file", err)
	}
	log.GetLogger().Info("文件已保存 File saved", zap.String("path", path))
	return nil
}

func (s *Service) SaveSubtitleFile(doc *types.SubtitleDocument, path string) error {
	return writeOutputFile(path, []byte(BuildSubtitleFile(doc)))
}

func (s *Service) SaveSubtitleMarkdown(doc *types.SubtitleDocument, path string) error {
	return writeOutputFile(path, []byte(BuildSubtitleMarkdown(doc)))
}

// SaveSubtitleJSON writes the structured dump, indented and without HTML escaping.
func (s *Service) SaveSubtitleJSON(doc *types.SubtitleDocument, path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.RenderStructuredDump(doc)); err != nil {
		return apperrors.Wrap(apperrors.CodeFileWriteError, "序列化字幕失败 Failed to encode subtitles", err)
	}
	return writeOutputFile(path, buf.Bytes())
}

func (s *Service) SaveSummary(summary string, doc *types.SubtitleDocument, path string) error {
	return writeOutputFile(path, []byte(BuildSummaryMarkdown(summary, doc)))
}

// SaveSubtitlePair writes the subtitle file and its Markdown reading version.
func (s *Service) SaveSubtitlePair(doc *types.SubtitleDocument, subtitlePath, mdPath string) error {
	var g errgroup.Group
	g.Go(func() error { return s.SaveSubtitleFile(doc, subtitlePath) })
	g.Go(func() error { return s.SaveSubtitleMarkdown(doc, mdPath) })
	return g.Wait()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
