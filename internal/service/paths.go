package service

import (
	"path/filepath"
	"strings"

	"video-summary/internal/appdirs"
	"video-summary/internal/types"
	"video-summary/pkg/util"
)

var appDirsResolver = appdirs.Resolve

const maxOutputNameLen = 80

// OutputPaths are the files produced for one video.
type OutputPaths struct {
	Subtitle string
	Markdown string
	Json     string
	Summary  string
}

// OutputBaseName picks the file name stem: the video identifier when there is
// one, otherwise the sanitized title.
func OutputBaseName(identifier, title string) string {
	name := strings.TrimSpace(identifier)
	if name == "" {
		name = util.SanitizePathName(title, maxOutputNameLen)
	}
	name = string([]rune(name)[:min(len([]rune(name)), maxOutputNameLen)])
	if name == "" {
		name = "video"
	}
	return name
}

// ResolveOutputDir is the configured output directory, or the subtitle root
// under the application output dir when none is configured.
func (s *Service) ResolveOutputDir() (string, error) {
	if dir := strings.TrimSpace(s.OutputDir); dir != "" {
		return filepath.Clean(dir), nil
	}
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	return appdirs.SubtitleRootFor(dirs), nil
}

// SubtitleExt is the file extension for a rendered format.
func SubtitleExt(format types.SubtitleFormat) string {
	return "." + string(types.ParseSubtitleFormat(string(format)))
}

// OutputPathsFor derives the default output files for a video.
func (s *Service) OutputPathsFor(identifier, title string, format types.SubtitleFormat) (OutputPaths, error) {
	dir, err := s.ResolveOutputDir()
	if err != nil {
		return OutputPaths{}, err
	}
	base := filepath.Join(dir, OutputBaseName(identifier, title))
	return OutputPaths{
		Subtitle: base + "_subtitles" + SubtitleExt(format),
		Markdown: base + "_subtitles.md",
		Json:     base + "_subtitles.json",
		Summary:  base + "_summary.md",
	}, nil
}

// WithSuffix replaces the extension of path with ext unless it already has it.
func WithSuffix(path, ext string) string {
	if strings.EqualFold(filepath.Ext(path), ext) {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
