package appdirs

import (
	"path/filepath"
	"strings"
)

const (
	SubtitleRootName = "subtitles"
	SummaryRootName  = "summaries"
	dbFileName       = "video-summary.db"
)

// SubtitleRootFor is where rendered subtitle, reading and dump files go.
func SubtitleRootFor(paths Paths) string {
	return filepath.Join(cleanOr(paths.OutputDir, "."), SubtitleRootName)
}

func SummaryRootFor(paths Paths) string {
	return filepath.Join(cleanOr(paths.OutputDir, "."), SummaryRootName)
}

// DBPathFor is the sqlite file holding the subtitle cache and chat sessions.
func DBPathFor(paths Paths) string {
	return filepath.Join(cleanOr(paths.CacheDir, "cache"), dbFileName)
}

func cleanOr(dir, fallback string) string {
	if dir = strings.TrimSpace(dir); dir == "" {
		return fallback
	}
	return filepath.Clean(dir)
}
