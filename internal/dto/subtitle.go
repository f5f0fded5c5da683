package dto

import "video-summary/internal/types"

type ExtractSubtitlesReq struct {
	Url    string `json:"url" binding:"required"`
	Format string `json:"format"` // txt, srt, vtt or lrc; defaults to the configured format
	// Save also writes the subtitle file and its Markdown reading version.
	Save bool `json:"save"`
}

type ExtractSubtitlesResData struct {
	Identifier   string                  `json:"identifier"`
	CacheHit     bool                    `json:"cache_hit"`
	Document     *types.SubtitleDocument `json:"document"`
	Reading      string                  `json:"reading"`
	SubtitlePath string                  `json:"subtitle_path,omitempty"`
	MarkdownPath string                  `json:"markdown_path,omitempty"`
}

type SummarizeReq struct {
	Url string `json:"url" binding:"required"`
}

type SummarizeResData struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	SummaryPath string `json:"summary_path"`
	// SessionId opens a chat about this summary; empty when no chat store is configured.
	SessionId string `json:"session_id,omitempty"`
}

type StartChatReq struct {
	Identifier string `json:"identifier"`
	Summary    string `json:"summary" binding:"required"`
}

type SendChatReq struct {
	Message string `json:"message" binding:"required"`
}

type SendChatResData struct {
	SessionId string `json:"session_id"`
	Reply     string `json:"reply"`
}

// ChatReq is a stateless chat turn; the caller keeps the history.
type ChatReq struct {
	Message string          `json:"message" binding:"required"`
	History []types.Message `json:"history"`
	Summary string          `json:"summary"`
}

type UploadCookieReq struct {
	Content string `json:"content" form:"content"`
}
