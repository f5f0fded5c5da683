package types

import "strings"

type Platform string

const (
	PlatformBilibili Platform = "bilibili"
	PlatformYoutube  Platform = "youtube"
)

// AcquisitionSource records how the caption body was obtained.
type AcquisitionSource string

const (
	SourceSubtitle   AcquisitionSource = "subtitle"
	SourceDirectLink AcquisitionSource = "direct-link"
)

type SubtitleFormat string

const (
	SubtitleFormatText SubtitleFormat = "txt"
	SubtitleFormatSrt  SubtitleFormat = "srt"
	SubtitleFormatVtt  SubtitleFormat = "vtt"
	SubtitleFormatLrc  SubtitleFormat = "lrc"
)

// ParseSubtitleFormat maps user input onto a known format. "text" is accepted
// as an alias of "txt"; anything unrecognized falls back to plain text.
func ParseSubtitleFormat(s string) SubtitleFormat {
	switch SubtitleFormat(strings.ToLower(strings.TrimSpace(s))) {
	case SubtitleFormatSrt:
		return SubtitleFormatSrt
	case SubtitleFormatVtt:
		return SubtitleFormatVtt
	case SubtitleFormatLrc:
		return SubtitleFormatLrc
	default:
		return SubtitleFormatText
	}
}

// IsStructured reports whether the format is a standard timed-subtitle file
// that must be written verbatim.
func (f SubtitleFormat) IsStructured() bool {
	return f == SubtitleFormatSrt || f == SubtitleFormatVtt || f == SubtitleFormatLrc
}

// CaptionEvent is one timed caption line in seconds.
type CaptionEvent struct {
	Start float64 `json:"from"`
	End   float64 `json:"to"`
	Text  string  `json:"content"`
}

// CaptionTrackMeta describes the caption track that was selected.
type CaptionTrackMeta struct {
	LanguageCode       string `json:"lan"`
	LanguageLabel      string `json:"lan_doc"`
	IsMachineGenerated bool   `json:"is_ai"`
	Kind               string `json:"kind,omitempty"`
}

// SubtitleBundle is the normalized output of one adapter fetch.
type SubtitleBundle struct {
	Platform        Platform          `json:"platform"`
	VideoTitle      string            `json:"title"`
	Author          string            `json:"owner"`
	DurationSeconds int               `json:"duration"`
	Description     string            `json:"description"`
	TrackMeta       CaptionTrackMeta  `json:"subtitle_meta"`
	Events          []CaptionEvent    `json:"body"`
	Source          AcquisitionSource `json:"source"`
}

type VideoInfo struct {
	Title       string `json:"title"`
	Owner       string `json:"owner"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
}

// SubtitlePage is the rendered subtitle text of one page plus the events it
// was rendered from, so secondary renders never need a re-fetch.
type SubtitlePage struct {
	Page         int               `json:"page"`
	Part         string            `json:"part"`
	Title        string            `json:"title"`
	Subtitles    string            `json:"subtitles"`
	Body         []CaptionEvent    `json:"body"`
	Source       AcquisitionSource `json:"source"`
	Format       SubtitleFormat    `json:"format"`
	Language     string            `json:"language"`
	LanguageName string            `json:"language_name"`
	IsAI         bool              `json:"is_ai"`
}

// SubtitleDocument is the uniform result handed to callers and persisted in the cache.
type SubtitleDocument struct {
	VideoInfo VideoInfo         `json:"video_info"`
	Subtitles []SubtitlePage    `json:"subtitles"`
	Source    AcquisitionSource `json:"source"`
	Platform  Platform          `json:"platform"`
}

// FirstPage returns the first subtitle page, or a zero page when none exist.
func (d *SubtitleDocument) FirstPage() SubtitlePage {
	if d == nil || len(d.Subtitles) == 0 {
		return SubtitlePage{}
	}
	return d.Subtitles[0]
}
