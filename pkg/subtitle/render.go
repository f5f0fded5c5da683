package subtitle

import (
	"fmt"
	"strconv"
	"strings"

	"video-summary/internal/types"
)

// Render encodes events in the requested format. Unknown formats fall back to
// plain text. Events are rendered in the order given; an end before its start
// is clamped to the start. An empty event list renders to "".
func Render(events []types.CaptionEvent, format types.SubtitleFormat) string {
	if len(events) == 0 {
		return ""
	}
	switch format {
	case types.SubtitleFormatSrt:
		return renderSrt(events)
	case types.SubtitleFormatVtt:
		return renderVtt(events)
	case types.SubtitleFormatLrc:
		return renderLrc(events)
	default:
		return renderText(events)
	}
}

func clampedEnd(e types.CaptionEvent) float64 {
	if e.End < e.Start {
		return e.Start
	}
	return e.End
}

func renderText(events []types.CaptionEvent) string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("[%s - %s] %s",
			FormatTimestamp(e.Start, StylePlain), FormatTimestamp(clampedEnd(e), StylePlain), e.Text))
	}
	return strings.Join(lines, "\n")
}

func renderSrt(events []types.CaptionEvent) string {
	lines := make([]string, 0, len(events)*4)
	for i, e := range events {
		lines = append(lines,
			strconv.Itoa(i+1),
			FormatTimestamp(e.Start, StyleSrt)+" --> "+FormatTimestamp(clampedEnd(e), StyleSrt),
			e.Text,
			"",
		)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func renderVtt(events []types.CaptionEvent) string {
	lines := make([]string, 0, len(events)*3+2)
	lines = append(lines, "WEBVTT", "")
	for _, e := range events {
		lines = append(lines,
			FormatTimestamp(e.Start, StyleVtt)+" --> "+FormatTimestamp(clampedEnd(e), StyleVtt),
			e.Text,
			"",
		)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func renderLrc(events []types.CaptionEvent) string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("[%s] %s", FormatTimestamp(e.Start, StyleLrc), e.Text))
	}
	return strings.Join(lines, "\n")
}
