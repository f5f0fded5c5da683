// Package subtitle renders timed caption events into text, SRT, VTT and LRC
// and turns rendered subtitles back into prose.
package subtitle

import (
	"fmt"
	"math"
)

type TimestampStyle uint8

const (
	StylePlain TimestampStyle = iota // HH:MM:SS
	StyleSrt                         // HH:MM:SS,mmm
	StyleVtt                         // HH:MM:SS.mmm
	StyleLrc                         // MM:SS.xx
)

// FormatTimestamp renders an offset in seconds. Negative and NaN input is
// clamped to zero; rounding carries into the next unit so no component ever
// reaches 60 seconds, 1000 ms or 100 cs.
func FormatTimestamp(seconds float64, style TimestampStyle) string {
	switch style {
	case StyleSrt:
		return formatMillis(seconds, ',')
	case StyleVtt:
		return formatMillis(seconds, '.')
	case StyleLrc:
		return formatLrc(seconds)
	default:
		return formatPlain(seconds)
	}
}

func clampSeconds(seconds float64) float64 {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	return seconds
}

func splitHMS(total int64) (int64, int64, int64) {
	return total / 3600, (total % 3600) / 60, total % 60
}

func formatPlain(seconds float64) string {
	h, m, s := splitHMS(int64(clampSeconds(seconds)))
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatMillis is shared by SRT and VTT; only the delimiter differs.
func formatMillis(seconds float64, delim byte) string {
	safe := clampSeconds(seconds)
	whole := int64(safe)
	ms := int64(math.RoundToEven((safe - float64(whole)) * 1000))
	if ms >= 1000 {
		whole++
		ms = 0
	}
	h, m, s := splitHMS(whole)
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, delim, ms)
}

func formatLrc(seconds float64) string {
	safe := clampSeconds(seconds)
	minutes := int64(safe / 60)
	secFloat := math.Mod(safe, 60)
	secs := int64(secFloat)
	centis := int64(math.RoundToEven((secFloat - float64(secs)) * 100))
	if centis >= 100 {
		secs++
		centis = 0
	}
	if secs >= 60 {
		minutes++
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d.%02d", minutes, secs, centis)
}
