package subtitle

import (
	"math"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	testCases := []struct {
		name    string
		seconds float64
		style   TimestampStyle
		want    string
	}{
		{"plain zero", 0, StylePlain, "00:00:00"},
		{"plain truncates", 3661.9, StylePlain, "01:01:01"},
		{"plain unbounded hours", 360000, StylePlain, "100:00:00"},
		{"plain negative clamps", -5, StylePlain, "00:00:00"},
		{"srt millis", 1.5, StyleSrt, "00:00:01,500"},
		{"srt carries 1000ms", 1.9996, StyleSrt, "00:00:02,000"},
		{"srt carries into minute", 59.9999, StyleSrt, "00:01:00,000"},
		{"srt carries into hour", 3599.9999, StyleSrt, "01:00:00,000"},
		{"vtt uses period", 1.25, StyleVtt, "00:00:01.250"},
		{"vtt carries 1000ms", 1.9996, StyleVtt, "00:00:02.000"},
		{"lrc basic", 65.43, StyleLrc, "01:05.43"},
		{"lrc carries centis", 1.9996, StyleLrc, "00:02.00"},
		{"lrc carries into minute", 59.999, StyleLrc, "01:00.00"},
		{"lrc negative clamps", -1, StyleLrc, "00:00.00"},
		{"srt NaN clamps", math.NaN(), StyleSrt, "00:00:00,000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatTimestamp(tc.seconds, tc.style))
		})
	}
}

func TestFormatTimestampComponentsStayInRange(t *testing.T) {
	srtRe := regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)
	vttRe := regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})\.(\d{3})$`)
	plainRe := regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})$`)
	lrcRe := regexp.MustCompile(`^(\d{2,}):(\d{2})\.(\d{2})$`)

	atoi := func(s string) int {
		n, err := strconv.Atoi(s)
		require.NoError(t, err)
		return n
	}

	// step through values that sit right below whole-unit boundaries
	for base := 0; base < 7300; base += 59 {
		for _, frac := range []float64{0, 0.0004, 0.004, 0.005, 0.4996, 0.994, 0.995, 0.9994, 0.9995, 0.9999} {
			v := float64(base) + frac

			m := srtRe.FindStringSubmatch(FormatTimestamp(v, StyleSrt))
			require.NotNil(t, m, "srt %v", v)
			assert.LessOrEqual(t, atoi(m[2]), 59)
			assert.LessOrEqual(t, atoi(m[3]), 59)
			assert.LessOrEqual(t, atoi(m[4]), 999)

			m = vttRe.FindStringSubmatch(FormatTimestamp(v, StyleVtt))
			require.NotNil(t, m, "vtt %v", v)
			assert.LessOrEqual(t, atoi(m[3]), 59)

			m = plainRe.FindStringSubmatch(FormatTimestamp(v, StylePlain))
			require.NotNil(t, m, "plain %v", v)
			assert.LessOrEqual(t, atoi(m[3]), 59)

			m = lrcRe.FindStringSubmatch(FormatTimestamp(v, StyleLrc))
			require.NotNil(t, m, "lrc %v", v)
			assert.LessOrEqual(t, atoi(m[2]), 59)
			assert.LessOrEqual(t, atoi(m[3]), 99)
		}
	}
}
