package subtitle

import (
	"regexp"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"video-summary/pkg/util"
)

var (
	indexLineRe   = regexp.MustCompile(`^\d+$`)
	rangePrefixRe = regexp.MustCompile(`^\[\d{2,}:\d{2}:\d{2} - \d{2,}:\d{2}:\d{2}\]\s*`)
	stampPrefixRe = regexp.MustCompile(`^\[\s*\d{1,2}:\d{2}(?::\d{2})?(?:[.,]\d{1,3})?\s*\]\s*`)
)

// StripTimestamps removes subtitle scaffolding from a single rendered line:
// pure index lines, "-->" range lines, the WEBVTT header and a leading
// bracketed time. Times inside the caption text are kept. It returns "" for
// lines that carry no text.
func StripTimestamps(line string) string {
	s := strings.TrimSpace(line)
	if s == "" || s == "WEBVTT" || indexLineRe.MatchString(s) || strings.Contains(s, "-->") {
		return ""
	}
	s = rangePrefixRe.ReplaceAllString(s, "")
	s = stampPrefixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ReadingLines converts rendered subtitle text of any format into the list of
// cleaned text lines it carries.
func ReadingLines(rendered string) []string {
	var out []string
	for _, line := range strings.Split(rendered, "\n") {
		clean := util.CleanText(StripTimestamps(line))
		if clean == "" {
			continue
		}
		out = append(out, clean)
	}
	return out
}

// FoldNearDuplicates drops a line when it is at least threshold similar to the
// line kept before it. Rolling ASR captions often repeat a sentence with one
// extra word, which only wastes prompt tokens.
func FoldNearDuplicates(lines []string, threshold float64) []string {
	if len(lines) == 0 {
		return lines
	}
	out := make([]string, 0, len(lines))
	out = append(out, lines[0])
	for _, line := range lines[1:] {
		prev := out[len(out)-1]
		if line == prev {
			continue
		}
		if threshold > 0 && threshold <= 1 &&
			levenshtein.RatioForStrings([]rune(prev), []rune(line), levenshtein.DefaultOptions) >= threshold {
			// keep the longer variant, it usually completes the sentence
			if len([]rune(line)) > len([]rune(prev)) {
				out[len(out)-1] = line
			}
			continue
		}
		out = append(out, line)
	}
	return out
}
