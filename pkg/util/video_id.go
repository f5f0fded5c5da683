package util

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	bilibiliVideoIdPatterns = []*regexp.Regexp{
		regexp.MustCompile(`https://www\.bilibili\.com/video/(BV[a-zA-Z0-9]+)`),
		regexp.MustCompile(`https://www\.bilibili\.com/video/(av\d+)`),
		regexp.MustCompile(`(BV[a-zA-Z0-9]+)`),
		regexp.MustCompile(`(av\d+)`),
	}

	bvIdentifierRe     = regexp.MustCompile(`(BV[a-zA-Z0-9]+)`)
	ytQueryIdentifier  = regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{6,})`)
	ytShortIdentifier  = regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{6,})`)
	ytShortsIdentifier = regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{6,})`)
)

// GetBilibiliVideoId returns the BV or av identifier found in link, or "".
func GetBilibiliVideoId(link string) string {
	for _, re := range bilibiliVideoIdPatterns {
		if m := re.FindStringSubmatch(link); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// GetYouTubeID extracts the video id from watch, youtu.be and shorts links.
func GetYouTubeID(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Host)
	path := u.Path

	switch {
	case strings.Contains(host, "youtu.be"):
		return strings.Split(strings.Trim(path, "/"), "/")[0], nil
	case strings.Contains(host, "youtube.com"):
		if path == "/watch" {
			return u.Query().Get("v"), nil
		}
		if strings.HasPrefix(path, "/shorts/") {
			parts := strings.Split(path, "/")
			if len(parts) > 2 {
				return parts[2], nil
			}
		}
	}
	return "", nil
}

// ExtractUrlIdentifier returns a stable id for cache keys and output names:
// the BV id first, then a YouTube id; "" when neither is present.
func ExtractUrlIdentifier(link string) string {
	for _, re := range []*regexp.Regexp{bvIdentifierRe, ytQueryIdentifier, ytShortIdentifier, ytShortsIdentifier} {
		if m := re.FindStringSubmatch(link); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
