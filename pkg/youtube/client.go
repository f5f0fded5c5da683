// Package youtube scrapes caption tracks from a watch page and downloads them
// in the json3 transcript format.
package youtube

import (
	"cmp"
	"context"
	"fmt"
	"html"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
	"video-summary/pkg/util"
)

const (
	DefaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// fallbackSpan is used when an event has no duration.
	fallbackSpan = 1.5
)

// playerResponseMarkers are tried in order; the quoted key form shows up in
// pages that embed the state inside a larger object.
var playerResponseMarkers = []string{
	"ytInitialPlayerResponse = ",
	`"ytInitialPlayerResponse":`,
}

// LanguagePreference orders human-authored tracks by language prefix;
// unlisted languages sort last.
var LanguagePreference = []string{"zh", "en"}

type Client struct {
	httpClient *resty.Client
	baseURL    string
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.SetTimeout(d)
		}
	}
}

func WithProxy(proxy string) Option {
	return func(c *Client) {
		if proxy != "" {
			c.httpClient.SetProxy(proxy)
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8"),
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type VideoDetails struct {
	Title         string
	Author        string
	Description   string
	LengthSeconds int
}

type CaptionTrack struct {
	LanguageCode string
	Name         string
	Kind         string
	BaseURL      string
}

func (t CaptionTrack) IsASR() bool {
	return t.Kind == "asr"
}

func (c *Client) WatchURL(videoID string) string {
	return c.baseURL + "/watch?v=" + url.QueryEscape(videoID)
}

// FetchWatchPage returns the raw watch page markup.
func (c *Client) FetchWatchPage(ctx context.Context, videoID string) (string, error) {
	resp, err := c.httpClient.R().SetContext(ctx).Get(c.WatchURL(videoID))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeNetwork, "获取YouTube页面失败 Failed to fetch watch page", err)
	}
	if resp.IsError() {
		return "", apperrors.Wrap(apperrors.CodeNetwork, "获取YouTube页面失败 Failed to fetch watch page",
			fmt.Errorf("HTTP %d", resp.StatusCode()))
	}
	return resp.String(), nil
}

// ExtractPlayerResponse locates the embedded player state. The second marker
// is only tried when the first gives no parseable object.
func ExtractPlayerResponse(page string) (map[string]any, bool) {
	for _, marker := range playerResponseMarkers {
		raw, ok := util.ExtractJsonObjectByMarker(page, marker)
		if !ok {
			continue
		}
		doc, err := util.DecodeLoose([]byte(raw))
		if err != nil {
			log.GetLogger().Debug("播放器数据解析失败 Player response not parseable", zap.String("marker", marker), zap.Error(err))
			continue
		}
		return doc, true
	}
	return nil, false
}

func ParseVideoDetails(playerResponse map[string]any) VideoDetails {
	details := util.AsMap(playerResponse["videoDetails"])
	return VideoDetails{
		Title:         util.AsString(details["title"]),
		Author:        util.AsString(details["author"]),
		Description:   util.AsString(details["shortDescription"]),
		LengthSeconds: int(util.AsInt64(details["lengthSeconds"])),
	}
}

func ParseCaptionTracks(playerResponse map[string]any) []CaptionTrack {
	raw := util.AsSlice(util.Dig(playerResponse, "captions", "playerCaptionsTracklistRenderer", "captionTracks"))
	return lo.FilterMap(raw, func(item any, _ int) (CaptionTrack, bool) {
		name := util.AsString(util.Dig(item, "name", "simpleText"))
		if name == "" {
			if runs := util.AsSlice(util.Dig(item, "name", "runs")); len(runs) > 0 {
				name = util.AsString(util.Dig(runs[0], "text"))
			}
		}
		t := CaptionTrack{
			LanguageCode: util.AsString(util.Dig(item, "languageCode")),
			Name:         name,
			Kind:         util.AsString(util.Dig(item, "kind")),
			BaseURL:      util.AsString(util.Dig(item, "baseUrl")),
		}
		return t, t.BaseURL != ""
	})
}

func languageRank(code string) int {
	for i, prefix := range LanguagePreference {
		if strings.HasPrefix(code, prefix) {
			return i
		}
	}
	return 99
}

// PickCaptionTrack sorts human-authored tracks before ASR ones, then by
// LanguagePreference, keeping the original order for ties.
func PickCaptionTrack(tracks []CaptionTrack) (CaptionTrack, bool) {
	if len(tracks) == 0 {
		return CaptionTrack{}, false
	}
	sorted := slices.Clone(tracks)
	slices.SortStableFunc(sorted, func(a, b CaptionTrack) int {
		return cmp.Or(
			cmp.Compare(lo.Ternary(a.IsASR(), 1, 0), lo.Ternary(b.IsASR(), 1, 0)),
			cmp.Compare(languageRank(a.LanguageCode), languageRank(b.LanguageCode)),
		)
	})
	return sorted[0], true
}

// EnsureJSON3URL unescapes a track base URL and forces fmt=json3, keeping the
// other query parameters.
func EnsureJSON3URL(raw string) string {
	cleaned := html.UnescapeString(strings.ReplaceAll(raw, `\u0026`, "&"))
	u, err := url.Parse(cleaned)
	if err != nil {
		sep := lo.Ternary(strings.Contains(cleaned, "?"), "&", "?")
		return cleaned + sep + "fmt=json3"
	}
	q := u.Query()
	q.Set("fmt", "json3")
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchTranscript downloads a json3 transcript and converts it to caption events.
func (c *Client) FetchTranscript(ctx context.Context, baseURL string) ([]types.CaptionEvent, error) {
	target := EnsureJSON3URL(baseURL)
	if strings.HasPrefix(target, "/") {
		target = c.baseURL + target
	}

	resp, err := c.httpClient.R().SetContext(ctx).Get(target)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNetwork, "下载YouTube字幕失败 Failed to download transcript", err)
	}
	if resp.IsError() {
		return nil, apperrors.Wrap(apperrors.CodeNetwork, "下载YouTube字幕失败 Failed to download transcript",
			fmt.Errorf("HTTP %d", resp.StatusCode()))
	}
	events, err := ParseJSON3(resp.Body())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedResponse, "YouTube字幕解析失败 Malformed transcript", err)
	}
	return events, nil
}

// ParseJSON3 turns {"events": [{"tStartMs", "dDurationMs", "segs": [{"utf8"}]}]}
// into caption events. Events without segments or with empty text are dropped.
func ParseJSON3(data []byte) ([]types.CaptionEvent, error) {
	doc, err := util.DecodeLoose(data)
	if err != nil {
		return nil, err
	}

	events := lo.FilterMap(util.AsSlice(doc["events"]), func(item any, _ int) (types.CaptionEvent, bool) {
		segs := util.AsSlice(util.Dig(item, "segs"))
		if len(segs) == 0 {
			return types.CaptionEvent{}, false
		}
		var b strings.Builder
		for _, seg := range segs {
			b.WriteString(util.AsString(util.Dig(seg, "utf8")))
		}
		text := util.CleanText(strings.ReplaceAll(b.String(), "\n", " "))
		if text == "" {
			return types.CaptionEvent{}, false
		}

		start := max(util.AsFloat(util.Dig(item, "tStartMs"))/1000, 0)
		span := util.AsFloat(util.Dig(item, "dDurationMs")) / 1000
		if span <= 0 {
			span = fallbackSpan
		}
		return types.CaptionEvent{Start: start, End: start + span, Text: text}, true
	})
	return events, nil
}
