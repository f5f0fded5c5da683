// Package bilibili talks to the Bilibili web API: video metadata, the caption
// track list and the caption payload on the subtitle CDN.
package bilibili

import (
	"context"
	"fmt"
	"net/http"
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
	DefaultApiBase      = "https://api.bilibili.com"
	DefaultSubtitleHost = "https://aisubtitle.hdslb.com"
	// DirectLinkMarker identifies a link that already points at an AI caption payload.
	DirectLinkMarker = "aisubtitle.hdslb.com/bfs/ai_subtitle/"

	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	siteURL   = "https://www.bilibili.com"
)

type Client struct {
	httpClient   *resty.Client
	apiBase      string
	subtitleHost string
	cookies      func() map[string]string
}

type Option func(*Client)

// WithApiBase points the client at another API host, tests use an httptest server.
func WithApiBase(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimRight(base, "/") }
}

func WithSubtitleHost(host string) Option {
	return func(c *Client) { c.subtitleHost = strings.TrimRight(host, "/") }
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

// WithCookies sets the cookie lookup. It is called on every request, callers
// memoize it.
func WithCookies(fn func() map[string]string) Option {
	return func(c *Client) { c.cookies = fn }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   resty.New().SetTimeout(30 * time.Second),
		apiBase:      DefaultApiBase,
		subtitleHost: DefaultSubtitleHost,
		cookies:      func() map[string]string { return nil },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VideoRef holds the identifier found in a link. Exactly one field is set.
type VideoRef struct {
	Bvid string
	Aid  string // numeric part only
}

// ParseVideoRef accepts "BV..." and "av123" identifiers.
func ParseVideoRef(id string) (VideoRef, bool) {
	switch {
	case strings.HasPrefix(id, "BV") && len(id) > 2:
		return VideoRef{Bvid: id}, true
	case strings.HasPrefix(strings.ToLower(id), "av") && len(id) > 2:
		return VideoRef{Aid: id[2:]}, true
	}
	return VideoRef{}, false
}

type VideoInfo struct {
	Bvid        string
	Aid         string
	Cid         string
	Title       string
	Owner       string
	Description string
	Duration    int
}

type Track struct {
	Lan         string
	LanDoc      string
	SubtitleURL string
}

func (t Track) IsAI() bool {
	return strings.Contains(strings.ToLower(t.Lan), "ai")
}

type Payload struct {
	Lang   string
	Events []types.CaptionEvent
}

func browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      UserAgent,
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		"Referer":         siteURL,
	}
}

func (c *Client) cookieList() []*http.Cookie {
	if c.cookies == nil {
		return nil
	}
	cookies := c.cookies()
	names := lo.Keys(cookies)
	slices.Sort(names)
	return lo.Map(names, func(name string, _ int) *http.Cookie {
		return &http.Cookie{Name: name, Value: cookies[name]}
	})
}

// getAPI issues an authenticated API call and decodes the JSON envelope.
func (c *Client) getAPI(ctx context.Context, path string, params map[string]string) (map[string]any, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(browserHeaders()).
		SetCookies(c.cookieList()).
		SetQueryParams(params).
		Get(c.apiBase + path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNetwork, "请求B站API失败 Bilibili API request failed", err)
	}
	if resp.IsError() {
		return nil, apperrors.WrapWithDetail(apperrors.CodeNetwork, "请求B站API失败 Bilibili API request failed",
			path, fmt.Errorf("HTTP %d", resp.StatusCode()))
	}
	doc, err := util.DecodeLoose(resp.Body())
	if err != nil {
		return nil, apperrors.WrapWithDetail(apperrors.CodeMalformedResponse, "B站API响应解析失败 Malformed Bilibili API response", path, err)
	}
	return doc, nil
}

// GetVideoInfo fetches /x/web-interface/view. A non-zero code in the body is
// reported as ErrVideoNotFound whatever the HTTP status was.
func (c *Client) GetVideoInfo(ctx context.Context, ref VideoRef) (*VideoInfo, error) {
	params := map[string]string{}
	if ref.Bvid != "" {
		params["bvid"] = ref.Bvid
	} else {
		params["aid"] = ref.Aid
	}

	doc, err := c.getAPI(ctx, "/x/web-interface/view", params)
	if err != nil {
		return nil, err
	}
	if code := util.AsCode(doc["code"]); code != 0 {
		log.GetLogger().Warn("获取视频信息失败 Video info request rejected",
			zap.Int64("code", code), zap.String("message", util.AsString(doc["message"])))
		return nil, apperrors.WrapWithDetail(apperrors.CodeVideoNotFound, apperrors.ErrVideoNotFound.Message,
			util.AsString(doc["message"]), nil)
	}
	data := util.AsMap(doc["data"])
	if data == nil {
		return nil, apperrors.ErrMalformedResponse
	}

	info := &VideoInfo{
		Bvid:        lo.Ternary(util.AsString(data["bvid"]) != "", util.AsString(data["bvid"]), ref.Bvid),
		Aid:         lo.Ternary(util.AsString(data["aid"]) != "", util.AsString(data["aid"]), ref.Aid),
		Title:       util.AsString(data["title"]),
		Owner:       util.AsString(util.Dig(data, "owner", "name")),
		Description: util.AsString(data["desc"]),
		Duration:    int(util.AsInt64(data["duration"])),
	}
	if pages := util.AsSlice(data["pages"]); len(pages) > 0 {
		info.Cid = util.AsString(util.Dig(pages[0], "cid"))
	}
	if info.Cid == "" {
		info.Cid = util.AsString(data["cid"])
	}
	return info, nil
}

type playerCandidate struct {
	Path   string
	Params []string
}

// PlayerCandidates is the ordered fallback chain for the caption track list.
// Which endpoint answers depends on account and risk-control state.
var PlayerCandidates = []playerCandidate{
	{Path: "/x/player/wbi/v2", Params: []string{"aid", "cid"}},
	{Path: "/x/player/wbi/v2", Params: []string{"bvid", "cid"}},
	{Path: "/x/player/v2", Params: []string{"aid", "cid"}},
	{Path: "/x/player/v2", Params: []string{"bvid", "cid"}},
}

// resolve fills the candidate's parameters; ok is false when one is missing.
func (p playerCandidate) resolve(values map[string]string) (map[string]string, bool) {
	params := make(map[string]string, len(p.Params))
	for _, name := range p.Params {
		v := values[name]
		if v == "" || v == "0" {
			return nil, false
		}
		params[name] = v
	}
	return params, true
}

// ListSubtitles walks PlayerCandidates and returns the tracks of the first
// candidate that answers code 0 with at least one downloadable track.
func (c *Client) ListSubtitles(ctx context.Context, info *VideoInfo) ([]Track, error) {
	values := map[string]string{"aid": info.Aid, "bvid": info.Bvid, "cid": info.Cid}

	attempted, transient := 0, 0
	var lastErr error
	for i, cand := range PlayerCandidates {
		params, ok := cand.resolve(values)
		if !ok {
			log.GetLogger().Debug("跳过字幕接口候选 Skipping player candidate", zap.Int("candidate", i+1), zap.String("path", cand.Path))
			continue
		}
		attempted++

		tracks, err := c.tryPlayer(ctx, cand.Path, params)
		if err != nil {
			lastErr = err
			if apperrors.IsTransient(err) {
				transient++
			}
			log.GetLogger().Info("字幕接口候选失败 Player candidate failed",
				zap.Int("candidate", i+1), zap.String("path", cand.Path), zap.Error(err))
			continue
		}
		log.GetLogger().Debug("字幕接口候选命中 Player candidate succeeded",
			zap.Int("candidate", i+1), zap.String("path", cand.Path), zap.Int("tracks", len(tracks)))
		return tracks, nil
	}

	if attempted > 0 && transient == attempted {
		return nil, apperrors.Wrap(apperrors.CodeNetwork, "所有字幕接口请求失败 All player candidates failed", lastErr)
	}
	return nil, apperrors.ErrSubtitleNotFound
}

func (c *Client) tryPlayer(ctx context.Context, path string, params map[string]string) ([]Track, error) {
	doc, err := c.getAPI(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if code := util.AsCode(doc["code"]); code != 0 {
		return nil, apperrors.WrapWithDetail(apperrors.CodeSubtitleNotFound, "字幕接口返回错误 Player API rejected request",
			fmt.Sprintf("code=%d message=%s", code, util.AsString(doc["message"])), nil)
	}

	tracks := lo.FilterMap(util.AsSlice(util.Dig(doc, "data", "subtitle", "subtitles")), func(item any, _ int) (Track, bool) {
		t := Track{
			Lan:         util.AsString(util.Dig(item, "lan")),
			LanDoc:      util.AsString(util.Dig(item, "lan_doc")),
			SubtitleURL: util.AsString(util.Dig(item, "subtitle_url")),
		}
		return t, t.SubtitleURL != ""
	})
	if len(tracks) == 0 {
		return nil, apperrors.ErrSubtitleNotFound
	}
	return tracks, nil
}

// PickTrack prefers an AI track. substituted is true when none exists and the
// first track was taken instead.
func PickTrack(tracks []Track) (track Track, substituted bool) {
	if t, ok := lo.Find(tracks, Track.IsAI); ok {
		return t, false
	}
	if len(tracks) == 0 {
		return Track{}, true
	}
	return tracks[0], true
}

// NormalizeSubtitleURL makes protocol-relative and host-relative URLs absolute.
func NormalizeSubtitleURL(raw, host string) string {
	switch {
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return strings.TrimRight(host, "/") + raw
	}
	return raw
}

func (c *Client) NormalizeSubtitleURL(raw string) string {
	return NormalizeSubtitleURL(raw, c.subtitleHost)
}

func IsDirectLink(link string) bool {
	return strings.Contains(link, DirectLinkMarker)
}

type downloadStrategy struct {
	name    string
	prepare func(c *Client, r *resty.Request)
}

// downloadStrategies are tried in order, the CDN checks headers and referrer
// inconsistently between deployments.
var downloadStrategies = []downloadStrategy{
	{name: "browser", prepare: func(c *Client, r *resty.Request) {
		r.SetHeaders(browserHeaders()).
			SetHeader("Referer", siteURL+"/").
			SetHeader("Origin", siteURL).
			SetCookies(c.cookieList())
	}},
	{name: "user-agent", prepare: func(_ *Client, r *resty.Request) {
		r.SetHeader("User-Agent", UserAgent)
	}},
	{name: "bare", prepare: func(*Client, *resty.Request) {}},
}

// Download fetches a caption payload, trying each header strategy in turn.
func (c *Client) Download(ctx context.Context, rawURL string) (*Payload, error) {
	subtitleURL := c.NormalizeSubtitleURL(rawURL)

	var lastErr error
	malformed := false
	for _, s := range downloadStrategies {
		req := c.httpClient.R().SetContext(ctx)
		s.prepare(c, req)

		resp, err := req.Get(subtitleURL)
		if err != nil {
			lastErr, malformed = err, false
			log.GetLogger().Debug("字幕下载失败 Subtitle download failed", zap.String("strategy", s.name), zap.Error(err))
			continue
		}
		if resp.StatusCode() != http.StatusOK {
			lastErr, malformed = fmt.Errorf("HTTP %d", resp.StatusCode()), false
			log.GetLogger().Debug("字幕下载失败 Subtitle download failed", zap.String("strategy", s.name), zap.Int("status", resp.StatusCode()))
			continue
		}
		payload, err := ParsePayload(resp.Body())
		if err != nil {
			lastErr, malformed = err, true
			log.GetLogger().Debug("字幕内容解析失败 Subtitle payload malformed", zap.String("strategy", s.name),
				zap.String("body", util.TruncateRunes(string(resp.Body()), 200)), zap.Error(err))
			continue
		}
		return payload, nil
	}

	switch {
	case lastErr != nil && strings.Contains(lastErr.Error(), "403"):
		log.GetLogger().Warn("字幕下载被拒绝，auth_key可能已过期 Subtitle download forbidden, auth_key likely expired",
			zap.String("url", subtitleURL))
		return nil, apperrors.Wrap(apperrors.CodeCookiesExpired, "字幕链接授权已过期 Subtitle link authorization expired", lastErr)
	case malformed:
		return nil, apperrors.Wrap(apperrors.CodeMalformedResponse, "字幕内容解析失败 Malformed subtitle payload", lastErr)
	default:
		return nil, apperrors.Wrap(apperrors.CodeNetwork, "字幕下载失败 Subtitle download failed", lastErr)
	}
}

// ParsePayload reads {"lang": ..., "body": [{"from", "to", "content"}]}.
// Items whose cleaned content is empty are dropped.
func ParsePayload(data []byte) (*Payload, error) {
	doc, err := util.DecodeLoose(data)
	if err != nil {
		return nil, fmt.Errorf("decode subtitle payload: %w", err)
	}
	body, ok := doc["body"].([]any)
	if !ok {
		return nil, fmt.Errorf("subtitle payload has no body")
	}

	events := lo.FilterMap(body, func(item any, _ int) (types.CaptionEvent, bool) {
		text := util.CleanText(util.AsString(util.Dig(item, "content")))
		start := max(util.AsFloat(util.Dig(item, "from")), 0)
		return types.CaptionEvent{
			Start: start,
			End:   max(util.AsFloat(util.Dig(item, "to")), start),
			Text:  text,
		}, text != ""
	})
	return &Payload{Lang: util.AsString(doc["lang"]), Events: events}, nil
}
