package adapter

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"video-summary/internal/credential"
	"video-summary/internal/types"
	"video-summary/log"
	"video-summary/pkg/bilibili"
	apperrors "video-summary/pkg/errors"
	"video-summary/pkg/util"
)

var bareBilibiliIdRe = regexp.MustCompile(`^(BV[a-zA-Z0-9]+|av\d+)$`)

const (
	directLinkTitle       = "Bilibili AI Subtitle"
	directLinkDescription = "字幕直链导入"
	directLinkLabel       = "AI字幕直链"
)

type BilibiliAdapter struct {
	client     *bilibili.Client
	cookies    *credential.Cell
	warnCookie sync.Once
}

// NewBilibiliAdapter reads cookies from source at most once per adapter.
func NewBilibiliAdapter(source credential.Source, opts ...bilibili.Option) *BilibiliAdapter {
	a := &BilibiliAdapter{cookies: credential.NewCell(source)}
	a.client = bilibili.NewClient(append([]bilibili.Option{bilibili.WithCookies(a.cookies.Get)}, opts...)...)
	return a
}

func (a *BilibiliAdapter) Name() types.Platform {
	return types.PlatformBilibili
}

func (a *BilibiliAdapter) Matches(url string) bool {
	return strings.Contains(url, "bilibili.com/video/") ||
		bilibili.IsDirectLink(url) ||
		bareBilibiliIdRe.MatchString(strings.TrimSpace(url))
}

func (a *BilibiliAdapter) Fetch(ctx context.Context, url string) (bundle *types.SubtitleBundle, err error) {
	defer recoverNotAvailable(a.Name(), &err)

	a.checkCookies()

	if bilibili.IsDirectLink(url) {
		bundle, err = a.fetchDirectLink(ctx, url)
	} else {
		bundle, err = a.fetchVideo(ctx, url)
	}
	if err != nil {
		log.GetLogger().Warn("B站字幕获取失败 Bilibili subtitle unavailable", zap.String("url", url), zap.Error(err))
		return nil, notAvailable(err)
	}
	return finish(bundle)
}

func (a *BilibiliAdapter) checkCookies() {
	a.warnCookie.Do(func() {
		cookies := a.cookies.Get()
		switch {
		case len(cookies) == 0:
			log.GetLogger().Warn("未配置B站Cookie，AI字幕可能无法获取 No Bilibili cookies configured, AI subtitles may be unavailable")
		case !credential.HasLoginState(cookies):
			log.GetLogger().Warn("B站Cookie缺少登录态 Bilibili cookies carry no login state", zap.Int("count", len(cookies)))
		}
	})
}

func (a *BilibiliAdapter) fetchVideo(ctx context.Context, url string) (*types.SubtitleBundle, error) {
	ref, ok := bilibili.ParseVideoRef(util.GetBilibiliVideoId(url))
	if !ok {
		return nil, apperrors.WrapWithDetail(apperrors.CodeVideoNotFound, "无法从链接中解析视频ID Cannot parse video id", url, nil)
	}

	info, err := a.client.GetVideoInfo(ctx, ref)
	if err != nil {
		return nil, err
	}

	tracks, err := a.client.ListSubtitles(ctx, info)
	if err != nil {
		return nil, err
	}

	track, substituted := bilibili.PickTrack(tracks)
	if substituted {
		log.GetLogger().Info("未找到AI字幕，使用第一个字幕 No AI track, using the first track",
			zap.String("lan", track.Lan), zap.String("lan_doc", track.LanDoc))
	}

	payload, err := a.client.Download(ctx, track.SubtitleURL)
	if err != nil {
		return nil, err
	}

	return &types.SubtitleBundle{
		Platform:        types.PlatformBilibili,
		VideoTitle:      info.Title,
		Author:          info.Owner,
		DurationSeconds: info.Duration,
		Description:     info.Description,
		TrackMeta: types.CaptionTrackMeta{
			LanguageCode:       track.Lan,
			LanguageLabel:      track.LanDoc,
			IsMachineGenerated: track.IsAI(),
		},
		Events: payload.Events,
		Source: types.SourceSubtitle,
	}, nil
}

// fetchDirectLink downloads a caption payload link and fills placeholder metadata.
func (a *BilibiliAdapter) fetchDirectLink(ctx context.Context, url string) (*types.SubtitleBundle, error) {
	payload, err := a.client.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	return &types.SubtitleBundle{
		Platform:    types.PlatformBilibili,
		VideoTitle:  directLinkTitle,
		Description: directLinkDescription,
		TrackMeta: types.CaptionTrackMeta{
			LanguageCode:       payload.Lang,
			LanguageLabel:      directLinkLabel,
			IsMachineGenerated: true,
		},
		Events: payload.Events,
		Source: types.SourceDirectLink,
	}, nil
}
