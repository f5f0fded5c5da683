package adapter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
	"video-summary/pkg/util"
	"video-summary/pkg/youtube"
)

type YoutubeAdapter struct {
	client *youtube.Client
}

func NewYoutubeAdapter(opts ...youtube.Option) *YoutubeAdapter {
	return &YoutubeAdapter{client: youtube.NewClient(opts...)}
}

func (a *YoutubeAdapter) Name() types.Platform {
	return types.PlatformYoutube
}

func (a *YoutubeAdapter) Matches(url string) bool {
	return strings.Contains(url, "youtube.com/watch") ||
		strings.Contains(url, "youtu.be/") ||
		strings.Contains(url, "youtube.com/shorts/")
}

func (a *YoutubeAdapter) Fetch(ctx context.Context, url string) (bundle *types.SubtitleBundle, err error) {
	defer recoverNotAvailable(a.Name(), &err)

	bundle, err = a.fetch(ctx, url)
	if err != nil {
		log.GetLogger().Warn("YouTube字幕获取失败 YouTube subtitle unavailable", zap.String("url", url), zap.Error(err))
		return nil, notAvailable(err)
	}
	return finish(bundle)
}

func (a *YoutubeAdapter) fetch(ctx context.Context, url string) (*types.SubtitleBundle, error) {
	videoID, err := util.GetYouTubeID(url)
	if err != nil || videoID == "" {
		return nil, apperrors.WrapWithDetail(apperrors.CodeVideoNotFound, "无法从链接中解析视频ID Cannot parse video id", url, err)
	}

	page, err := a.client.FetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	playerResponse, ok := youtube.ExtractPlayerResponse(page)
	if !ok {
		return nil, apperrors.WrapWithDetail(apperrors.CodeMalformedResponse, "页面中未找到播放器数据 Player response not found", videoID, nil)
	}
	details := youtube.ParseVideoDetails(playerResponse)

	track, ok := youtube.PickCaptionTrack(youtube.ParseCaptionTracks(playerResponse))
	if !ok {
		return nil, apperrors.WrapWithDetail(apperrors.CodeSubtitleNotFound, apperrors.ErrSubtitleNotFound.Message, "no caption tracks", nil)
	}
	log.GetLogger().Debug("选择YouTube字幕轨道 Selected caption track",
		zap.String("language", track.LanguageCode), zap.String("kind", track.Kind))

	events, err := a.client.FetchTranscript(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}

	return &types.SubtitleBundle{
		Platform:        types.PlatformYoutube,
		VideoTitle:      details.Title,
		Author:          details.Author,
		DurationSeconds: details.LengthSeconds,
		Description:     details.Description,
		TrackMeta: types.CaptionTrackMeta{
			LanguageCode:       track.LanguageCode,
			LanguageLabel:      track.Name,
			IsMachineGenerated: track.IsASR(),
			Kind:               track.Kind,
		},
		Events: events,
		Source: types.SourceSubtitle,
	}, nil
}
