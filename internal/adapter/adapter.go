// Package adapter turns a video link into a SubtitleBundle. Every adapter
// fails soft: Fetch only ever returns not-available AppErrors and never panics.
package adapter

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
)

type Adapter interface {
	Name() types.Platform
	// Matches is a cheap pattern check, it never touches the network.
	Matches(url string) bool
	Fetch(ctx context.Context, url string) (*types.SubtitleBundle, error)
}

// Find returns the first adapter, in registration order, that matches url.
func Find(adapters []Adapter, url string) (Adapter, bool) {
	return lo.Find(adapters, func(a Adapter) bool { return a.Matches(url) })
}

// recoverNotAvailable converts a panic inside Fetch into a not-available error.
func recoverNotAvailable(platform types.Platform, err *error) {
	if r := recover(); r != nil {
		log.GetLogger().Error("字幕获取出现异常 Adapter panicked", zap.String("platform", string(platform)), zap.Any("panic", r))
		*err = apperrors.Wrap(apperrors.CodeSubtitleNotFound, apperrors.ErrSubtitleNotFound.Message, fmt.Errorf("panic: %v", r))
	}
}

// notAvailable keeps not-available errors as they are and folds anything else
// into CodeSubtitleNotFound.
func notAvailable(err error) error {
	if err == nil || apperrors.IsNotAvailable(err) {
		return err
	}
	return apperrors.Wrap(apperrors.CodeSubtitleNotFound, apperrors.ErrSubtitleNotFound.Message, err)
}

// finish applies the empty body guard shared by all platforms.
func finish(bundle *types.SubtitleBundle) (*types.SubtitleBundle, error) {
	if bundle == nil || len(bundle.Events) == 0 {
		return nil, apperrors.WrapWithDetail(apperrors.CodeSubtitleNotFound, apperrors.ErrSubtitleNotFound.Message,
			"字幕内容为空 subtitle body is empty", nil)
	}
	log.GetLogger().Info("字幕获取成功 Subtitles fetched",
		zap.String("platform", string(bundle.Platform)),
		zap.String("title", bundle.VideoTitle),
		zap.String("language", bundle.TrackMeta.LanguageCode),
		zap.Int("events", len(bundle.Events)))
	return bundle, nil
}
