package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"video-summary/internal/adapter"
	"video-summary/internal/mocks"
	"video-summary/internal/types"
	apperrors "video-summary/pkg/errors"
)

type memCache struct {
	mu    sync.Mutex
	docs  map[string]*types.SubtitleDocument
	saves int
}

func newMemCache() *memCache {
	return &memCache{docs: map[string]*types.SubtitleDocument{}}
}

func (c *memCache) GetSubtitleCache(identifier string) (*types.SubtitleDocument, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[identifier]
	return doc, ok, nil
}

func (c *memCache) SaveSubtitleCache(identifier string, doc *types.SubtitleDocument) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[identifier] = doc
	c.saves++
	return nil
}

type memChats struct {
	sessions map[string]*types.ChatSession
}

func newMemChats() *memChats {
	return &memChats{sessions: map[string]*types.ChatSession{}}
}

func (c *memChats) CreateChatSession(session *types.ChatSession) error {
	c.sessions[session.SessionId] = session
	return nil
}

func (c *memChats) GetChatSession(sessionId string) (*types.ChatSession, error) {
	session, ok := c.sessions[sessionId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	return &copied, nil
}

func (c *memChats) AppendChatMessages(sessionId string, messages ...types.ChatMessage) error {
	c.sessions[sessionId].Messages = append(c.sessions[sessionId].Messages, messages...)
	return nil
}

func (c *memChats) DeleteChatSession(sessionId string) error {
	delete(c.sessions, sessionId)
	return nil
}

func sampleBundle() *types.SubtitleBundle {
	return &types.SubtitleBundle{
		Platform:        types.PlatformBilibili,
		VideoTitle:      "测试视频",
		Author:          "UP主",
		DurationSeconds: 125,
		Description:     "简介",
		TrackMeta:       types.CaptionTrackMeta{LanguageCode: "ai-zh", LanguageLabel: "中文（自动生成）", IsMachineGenerated: true},
		Events: []types.CaptionEvent{
			{Start: 0.5, End: 2, Text: "大家好"},
			{Start: 2, End: 4.25, Text: "今天聊聊字幕"},
		},
		Source: types.SourceSubtitle,
	}
}

func matchAll(string) bool { return true }

func newTestService(t *testing.T, adapters ...adapter.Adapter) *Service {
	t.Helper()
	return &Service{
		OutputDir:      t.TempDir(),
		MaxRetry:       3,
		RetryDelay:     time.Millisecond,
		AdapterFactory: func() []adapter.Adapter { return adapters },
	}
}

func TestExtractSubtitlesUnsupportedURL(t *testing.T) {
	svc := newTestService(t, &mocks.MockAdapter{Platform: types.PlatformYoutube})

	_, err := svc.ExtractSubtitles(context.Background(), "https://example.com/v/1", types.SubtitleFormatSrt)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnsupportedURL))
	assert.True(t, apperrors.IsNotAvailable(err))
}

func TestExtractSubtitlesUsesFirstMatchingAdapter(t *testing.T) {
	first := &mocks.MockAdapter{Platform: types.PlatformBilibili, MatchFunc: matchAll}
	second := &mocks.MockAdapter{Platform: types.PlatformYoutube, MatchFunc: matchAll}
	first.On("Fetch", mock.Anything, "BV1xx").Return(sampleBundle(), nil).Once()

	svc := newTestService(t, first, second)
	doc, err := svc.ExtractSubtitles(context.Background(), "  BV1xx ", types.SubtitleFormatSrt)
	require.NoError(t, err)

	first.AssertExpectations(t)
	second.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)

	assert.Equal(t, types.VideoInfo{Title: "测试视频", Owner: "UP主", Duration: 125, Description: "简介"}, doc.VideoInfo)
	assert.Equal(t, types.PlatformBilibili, doc.Platform)
	require.Len(t, doc.Subtitles, 1)
	page := doc.Subtitles[0]
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, "1", page.Part)
	assert.Equal(t, types.SubtitleFormatSrt, page.Format)
	assert.Equal(t, "ai-zh", page.Language)
	assert.True(t, page.IsAI)
	assert.Equal(t, "1\n00:00:00,500 --> 00:00:02,000\n大家好\n\n2\n00:00:02,000 --> 00:00:04,250\n今天聊聊字幕", page.Subtitles)
	assert.Len(t, page.Body, 2)
}

func TestExtractSubtitlesPassesNotAvailableThrough(t *testing.T) {
	a := &mocks.MockAdapter{Platform: types.PlatformYoutube, MatchFunc: matchAll}
	a.On("Fetch", mock.Anything, mock.Anything).Return(nil, apperrors.ErrSubtitleNotFound)

	_, err := newTestService(t, a).ExtractSubtitles(context.Background(), "https://youtu.be/abcdefg", types.SubtitleFormatText)
	assert.True(t, apperrors.Is(err, apperrors.CodeSubtitleNotFound))
}

func TestBuildDocumentUnknownFormatFallsBackToText(t *testing.T) {
	doc, err := BuildDocument(sampleBundle(), "ass")
	require.NoError(t, err)
	assert.Equal(t, types.SubtitleFormatText, doc.FirstPage().Format)
	assert.Equal(t, "[00:00:00 - 00:00:02] 大家好\n[00:00:02 - 00:00:04] 今天聊聊字幕", doc.FirstPage().Subtitles)
}

func TestBuildDocumentEmptyRenderIsNotAvailable(t *testing.T) {
	bundle := sampleBundle()
	bundle.Events = nil
	_, err := BuildDocument(bundle, types.SubtitleFormatSrt)
	assert.True(t, apperrors.IsNotAvailable(err))

	_, err = BuildDocument(nil, types.SubtitleFormatSrt)
	assert.True(t, apperrors.IsNotAvailable(err))
}

func TestRenderReadingDocument(t *testing.T) {
	svc := &Service{}
	doc, err := BuildDocument(sampleBundle(), types.SubtitleFormatSrt)
	require.NoError(t, err)
	assert.Equal(t, "大家好\n今天聊聊字幕", svc.RenderReadingDocument(doc))

	// a cache entry written without events still reads from its text
	doc.Subtitles[0].Body = nil
	assert.Equal(t, "大家好\n今天聊聊字幕", svc.RenderReadingDocument(doc))

	doc.Subtitles = append(doc.Subtitles, types.SubtitlePage{Page: 2, Subtitles: "[00:01] 第二页"})
	assert.Equal(t, "大家好\n今天聊聊字幕\n\n第二页", svc.RenderReadingDocument(doc))

	assert.Empty(t, svc.RenderReadingDocument(nil))
}

func TestRenderStructuredDump(t *testing.T) {
	svc := &Service{}
	doc, err := BuildDocument(sampleBundle(), types.SubtitleFormatVtt)
	require.NoError(t, err)

	dump := svc.RenderStructuredDump(doc)
	assert.Equal(t, types.PlatformBilibili, dump["platform"])
	assert.Equal(t, types.SourceSubtitle, dump["source"])
	assert.Equal(t, "测试视频", dump["video_info"].(map[string]any)["title"])

	pages := dump["subtitles"].([]map[string]any)
	require.Len(t, pages, 1)
	assert.Equal(t, types.SubtitleFormatVtt, pages[0]["format"])
	assert.Equal(t, true, pages[0]["is_ai"])
	assert.Len(t, pages[0]["body"], 2)

	assert.Empty(t, svc.RenderStructuredDump(nil))
}

func TestAdaptersAreBuiltOnce(t *testing.T) {
	var built atomic.Int32
	a := &mocks.MockAdapter{Platform: types.PlatformBilibili, MatchFunc: matchAll}
	a.On("Fetch", mock.Anything, mock.Anything).Return(sampleBundle(), nil)

	svc := &Service{AdapterFactory: func() []adapter.Adapter {
		built.Add(1)
		return []adapter.Adapter{a}
	}}
	for range 3 {
		_, err := svc.ExtractSubtitles(context.Background(), "BV1xx", types.SubtitleFormatSrt)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), built.Load())
}

func TestCacheHitNeverBuildsAdapters(t *testing.T) {
	cache := newMemCache()
	doc, err := BuildDocument(sampleBundle(), types.SubtitleFormatSrt)
	require.NoError(t, err)
	cache.docs["BV1GJ411x7h7"] = doc

	svc := &Service{Cache: cache, AdapterFactory: func() []adapter.Adapter {
		t.Fatal("adapters must not be built on a cache hit")
		return nil
	}}

	got, result, err := svc.LoadDocument(context.Background(), "https://www.bilibili.com/video/BV1GJ411x7h7", types.SubtitleFormatLrc)
	require.NoError(t, err)
	assert.True(t, result.CacheHit)
	assert.Equal(t, "BV1GJ411x7h7", result.Identifier)
	assert.Equal(t, types.SubtitleFormatLrc, got.FirstPage().Format)
	assert.Equal(t, "[00:00.50] 大家好\n[00:02.00] 今天聊聊字幕", got.FirstPage().Subtitles)
	assert.Equal(t, types.SubtitleFormatSrt, cache.docs["BV1GJ411x7h7"].FirstPage().Format, "cached entry is left untouched")
}

func TestLoadDocumentStoresExtractionInCache(t *testing.T) {
	cache := newMemCache()
	a := &mocks.MockAdapter{Platform: types.PlatformBilibili, MatchFunc: matchAll}
	a.On("Fetch", mock.Anything, mock.Anything).Return(sampleBundle(), nil).Once()

	svc := newTestService(t, a)
	svc.Cache = cache

	url := "https://www.bilibili.com/video/BV1GJ411x7h7?p=1"
	_, result, err := svc.LoadDocument(context.Background(), url, types.SubtitleFormatSrt)
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, 1, cache.saves)

	_, result, err = svc.LoadDocument(context.Background(), url, types.SubtitleFormatSrt)
	require.NoError(t, err)
	assert.True(t, result.CacheHit)
	a.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestExtractWithRetryOnlyRetriesTransientErrors(t *testing.T) {
	transient := apperrors.Wrap(apperrors.CodeNetwork, "timeout", nil)

	a := &mocks.MockAdapter{Platform: types.PlatformYoutube, MatchFunc: matchAll}
	a.On("Fetch", mock.Anything, mock.Anything).Return(nil, transient).Twice()
	a.On("Fetch", mock.Anything, mock.Anything).Return(sampleBundle(), nil).Once()

	svc := newTestService(t, a)
	doc, err := svc.extractWithRetry(context.Background(), "https://youtu.be/abcdefg", types.SubtitleFormatSrt)
	require.NoError(t, err)
	assert.NotNil(t, doc)
	a.AssertNumberOfCalls(t, "Fetch", 3)

	b := &mocks.MockAdapter{Platform: types.PlatformYoutube, MatchFunc: matchAll}
	b.On("Fetch", mock.Anything, mock.Anything).Return(nil, apperrors.ErrSubtitleNotFound)
	_, err = newTestService(t, b).extractWithRetry(context.Background(), "https://youtu.be/abcdefg", types.SubtitleFormatSrt)
	assert.True(t, apperrors.Is(err, apperrors.CodeSubtitleNotFound))
	b.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestExtractWithRetryGivesUpAfterMaxRetry(t *testing.T) {
	a := &mocks.MockAdapter{Platform: types.PlatformYoutube, MatchFunc: matchAll}
	a.On("Fetch", mock.Anything, mock.Anything).Return(nil, apperrors.Wrap(apperrors.CodeNetwork, "timeout", nil))

	svc := newTestService(t, a)
	svc.MaxRetry = 2
	_, err := svc.extractWithRetry(context.Background(), "https://youtu.be/abcdefg", types.SubtitleFormatSrt)
	assert.True(t, apperrors.IsTransient(err))
	a.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestExtractWithRetryStopsOnCancel(t *testing.T) {
	a := &mocks.MockAdapter{Platform: types.PlatformYoutube, MatchFunc: matchAll}
	a.On("Fetch", mock.Anything, mock.Anything).Return(nil, apperrors.Wrap(apperrors.CodeNetwork, "timeout", nil))

	svc := newTestService(t, a)
	svc.RetryDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.extractWithRetry(ctx, "https://youtu.be/abcdefg", types.SubtitleFormatSrt)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResetAdaptersRebuildsOnNextUse(t *testing.T) {
	var built atomic.Int32
	a := &mocks.MockAdapter{Platform: types.PlatformBilibili, MatchFunc: matchAll}
	a.On("Fetch", mock.Anything, mock.Anything).Return(sampleBundle(), nil)
	svc := &Service{AdapterFactory: func() []adapter.Adapter {
		built.Add(1)
		return []adapter.Adapter{a}
	}}

	_, err := svc.ExtractSubtitles(context.Background(), "BV1xx", types.SubtitleFormatSrt)
	require.NoError(t, err)
	svc.ResetAdapters()
	_, err = svc.ExtractSubtitles(context.Background(), "BV1xx", types.SubtitleFormatSrt)
	require.NoError(t, err)
	assert.Equal(t, int32(2), built.Load())
}
