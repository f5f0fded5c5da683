package service

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"video-summary/config"
	"video-summary/internal/adapter"
	"video-summary/internal/credential"
	"video-summary/internal/storage"
	"video-summary/internal/types"
	"video-summary/log"
	"video-summary/pkg/bilibili"
	"video-summary/pkg/openai"
	"video-summary/pkg/youtube"
)

// SubtitleCache persists extracted documents keyed by the stable video identifier.
type SubtitleCache interface {
	GetSubtitleCache(identifier string) (*types.SubtitleDocument, bool, error)
	SaveSubtitleCache(identifier string, doc *types.SubtitleDocument) error
}

// ChatStore keeps chat sessions between HTTP requests.
type ChatStore interface {
	CreateChatSession(session *types.ChatSession) error
	GetChatSession(sessionId string) (*types.ChatSession, error)
	AppendChatMessages(sessionId string, messages ...types.ChatMessage) error
	DeleteChatSession(sessionId string) error
}

type dbStore struct{}

func (dbStore) GetSubtitleCache(identifier string) (*types.SubtitleDocument, bool, error) {
	return storage.GetSubtitleCache(identifier)
}

func (dbStore) SaveSubtitleCache(identifier string, doc *types.SubtitleDocument) error {
	return storage.SaveSubtitleCache(identifier, doc)
}

func (dbStore) CreateChatSession(session *types.ChatSession) error {
	return storage.CreateChatSession(session)
}

func (dbStore) GetChatSession(sessionId string) (*types.ChatSession, error) {
	return storage.GetChatSession(sessionId)
}

func (dbStore) AppendChatMessages(sessionId string, messages ...types.ChatMessage) error {
	return storage.AppendChatMessages(sessionId, messages...)
}

func (dbStore) DeleteChatSession(sessionId string) error {
	return storage.DeleteChatSession(sessionId)
}

type Service struct {
	ChatCompleter types.ChatCompleter
	Cache         SubtitleCache
	Chats         ChatStore
	OutputDir     string
	MaxRetry      int
	RetryDelay    time.Duration
	// AdapterFactory builds the platform adapters on first use so a cache hit
	// never has to resolve cookies.
	AdapterFactory func() []adapter.Adapter

	adaptersMu sync.Mutex
	adapters   []adapter.Adapter
}

func NewService() *Service {
	var chatCompleter types.ChatCompleter
	if config.LlmConfigured() {
		chatCompleter = openai.NewClient(openai.Options{
			BaseUrl:     config.Conf.Llm.BaseUrl,
			ApiKey:      config.Conf.Llm.ApiKey,
			Model:       config.Conf.Llm.Model,
			Proxy:       config.Conf.App.Proxy,
			Temperature: config.Conf.Llm.Temperature,
			MaxTokens:   config.Conf.Llm.MaxTokens,
			Timeout:     4 * config.RequestTimeout(),
		})
		log.GetLogger().Info("当前使用的大模型 LLM configured", zap.String("model", config.Conf.Llm.Model), zap.String("base_url", config.Conf.Llm.BaseUrl))
	}

	s := &Service{
		ChatCompleter:  chatCompleter,
		OutputDir:      config.Conf.App.OutputDir,
		MaxRetry:       config.Conf.App.MaxRetry,
		RetryDelay:     time.Second,
		AdapterFactory: defaultAdapters,
	}
	if storage.DB != nil {
		s.Cache = dbStore{}
		s.Chats = dbStore{}
	}
	return s
}

// defaultAdapters registers the platforms in match order.
func defaultAdapters() []adapter.Adapter {
	timeout := config.RequestTimeout()
	proxy := config.Conf.App.Proxy
	cookies := credential.FileSource{
		Header: config.Conf.Bilibili.Cookie,
		File:   config.Conf.Bilibili.CookieFile,
		Domain: credential.BilibiliDomain,
	}
	return []adapter.Adapter{
		adapter.NewBilibiliAdapter(cookies, bilibili.WithTimeout(timeout), bilibili.WithProxy(proxy)),
		adapter.NewYoutubeAdapter(youtube.WithTimeout(timeout), youtube.WithProxy(proxy)),
	}
}

func (s *Service) getAdapters() []adapter.Adapter {
	s.adaptersMu.Lock()
	defer s.adaptersMu.Unlock()
	if s.adapters == nil && s.AdapterFactory != nil {
		s.adapters = s.AdapterFactory()
	}
	return s.adapters
}

// ResetAdapters drops the built adapters, so changed cookies are picked up
// by the next extraction.
func (s *Service) ResetAdapters() {
	s.adaptersMu.Lock()
	defer s.adaptersMu.Unlock()
	s.adapters = nil
}
