package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
)

// StartChatSession opens a conversation about a summary. identifier is only
// recorded so sessions can be traced back to their video.
func (s *Service) StartChatSession(identifier, summary string) (*types.ChatSession, error) {
	if s.Chats == nil {
		return nil, apperrors.Wrap(apperrors.CodeCacheError, apperrors.ErrCacheError.Message, errors.New("chat store not configured"))
	}
	session := &types.ChatSession{
		SessionId:  uuid.New().String(),
		Identifier: identifier,
		Summary:    strings.TrimSpace(summary),
	}
	if err := s.Chats.CreateChatSession(session); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCacheError, "创建会话失败 Failed to create chat session", err)
	}
	log.GetLogger().Info("已创建对话 Chat session created", zap.String("session_id", session.SessionId), zap.String("identifier", identifier))
	return session, nil
}

func (s *Service) GetChatSession(sessionId string) (*types.ChatSession, error) {
	if s.Chats == nil {
		return nil, apperrors.Wrap(apperrors.CodeCacheError, apperrors.ErrCacheError.Message, errors.New("chat store not configured"))
	}
	session, err := s.Chats.GetChatSession(sessionId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeCacheError, apperrors.ErrCacheError.Message, err)
	}
	return session, nil
}

// SendChatMessage replays the session with its summary as context, asks the
// model and stores both turns.
func (s *Service) SendChatMessage(ctx context.Context, sessionId, message string) (string, error) {
	session, err := s.GetChatSession(sessionId)
	if err != nil {
		return "", err
	}

	history := append(SummaryContext(session.Summary), lo.Map(session.Messages, func(m types.ChatMessage, _ int) types.Message {
		return types.Message{Role: m.Role, Content: m.Content}
	})...)

	reply, err := s.Chat(ctx, message, history)
	if err != nil || reply == "" {
		return reply, err
	}

	err = s.Chats.AppendChatMessages(sessionId,
		types.ChatMessage{Role: types.RoleUser, Content: strings.TrimSpace(message)},
		types.ChatMessage{Role: types.RoleAssistant, Content: reply},
	)
	if err != nil {
		log.GetLogger().Warn("保存对话记录失败 Failed to store chat turn", zap.String("session_id", sessionId), zap.Error(err))
	}
	return reply, nil
}

func (s *Service) DeleteChatSession(sessionId string) error {
	if s.Chats == nil {
		return apperrors.Wrap(apperrors.CodeCacheError, apperrors.ErrCacheError.Message, errors.New("chat store not configured"))
	}
	if err := s.Chats.DeleteChatSession(sessionId); err != nil {
		return apperrors.Wrap(apperrors.CodeCacheError, apperrors.ErrCacheError.Message, err)
	}
	return nil
}
