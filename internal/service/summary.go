package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
	"video-summary/pkg/subtitle"
)

// nearDuplicateRatio is the similarity above which consecutive caption lines
// are folded before they reach the prompt.
const nearDuplicateRatio = 0.9

var chatRoles = []string{types.RoleSystem, types.RoleUser, types.RoleAssistant}

// SummaryText is the prompt material: every page's reading lines with rolling
// duplicates folded, pages separated by a blank line.
func (s *Service) SummaryText(doc *types.SubtitleDocument) string {
	if doc == nil {
		return ""
	}
	parts := make([]string, 0, len(doc.Subtitles))
	for _, page := range doc.Subtitles {
		lines := subtitle.FoldNearDuplicates(pageReadingLines(page), nearDuplicateRatio)
		if len(lines) > 0 {
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}

// Summarize asks the model for a structured summary of doc.
func (s *Service) Summarize(ctx context.Context, doc *types.SubtitleDocument) (string, error) {
	if s.ChatCompleter == nil {
		return "", apperrors.ErrLLMNotConfigured
	}
	text := s.SummaryText(doc)
	if text == "" {
		return "", apperrors.ErrEmptyContent
	}

	prompt := fmt.Sprintf(types.SummaryPrompt, doc.VideoInfo.Title, doc.VideoInfo.Description, text)
	log.GetLogger().Info("正在生成视频总结 Summarizing", zap.String("title", doc.VideoInfo.Title), zap.Int("prompt_runes", len([]rune(prompt))))

	summary, err := s.ChatCompleter.ChatCompletion(ctx, types.SummarySystemPrompt, prompt)
	if err != nil {
		log.GetLogger().Error("生成总结失败 Summarize failed", zap.Error(err))
		return "", apperrors.Wrap(apperrors.CodeLLMFailed, apperrors.ErrLLMFailed.Message, err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", apperrors.WrapWithDetail(apperrors.CodeLLMFailed, apperrors.ErrLLMFailed.Message, "模型返回为空 empty completion", nil)
	}
	return summary, nil
}

// FilterChatHistory keeps system, user and assistant turns with content and
// trims both fields.
func FilterChatHistory(history []types.Message) []types.Message {
	return lo.FilterMap(history, func(m types.Message, _ int) (types.Message, bool) {
		m.Role = strings.TrimSpace(m.Role)
		m.Content = strings.TrimSpace(m.Content)
		return m, m.Content != "" && slices.Contains(chatRoles, m.Role)
	})
}

// Chat sends one user turn. When history carries no system message the
// default assistant prompt is used. An empty message returns "" without a
// model call.
func (s *Service) Chat(ctx context.Context, message string, history []types.Message) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", nil
	}
	if s.ChatCompleter == nil {
		return "", apperrors.ErrLLMNotConfigured
	}

	history = FilterChatHistory(history)
	systemPrompt := ""
	if !lo.ContainsBy(history, func(m types.Message) bool { return m.Role == types.RoleSystem }) {
		systemPrompt = types.ChatSystemPrompt
	}

	reply, err := s.ChatCompleter.ChatCompletionWithHistory(ctx, systemPrompt, history, message)
	if err != nil {
		log.GetLogger().Error("对话失败 Chat failed", zap.Error(err))
		return "", apperrors.Wrap(apperrors.CodeLLMFailed, apperrors.ErrLLMFailed.Message, err)
	}
	return strings.TrimSpace(reply), nil
}

// SummaryContext turns a summary into the system turn that opens a chat about it.
func SummaryContext(summary string) []types.Message {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil
	}
	return []types.Message{
		{Role: types.RoleSystem, Content: types.ChatSystemPrompt},
		{Role: types.RoleSystem, Content: fmt.Sprintf(types.ChatContextPrompt, summary)},
	}
}
