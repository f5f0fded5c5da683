package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-summary/config"
	"video-summary/internal/dto"
	"video-summary/internal/response"
	"video-summary/internal/service"
	"video-summary/internal/storage"
	"video-summary/internal/types"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
)

const defaultCacheListLimit = 50

func requestFormat(raw string) types.SubtitleFormat {
	if raw == "" {
		raw = config.Conf.App.SubtitleFormat
	}
	return types.ParseSubtitleFormat(raw)
}

func (h Handler) ExtractSubtitles(c *gin.Context) {
	var req dto.ExtractSubtitlesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, apperrors.ErrInvalidParams.Message, err))
		return
	}
	log.GetLogger().Info("ExtractSubtitles received request", zap.String("url", req.Url), zap.String("format", req.Format))

	format := requestFormat(req.Format)
	if req.Save {
		result, err := h.Service.Process(c.Request.Context(), service.ProcessOptions{
			URL:    req.Url,
			Format: format,
			Mode:   service.ModeSubtitles,
		})
		if err != nil {
			response.ErrorResponse(c, err)
			return
		}
		response.Success(c, dto.ExtractSubtitlesResData{
			Identifier:   result.Identifier,
			CacheHit:     result.CacheHit,
			Document:     result.Document,
			Reading:      h.Service.RenderReadingDocument(result.Document),
			SubtitlePath: result.SubtitlePath,
			MarkdownPath: result.MarkdownPath,
		})
		return
	}

	doc, result, err := h.Service.LoadDocument(c.Request.Context(), req.Url, format)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, dto.ExtractSubtitlesResData{
		Identifier: result.Identifier,
		CacheHit:   result.CacheHit,
		Document:   doc,
		Reading:    h.Service.RenderReadingDocument(doc),
	})
}

// Summarize writes the subtitle pair and the summary, then opens a chat
// session about the summary when a chat store is available.
func (h Handler) Summarize(c *gin.Context) {
	var req dto.SummarizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, apperrors.ErrInvalidParams.Message, err))
		return
	}
	log.GetLogger().Info("Summarize received request", zap.String("url", req.Url))

	result, err := h.Service.Process(c.Request.Context(), service.ProcessOptions{
		URL:    req.Url,
		Format: requestFormat(""),
		Mode:   service.ModeSummary,
	})
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}

	data := dto.SummarizeResData{
		Identifier:  result.Identifier,
		Title:       result.Document.VideoInfo.Title,
		Summary:     result.Summary,
		SummaryPath: result.SummaryPath,
	}
	if h.Service.Chats != nil {
		if session, err := h.Service.StartChatSession(result.Identifier, data.Summary); err == nil {
			data.SessionId = session.SessionId
		} else {
			log.GetLogger().Warn("创建对话失败 Failed to open chat session", zap.Error(err))
		}
	}
	response.Success(c, data)
}

func (h Handler) ListSubtitleCache(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultCacheListLimit)))
	if err != nil || limit <= 0 {
		limit = defaultCacheListLimit
	}
	entries, err := storage.ListSubtitleCache(limit)
	if err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeCacheError, apperrors.ErrCacheError.Message, err))
		return
	}
	response.Success(c, entries)
}

func (h Handler) DeleteSubtitleCache(c *gin.Context) {
	identifier := c.Param("identifier")
	if identifier == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}
	if err := storage.DeleteSubtitleCache(identifier); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeCacheError, apperrors.ErrCacheError.Message, err))
		return
	}
	log.GetLogger().Info("已删除字幕缓存 Subtitle cache deleted", zap.String("identifier", identifier))
	response.Success(c, nil)
}
