package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-summary/internal/dto"
	"video-summary/internal/response"
	"video-summary/internal/service"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
)

func (h Handler) StartChatSession(c *gin.Context) {
	var req dto.StartChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, apperrors.ErrInvalidParams.Message, err))
		return
	}
	session, err := h.Service.StartChatSession(req.Identifier, req.Summary)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, session)
}

func (h Handler) GetChatSession(c *gin.Context) {
	session, err := h.Service.GetChatSession(c.Param("sessionId"))
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, session)
}

func (h Handler) DeleteChatSession(c *gin.Context) {
	if err := h.Service.DeleteChatSession(c.Param("sessionId")); err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, nil)
}

func (h Handler) SendChatMessage(c *gin.Context) {
	sessionId := c.Param("sessionId")
	var req dto.SendChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, apperrors.ErrInvalidParams.Message, err))
		return
	}
	reply, err := h.Service.SendChatMessage(c.Request.Context(), sessionId, req.Message)
	if err != nil {
		log.GetLogger().Error("SendChatMessage failed", zap.String("session_id", sessionId), zap.Error(err))
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, dto.SendChatResData{SessionId: sessionId, Reply: reply})
}

// Chat answers one turn without server side state.
func (h Handler) Chat(c *gin.Context) {
	var req dto.ChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, apperrors.ErrInvalidParams.Message, err))
		return
	}
	history := append(service.SummaryContext(req.Summary), req.History...)
	reply, err := h.Service.Chat(c.Request.Context(), req.Message, history)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, dto.SendChatResData{Reply: reply})
}
