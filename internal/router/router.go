package router

import (
	"github.com/gin-gonic/gin"

	"video-summary/internal/handler"
)

func SetupRouter(r *gin.Engine, hdl handler.Handler) {
	api := r.Group("/api")
	{
		api.POST("/subtitle/extract", hdl.ExtractSubtitles)
		api.POST("/subtitle/summary", hdl.Summarize)
		api.GET("/subtitle/cache", hdl.ListSubtitleCache)
		api.DELETE("/subtitle/cache/:identifier", hdl.DeleteSubtitleCache)

		api.POST("/chat", hdl.Chat)
		api.POST("/chat/session", hdl.StartChatSession)
		api.GET("/chat/session/:sessionId", hdl.GetChatSession)
		api.POST("/chat/session/:sessionId", hdl.SendChatMessage)
		api.DELETE("/chat/session/:sessionId", hdl.DeleteChatSession)

		api.GET("/cookie/status", hdl.GetCookieStatus)
		api.POST("/cookie/upload", hdl.UploadCookie)

		api.GET("/file/*filepath", hdl.DownloadFile)
		api.HEAD("/file/*filepath", hdl.DownloadFile)
	}
}
