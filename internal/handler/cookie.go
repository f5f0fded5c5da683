package handler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-summary/config"
	"video-summary/internal/credential"
	"video-summary/internal/dto"
	"video-summary/internal/response"
	"video-summary/log"
	apperrors "video-summary/pkg/errors"
)

const defaultCookieFile = "cookies.txt"

var now = time.Now

func cookieSource() credential.FileSource {
	return credential.FileSource{
		Header: config.Conf.Bilibili.Cookie,
		File:   config.Conf.Bilibili.CookieFile,
		Domain: credential.BilibiliDomain,
	}
}

// GetCookieStatus reports on the Bilibili cookie used for subtitle requests.
func (h Handler) GetCookieStatus(c *gin.Context) {
	log.GetLogger().Info("获取Cookie状态 Cookie status requested")
	response.Success(c, credential.Inspect(cookieSource(), now()))
}

// UploadCookie stores a pasted or uploaded cookie export as the configured
// cookie file. Both the browser JSON export and cookies.txt are accepted.
func (h Handler) UploadCookie(c *gin.Context) {
	var content []byte
	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		if content, err = io.ReadAll(file); err != nil {
			response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "读取上传文件失败 Failed to read uploaded file", err))
			return
		}
	} else {
		var req dto.UploadCookieReq
		if err := c.ShouldBind(&req); err != nil || req.Content == "" {
			response.Error(c, apperrors.CodeInvalidParams, "请提供Cookie内容 Please provide cookie content")
			return
		}
		content = []byte(req.Content)
	}

	entries, err := credential.ParseCookieEntries(content)
	if err != nil || len(entries) == 0 {
		response.Error(c, apperrors.CodeInvalidParams, "无效的Cookie格式 Invalid cookie format, use a JSON export or Netscape cookies.txt")
		return
	}

	path := config.Conf.Bilibili.CookieFile
	if path == "" {
		path = defaultCookieFile
	}
	if dir := filepath.Dir(path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	if err = os.WriteFile(path, content, 0o600); err != nil {
		log.GetLogger().Error("写入Cookie文件失败 Failed to write cookie file", zap.String("path", path), zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeFileWriteError, "写入Cookie文件失败 Failed to write cookie file", err))
		return
	}
	if config.Conf.Bilibili.CookieFile == "" {
		config.Conf.Bilibili.CookieFile = path
	}
	// adapters read cookies once, rebuild them on the next request
	h.Service.ResetAdapters()

	log.GetLogger().Info("Cookie文件更新成功 Cookie file updated", zap.String("path", path), zap.Int("cookies", len(entries)))
	response.Success(c, gin.H{
		"cookieCount": len(entries),
		"message":     fmt.Sprintf("成功保存%d条Cookie Successfully saved %d cookies", len(entries), len(entries)),
	})
}
