package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"video-summary/config"
	"video-summary/internal/adapter"
	"video-summary/internal/appdirs"
	"video-summary/internal/service"
)

type envelope struct {
	Error int32           `json:"error"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
}

func configurePathResolverForTest(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()
	originalResolver := appDirsResolver
	appDirsResolver = func() (appdirs.Paths, error) {
		return appdirs.Paths{
			OutputDir: filepath.Join(tempDir, "output"),
			CacheDir:  filepath.Join(tempDir, "cache"),
		}, nil
	}
	t.Cleanup(func() {
		appDirsResolver = originalResolver
	})
	return tempDir
}

// withConfig restores the global config after the test.
func withConfig(t *testing.T) {
	t.Helper()
	original := config.Conf
	t.Cleanup(func() {
		config.Conf = original
	})
}

func newTestService(t *testing.T, adapters ...adapter.Adapter) *service.Service {
	t.Helper()
	return &service.Service{
		OutputDir:      filepath.Join(t.TempDir(), "out"),
		MaxRetry:       1,
		RetryDelay:     time.Millisecond,
		AdapterFactory: func() []adapter.Adapter { return adapters },
	}
}

func buildRouter(h Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.POST("/subtitle/extract", h.ExtractSubtitles)
	api.POST("/subtitle/summary", h.Summarize)
	api.POST("/chat", h.Chat)
	api.GET("/chat/session/:sessionId", h.GetChatSession)
	api.GET("/cookie/status", h.GetCookieStatus)
	api.POST("/cookie/upload", h.UploadCookie)
	api.GET("/file/*filepath", h.DownloadFile)
	api.HEAD("/file/*filepath", h.DownloadFile)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp envelope
	if w.Code == http.StatusOK && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}
