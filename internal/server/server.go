package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-summary/config"
	"video-summary/internal/handler"
	"video-summary/internal/router"
	"video-summary/log"
)

const shutdownTimeout = 5 * time.Second

// NewEngine builds the gin engine with every API route registered.
func NewEngine(hdl handler.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	router.SetupRouter(r, hdl)
	return r
}

// StartBackend serves the API on the configured address until ctx is done.
func StartBackend(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	addr := net.JoinHostPort(config.Conf.Server.Host, strconv.Itoa(config.Conf.Server.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewEngine(handler.NewHandler()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// summaries wait on the model
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.GetLogger().Info("服务启动 API server listening", zap.String("address", "http://"+addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.GetLogger().Info("服务关闭 API server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.GetLogger().Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
