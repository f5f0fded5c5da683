package handler

import (
	"video-summary/internal/service"
)

type Handler struct {
	Service *service.Service
}

func NewHandler() Handler {
	return Handler{Service: service.NewService()}
}
