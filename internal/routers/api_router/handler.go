// Package api_router 提供文档 API 的路由处理器
package api_router

import (
	"github.com/nexdoc/doc-persist-service/internal/app"
)

// Handler 基础处理器，持有应用容器
type Handler struct {
	App *app.App
}

// NewHandler 创建基础处理器
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}
