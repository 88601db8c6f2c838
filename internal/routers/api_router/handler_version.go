package api_router

import (
	"github.com/nexdoc/doc-persist-service/internal/app"
	pkgapp "github.com/nexdoc/doc-persist-service/pkg/app"
	"github.com/nexdoc/doc-persist-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionHandler 服务端版本信息处理器
type VersionHandler struct {
	*Handler
}

// NewVersionHandler 创建 VersionHandler 实例
func NewVersionHandler(a *app.App) *VersionHandler {
	return &VersionHandler{
		Handler: NewHandler(a),
	}
}

// ServerVersion 返回服务端版本信息
func (h *VersionHandler) ServerVersion(c *gin.Context) {
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(h.App.VersionInfo()))
}
