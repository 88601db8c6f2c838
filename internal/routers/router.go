// Package routers 构建 HTTP 路由
package routers

import (
	"github.com/nexdoc/doc-persist-service/internal/app"
	"github.com/nexdoc/doc-persist-service/internal/middleware"
	"github.com/nexdoc/doc-persist-service/internal/routers/api_router"
	pkgapp "github.com/nexdoc/doc-persist-service/pkg/app"
	"github.com/nexdoc/doc-persist-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// NewRouter 创建对外 API 路由
func NewRouter(appContainer *app.App) *gin.Engine {

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.ContextTimeout(appContainer.Config().GetContextTimeout()))
		api.Use(middleware.AccessLog(appContainer.Logger()))
		api.Use(middleware.Recovery(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		documentHandler := api_router.NewDocumentHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		api.GET("/version", versionHandler.ServerVersion)

		api.POST("/documents", documentHandler.Create)
		api.GET("/documents/:id", documentHandler.Get)
		api.POST("/documents/:id/save", documentHandler.Save)
		api.GET("/documents/:id/versions", documentHandler.Versions)
		api.GET("/documents/:id/versions/diff", documentHandler.VersionDiff)
		api.POST("/documents/:id/versions/snapshot", documentHandler.Snapshot)
		api.POST("/documents/:id/versions/:version/restore", documentHandler.Restore)
		api.GET("/documents/:id/operations", documentHandler.Operations)
		api.POST("/documents/:id/operations/cleanup", documentHandler.CleanupOperations)
		api.GET("/documents/:id/statistics", documentHandler.Statistics)
	}

	r.NoRoute(func(c *gin.Context) {
		pkgapp.NewResponse(c).ToResponse(code.ErrorNotFound)
	})

	return r
}
