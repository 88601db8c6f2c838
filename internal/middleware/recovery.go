package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/nexdoc/doc-persist-service/pkg/app"
	"github.com/nexdoc/doc-persist-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 捕获处理器 panic 并返回统一错误响应
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		defer func() {
			if err := recover(); err != nil {
				var errorMsg string
				switch e := err.(type) {
				case error:
					errorMsg = e.Error()
					logger.Error("recovered from panic",
						zap.Int("status", c.Writer.Status()),
						zap.String("router", path),
						zap.String("method", c.Request.Method),
						zap.String("query", query),
						zap.String("ip", c.ClientIP()),
						zap.String("user-agent", c.Request.UserAgent()),
						zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
						zap.Error(e),
						zap.String("stack", string(debug.Stack())),
					)
				default:
					errorMsg = fmt.Sprintf("%v", err)
					logger.Error("recovered from unknown panic",
						zap.Int("status", c.Writer.Status()),
						zap.String("router", path),
						zap.String("method", c.Request.Method),
						zap.String("query", query),
						zap.String("ip", c.ClientIP()),
						zap.String("user-agent", c.Request.UserAgent()),
						zap.String("panic_value", errorMsg),
						zap.String("stack", string(debug.Stack())),
					)
				}

				app.NewResponse(c).ToResponse(code.ErrorServerInternal.WithDetails(errorMsg))
				c.Abort()
			}
		}()

		c.Next()
	}
}
