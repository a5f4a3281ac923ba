package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mellystark/visitormanagement/pkg/errors"
	"github.com/mellystark/visitormanagement/pkg/logger"
	"github.com/mellystark/visitormanagement/pkg/response"
)

// Recovery converts panics into a generic 500 envelope. The panic value and
// stack are logged with the route template and the acting admin, if any.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("method", c.Request.Method),
					zap.String("route", c.FullPath()),
					zap.String("path", c.Request.URL.Path),
					zap.Uint("user_id", UserID(c)),
					zap.Any("error", r),
					zap.ByteString("stack", debug.Stack()),
				)
				if !c.Writer.Written() {
					response.Error(c, errors.ErrInternalServer)
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.NewNotFound(fmt.Sprintf("route %s not found", c.Request.URL.Path)))
}

// MethodNotAllowedHandler returns a JSON 405 response.
func MethodNotAllowedHandler(c *gin.Context) {
	response.Error(c, errors.New("METHOD_NOT_ALLOWED", fmt.Sprintf("method %s not allowed on %s", c.Request.Method, c.Request.URL.Path), http.StatusMethodNotAllowed))
}
