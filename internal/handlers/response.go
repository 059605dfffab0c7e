package handlers

import (
	"errors"
	"net/http"

	"github.com/clay-wangzhi/clusterhub/internal/services"

	"github.com/gin-gonic/gin"
)

// respondOK 统一成功响应
func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": message,
		"data":    data,
	})
}

// respondError 按错误类型映射 HTTP 状态码
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	c.JSON(status, gin.H{
		"code":    status,
		"message": err.Error(),
		"data":    nil,
	})
}

// respondMessage 直接指定状态码与消息
func respondMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
		"data":    data,
	})
}

func statusForError(err error) int {
	var (
		notFound     *services.NotFoundError
		registration *services.RegistrationError
		validation   *services.ValidationError
		query        *services.QueryError
		connector    *services.ConnectorError
	)

	// RegistrationError 包装了探测错误，需优先判断
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &registration):
		return http.StatusUnprocessableEntity
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &query):
		if query.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	case errors.As(err, &connector):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
