package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/services-backend/internal/logger"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: переводит вид ошибки
// бизнес-логики в HTTP статус и маскирует внутренние ошибки.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		statusCode, message := StatusForError(err)

		if logger.Log != nil {
			entry := logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			if statusCode >= http.StatusInternalServerError {
				entry.Error("request error")
			} else {
				entry.Debug("request rejected")
			}
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}

// StatusForError переводит ошибку в HTTP статус и сообщение для клиента.
// Причины ошибок хранилища клиенту не показываются.
func StatusForError(err error) (int, string) {
	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound, clientMessage(err, "ресурс не найден")
	case apperror.KindValidation:
		return http.StatusBadRequest, clientMessage(err, "некорректный запрос")
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized, clientMessage(err, "требуется авторизация")
	case apperror.KindPermissionDenied:
		return http.StatusForbidden, clientMessage(err, "доступ запрещён")
	case apperror.KindInvalidTransition:
		return http.StatusUnprocessableEntity, clientMessage(err, "действие недопустимо в текущем статусе")
	case apperror.KindConflict:
		return http.StatusConflict, clientMessage(err, "конфликт изменений")
	default:
		return http.StatusInternalServerError, "внутренняя ошибка сервера"
	}
}

func clientMessage(err error, fallback string) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
