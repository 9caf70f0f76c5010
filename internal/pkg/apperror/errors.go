package apperror

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку бизнес-логики.
// Привязка к HTTP статусам выполняется на транспортной границе,
// сама таксономия от транспорта не зависит.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindPermissionDenied  Kind = "PERMISSION_DENIED"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindConflict          Kind = "CONFLICT"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindPersistence       Kind = "PERSISTENCE_ERROR"
	KindUnauthorized      Kind = "UNAUTHORIZED"
)

// AppError несёт вид ошибки и человекочитаемое сообщение.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New создаёт ошибку заданного вида.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Newf создаёт ошибку заданного вида с форматированием.
func Newf(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap оборачивает причину в ошибку заданного вида.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: err}
}

// NotFound создаёт ошибку отсутствия сущности.
func NotFound(message string) *AppError {
	return New(KindNotFound, message)
}

// PermissionDenied создаёт ошибку запрета доступа.
func PermissionDenied(message string) *AppError {
	return New(KindPermissionDenied, message)
}

// InvalidTransition создаёт ошибку недопустимого перехода,
// фиксируя текущий статус сущности и запрошенное действие.
func InvalidTransition(entity, current, action string) *AppError {
	return Newf(KindInvalidTransition, "%s в статусе %q: действие %q недопустимо", entity, current, action)
}

// Conflict создаёт ошибку конкурентного изменения.
func Conflict(message string) *AppError {
	return New(KindConflict, message)
}

// Validation создаёт ошибку валидации входных данных.
func Validation(message string) *AppError {
	return New(KindValidation, message)
}

// Persistence оборачивает ошибку хранилища.
func Persistence(err error) *AppError {
	return Wrap(err, KindPersistence, "ошибка хранилища")
}

// KindOf возвращает вид ошибки или пустую строку для посторонних ошибок.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func is(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func IsNotFound(err error) bool          { return is(err, KindNotFound) }
func IsPermissionDenied(err error) bool  { return is(err, KindPermissionDenied) }
func IsInvalidTransition(err error) bool { return is(err, KindInvalidTransition) }
func IsConflict(err error) bool          { return is(err, KindConflict) }
func IsValidation(err error) bool        { return is(err, KindValidation) }
func IsPersistence(err error) bool       { return is(err, KindPersistence) }
