package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dompet/internal/core"
	applog "dompet/internal/log"
)

// JSONResponse builds the {"ok": ...} envelope every API response uses.
type JSONResponse struct {
	statusCode int
	fields     map[string]any
	headers    map[string]string
}

func NewJSONResponse() *JSONResponse {
	return &JSONResponse{
		statusCode: http.StatusOK,
		fields:     map[string]any{"ok": true},
		headers:    make(map[string]string),
	}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

// Set adds a top-level field next to "ok".
func (b *JSONResponse) Set(key string, value any) *JSONResponse {
	b.fields[key] = value
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	body, err := json.Marshal(b.fields)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok":false,"error":"internal server error"}`))
		return
	}
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}

func ErrorResponse(statusCode int, message string) *JSONResponse {
	return NewJSONResponse().
		Status(statusCode).
		Set("ok", false).
		Set("error", message)
}

func BadRequestError(message string) *JSONResponse {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponse {
	return ErrorResponse(http.StatusNotFound, message)
}

func TooManyRequestsError() *JSONResponse {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// statusFor maps service errors onto HTTP status codes and log error types.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrInvalidInvite):
		return http.StatusBadRequest, applog.ErrorTypeInvalidInvite
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, applog.ErrorTypeForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, applog.ErrorTypeConflict
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPatch, http.MethodPut:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	default:
		return applog.OpRead
	}
}

// ServiceError writes err with its mapped status. Store failures are logged and
// surfaced as 500 with the upstream message.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status, errorType := statusFor(err)
	fields := applog.NewFields().
		WithOperation(operationFor(r.Method)).
		WithError(err, errorType)

	if status == http.StatusInternalServerError {
		applog.FromContext(ctx).LogFields(ctx, slog.LevelError, "Request failed", fields)
		ErrorResponse(status, err.Error()).Write(w)
		return
	}

	message := err.Error()
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		message = verr.Error()
	} else if errors.Is(err, core.ErrInvalidInvite) {
		message = core.ErrInvalidInvite.Error()
	}
	applog.FromContext(ctx).LogFields(ctx, slog.LevelDebug, "Request rejected", fields)
	ErrorResponse(status, message).Write(w)
}
