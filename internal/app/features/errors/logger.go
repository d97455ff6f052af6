package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs handler failures with request context and writes the
// generic 500 response. Handlers keep their error paths to one line:
//
//	if err != nil {
//	    h.ErrLog.Internal(w, r, "list events", err)
//	    return
//	}
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger backed by the given logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Internal logs the error with the operation name and request path,
// then writes a 500 response.
func (e *ErrorLogger) Internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	e.log.Error("handler error",
		zap.String("op", op),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	RenderInternal(w)
}
