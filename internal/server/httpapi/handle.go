package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/logging"
)

// HandlerFunc is an API endpoint. It never writes to the response itself.
type HandlerFunc func(r *http.Request) (*Response, error)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k common.Kind) int {
	switch k {
	case common.KindBadRequest:
		return http.StatusBadRequest
	case common.KindUnauthorized:
		return http.StatusUnauthorized
	case common.KindForbidden:
		return http.StatusForbidden
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindDuplicateEntry:
		return http.StatusConflict
	case common.KindTooManyRequests:
		return http.StatusTooManyRequests
	case common.KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Handle adapts fn into an http.HandlerFunc that writes exactly one
// envelope: the handler's response, its classified error, or INTERNAL if it
// panics.
func Handle(logger logging.Logger, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := invoke(r, fn)
		if err != nil {
			WriteError(w, r, logger, err)
			return
		}
		writeResponse(w, res)
	}
}

func invoke(r *http.Request, fn HandlerFunc) (res *Response, err error) {
	defer func() {
		if v := recover(); v != nil {
			res, err = nil, &panicError{value: v, stack: debug.Stack()}
		}
	}()
	return fn(r)
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

// WriteError writes the error envelope for err. Internal errors are logged
// and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	kind := common.KindOf(err)
	if kind == common.KindInternal {
		logInternal(r.Context(), logger, r, err)
	}
	writeJSON(w, StatusFor(kind), Envelope{
		Success: false,
		Message: common.PublicMessage(err),
		Code:    kind.Code(),
	})
}

func logInternal(ctx context.Context, logger logging.Logger, r *http.Request, err error) {
	args := []any{"method", r.Method, "path", r.URL.Path, "error", err.Error()}
	if pe, ok := err.(*panicError); ok {
		args = append(args, "stack", string(pe.stack))
	}
	logger.Error(ctx, "request failed", args...)
}
