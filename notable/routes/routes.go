package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"notable/notable/session"
	"notable/notable/sources"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/jsonutils"
	"notable/notable/utils/logging"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// statusError lets a handler pick the status and public message of an error
// that has no kind.
type statusError struct {
	status int
	msg    string
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func withStatus(status int, msg string, err error) error {
	return &statusError{status: status, msg: msg, err: err}
}

// handleJSON adapts a handler returning (body, status, error) to
// http.HandlerFunc. Errors become {"error": message} with the status their
// kind maps to.
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		jsonutils.WriteJSON(w, status, res)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	msg := apperrors.PublicMessage(err)
	var se *statusError
	if errors.As(err, &se) {
		status = se.status
		msg = se.msg
	}
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorLogger.Error("request failed", fields...)
	} else {
		logging.AppLogger.Info("request rejected", fields...)
	}
	jsonutils.WriteError(w, status, msg)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Validation("routes.decode", "Invalid JSON body")
	}
	return nil
}

func identity(r *http.Request) sources.Identity {
	return session.FromContext(r.Context()).Identity()
}
