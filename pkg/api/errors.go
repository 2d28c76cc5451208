package api

import (
	"errors"
	"net/http"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/httputil"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
)

// writeServiceError maps the shared error taxonomy onto HTTP statuses.
// Unclassified errors are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if limited, ok := auth.IsRateLimited(err); ok {
		httputil.WriteTooManyRequests(w, "too many requests", limited.RetryAfterSeconds())
		return
	}

	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		httputil.WriteForbidden(w, err.Error())
	case errors.Is(err, auth.ErrConflict):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, auth.ErrExpired):
		httputil.WriteGone(w, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		httputil.WriteNotFound(w, err.Error())
	case errors.Is(err, auth.ErrValidation):
		httputil.WriteBadRequest(w, err.Error())
	default:
		observability.FromContext(r.Context()).
			WithError(err).
			WithField("route", observability.RouteLabel(r)).
			Error("request failed")
		httputil.WriteInternalError(w)
	}
}
