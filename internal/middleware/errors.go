package middleware

import (
	"net/http"

	"github.com/go-chi/render"

	apierrors "ecorecovery/internal/errors"
)

// writeProblem answers with an RFC 7807 body carrying the request ID, the
// same shape the error handler produces.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string) {
	problem := apierrors.NewProblemDetails(status, problemType, title, detail, r.URL.Path).
		WithExtension("trace_id", GetRequestID(r.Context()))
	_ = render.Render(w, r, problem)
}
