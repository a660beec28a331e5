package routes

import (
	"net/http"

	"notable/notable/controllers"
	"notable/notable/types"
	"notable/notable/utils/apperrors"

	"github.com/go-chi/chi/v5"
)

// SummarizeRoutes is the summarization proxy mounted at /api/summarize.
// Anything that is not a validation, config or upstream error is reported
// as a generic 500.
func SummarizeRoutes(ctrl *controllers.SummarizeController) chi.Router {
	r := chi.NewRouter()
	r.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.SummarizeRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, apperrors.Validation("routes.summarize", "Text is required")
		}
		summary, err := ctrl.Summarize(r.Context(), req.Text)
		if err != nil {
			switch apperrors.KindOf(err) {
			case apperrors.KindValidation, apperrors.KindConfig, apperrors.KindUpstream:
				return nil, 0, err
			}
			return nil, 0, withStatus(http.StatusInternalServerError, "Failed to summarize text", err)
		}
		return types.SummarizeResponse{Summary: summary}, http.StatusOK, nil
	}))
	return r
}
