package controllers

import (
	"net/http"

	"github.com/Ryan02062001/thankaroo-backend/api/responses"
	"github.com/Ryan02062001/thankaroo-backend/api/validators"
	"github.com/Ryan02062001/thankaroo-backend/internal/ai"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
)

// NotesDraft generates a thank-you note draft for a gift, consuming one
// monthly draft credit.
func NotesDraft(svc *ai.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body ai.DraftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Draft(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
