package controllers

import (
	"net/http"

	"github.com/Ryan02062001/thankaroo-backend/api/responses"
	"github.com/Ryan02062001/thankaroo-backend/internal/billing"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
)

// PublicPrices returns the purchasable plan prices. No auth required.
func PublicPrices(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := svc.ListPrices(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, prices)
	}
}
