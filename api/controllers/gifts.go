package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Ryan02062001/thankaroo-backend/api/responses"
	"github.com/Ryan02062001/thankaroo-backend/api/validators"
	"github.com/Ryan02062001/thankaroo-backend/internal/gifts"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
)

const csvImportMaxBytes = 5 << 20

// GiftsIndex returns every gift on a list.
func GiftsIndex(svc *gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listID, err := validators.ParsePathUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListByList(r.Context(), userID, listID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GiftsCreate records a gift on a list.
func GiftsCreate(svc *gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listID, err := validators.ParsePathUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body gifts.CreateGiftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), userID, listID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GiftsUpdate patches a gift.
func GiftsUpdate(svc *gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		giftID, err := validators.ParsePathUUID(r, "giftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body gifts.UpdateGiftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Update(r.Context(), userID, giftID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GiftsDelete removes a gift.
func GiftsDelete(svc *gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		giftID, err := validators.ParsePathUUID(r, "giftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), userID, giftID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// GiftsToggleThankYou flips the thank-you flag on a gift.
func GiftsToggleThankYou(svc *gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		giftID, err := validators.ParsePathUUID(r, "giftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ToggleThankYou(r.Context(), userID, giftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GiftsExportCSV streams a list's gifts as a CSV attachment.
func GiftsExportCSV(svc *gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listID, err := validators.ParsePathUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, err := svc.ExportCSV(r.Context(), userID, listID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filename := fmt.Sprintf("thankaroo-gifts-%s.csv", time.Now().UTC().Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	}
}

// GiftsImportCSV imports gifts from an uploaded CSV. The file can arrive as
// multipart form field "file" or as the raw request body.
func GiftsImportCSV(svc *gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listID, err := validators.ParsePathUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := http.MaxBytesReader(w, r.Body, csvImportMaxBytes)
		if file, _, ferr := r.FormFile("file"); ferr == nil {
			defer file.Close()
			input = file
		} else if ferr != http.ErrNotMultipart && ferr != http.ErrMissingFile {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, ferr, "could not read upload"))
			return
		}

		result, err := svc.ImportCSV(r.Context(), userID, listID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
