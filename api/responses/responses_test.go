package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteSuccessWrapsDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"name": "Our Wedding"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Our Wedding", data["name"])
}

func TestWriteSuccessStatusCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestWriteErrorTypedClientError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeNotFound, "list not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	apiErr := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", apiErr["code"])
	assert.Equal(t, "list not found", apiErr["message"])
}

func TestWriteErrorPlanLimitIncludesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodePlanLimit, "list limit reached").
		WithDetails(map[string]any{"limit": 1, "used": 1})
	WriteError(context.Background(), nil, rec, err)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	body := decodeBody(t, rec)
	apiErr := body["error"].(map[string]any)
	assert.Equal(t, "PLAN_LIMIT_EXCEEDED", apiErr["code"])
	details := apiErr["details"].(map[string]any)
	assert.Equal(t, float64(1), details["limit"])
}

func TestWriteErrorInternalHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: column missing"), "load list"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	apiErr := body["error"].(map[string]any)
	assert.Equal(t, "internal server error", apiErr["message"])
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestWriteErrorUntypedErrorBecomesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	apiErr := body["error"].(map[string]any)
	assert.Equal(t, "INTERNAL_ERROR", apiErr["code"])
}

func TestWriteErrorNilError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
