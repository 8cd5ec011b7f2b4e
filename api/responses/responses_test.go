package responses

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ok", data["status"])
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeValidation, 400},
		{pkgerrors.CodeUnauthorized, 401},
		{pkgerrors.CodeForbidden, 403},
		{pkgerrors.CodeNotFound, 404},
		{pkgerrors.CodeConflict, 409},
		{pkgerrors.CodeInsufficientStock, 409},
		{pkgerrors.CodeStateConflict, 422},
		{pkgerrors.CodeCouponInvalid, 400},
		{pkgerrors.CodeRateLimit, 429},
		{pkgerrors.CodeDependency, 503},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, pkgerrors.New(tc.code, "boom"))
		require.Equal(t, tc.status, rec.Code, string(tc.code))

		var envelope types.ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		require.Equal(t, string(tc.code), envelope.Error.Code)
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "secret database details"))

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "internal server error", envelope.Error.Message)
}

func TestWriteErrorIncludesAllowedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{"available": 2, "requested": 5})
	WriteError(context.Background(), nil, rec, err)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	details, ok := envelope.Error.Details.(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 2, details["available"])
}

func TestWriteErrorUntyped(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, context.DeadlineExceeded)
	require.Equal(t, 500, rec.Code)
}
