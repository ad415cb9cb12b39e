package utils

import (
	"errors"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-boxoffice/internal/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlCode(t *testing.T) {
	at := time.UnixMilli(1709340123456)
	assert.Equal(t, "SC-42-123456", ControlCode(42, at))
}

func TestFormatPesos(t *testing.T) {
	cases := map[string]decimal.Decimal{
		"$0":          decimal.Zero,
		"$500":        decimal.NewFromInt(500),
		"$1.500":      decimal.NewFromInt(1500),
		"$25.000":     decimal.NewFromInt(25000),
		"$1.234.568":  decimal.RequireFromString("1234567.6"),
		"-$1.000":     decimal.NewFromInt(-1000),
	}
	for want, in := range cases {
		assert.Equal(t, want, FormatPesos(in))
	}
}

func TestValidIdempotencyKey(t *testing.T) {
	assert.True(t, ValidIdempotencyKey(GenerateUUID()))
	assert.True(t, ValidIdempotencyKey("desk-1-0001"))
	assert.False(t, ValidIdempotencyKey("short"))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "Failed to record sale", apperrors.Persistence("insert", errors.New("pq: secret detail")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "persistence failure", body.Error)
}
