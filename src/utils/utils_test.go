package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendJSONErrorCode(t *testing.T) {
	rec := httptest.NewRecorder()
	SendJSONErrorCode(rec, "balance was changed", "conflict", http.StatusConflict)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"balance was changed","code":"conflict"}`, rec.Body.String())
}

func TestDecodeJSONBody(t *testing.T) {
	var dst struct {
		Amount string `json:"amount"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"10"}`))
	require.NoError(t, DecodeJSONBody(r, &dst, false))
	assert.Equal(t, "10", dst.Amount)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"10","extra":1}`))
	assert.Error(t, DecodeJSONBody(r, &dst, false))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"1"}{"amount":"2"}`))
	assert.Error(t, DecodeJSONBody(r, &dst, false))

	r = httptest.NewRequest(http.MethodDelete, "/", strings.NewReader(""))
	assert.NoError(t, DecodeJSONBody(r, &dst, true))
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.Error(t, DecodeJSONBody(r, &dst, false))
}

func TestGenerateETagIsStable(t *testing.T) {
	a, err := GenerateETag(map[string]int{"x": 1})
	require.NoError(t, err)
	b, err := GenerateETag(map[string]int{"x": 1})
	require.NoError(t, err)
	c, err := GenerateETag(map[string]int{"x": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestNewIDIsSortable(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, "100", PercentOf(decimal.NewFromInt(1000), 10).String())
	assert.Equal(t, "16.67", PercentOf(decimal.RequireFromString("333.33"), 5).String())
	assert.True(t, PercentOf(decimal.Zero, 50).IsZero())
}
