package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAndValidate(t *testing.T) {
	var req AccountRequest

	rr := httptest.NewRecorder()
	err := decodeAndValidate(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad")), &req)
	require.ErrorIs(t, err, errInvalidBody)
	assert.Equal(t, "Invalid request body", badRequestText(err))
	assert.Equal(t, strings.ToLower(err.Error()[:1]), err.Error()[:1], "error values stay lowercase")

	err = decodeAndValidate(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com"}`)), &req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errInvalidBody)
	assert.Equal(t, err.Error(), badRequestText(err))

	body := `{"email":"a@example.com","password":"pw","phone":"1"}`
	assert.NoError(t, decodeAndValidate(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &req))
}

func TestBadRequestText_PassesOtherErrors(t *testing.T) {
	assert.Equal(t, "count is required", badRequestText(errors.New("count is required")))
}
