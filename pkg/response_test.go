package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: Escribe un comentario", ErrBadRequest), http.StatusBadRequest, "Escribe un comentario"},
		{fmt.Errorf("%w: Credenciales incorrectas", ErrUnauthorized), http.StatusUnauthorized, "Credenciales incorrectas"},
		{ErrNotFound, http.StatusNotFound, "not found"},
		{fmt.Errorf("%w: slow down", ErrTooManyRequests), http.StatusTooManyRequests, "slow down"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, tc.err)

		assert.Equal(t, tc.status, rec.Code)

		var resp APIResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, tc.msg, resp.Error)
	}
}

func TestJSONWithMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONWithMessage(rec, http.StatusCreated, map[string]string{"id": "post_1"}, "Publicado ✅")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Publicado ✅", resp.Message)
}
