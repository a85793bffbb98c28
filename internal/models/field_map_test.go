package models_test

import (
	"encoding/base64"
	"testing"

	"github.com/cupost/cupost-api/internal/models"
	apperrors "github.com/cupost/cupost-api/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func encodeMap(t *testing.T, jsonBody string) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte(jsonBody))
}

func TestDecodeFieldMap_Valid(t *testing.T) {
	raw := encodeMap(t, `{"token":"a1","text":"b2","honeypot":"c3","file":"d4"}`)

	fm, err := models.DecodeFieldMap(raw)
	assert.NoError(t, err)
	assert.Equal(t, "a1", fm.Token)
	assert.Equal(t, "b2", fm.Text)
	assert.Equal(t, "c3", fm.Honeypot)
	assert.Equal(t, "d4", fm.File)
}

func TestDecodeFieldMap_MissingKeysAreEmpty(t *testing.T) {
	fm, err := models.DecodeFieldMap(encodeMap(t, `{"text":"msg"}`))

	assert.NoError(t, err)
	assert.Equal(t, "msg", fm.Text)
	assert.Empty(t, fm.Token)
	assert.Empty(t, fm.Honeypot)
	assert.Empty(t, fm.File)
}

func TestDecodeFieldMap_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"not_base64", "%%%not-base64%%%"},
		{"not_json", encodeMap(t, `{{`)},
		{"json_array", encodeMap(t, `["token","text"]`)},
		{"json_string", encodeMap(t, `"token"`)},
		{"json_null", encodeMap(t, `null`)},
		{"non_string_values", encodeMap(t, `{"token":42}`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fm, err := models.DecodeFieldMap(tc.raw)
			assert.Nil(t, fm)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, "bad field map", apperrors.Detail(err))
		})
	}
}
