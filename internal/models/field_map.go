package models

import (
	"encoding/base64"
	"encoding/json"

	apperrors "github.com/cupost/cupost-api/pkg/errors"
)

// Logical field names the client may remap.
const (
	FieldToken    = "token"
	FieldText     = "text"
	FieldHoneypot = "honeypot"
	FieldFile     = "file"
)

// FieldMap resolves logical field names to the client-chosen form keys for
// one request. The client renames its fields per page-load to defeat naive
// scrapers; this is cosmetic, never an authentication mechanism. An empty
// key means that input was simply not supplied.
type FieldMap struct {
	Token    string
	Text     string
	Honeypot string
	File     string
}

// DecodeFieldMap decodes the obfuscated field mapping: base64 of a JSON
// object with string values. Raw string keys never leave this function.
func DecodeFieldMap(raw string) (*FieldMap, error) {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, apperrors.ValidationError("bad field map")
	}

	var mapping map[string]string
	if err := json.Unmarshal(decoded, &mapping); err != nil || mapping == nil {
		// mapping stays nil for a JSON "null", which is not an object either
		return nil, apperrors.ValidationError("bad field map")
	}

	return &FieldMap{
		Token:    mapping[FieldToken],
		Text:     mapping[FieldText],
		Honeypot: mapping[FieldHoneypot],
		File:     mapping[FieldFile],
	}, nil
}
