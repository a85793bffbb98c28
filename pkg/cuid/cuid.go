package cuid

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// New generates a short correlation id of the form
// "cu-<base36 unix seconds><4 hex chars>". It is embedded into every relayed
// message for traceability; uniqueness is best-effort, not guaranteed.
func New() string {
	return At(time.Now())
}

// At generates a correlation id for an explicit timestamp.
func At(ts time.Time) string {
	var rnd [2]byte
	_, _ = rand.Read(rnd[:])
	return "cu-" + strconv.FormatInt(ts.Unix(), 36) + hex.EncodeToString(rnd[:])
}
