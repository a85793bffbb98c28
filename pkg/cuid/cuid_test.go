package cuid_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/cupost/cupost-api/pkg/cuid"
	"github.com/stretchr/testify/assert"
)

var cuidPattern = regexp.MustCompile(`^cu-[0-9a-z]+[0-9a-f]{4}$`)

func TestAt_Format(t *testing.T) {
	id := cuid.At(time.Unix(1700000000, 0))

	assert.Regexp(t, cuidPattern, id)
	assert.Len(t, id, len("cu-s44we8")+4)
	// base36(1700000000)
	assert.Equal(t, "cu-s44we8", id[:len("cu-s44we8")])
}

func TestNew_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		seen[cuid.New()] = true
	}
	// 2 random bytes make same-second collisions unlikely across 16 draws
	assert.Greater(t, len(seen), 1)
}
