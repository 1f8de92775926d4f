package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecovered(t *testing.T) {
	err := recovered("alice", "guess", func() error {
		var m map[string]int
		m["boom"]++
		return nil
	})()
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "guess")
}

func TestMiddlewarePassesErrorsThrough(t *testing.T) {
	want := errors.New("nope")
	op := logged("alice", "state", recovered("alice", "state", func() error { return want }))
	assert.ErrorIs(t, op(), want)

	op = logged("alice", "state", func() error { return nil })
	assert.NoError(t, op())
}
