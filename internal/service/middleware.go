package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrInternal is returned when an operation panicked.
var ErrInternal = errors.New("internal error")

// operation is one player operation run under the player lock.
type operation func() error

// logged wraps op with debug logging of its outcome and duration.
func logged(player, name string, op operation) operation {
	return func() error {
		start := time.Now()
		err := op()

		event := log.Debug()
		if err != nil {
			event = event.Err(err)
		}
		event.
			Str("player", player).
			Str("op", name).
			Dur("took", time.Since(start)).
			Msg("Player operation")
		return err
	}
}

// recovered turns a panic in op into ErrInternal.
func recovered(player, name string, op operation) operation {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("player", player).
					Str("op", name).
					Msg("Recovered from panic in player operation")
				err = fmt.Errorf("%w: %s", ErrInternal, name)
			}
		}()
		return op()
	}
}
