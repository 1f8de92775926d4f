package lock

import "errors"

// ErrLockTimeout is returned when a player's lock is not acquired in time.
var ErrLockTimeout = errors.New("player lock acquisition timeout")
