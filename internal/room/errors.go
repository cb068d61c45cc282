package room

import "errors"

var (
	ErrInvalidEvent   = errors.New("invalid event")
	ErrDuplicateEvent = errors.New("duplicate event")
	ErrRoomEvicted    = errors.New("room evicted")
	ErrNotMember      = errors.New("connection is not a member")
	ErrNoRoom         = errors.New("no room for connection")
)
