package session

import (
	"github.com/google/uuid"
)

// PickColor is one RGB identity handed to the color buffer picking
// collaborator
type PickColor struct {
	R uint8
	G uint8
	B uint8
}

// PickColorAllocator hands out unique picking colors. It used to be
// process wide mutable state; scoping it to a renderer session lets
// multiple globe instances run in one process without their picking ids
// colliding.
type PickColorAllocator struct {
	next uint32
}

// Returns the next free picking color. Color 0 is reserved as the
// "nothing picked" value.
func (a *PickColorAllocator) Next() PickColor {
	a.next++
	v := a.next
	return PickColor{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}

// Resets the allocator, invalidating every color it handed out
func (a *PickColorAllocator) Reset() {
	a.next = 0
}

// Session is the explicit scope of one renderer instance. Everything that
// must not leak between concurrent globe instances hangs off it.
type Session struct {
	id         string
	pickColors PickColorAllocator
}

func NewSession() *Session {
	return &Session{
		id: uuid.NewString(),
	}
}

// Returns the unique id of the session
func (s *Session) ID() string {
	return s.id
}

// Returns the session scoped picking color allocator
func (s *Session) PickColors() *PickColorAllocator {
	return &s.pickColors
}
