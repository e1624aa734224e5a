// Package room is the boundary to the real-time media room a call runs in.
package room

import "context"

type FrameKind int

const (
	// FrameAudio carries PCM16 samples from the caller.
	FrameAudio FrameKind = iota
	// FrameBoundary marks an explicit end of the caller's utterance.
	FrameBoundary
)

type Frame struct {
	Kind  FrameKind
	Audio []byte
}

// Room is one participant's attachment to a media room.
type Room interface {
	Name() string
	Identity() string
	// Inbound delivers caller frames until the room is done.
	Inbound() <-chan Frame
	// Publish enqueues audio for the caller. It returns once the audio has
	// been handed to the transport.
	Publish(ctx context.Context, audio []byte) error
	// Done is closed when the remote side leaves or the transport fails.
	Done() <-chan struct{}
	Close(reason string) error
}
