// Package codec provides the encoder side of the media service boundary:
// a small closed set of audio encoders behind a uniform submit/receive
// interface modeled on push-pull codec APIs.
package codec

import (
	"errors"
	"fmt"

	"github.com/tonyrewin/rtspstreamer/media"
)

// ErrNoPacket is returned by Receive when the encoder has no packet ready.
// It ends a drain loop normally and is not a failure.
var ErrNoPacket = errors.New("codec: no packet ready")

// ID names an encoder in the closed set this package supports.
type ID string

// Supported encoders.
const (
	Opus  ID = "opus"
	PCM16 ID = "pcm_s16le"
)

// Encoder turns assembled frames into transmittable packets. Implementations
// are not safe for concurrent use; the session serializes access.
type Encoder interface {
	// Submit hands one frame to the encoder. The frame is consumed before
	// Submit returns and may be reused by the caller immediately after.
	Submit(f *media.Frame) error

	// Receive drains the next encoded packet, or ErrNoPacket when none is
	// pending. Any other error is a hard encode failure.
	Receive() (*media.Packet, error)

	// FrameCapacity reports the fixed frame size the encoder requires, in
	// samples, or 0 when any frame size is accepted.
	FrameCapacity() int

	// Close releases the encoder. Idempotent.
	Close() error
}

// Open creates an encoder for the given ID and stream descriptor.
func Open(id ID, desc media.Descriptor) (Encoder, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	switch id {
	case Opus:
		return openOpus(desc)
	case PCM16:
		return openPCM16(desc)
	default:
		return nil, fmt.Errorf("codec: unknown encoder %q", id)
	}
}
