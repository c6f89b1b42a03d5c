// Package service defines the stream profiles that bind a codec, a
// container, and a transport into one coherent streaming variant. The
// session is parameterized by a Profile, so the push and session variants
// share a single pipeline instead of duplicating it.
package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/tonyrewin/rtspstreamer/codec"
	"github.com/tonyrewin/rtspstreamer/container"
	"github.com/tonyrewin/rtspstreamer/media"
	"github.com/tonyrewin/rtspstreamer/transport"
)

// Profile selects the codec, container, and transport for one streaming
// variant. The set of profiles is closed; sessions treat a Profile as opaque
// configuration and drive it through these fields only.
type Profile struct {
	// Name tags diagnostics and log lines.
	Name string

	// Codec is the encoder opened at connect time.
	Codec codec.ID

	// OpenEncoder overrides how the encoder is opened. Nil uses the codec
	// registry with Codec.
	OpenEncoder func(desc media.Descriptor) (codec.Encoder, error)

	// Format is the sample format the codec negotiates.
	Format media.SampleFormat

	// DefaultBitRate applies when the host does not set one. Zero means the
	// codec has no meaningful bitrate knob.
	DefaultBitRate int

	// ValidateEndpoint rejects endpoints before any resource is acquired.
	// Nil passes the endpoint through; the transport dial then performs
	// scheme validation.
	ValidateEndpoint func(endpoint string) error

	// Dial opens the physical output. Nil marks the container memory-only:
	// no transport is opened and the muxer owns its destination.
	Dial transport.Dialer

	// NewMuxer creates the container writer over the open transport.
	NewMuxer func(w io.Writer, desc media.Descriptor) container.Muxer

	// Options are the protocol hints passed to WriteHeader.
	Options container.Options
}

// Push returns the push-stream profile: Opus in a live MPEG-TS container
// over SRT. The endpoint must carry the srt:// scheme prefix; anything else
// is rejected here, before connecting.
func Push() Profile {
	return Profile{
		Name:           "push",
		Codec:          codec.Opus,
		Format:         media.FormatFloat32,
		DefaultBitRate: 128_000,
		ValidateEndpoint: func(endpoint string) error {
			if !strings.HasPrefix(endpoint, transport.SRTScheme) {
				return fmt.Errorf("push endpoint must start with %s, got %q",
					transport.SRTScheme, endpoint)
			}
			return nil
		},
		Dial: transport.DialSRT,
		NewMuxer: func(w io.Writer, desc media.Descriptor) container.Muxer {
			return container.NewTSMuxer(w, desc.SampleRate, "Opus")
		},
		Options: container.Options{
			LowLatency:  true,
			Application: "rtspstreamer",
		},
	}
}

// SessionStream returns the session-stream profile: 16-bit PCM in a
// varint-framed container over a single reliable QUIC stream. Endpoint
// validation is delegated to the transport dial.
func SessionStream() Profile {
	return Profile{
		Name:   "session",
		Codec:  codec.PCM16,
		Format: media.FormatS16,
		Dial:   transport.DialQUIC,
		NewMuxer: func(w io.Writer, desc media.Descriptor) container.Muxer {
			return container.NewFramedMuxer(w, container.FramedHeader{
				Codec:      string(codec.PCM16),
				SampleRate: uint64(desc.SampleRate),
				Channels:   uint64(desc.Channels),
				BitRate:    uint64(desc.BitRate),
			})
		},
		Options: container.Options{
			Application: "rtspstreamer",
		},
	}
}
