// Package container implements the mux side of the media service boundary:
// writers that wrap encoded packets into a network-ready byte stream. Two
// formats are provided, a live MPEG-TS mux for push streaming and a compact
// varint-framed format for session streaming.
package container

import (
	"github.com/tonyrewin/rtspstreamer/media"
)

// Options carries the protocol hints passed when a container header is
// written. Profiles fill these; muxers honor what applies to their format.
type Options struct {
	// LowLatency requests live-mode behavior: frequent table repetition and
	// no internal buffering beyond one packet.
	LowLatency bool
	// Application is an informational producer tag carried by formats that
	// have a place for one.
	Application string
}

// Muxer wraps encoded packets into a container stream. The write order is
// WriteHeader, any number of WritePacket calls in PTS order, WriteTrailer.
// Muxers are not safe for concurrent use; the session serializes access.
type Muxer interface {
	WriteHeader(opts Options) error
	WritePacket(p *media.Packet) error
	WriteTrailer() error
}
