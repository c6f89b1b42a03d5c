// Package media defines the frame and packet types that flow through the
// streaming pipeline, from block assembly through encoding to transmission.
package media

import "fmt"

// SampleFormat identifies the sample representation an encoder expects.
type SampleFormat int

// Supported encoder input formats.
const (
	// FormatFloat32 is planar 32-bit floating point in [-1, 1].
	FormatFloat32 SampleFormat = iota
	// FormatS16 is signed 16-bit little-endian integer.
	FormatS16
)

func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32:
		return "flt"
	case FormatS16:
		return "s16"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Descriptor carries the encoder and container parameters negotiated when a
// session connects: one Descriptor per open stream, fixed for its lifetime.
type Descriptor struct {
	SampleRate int
	Channels   int
	BitRate    int
	Format     SampleFormat
}

// Validate checks the descriptor against the bounds the pipeline supports.
func (d Descriptor) Validate() error {
	if d.SampleRate <= 0 {
		return fmt.Errorf("media: sample rate must be positive, got %d", d.SampleRate)
	}
	if d.Channels != 1 {
		return fmt.Errorf("media: only mono is supported, got %d channels", d.Channels)
	}
	if d.BitRate < 0 {
		return fmt.Errorf("media: bit rate cannot be negative, got %d", d.BitRate)
	}
	return nil
}

// Frame is the reusable encoder input buffer owned by a session. It is
// allocated once at connect time, sized to the encoder's frame capacity,
// and refilled in place on every pass through the assembler.
type Frame struct {
	Samples []float32
	Filled  int
	PTS     int64 // position of the first sample, in samples since connect
}

// NewFrame allocates a frame with the given sample capacity.
func NewFrame(capacity int) *Frame {
	return &Frame{Samples: make([]float32, capacity)}
}

// Capacity returns the fixed sample capacity of the frame.
func (f *Frame) Capacity() int { return len(f.Samples) }

// Reset marks the frame empty without releasing its buffer.
func (f *Frame) Reset() {
	f.Filled = 0
	f.PTS = 0
}

// Packet is one encoded, container-ready unit produced by a codec. Ownership
// transfers to whoever transmits it; Data must not be retained after the
// packet has been written or discarded.
type Packet struct {
	Data        []byte
	PTS         int64 // in samples, same timeline as Frame.PTS
	StreamIndex int
}

// Release drops the payload reference so the backing array can be reclaimed
// or reused by the encoder.
func (p *Packet) Release() {
	p.Data = nil
}
