package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tonyrewin/rtspstreamer/media"
)

// pcm16Encoder converts float samples to signed 16-bit little-endian PCM.
// It accepts any frame length, so FrameCapacity reports 0 and the session
// falls back to its default frame sizing.
type pcm16Encoder struct {
	pending *media.Packet
	closed  bool
}

func openPCM16(desc media.Descriptor) (Encoder, error) {
	if desc.Format != media.FormatS16 {
		return nil, fmt.Errorf("codec: pcm_s16le requires %s input, got %s",
			media.FormatS16, desc.Format)
	}
	return &pcm16Encoder{}, nil
}

func (e *pcm16Encoder) FrameCapacity() int { return 0 }

func (e *pcm16Encoder) Submit(f *media.Frame) error {
	if e.closed {
		return fmt.Errorf("codec: submit on closed pcm encoder")
	}
	data := make([]byte, 2*f.Filled)
	for i, s := range f.Samples[:f.Filled] {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(sampleToS16(s)))
	}
	e.pending = &media.Packet{Data: data, PTS: f.PTS}
	return nil
}

func (e *pcm16Encoder) Receive() (*media.Packet, error) {
	if e.pending == nil {
		return nil, ErrNoPacket
	}
	p := e.pending
	e.pending = nil
	return p, nil
}

func (e *pcm16Encoder) Close() error {
	e.pending = nil
	e.closed = true
	return nil
}

// sampleToS16 maps a clamped [-1, 1] sample to the signed 16-bit range.
func sampleToS16(s float32) int16 {
	v := s * 32767.0
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
