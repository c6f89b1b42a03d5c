package codec

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/tonyrewin/rtspstreamer/media"
)

// Opus accepts 2.5-60 ms frames; the pipeline uses 20 ms throughout.
const opusFrameMillis = 20

// maxOpusPacket bounds one encoded packet. Opus never exceeds ~1275 bytes
// per 20 ms frame at the bitrates this pipeline negotiates.
const maxOpusPacket = 1500

// opusEncoder wraps the libopus binding behind the Encoder interface.
// Submit encodes synchronously, so at most one packet is pending at a time.
type opusEncoder struct {
	enc     *opus.Encoder
	desc    media.Descriptor
	buf     [maxOpusPacket]byte
	pending *media.Packet
	closed  bool
}

func openOpus(desc media.Descriptor) (Encoder, error) {
	switch desc.SampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return nil, fmt.Errorf("codec: opus does not support %d Hz", desc.SampleRate)
	}
	enc, err := opus.NewEncoder(desc.SampleRate, desc.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("codec: open opus encoder: %w", err)
	}
	if desc.BitRate > 0 {
		if err := enc.SetBitrate(desc.BitRate); err != nil {
			return nil, fmt.Errorf("codec: set opus bitrate %d: %w", desc.BitRate, err)
		}
	}
	return &opusEncoder{enc: enc, desc: desc}, nil
}

func (e *opusEncoder) FrameCapacity() int {
	return e.desc.SampleRate * opusFrameMillis / 1000
}

func (e *opusEncoder) Submit(f *media.Frame) error {
	if e.closed {
		return fmt.Errorf("codec: submit on closed opus encoder")
	}
	capacity := e.FrameCapacity()
	if f.Filled > capacity {
		return fmt.Errorf("codec: opus requires frames of %d samples, got %d",
			capacity, f.Filled)
	}
	// A short frame only occurs on the teardown flush; pad the tail with
	// silence so the encoder still sees a full 20 ms frame.
	for i := f.Filled; i < capacity; i++ {
		f.Samples[i] = 0
	}
	n, err := e.enc.EncodeFloat32(f.Samples[:capacity], e.buf[:])
	if err != nil {
		return fmt.Errorf("codec: opus encode: %w", err)
	}
	data := make([]byte, n)
	copy(data, e.buf[:n])
	e.pending = &media.Packet{Data: data, PTS: f.PTS}
	return nil
}

func (e *opusEncoder) Receive() (*media.Packet, error) {
	if e.pending == nil {
		return nil, ErrNoPacket
	}
	p := e.pending
	e.pending = nil
	return p, nil
}

// Close releases the encoder. The binding frees its native state through a
// finalizer, so dropping the reference is sufficient.
func (e *opusEncoder) Close() error {
	e.enc = nil
	e.pending = nil
	e.closed = true
	return nil
}
