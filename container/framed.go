package container

import (
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"

	"github.com/tonyrewin/rtspstreamer/media"
)

// Wire format for the session-stream container: a header message, a run of
// data messages in PTS order, and a trailer. Every message is
// [type (varint)] [payload], with varint-encoded fields throughout, written
// in a single Write call so messages stay atomic on the stream.
const (
	// FramedMagic opens the header message.
	FramedMagic uint64 = 0x70647374 // "pdst"
	// FramedVersion is the current wire version.
	FramedVersion uint64 = 1

	msgHeader  uint64 = 0x01
	msgData    uint64 = 0x02
	msgTrailer uint64 = 0x03
)

// FramedHeader is the negotiated stream description carried by the header
// message.
type FramedHeader struct {
	Codec       string
	SampleRate  uint64
	Channels    uint64
	BitRate     uint64
	Application string
}

// FramedMuxer writes the varint-framed session container to w.
type FramedMuxer struct {
	w          io.Writer
	hdr        FramedHeader
	lastPTS    int64
	packets    uint64
	headerDone bool
}

// NewFramedMuxer creates a framed muxer writing to w with the given stream
// description.
func NewFramedMuxer(w io.Writer, hdr FramedHeader) *FramedMuxer {
	return &FramedMuxer{w: w, hdr: hdr}
}

// WriteHeader emits the header message.
func (m *FramedMuxer) WriteHeader(opts Options) error {
	if opts.Application != "" {
		m.hdr.Application = opts.Application
	}

	var buf []byte
	buf = quicvarint.Append(buf, msgHeader)
	buf = quicvarint.Append(buf, FramedMagic)
	buf = quicvarint.Append(buf, FramedVersion)
	buf = appendString(buf, m.hdr.Codec)
	buf = quicvarint.Append(buf, m.hdr.SampleRate)
	buf = quicvarint.Append(buf, m.hdr.Channels)
	buf = quicvarint.Append(buf, m.hdr.BitRate)
	buf = appendString(buf, m.hdr.Application)

	if _, err := m.w.Write(buf); err != nil {
		return fmt.Errorf("framed: write header: %w", err)
	}
	m.headerDone = true
	return nil
}

// WritePacket emits one data message: [pts] [length] [payload].
func (m *FramedMuxer) WritePacket(p *media.Packet) error {
	if !m.headerDone {
		return fmt.Errorf("framed: packet written before header")
	}
	if p.PTS < m.lastPTS {
		return fmt.Errorf("framed: non-monotonic pts %d after %d", p.PTS, m.lastPTS)
	}
	m.lastPTS = p.PTS

	buf := make([]byte, 0, 16+len(p.Data))
	buf = quicvarint.Append(buf, msgData)
	buf = quicvarint.Append(buf, uint64(p.PTS))
	buf = quicvarint.Append(buf, uint64(len(p.Data)))
	buf = append(buf, p.Data...)

	if _, err := m.w.Write(buf); err != nil {
		return fmt.Errorf("framed: write packet: %w", err)
	}
	m.packets++
	return nil
}

// WriteTrailer emits the trailer message carrying the final packet count and
// last PTS, letting the receiver verify it saw the whole stream.
func (m *FramedMuxer) WriteTrailer() error {
	if !m.headerDone {
		return nil
	}
	var buf []byte
	buf = quicvarint.Append(buf, msgTrailer)
	buf = quicvarint.Append(buf, m.packets)
	buf = quicvarint.Append(buf, uint64(m.lastPTS))
	if _, err := m.w.Write(buf); err != nil {
		return fmt.Errorf("framed: write trailer: %w", err)
	}
	return nil
}

// appendString appends a varint length-prefixed byte string.
func appendString(buf []byte, s string) []byte {
	buf = quicvarint.Append(buf, uint64(len(s)))
	return append(buf, s...)
}
