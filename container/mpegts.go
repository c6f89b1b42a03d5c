package container

import (
	"fmt"
	"io"

	"github.com/tonyrewin/rtspstreamer/media"
)

// MPEG-TS constants for the single-program, single-track layout this muxer
// produces.
const (
	tsPacketSize = 188
	tsSyncByte   = 0x47

	pidPAT   = 0x0000
	pidPMT   = 0x1000
	pidAudio = 0x0100

	programNumber = 1

	// Private PES stream type with a registration descriptor naming the
	// codec, the standard carriage for Opus in TS.
	streamTypePrivate = 0x06
	pesStreamIDPriv   = 0xBD

	// Audio PES packets per PAT/PMT repetition in live mode. At 20 ms per
	// packet this repeats the tables roughly twice a second.
	psiIntervalLive = 25
	psiInterval     = 100
)

// TSMuxer writes a single-program MPEG transport stream carrying one audio
// track. The audio PID doubles as the PCR PID; a PCR is stamped on the first
// packet of every PES so receivers can lock timing without a separate clock
// track.
type TSMuxer struct {
	w          io.Writer
	sampleRate int
	codecTag   [4]byte

	psiEvery   int
	sincePSI   int
	ccPAT      byte
	ccPMT      byte
	ccAudio    byte
	headerDone bool

	pkt [tsPacketSize]byte
}

// NewTSMuxer creates an MPEG-TS muxer writing to w. sampleRate converts
// sample-denominated PTS values to the 90 kHz TS clock; codecTag is the
// four-character registration identifier of the carried codec (e.g. "Opus").
func NewTSMuxer(w io.Writer, sampleRate int, codecTag string) *TSMuxer {
	m := &TSMuxer{w: w, sampleRate: sampleRate, psiEvery: psiInterval}
	copy(m.codecTag[:], codecTag)
	return m
}

// WriteHeader emits the initial PAT and PMT. With Options.LowLatency the
// tables are repeated more often so late joiners sync quickly.
func (m *TSMuxer) WriteHeader(opts Options) error {
	if opts.LowLatency {
		m.psiEvery = psiIntervalLive
	}
	if err := m.writePSI(); err != nil {
		return err
	}
	m.headerDone = true
	return nil
}

// WritePacket wraps one encoded packet in a PES and emits it as a run of
// TS packets, repeating the PSI tables at the configured interval.
func (m *TSMuxer) WritePacket(p *media.Packet) error {
	if !m.headerDone {
		return fmt.Errorf("mpegts: packet written before header")
	}
	if m.sincePSI >= m.psiEvery {
		if err := m.writePSI(); err != nil {
			return err
		}
	}
	m.sincePSI++

	pts90 := p.PTS * 90000 / int64(m.sampleRate)
	pes := buildPES(pesStreamIDPriv, pts90, p.Data)
	return m.writePES(pes, pts90)
}

// WriteTrailer repeats the PSI tables one final time. TS has no trailer
// structure; the repetition just closes the stream on a table boundary.
func (m *TSMuxer) WriteTrailer() error {
	if !m.headerDone {
		return nil
	}
	return m.writePSI()
}

// writePES splits a PES packet across TS packets on the audio PID. The first
// TS packet carries the payload unit start flag and a PCR; the last is padded
// with adaptation-field stuffing.
func (m *TSMuxer) writePES(pes []byte, pcr90 int64) error {
	first := true
	for len(pes) > 0 {
		b := m.pkt[:]
		b[0] = tsSyncByte
		b[1] = byte(pidAudio >> 8 & 0x1F)
		b[2] = byte(pidAudio & 0xFF)
		if first {
			b[1] |= 0x40 // payload unit start
		}
		b[3] = 0x10 | m.ccAudio // payload present
		m.ccAudio = (m.ccAudio + 1) & 0x0F

		payloadStart := 4
		if first {
			// Adaptation field with PCR.
			b[3] |= 0x20
			b[4] = 7
			b[5] = 0x10 // PCR flag
			putPCR(b[6:12], pcr90)
			payloadStart = 12
		}

		space := tsPacketSize - payloadStart
		if len(pes) < space {
			// Grow (or create) the adaptation field to absorb the gap.
			pad := space - len(pes)
			if b[3]&0x20 == 0 {
				b[3] |= 0x20
				b[4] = byte(pad - 1)
				if pad > 1 {
					b[5] = 0x00
					for i := 6; i < 4+pad; i++ {
						b[i] = 0xFF
					}
				}
			} else {
				afEnd := 5 + int(b[4])
				for i := afEnd; i < afEnd+pad; i++ {
					b[i] = 0xFF
				}
				b[4] += byte(pad)
			}
			payloadStart += pad
		}

		n := copy(b[payloadStart:], pes)
		pes = pes[n:]
		first = false

		if _, err := m.w.Write(b); err != nil {
			return fmt.Errorf("mpegts: write packet: %w", err)
		}
	}
	return nil
}

// writePSI emits one PAT packet and one PMT packet.
func (m *TSMuxer) writePSI() error {
	pat := buildPAT()
	if err := m.writeSection(pidPAT, pat, &m.ccPAT); err != nil {
		return err
	}
	pmt := buildPMT(m.codecTag)
	if err := m.writeSection(pidPMT, pmt, &m.ccPMT); err != nil {
		return err
	}
	m.sincePSI = 0
	return nil
}

// writeSection emits a PSI section in a single TS packet, 0xFF-stuffed.
func (m *TSMuxer) writeSection(pid uint16, section []byte, cc *byte) error {
	if len(section) > tsPacketSize-5 {
		return fmt.Errorf("mpegts: section of %d bytes does not fit one packet", len(section))
	}
	b := m.pkt[:]
	b[0] = tsSyncByte
	b[1] = 0x40 | byte(pid>>8&0x1F)
	b[2] = byte(pid)
	b[3] = 0x10 | *cc
	*cc = (*cc + 1) & 0x0F
	b[4] = 0x00 // pointer field
	n := copy(b[5:], section)
	for i := 5 + n; i < tsPacketSize; i++ {
		b[i] = 0xFF
	}
	if _, err := m.w.Write(b); err != nil {
		return fmt.Errorf("mpegts: write section: %w", err)
	}
	return nil
}

// buildPES assembles a PES packet with a 5-byte PTS field.
func buildPES(streamID byte, pts90 int64, payload []byte) []byte {
	pes := make([]byte, 0, 14+len(payload))
	pes = append(pes, 0x00, 0x00, 0x01, streamID)
	length := 3 + 5 + len(payload)
	pes = append(pes, byte(length>>8), byte(length))
	pes = append(pes, 0x80) // marker bits
	pes = append(pes, 0x80) // PTS present
	pes = append(pes, 5)    // header data length

	pts := uint64(pts90) & 0x1FFFFFFFF
	pes = append(pes,
		byte(0x20|pts>>29&0x0E|1),
		byte(pts>>22),
		byte(pts>>14&0xFE|1),
		byte(pts>>7),
		byte(pts<<1&0xFE|1),
	)
	return append(pes, payload...)
}

// putPCR encodes a 33-bit base / 9-bit extension PCR.
func putPCR(b []byte, pcr90 int64) {
	base := uint64(pcr90) & 0x1FFFFFFFF
	b[0] = byte(base >> 25)
	b[1] = byte(base >> 17)
	b[2] = byte(base >> 9)
	b[3] = byte(base >> 1)
	b[4] = byte(base<<7) | 0x7E // reserved bits, extension = 0
	b[5] = 0
}

// buildPAT assembles the single-program association section.
func buildPAT() []byte {
	s := make([]byte, 0, 16)
	s = append(s, 0x00)       // table_id
	s = append(s, 0xB0, 0x0D) // syntax + length 13
	s = append(s, 0x00, 0x01) // transport_stream_id
	s = append(s, 0xC1)       // version 0, current_next
	s = append(s, 0x00, 0x00) // section / last section number
	s = append(s, byte(programNumber>>8), byte(programNumber))
	s = append(s, 0xE0|byte(pidPMT>>8), byte(pidPMT&0xFF))
	return appendCRC32(s)
}

// buildPMT assembles the program map with one private-stream audio track
// whose codec is named by a registration descriptor.
func buildPMT(codecTag [4]byte) []byte {
	esInfo := []byte{0x05, 4, codecTag[0], codecTag[1], codecTag[2], codecTag[3]}

	body := make([]byte, 0, 32)
	body = append(body, byte(programNumber>>8), byte(programNumber))
	body = append(body, 0xC1)                                        // version 0, current_next
	body = append(body, 0x00, 0x00)                                  // section / last section number
	body = append(body, 0xE0|byte(pidAudio>>8), byte(pidAudio&0xFF)) // PCR PID
	body = append(body, 0xF0, 0x00)                                  // no program info
	body = append(body, streamTypePrivate)
	body = append(body, 0xE0|byte(pidAudio>>8), byte(pidAudio&0xFF))
	body = append(body, 0xF0|byte(len(esInfo)>>8), byte(len(esInfo)))
	body = append(body, esInfo...)

	s := make([]byte, 0, 3+len(body)+4)
	s = append(s, 0x02) // table_id
	length := len(body) + 4
	s = append(s, 0xB0|byte(length>>8), byte(length))
	s = append(s, body...)
	return appendCRC32(s)
}
