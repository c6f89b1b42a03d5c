package codec

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/tonyrewin/rtspstreamer/media"
)

func TestOpenUnknownEncoder(t *testing.T) {
	t.Parallel()

	desc := media.Descriptor{SampleRate: 48000, Channels: 1, Format: media.FormatS16}
	if _, err := Open("vorbis", desc); err == nil {
		t.Fatal("Open(vorbis) succeeded, want error")
	}
}

func TestOpenRejectsInvalidDescriptor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		desc media.Descriptor
	}{
		{"zero sample rate", media.Descriptor{Channels: 1, Format: media.FormatS16}},
		{"stereo", media.Descriptor{SampleRate: 48000, Channels: 2, Format: media.FormatS16}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Open(PCM16, tc.desc); err == nil {
				t.Error("Open succeeded, want descriptor validation error")
			}
		})
	}
}

func TestOpusRejectsUnsupportedRate(t *testing.T) {
	t.Parallel()

	desc := media.Descriptor{SampleRate: 44100, Channels: 1, Format: media.FormatFloat32}
	if _, err := Open(Opus, desc); err == nil {
		t.Fatal("Open(opus) at 44100 Hz succeeded, want error")
	}
}

func TestPCM16RequiresS16Format(t *testing.T) {
	t.Parallel()

	desc := media.Descriptor{SampleRate: 48000, Channels: 1, Format: media.FormatFloat32}
	if _, err := Open(PCM16, desc); err == nil {
		t.Fatal("Open(pcm_s16le) with float32 format succeeded, want error")
	}
}

func TestPCM16Encode(t *testing.T) {
	t.Parallel()

	desc := media.Descriptor{SampleRate: 48000, Channels: 1, Format: media.FormatS16}
	enc, err := Open(PCM16, desc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer enc.Close()

	if got := enc.FrameCapacity(); got != 0 {
		t.Errorf("FrameCapacity() = %d, want 0 (any frame size)", got)
	}

	f := media.NewFrame(4)
	copy(f.Samples, []float32{0, 1, -1, 0.5})
	f.Filled = 4
	f.PTS = 960
	if err := enc.Submit(f); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	pkt, err := enc.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if pkt.PTS != 960 {
		t.Errorf("packet PTS = %d, want 960", pkt.PTS)
	}
	if len(pkt.Data) != 8 {
		t.Fatalf("packet size = %d, want 8", len(pkt.Data))
	}

	want := []int16{0, 32767, -32767, 16383}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(pkt.Data[2*i:]))
		if got != w {
			t.Errorf("sample[%d] = %d, want %d", i, got, w)
		}
	}

	if _, err := enc.Receive(); !errors.Is(err, ErrNoPacket) {
		t.Errorf("second Receive = %v, want ErrNoPacket", err)
	}
}

func TestPCM16SubmitAfterClose(t *testing.T) {
	t.Parallel()

	desc := media.Descriptor{SampleRate: 48000, Channels: 1, Format: media.FormatS16}
	enc, err := Open(PCM16, desc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := enc.Submit(media.NewFrame(4)); err == nil {
		t.Error("Submit after Close succeeded, want error")
	}
}

func TestSampleToS16(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{0.5, 16383},
		{2, 32767},   // out-of-range inputs saturate
		{-2, -32768},
	}
	for _, tc := range cases {
		if got := sampleToS16(tc.in); got != tc.want {
			t.Errorf("sampleToS16(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
