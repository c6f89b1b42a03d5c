package service

import (
	"io"
	"testing"

	"github.com/tonyrewin/rtspstreamer/codec"
	"github.com/tonyrewin/rtspstreamer/media"
)

func TestPushProfileEndpointValidation(t *testing.T) {
	t.Parallel()

	p := Push()
	cases := []struct {
		endpoint string
		wantErr  bool
	}{
		{"srt://ingest.example:9000", false},
		{"srt://ingest.example:9000?streamid=live", false},
		{"rtmp://ingest.example/live", true},
		{"quic://ingest.example:9000", true},
		{"ingest.example:9000", true},
	}
	for _, tc := range cases {
		err := p.ValidateEndpoint(tc.endpoint)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateEndpoint(%q) = %v, wantErr %v", tc.endpoint, err, tc.wantErr)
		}
	}
}

func TestPushProfileShape(t *testing.T) {
	t.Parallel()

	p := Push()
	if p.Codec != codec.Opus {
		t.Errorf("Codec = %q, want opus", p.Codec)
	}
	if p.Format != media.FormatFloat32 {
		t.Errorf("Format = %v, want float32", p.Format)
	}
	if p.DefaultBitRate != 128_000 {
		t.Errorf("DefaultBitRate = %d, want 128000", p.DefaultBitRate)
	}
	if !p.Options.LowLatency {
		t.Error("push profile not marked low latency")
	}
	if p.Dial == nil || p.NewMuxer == nil {
		t.Error("push profile missing transport or container constructor")
	}
}

func TestSessionProfileShape(t *testing.T) {
	t.Parallel()

	p := SessionStream()
	if p.Codec != codec.PCM16 {
		t.Errorf("Codec = %q, want pcm_s16le", p.Codec)
	}
	if p.Format != media.FormatS16 {
		t.Errorf("Format = %v, want s16", p.Format)
	}
	// Endpoint checking is the transport dial's job for this profile.
	if p.ValidateEndpoint != nil {
		t.Error("session profile validates endpoints before dialing")
	}
	if p.Dial == nil || p.NewMuxer == nil {
		t.Error("session profile missing transport or container constructor")
	}
}

func TestSessionProfileMuxerHeader(t *testing.T) {
	t.Parallel()

	p := SessionStream()
	desc := media.Descriptor{SampleRate: 48000, Channels: 1, BitRate: 768000,
		Format: media.FormatS16}
	if m := p.NewMuxer(io.Discard, desc); m == nil {
		t.Fatal("NewMuxer returned nil")
	}
}
