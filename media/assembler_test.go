package media

import (
	"errors"
	"testing"
)

// collect gathers every emitted frame as (pts, samples) for inspection.
type collect struct {
	pts     []int64
	samples [][]float32
}

func (c *collect) emit(f *Frame) error {
	c.pts = append(c.pts, f.PTS)
	cp := make([]float32, f.Filled)
	copy(cp, f.Samples[:f.Filled])
	c.samples = append(c.samples, cp)
	return nil
}

func TestPushAccumulatesToCapacity(t *testing.T) {
	t.Parallel()

	a := NewAssembler(8)
	var c collect

	for i := 0; i < 3; i++ {
		if err := a.Push(make([]float32, 3), c.emit); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	if len(c.pts) != 1 {
		t.Fatalf("emitted %d frames, want 1", len(c.pts))
	}
	if c.pts[0] != 0 {
		t.Errorf("frame PTS = %d, want 0", c.pts[0])
	}
	if got := a.Clock(); got != 9 {
		t.Errorf("Clock() = %d, want 9", got)
	}
}

func TestPushSplitsOversizedBlock(t *testing.T) {
	t.Parallel()

	a := NewAssembler(4)
	var c collect

	block := make([]float32, 10)
	for i := range block {
		block[i] = float32(i) / 10
	}
	if err := a.Push(block, c.emit); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if len(c.pts) != 2 {
		t.Fatalf("emitted %d frames, want 2", len(c.pts))
	}
	if c.pts[0] != 0 || c.pts[1] != 4 {
		t.Errorf("frame PTS = %v, want [0 4]", c.pts)
	}
	if c.samples[1][0] != 0.4 {
		t.Errorf("second frame starts with %v, want 0.4", c.samples[1][0])
	}
	if got := a.Clock(); got != 10 {
		t.Errorf("Clock() = %d, want 10", got)
	}
}

func TestPushClampsSamples(t *testing.T) {
	t.Parallel()

	a := NewAssembler(4)
	var c collect

	if err := a.Push([]float32{-7.5, -1.0, 0.5, 2.0}, c.emit); err != nil {
		t.Fatalf("Push: %v", err)
	}

	want := []float32{-1.0, -1.0, 0.5, 1.0}
	got := c.samples[0]
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPushEmitErrorAdvancesClock(t *testing.T) {
	t.Parallel()

	a := NewAssembler(4)
	boom := errors.New("emit failure")
	emitted := 0
	fail := func(*Frame) error {
		emitted++
		return boom
	}

	err := a.Push(make([]float32, 6), fail)
	if !errors.Is(err, boom) {
		t.Fatalf("Push error = %v, want %v", err, boom)
	}
	if emitted != 1 {
		t.Errorf("emit calls = %d, want 1", emitted)
	}
	// The dropped frame's samples still count toward the clock, so frames
	// after a drop stay aligned with real time.
	if got := a.Clock(); got != 4 {
		t.Errorf("Clock() = %d, want 4", got)
	}

	// The failed frame's buffer is discarded; the next push starts clean.
	var c collect
	if err := a.Push(make([]float32, 4), c.emit); err != nil {
		t.Fatalf("Push after failure: %v", err)
	}
	if len(c.pts) != 1 || c.pts[0] != 4 {
		t.Errorf("recovery frame PTS = %v, want [4]", c.pts)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()

	a := NewAssembler(8)
	var c collect

	if err := a.Flush(c.emit); err != nil {
		t.Fatalf("Flush on empty: %v", err)
	}
	if len(c.pts) != 0 {
		t.Fatal("Flush on empty assembler emitted a frame")
	}

	if err := a.Push(make([]float32, 5), c.emit); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := a.Flush(c.emit); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(c.pts) != 1 {
		t.Fatalf("emitted %d frames, want 1", len(c.pts))
	}
	if len(c.samples[0]) != 5 {
		t.Errorf("flushed frame has %d samples, want 5", len(c.samples[0]))
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	a := NewAssembler(8)
	discard := func(*Frame) error { return nil }
	// Push past capacity so a frame is emitted before the leftover is
	// discarded by Reset.
	if err := a.Push(make([]float32, 10), discard); err != nil {
		t.Fatalf("Push: %v", err)
	}
	a.Reset()
	if got := a.Clock(); got != 0 {
		t.Errorf("Clock() after Reset = %d, want 0", got)
	}
	var c collect
	if err := a.Flush(c.emit); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(c.pts) != 0 {
		t.Error("buffered samples survived Reset")
	}
}

func TestDescriptorValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		desc    Descriptor
		wantErr bool
	}{
		{"valid", Descriptor{SampleRate: 48000, Channels: 1, Format: FormatFloat32}, false},
		{"zero rate", Descriptor{Channels: 1, Format: FormatFloat32}, true},
		{"stereo", Descriptor{SampleRate: 48000, Channels: 2, Format: FormatFloat32}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.desc.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
