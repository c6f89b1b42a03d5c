package media

// Assembler converts host-delivered audio blocks into encoder-ready frames.
// Incoming samples are clamped to [-1, 1] and accumulated into a single
// reusable frame; whenever the frame reaches capacity it is handed to the
// emit callback and refilled in place. Blocks longer than the remaining
// capacity are split across successive frames, so no block length can
// overrun the buffer. The assembler performs no allocation after
// construction, keeping the real-time path allocation-free.
type Assembler struct {
	frame *Frame
	clock int64 // samples consumed since the last Reset
}

// NewAssembler creates an assembler producing frames of the given capacity.
func NewAssembler(capacity int) *Assembler {
	return &Assembler{frame: NewFrame(capacity)}
}

// Clock returns the presentation clock: the total number of samples pushed
// since the assembler was created or last Reset.
func (a *Assembler) Clock() int64 { return a.clock }

// Push clamps and accumulates one audio block. emit is invoked zero or more
// times with a completely filled frame and must be non-nil whenever the push
// can fill the frame; the frame is only valid for the duration of the
// callback. A non-nil error from emit stops consumption and is returned,
// with the clock reflecting only the samples consumed so far.
func (a *Assembler) Push(block []float32, emit func(*Frame) error) error {
	f := a.frame
	for len(block) > 0 {
		n := f.Capacity() - f.Filled
		if n > len(block) {
			n = len(block)
		}
		if f.Filled == 0 {
			f.PTS = a.clock
		}
		dst := f.Samples[f.Filled : f.Filled+n]
		for i, s := range block[:n] {
			if s < -1.0 {
				s = -1.0
			} else if s > 1.0 {
				s = 1.0
			}
			dst[i] = s
		}
		f.Filled += n
		a.clock += int64(n)
		block = block[n:]

		if f.Filled == f.Capacity() {
			if err := emit(f); err != nil {
				f.Filled = 0
				return err
			}
			f.Filled = 0
		}
	}
	return nil
}

// Flush emits the partially filled frame, if any. Used on teardown so the
// tail of the signal reaches the encoder before the trailer is written.
func (a *Assembler) Flush(emit func(*Frame) error) error {
	f := a.frame
	if f.Filled == 0 {
		return nil
	}
	err := emit(f)
	f.Filled = 0
	return err
}

// Reset zeroes the presentation clock and discards any buffered samples.
func (a *Assembler) Reset() {
	a.frame.Reset()
	a.clock = 0
}
