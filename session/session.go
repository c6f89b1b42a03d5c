// Package session implements the stream session state machine: it owns the
// encoder, muxer, and transport handles for one streaming destination,
// drives the per-block encode-dispatch loop, and guarantees that
// reconfiguration and teardown never leak a handle or leave the session
// half-open.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tonyrewin/rtspstreamer/codec"
	"github.com/tonyrewin/rtspstreamer/container"
	"github.com/tonyrewin/rtspstreamer/media"
	"github.com/tonyrewin/rtspstreamer/metrics"
	"github.com/tonyrewin/rtspstreamer/report"
	"github.com/tonyrewin/rtspstreamer/service"
)

// State is the lifecycle phase of a session.
type State int

// Session states. Connecting and TearingDown are only observable from
// another goroutine; within one call sequence they are transient.
const (
	Idle State = iota
	Connecting
	Streaming
	TearingDown
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case TearingDown:
		return "tearing-down"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// defaultFrameCapacity sizes the reusable frame when the encoder does not
// require a fixed frame size.
const defaultFrameCapacity = 1024

const defaultSampleRate = 48_000

// errSubmit aborts the remainder of a block after an encoder submit failure.
// The failure is already reported when this is returned.
var errSubmit = errors.New("session: frame submit failed")

// Options configures a session at creation.
type Options struct {
	// SampleRate of the host signal. Defaults to 48000.
	SampleRate int
	// BitRate for the encoder. Defaults to the profile's choice.
	BitRate int
	// DialTimeout bounds the synchronous transport dial. Zero leaves the
	// transport's own default in place.
	DialTimeout time.Duration
	// Reporter receives diagnostics. Defaults to a slog-backed reporter.
	Reporter report.Reporter
	// Logger for lifecycle events. Defaults to slog.Default().
	Logger *slog.Logger
	// Metrics instrumentation. Nil records nothing.
	Metrics *metrics.Metrics
}

// Session streams host audio blocks to one remote endpoint. All methods are
// safe for serialized use from any goroutine: an internal mutex enforces the
// single-writer discipline over the owned handles, so a multi-threaded host
// cannot interleave a reconfiguration with an audio block.
type Session struct {
	mu      sync.Mutex
	profile service.Profile
	opts    Options
	log     *slog.Logger
	rep     report.Reporter
	met     *metrics.Metrics

	state    State
	endpoint string
	lastErr  error

	// Owned handles, non-nil exactly while state is Connecting, Streaming,
	// or TearingDown. Released exactly once per acquisition.
	enc  codec.Encoder
	mux  container.Muxer
	conn io.WriteCloser
	asm  *media.Assembler

	desc        media.Descriptor
	streamIndex int
}

// New creates a session for the given profile. If initialEndpoint is
// non-empty, a connect is attempted immediately; failures leave the session
// usable and are reported, never fatal (the on-create contract of the host).
func New(profile service.Profile, initialEndpoint string, opts Options) *Session {
	if opts.SampleRate <= 0 {
		opts.SampleRate = defaultSampleRate
	}
	if opts.BitRate <= 0 {
		opts.BitRate = profile.DefaultBitRate
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Reporter == nil {
		opts.Reporter = report.NewLogReporter(opts.Logger)
	}

	s := &Session{
		profile: profile,
		opts:    opts,
		log:     opts.Logger.With("component", "session", "profile", profile.Name),
		rep:     opts.Reporter,
		met:     opts.Metrics,
		state:   Idle,
	}
	s.SetEndpoint(initialEndpoint)
	return s
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Endpoint returns the destination of the active stream, or the last value
// passed to SetEndpoint.
func (s *Session) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Clock returns the presentation clock in samples since the session last
// entered Streaming, or 0 when no stream is open.
func (s *Session) Clock() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asm == nil {
		return 0
	}
	return s.asm.Clock()
}

// LastError returns the diagnostic remembered by the Failed state, or nil.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetEndpoint reconfigures the streaming destination. An open stream is
// fully torn down first, so at most one stream is ever active and a
// reconfiguration can never leak the previous stream's resources. An empty
// or invalid endpoint leaves the session idle with an informational
// diagnostic; an acquisition failure releases everything acquired so far
// and is reported as an error.
func (s *Session) SetEndpoint(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Streaming || s.state == Connecting {
		s.teardownLocked()
	}

	s.endpoint = endpoint
	s.lastErr = nil

	if endpoint == "" {
		s.rep.Report(report.Info, "session", "no endpoint configured, not streaming")
		s.state = Idle
		return
	}
	if s.profile.ValidateEndpoint != nil {
		if err := s.profile.ValidateEndpoint(endpoint); err != nil {
			s.rep.Report(report.Info, "session", "invalid endpoint, not streaming: %v", err)
			s.state = Idle
			return
		}
	}

	if err := s.connectLocked(endpoint); err != nil {
		s.rep.Report(report.Error, "session", "connect to %q failed: %v", endpoint, err)
		s.met.RecordConnectFailure()
		s.lastErr = err
		s.state = Failed
		return
	}

	s.log.Info("streaming", "endpoint", endpoint,
		"codec", string(s.profile.Codec), "sample_rate", s.desc.SampleRate)
	s.met.RecordConnect()
}

// connectLocked runs the acquisition sequence. Any sub-step failure releases
// everything acquired so far and returns the error; no partial state
// survives.
func (s *Session) connectLocked(endpoint string) error {
	s.state = Connecting

	desc := media.Descriptor{
		SampleRate: s.opts.SampleRate,
		Channels:   1,
		BitRate:    s.opts.BitRate,
		Format:     s.profile.Format,
	}

	open := s.profile.OpenEncoder
	if open == nil {
		open = func(d media.Descriptor) (codec.Encoder, error) {
			return codec.Open(s.profile.Codec, d)
		}
	}
	enc, err := open(desc)
	if err != nil {
		s.releaseLocked()
		return fmt.Errorf("open encoder: %w", err)
	}
	s.enc = enc

	capacity := enc.FrameCapacity()
	if capacity == 0 {
		capacity = defaultFrameCapacity
	}

	var out io.Writer = io.Discard
	if s.profile.Dial != nil {
		ctx := context.Background()
		if s.opts.DialTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.DialTimeout)
			defer cancel()
		}
		conn, err := s.profile.Dial(ctx, endpoint)
		if err != nil {
			s.releaseLocked()
			return fmt.Errorf("open transport: %w", err)
		}
		s.conn = conn
		out = conn
	}

	s.mux = s.profile.NewMuxer(out, desc)
	if err := s.mux.WriteHeader(s.profile.Options); err != nil {
		s.releaseLocked()
		return fmt.Errorf("write container header: %w", err)
	}

	s.asm = media.NewAssembler(capacity)
	s.desc = desc
	s.streamIndex = 0
	s.state = Streaming
	return nil
}

// releaseLocked frees whatever the connect sequence has acquired so far,
// without writing any container structure. Only the connect failure path
// uses it; a successful stream is closed through teardownLocked instead.
func (s *Session) releaseLocked() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.enc != nil {
		s.enc.Close()
		s.enc = nil
	}
	s.mux = nil
	s.asm = nil
}

// ProcessBlock feeds one host audio block through the encode-dispatch loop.
// While the session is not streaming this returns immediately without
// touching any handle, keeping the real-time path free of blocking work.
// Encode and transmit failures are reported and the affected output dropped;
// the session stays in Streaming.
func (s *Session) ProcessBlock(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Streaming {
		return
	}
	s.met.RecordBlock()

	if err := s.asm.Push(samples, s.dispatchFrame); err != nil && !errors.Is(err, errSubmit) {
		s.rep.Report(report.Error, "session", "block dropped: %v", err)
	}
}

// dispatchFrame submits one assembled frame and drains every packet the
// encoder produces, stamping the stream index and handing each to the
// container for ordered transmission. Packet ownership is released
// immediately after the write, successful or not.
func (s *Session) dispatchFrame(f *media.Frame) error {
	if err := s.enc.Submit(f); err != nil {
		s.rep.Report(report.Error, "encoder", "submit frame at pts %d: %v", f.PTS, err)
		s.met.RecordEncodeError()
		return errSubmit
	}
	s.met.RecordFrame()

	for {
		pkt, err := s.enc.Receive()
		if errors.Is(err, codec.ErrNoPacket) {
			return nil
		}
		if err != nil {
			s.rep.Report(report.Error, "encoder", "drain packet: %v", err)
			s.met.RecordEncodeError()
			return nil
		}

		pkt.StreamIndex = s.streamIndex
		size, pts := len(pkt.Data), pkt.PTS
		werr := s.mux.WritePacket(pkt)
		pkt.Release()
		if werr != nil {
			s.rep.Report(report.Error, "transport", "write packet at pts %d: %v", pts, werr)
			s.met.RecordTransmitError()
			return nil
		}
		s.met.RecordPacket(size)
	}
}

// Teardown closes the active stream: the buffered tail is flushed through
// the encoder, the container trailer is written, and every handle is
// released exactly once. Errors along the way are reported but never stop
// the release. Calling Teardown on an idle session is a no-op.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

func (s *Session) teardownLocked() {
	if s.state == Idle || s.state == Failed {
		return
	}
	s.state = TearingDown

	// Best-effort flush of the assembled tail before the trailer.
	if s.asm != nil && s.enc != nil && s.mux != nil {
		if err := s.asm.Flush(s.dispatchFrame); err != nil && !errors.Is(err, errSubmit) {
			s.rep.Report(report.Error, "session", "flush on teardown: %v", err)
		}
	}

	if s.mux != nil {
		if err := s.mux.WriteTrailer(); err != nil {
			s.rep.Report(report.Error, "transport", "write container trailer: %v", err)
		}
		s.mux = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.rep.Report(report.Error, "transport", "close transport: %v", err)
		}
		s.conn = nil
	}
	if s.enc != nil {
		if err := s.enc.Close(); err != nil {
			s.rep.Report(report.Error, "encoder", "release encoder: %v", err)
		}
		s.enc = nil
	}
	if s.asm != nil {
		s.log.Info("stream closed", "endpoint", s.endpoint, "samples", s.asm.Clock())
		s.asm = nil
	}

	s.met.RecordTeardown()
	s.state = Idle
}

// Close tears the session down. It implements io.Closer for hosts that
// manage the session as a resource; the returned error is always nil
// because teardown is best-effort by design.
func (s *Session) Close() error {
	s.Teardown()
	return nil
}
