package transport

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	srtgo "github.com/zsiec/srtgo"
)

// SRTScheme prefixes every push-stream endpoint.
const SRTScheme = "srt://"

// srtLatencyNs is the SRT latency setting in nanoseconds (120ms).
const srtLatencyNs = 120_000_000

const defaultSRTDialTimeout = 10 * time.Second

// srtConn adapts an SRT connection to io.WriteCloser.
type srtConn struct {
	conn *srtgo.Conn
}

func (c *srtConn) Write(p []byte) (int, error) { return c.conn.Write(p) }

func (c *srtConn) Close() error {
	c.conn.Close()
	return nil
}

// DialSRT opens an SRT caller connection to an srt://host:port endpoint.
// An optional streamid query parameter sets the SRT stream ID announced to
// the listener. The dial is bounded by the context deadline, falling back
// to a 10 second timeout, and never leaks a connection on abandonment.
func DialSRT(ctx context.Context, endpoint string) (io.WriteCloser, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme != "srt" || u.Host == "" {
		return nil, fmt.Errorf("srt: invalid endpoint %q", endpoint)
	}

	cfg := srtgo.DefaultConfig()
	cfg.Latency = srtLatencyNs
	if id := u.Query().Get("streamid"); id != "" {
		cfg.StreamID = id
	}

	type dialResult struct {
		conn *srtgo.Conn
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := srtgo.Dial(u.Host, cfg)
		ch <- dialResult{conn, err}
	}()

	dialCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultSRTDialTimeout)
		defer cancel()
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("srt: dial %s: %w", u.Host, res.err)
		}
		return &srtConn{conn: res.conn}, nil
	case <-dialCtx.Done():
		// Drain the dial result in the background and close any leaked connection.
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, fmt.Errorf("srt: dial %s: %w", u.Host, dialCtx.Err())
	}
}
