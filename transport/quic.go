package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/quic-go/quic-go"
)

// QUICScheme prefixes every session-stream endpoint.
const QUICScheme = "quic://"

// ALPN is the application protocol token announced on QUIC dials.
const ALPN = "pdstream/1"

const defaultQUICDialTimeout = 10 * time.Second

const quicErrDone quic.ApplicationErrorCode = 0

// quicStream carries the container over a single reliable ordered QUIC
// stream, the session-stream equivalent of a TCP transport selection.
type quicStream struct {
	conn   quic.Connection
	stream quic.Stream
}

func (q *quicStream) Write(p []byte) (int, error) { return q.stream.Write(p) }

// Close finishes the stream and then the connection, so the receiver sees a
// clean end of stream before the session goes away.
func (q *quicStream) Close() error {
	err := q.stream.Close()
	if cerr := q.conn.CloseWithError(quicErrDone, "stream complete"); err == nil {
		err = cerr
	}
	return err
}

// QUICConfig adjusts how session-stream transports are dialed.
type QUICConfig struct {
	// RootCAs verifies the receiver when set. When nil, verification is
	// skipped: the transport is unauthenticated and TLS is only present
	// because QUIC requires it.
	RootCAs *x509.CertPool
}

// DialQUIC opens a QUIC connection to a quic://host:port endpoint and a
// single bidirectional stream on it. The dial is bounded by the context
// deadline, falling back to a 10 second timeout.
func DialQUIC(ctx context.Context, endpoint string) (io.WriteCloser, error) {
	return QUICConfig{}.Dial(ctx, endpoint)
}

// Dial is DialQUIC with explicit configuration.
func (c QUICConfig) Dial(ctx context.Context, endpoint string) (io.WriteCloser, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme != "quic" || u.Host == "" {
		return nil, fmt.Errorf("quic: invalid endpoint %q", endpoint)
	}

	dialCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultQUICDialTimeout)
		defer cancel()
	}

	tlsConf := &tls.Config{
		NextProtos: []string{ALPN},
	}
	if c.RootCAs != nil {
		tlsConf.RootCAs = c.RootCAs
	} else {
		tlsConf.InsecureSkipVerify = true
	}

	conn, err := quic.DialAddr(dialCtx, u.Host, tlsConf, &quic.Config{})
	if err != nil {
		return nil, fmt.Errorf("quic: dial %s: %w", u.Host, err)
	}

	stream, err := conn.OpenStreamSync(dialCtx)
	if err != nil {
		conn.CloseWithError(quicErrDone, "no stream")
		return nil, fmt.Errorf("quic: open stream to %s: %w", u.Host, err)
	}

	return &quicStream{conn: conn, stream: stream}, nil
}
