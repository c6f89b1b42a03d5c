// Package transport dials the physical outputs a stream session writes
// through: SRT for push streaming and QUIC for session streaming. Dials are
// synchronous and bounded; once open, a transport is a plain io.WriteCloser
// so the mux layer never sees protocol detail.
package transport

import (
	"context"
	"io"
)

// Dialer opens the physical output for an endpoint. Implementations must
// return within the deadline carried by ctx; a successful dial hands back
// exclusive ownership of the connection.
type Dialer func(ctx context.Context, endpoint string) (io.WriteCloser, error)
