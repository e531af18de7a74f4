package server

import (
	"context"
	"net"
)

// Listen opens a TCP listening socket for host and service. service may be a
// port number or a service name known to the resolver.
func Listen(ctx context.Context, host, service string) (net.Listener, error) {
	lc := net.ListenConfig{Control: controlSocket}
	return lc.Listen(ctx, "tcp", net.JoinHostPort(host, service))
}
