//go:build unix

package server

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlSocket enables address reuse so a restarted server can rebind while
// old connections sit in TIME_WAIT, and disables Nagle for the small frames.
func controlSocket(network, address string, rc syscall.RawConn) error {
	var opErr error
	err := rc.Control(func(fd uintptr) {
		if opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); opErr != nil {
			return
		}
		opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
	if err != nil {
		return err
	}
	return opErr
}
