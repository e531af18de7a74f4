//go:build !unix

package server

import "syscall"

func controlSocket(network, address string, rc syscall.RawConn) error {
	return nil
}
