/*
 * Copyright 2025 go-proactor Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package iouring

import (
	"fmt"
	"net"
	"unsafe"

	"golang.org/x/sys/unix"
)

// dialSocket opens a non-blocking TCP socket matching the family of ip
// and fills in a raw sockaddr for it, ready to be handed to an
// IORING_OP_CONNECT sqe as (Addr, Off). The socket is the caller's to
// close on any subsequent failure. The returned pin keeps the sockaddr
// reachable for the GC until the connect completion is reaped; the
// kernel holds a raw pointer to it for the lifetime of the async op,
// which the Go runtime knows nothing about.
func dialSocket(ip net.IP, port uint16) (fd int, sockaddr uintptr, salen int, pin any, err error) {
	if v4 := ip.To4(); v4 != nil {
		sock, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, unix.IPPROTO_TCP)
		if err != nil {
			return -1, 0, 0, nil, fmt.Errorf("socket(AF_INET): %w", err)
		}
		sa := &unix.RawSockaddrInet4{
			Family: unix.AF_INET,
			Port:   htons(port),
		}
		copy(sa.Addr[:], v4)
		return sock, uintptr(unsafe.Pointer(sa)), int(unsafe.Sizeof(*sa)), sa, nil
	}

	sock, err := unix.Socket(unix.AF_INET6, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, unix.IPPROTO_TCP)
	if err != nil {
		return -1, 0, 0, nil, fmt.Errorf("socket(AF_INET6): %w", err)
	}
	sa := &unix.RawSockaddrInet6{
		Family: unix.AF_INET6,
		Port:   htons(port),
	}
	copy(sa.Addr[:], ip.To16())
	return sock, uintptr(unsafe.Pointer(sa)), int(unsafe.Sizeof(*sa)), sa, nil
}

func htons(port uint16) uint16 {
	return (port << 8) | (port >> 8)
}
