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

//go:build linux && (mips64 || mips64le)

package iouring

import (
	"syscall"
	"unsafe"
)

// mips64/mips64le carry a distinct syscall table from the rest of
// linux/amd64, so these numbers can't come from x/sys/unix's generic
// constants.
const (
	sysIoUringSetup = 5425
	sysIoUringEnter = 5426
)

func setup(entries uint32, params *ioUringParams) (int, error) {
	fd, _, errno := syscall.Syscall(
		sysIoUringSetup,
		uintptr(entries),
		uintptr(unsafe.Pointer(params)),
		0,
	)
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}

func enter(fd int, toSubmit uint32, minComplete uint32, flags uint32) (int, syscall.Errno) {
	r, _, errno := syscall.Syscall6(
		sysIoUringEnter,
		uintptr(fd),
		uintptr(toSubmit),
		uintptr(minComplete),
		uintptr(flags),
		0,
		0,
	)
	return int(r), errno
}
