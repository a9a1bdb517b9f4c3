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

package proactor

import "github.com/bytedance/gopkg/lang/mcache"

// signalfdBufSize matches struct signalfd_siginfo on Linux.
const signalfdBufSize = 128

// tcpRecvBufSize is the fixed receive buffer size per spec §3.
const tcpRecvBufSize = 1024

// allocBuffer pools RX/signalfd buffers through the teacher's own
// mcache allocator (the same pooling idiom used by bufiox/gridbuf/xbuf)
// instead of a bare make([]byte, n) on every submission.
func allocBuffer(size int) []byte {
	return mcache.Malloc(size)
}

// freeBuffer returns a buffer obtained from allocBuffer to the pool.
// Only safe to call once the kernel is done writing into or reading
// from it, i.e. after the owning completion has been reaped.
func freeBuffer(buf []byte) {
	mcache.Free(buf)
}
