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

import "sync/atomic"

// maxID is the saturation ceiling shared by both id namespaces: handle
// ids (timers, TCP clients) and event tokens. Both increment forever
// but never reach math.MaxUint64, so a zero value is unambiguously "no
// id" and the counter never wraps back to it.
const maxID uint64 = ^uint64(0) - 1

// idGenerator hands out a monotonically increasing, saturating 64-bit
// id. Two independent instances back the handle-id and event-token
// namespaces — they must never be confused, since a token travels as
// io_uring user_data while a handle id never leaves process memory.
type idGenerator struct {
	next atomic.Uint64
}

// nextID returns the next id, saturating at maxID instead of wrapping.
func (g *idGenerator) nextID() uint64 {
	for {
		cur := g.next.Load()
		if cur >= maxID {
			return maxID
		}
		if g.next.CompareAndSwap(cur, cur+1) {
			return cur + 1
		}
	}
}
