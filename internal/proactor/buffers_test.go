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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocFreeBuffer(t *testing.T) {
	buf := allocBuffer(tcpRecvBufSize)
	require.Len(t, buf, tcpRecvBufSize)

	buf[0] = 0xAB
	freeBuffer(buf)

	// Allocating again (here a smaller size) should not panic even if
	// mcache recycles the backing array.
	again := allocBuffer(signalfdBufSize)
	require.Len(t, again, signalfdBufSize)
	freeBuffer(again)
}
