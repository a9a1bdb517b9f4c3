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

func TestTxQueue_FIFO(t *testing.T) {
	var q txQueue
	require.Equal(t, 0, q.len())
	require.Nil(t, q.drain())

	q.enqueue([]byte("first"))
	q.enqueue([]byte("second"))
	require.Equal(t, 2, q.len())

	got := q.drain()
	require.Equal(t, [][]byte{[]byte("first"), []byte("second")}, got)

	// draining empties the queue
	require.Equal(t, 0, q.len())
	require.Nil(t, q.drain())
}
