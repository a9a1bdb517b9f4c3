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
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSigsetAdd(t *testing.T) {
	var set unix.Sigset_t
	sigsetAdd(&set, syscall.SIGUSR1)

	idx := (syscall.SIGUSR1 - 1) / 64
	bit := uint64(syscall.SIGUSR1-1) % 64
	require.NotZero(t, set.Val[idx]&(1<<bit))
}

// TestAddSignalHandler_ArmsRead checks the bookkeeping side of
// AddSignalHandler: a record is kept, a read is outstanding for it,
// and attaching the same signal again fails. Actually raising the
// signal and asserting delivery is deliberately not tested here — a
// process-directed signal can land on any OS thread, and only the one
// that called PthreadSigmask(BLOCK) is guaranteed to route it through
// the signalfd rather than Go's runtime signal handler.
func TestAddSignalHandler_ArmsRead(t *testing.T) {
	skipIfUnsupported(t)

	p := newTestProactor(t)

	require.NoError(t, p.AddSignalHandler(syscall.SIGUSR2, func() {}))

	rec, ok := p.signalHandlers[int(syscall.SIGUSR2)]
	require.True(t, ok)
	require.Equal(t, int(syscall.SIGUSR2), rec.signum)

	var found bool
	for _, ev := range p.pendingEvents {
		if ev.kind == kindSignal && ev.signal.signum == int(syscall.SIGUSR2) {
			found = true
			require.True(t, ev.retires)
		}
	}
	require.True(t, found, "expected an outstanding signalfd read for SIGUSR2")

	require.Error(t, p.AddSignalHandler(syscall.SIGUSR2, func() {}), "re-attaching the same signal must fail")
}
