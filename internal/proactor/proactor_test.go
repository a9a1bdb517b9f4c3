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
	"runtime"
	"testing"
	"time"

	"github.com/sagarsabu/go-proactor/internal/iouring"
	"github.com/stretchr/testify/require"
)

// skipIfUnsupported mirrors internal/iouring's own guard: these tests
// drive a real Ring, so they only run where io_uring is actually
// available.
func skipIfUnsupported(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("io_uring is only supported on Linux")
	}
	ring, err := iouring.NewRing(8, nil)
	if err != nil {
		t.Skipf("io_uring unavailable: %v", err)
	}
	ring.Close()
}

func newTestProactor(t *testing.T) *Proactor {
	t.Helper()
	ring, err := iouring.NewRing(32, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ring.Close() })
	return New(ring, nil)
}

// pump dispatches completions until fn reports done or n iterations
// have run without it doing so.
func pump(t *testing.T, p *Proactor, n int, fn func() bool) {
	t.Helper()
	for i := 0; i < n; i++ {
		guard, err := p.ring.WaitOne()
		require.NoError(t, err)
		if guard.Empty() {
			continue
		}
		p.dispatch(guard)
		if fn() {
			return
		}
	}
	t.Fatalf("condition not met after %d completions", n)
}

func TestAddTimerHandler_AssignsDistinctHandleIDs(t *testing.T) {
	p := newTestProactor(t)

	a := NewTimer("a", time.Second, nil)
	b := NewTimer("b", time.Second, nil)
	require.NoError(t, p.AddTimerHandler(a))
	require.NoError(t, p.AddTimerHandler(b))

	require.NotEqual(t, a.State().HandleID(), b.State().HandleID())
	require.Len(t, p.pendingStart, 2)
}

func TestAddTimerHandler_RejectsDuplicateRegistration(t *testing.T) {
	p := newTestProactor(t)

	tm := NewTimer("dup", time.Second, nil)
	require.NoError(t, p.AddTimerHandler(tm))
	require.Error(t, p.AddTimerHandler(tm))
}

func TestStartTimerHandler_IdempotentOnAlreadyArmed(t *testing.T) {
	p := newTestProactor(t)

	tm := NewTimer("armed-twice", time.Hour, nil)
	require.NoError(t, p.AddTimerHandler(tm))
	require.NoError(t, p.StartTimerHandler(tm))
	firstToken := tm.State().expiredToken

	require.NoError(t, p.StartTimerHandler(tm))
	require.Equal(t, firstToken, tm.State().expiredToken)
}

func TestUpdateTimerHandler_NoopOnSamePeriod(t *testing.T) {
	p := newTestProactor(t)

	tm := NewTimer("same-period", 50*time.Millisecond, nil)
	require.NoError(t, p.AddTimerHandler(tm))
	require.NoError(t, p.StartTimerHandler(tm))

	before := p.tokenIDs.next.Load()
	require.NoError(t, p.UpdateTimerHandler(tm, 50*time.Millisecond))
	require.Equal(t, before, p.tokenIDs.next.Load(), "same-period update must not submit anything")
}

func TestTimerLifecycle_ExpireThenCancel(t *testing.T) {
	p := newTestProactor(t)

	var fired int
	tm := NewTimer("lifecycle", 5*time.Millisecond, func() { fired++ })
	require.NoError(t, p.AddTimerHandler(tm))
	require.NoError(t, p.StartTimerHandler(tm))

	pump(t, p, 50, func() bool { return fired >= 2 })

	require.NoError(t, p.RemoveTimerHandler(tm))
	pump(t, p, 50, func() bool {
		_, stillRegistered := p.timerHandlers[tm.State().HandleID()]
		return !stillRegistered
	})

	require.Equal(t, timerRetired, tm.State().lifecycle)
	_, stillPending := p.pendingEvents[tm.State().expiredToken]
	require.False(t, stillPending, "expired event token must be retired on cancellation")
}

func TestDispatch_StrayCompletionIsIgnored(t *testing.T) {
	p := newTestProactor(t)
	const strayToken = 12345
	require.NoError(t, p.ring.SubmitTimeout(strayToken, time.Millisecond))

	guard, err := p.ring.WaitOne()
	require.NoError(t, err)
	require.False(t, guard.Empty())
	require.Equal(t, uint64(strayToken), guard.UserData())

	require.NotPanics(t, func() { p.dispatch(guard) })
	_, ok := p.pendingEvents[strayToken]
	require.False(t, ok, "a token never registered in pendingEvents must stay absent")
}
