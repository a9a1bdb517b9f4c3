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

import "time"

// timerLifecycle is the state machine in spec §4.3: Armed, the steady
// state while a multishot TimerExpired event is outstanding;
// Cancelling, between issuing a timeout-remove and the Expired
// completion's -ECANCELED arriving; Retired, once the handler has been
// dropped from the registry.
type timerLifecycle int

const (
	timerUnarmed timerLifecycle = iota
	timerArmed
	timerCancelling
	timerRetired
)

// TimerState is the mutable bookkeeping a TimerHandler carries. It is
// embedded (via BaseTimer) rather than exposed directly so the
// proactor package is the only code that mutates it; external
// TimerHandler implementations only ever read Name()/Period() or hand
// the whole handler back to the Proactor.
type TimerState struct {
	handleID     uint64
	name         string
	period       time.Duration
	expiredToken uint64
	lifecycle    timerLifecycle
	owner        *Proactor
}

// Period returns the timer's current period.
func (s *TimerState) Period() time.Duration { return s.period }

// HandleID returns the handler's handle id, valid once registered.
func (s *TimerState) HandleID() uint64 { return s.handleID }

// TimerHandler is anything the timer subsystem can drive: a name for
// diagnostics, an expiry callback, and the embedded state the proactor
// manipulates. Implementations embed *BaseTimer and define their own
// OnExpire — TCPClient is the core's own example.
type TimerHandler interface {
	Name() string
	OnExpire()
	State() *TimerState
}

// BaseTimer is the concrete state every TimerHandler embeds. Its
// zero-value OnExpire is a no-op; embedders override it by declaring
// their own OnExpire method, which Go's method promotion rules give
// priority over the embedded one.
type BaseTimer struct {
	state TimerState
}

// NewBaseTimer constructs timer state with the given diagnostic name
// and initial period. The handle id and owning proactor are filled in
// by Proactor.AddTimerHandler.
func NewBaseTimer(name string, period time.Duration) *BaseTimer {
	return &BaseTimer{state: TimerState{name: name, period: period}}
}

func (b *BaseTimer) Name() string        { return b.state.name }
func (b *BaseTimer) State() *TimerState  { return &b.state }
func (b *BaseTimer) OnExpire()           {}

// Timer is a standalone periodic handler for callers that just want a
// callback on a period, without defining their own type — used by the
// demo timer in cmd/proactord.
type Timer struct {
	*BaseTimer
	fn func()
}

// NewTimer builds a Timer that calls fn every period once started.
func NewTimer(name string, period time.Duration, fn func()) *Timer {
	return &Timer{BaseTimer: NewBaseTimer(name, period), fn: fn}
}

// OnExpire invokes the configured callback.
func (t *Timer) OnExpire() {
	if t.fn != nil {
		t.fn()
	}
}
