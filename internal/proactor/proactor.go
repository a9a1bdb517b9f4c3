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

// Package proactor implements the single-threaded completion dispatch
// loop, its event registry, and the timer/signal/TCP-client handler
// subsystems built on top of internal/iouring.
package proactor

import (
	"fmt"
	"syscall"
	"time"

	"github.com/sagarsabu/go-proactor/internal/iouring"
	"github.com/sagarsabu/go-proactor/internal/logx"
	"github.com/sagarsabu/go-proactor/internal/timing"
)

// timerDeadline is the scoped-deadline budget for a timer's OnExpire
// callback (spec §4.3, §5).
const timerDeadline = 20 * time.Millisecond

// Proactor is the dispatch loop: it owns the Ring, every registry, and
// the two id namespaces (handle ids, event tokens). Nothing here is
// safe for concurrent use — it is driven exclusively from Run.
type Proactor struct {
	ring *iouring.Ring
	log  logx.Logger

	handleIDs idGenerator
	tokenIDs  idGenerator

	pendingEvents  map[uint64]*event
	timerHandlers  map[uint64]TimerHandler
	tcpClients     map[uint64]*TCPClient
	signalHandlers map[int]*signalHandlerRecord

	pendingStart []TimerHandler
	started      bool
	running      bool
}

// New builds a Proactor driven by ring. A nil logger falls back to a
// no-op logger.
func New(ring *iouring.Ring, log logx.Logger) *Proactor {
	if log == nil {
		log = logx.Noop()
	}
	return &Proactor{
		ring:           ring,
		log:            log,
		pendingEvents:  make(map[uint64]*event),
		timerHandlers:  make(map[uint64]TimerHandler),
		tcpClients:     make(map[uint64]*TCPClient),
		signalHandlers: make(map[int]*signalHandlerRecord),
	}
}

// AddTimerHandler registers h, assigning it a handle id and binding it
// to this proactor. If the dispatch loop is already running the timer
// is started immediately; otherwise it is started en masse at Run
// entry (spec §4.3).
func (p *Proactor) AddTimerHandler(h TimerHandler) error {
	st := h.State()
	if st.owner != nil {
		return fmt.Errorf("timer handler %q already registered", h.Name())
	}
	st.owner = p
	st.handleID = p.handleIDs.nextID()
	p.timerHandlers[st.handleID] = h

	if p.started {
		return p.StartTimerHandler(h)
	}
	p.pendingStart = append(p.pendingStart, h)
	return nil
}

// StartTimerHandler arms h's multishot timeout. Idempotent: starting
// an already-armed timer logs and returns nil (spec §8 round-trip
// property "start on an already-armed timer is a no-op aside from
// logging").
func (p *Proactor) StartTimerHandler(h TimerHandler) error {
	st := h.State()
	if st.lifecycle == timerArmed {
		p.log.Debugf("proactor: timer %q already armed", h.Name())
		return nil
	}

	token := p.tokenIDs.nextID()
	if err := p.ring.SubmitTimeout(token, st.period); err != nil {
		p.log.Errorf("proactor: failed to arm timer %q: %s", h.Name(), err)
		return err
	}

	st.expiredToken = token
	st.lifecycle = timerArmed
	p.pendingEvents[token] = &event{
		token: token, kind: kindTimerExpired, handle: st.handleID, retires: false,
	}
	return nil
}

// UpdateTimerHandler rearms h's timeout with a new period. A no-op
// when newPeriod equals the current period (spec §8 invariant 6).
func (p *Proactor) UpdateTimerHandler(h TimerHandler, newPeriod time.Duration) error {
	st := h.State()
	if newPeriod == st.period {
		return nil
	}

	token := p.tokenIDs.nextID()
	if err := p.ring.SubmitTimeoutUpdate(token, st.expiredToken, newPeriod); err != nil {
		p.log.Errorf("proactor: failed to update timer %q: %s", h.Name(), err)
		return err
	}

	st.period = newPeriod
	p.pendingEvents[token] = &event{
		token: token, kind: kindTimerUpdate, handle: st.handleID, retires: true,
	}
	return nil
}

// RemoveTimerHandler requests cancellation of h's timeout. The handler
// is not dropped from timerHandlers until the original TimerExpired
// completion arrives with -ECANCELED (spec §5 cancellation semantics);
// handler storage must outlive that completion.
func (p *Proactor) RemoveTimerHandler(h TimerHandler) error {
	st := h.State()
	if st.lifecycle != timerArmed {
		return nil
	}

	token := p.tokenIDs.nextID()
	if err := p.ring.SubmitTimeoutRemove(token, st.expiredToken); err != nil {
		p.log.Errorf("proactor: failed to remove timer %q: %s", h.Name(), err)
		return err
	}

	st.lifecycle = timerCancelling
	p.pendingEvents[token] = &event{
		token: token, kind: kindTimerCancel, handle: st.handleID, retires: true,
	}
	return nil
}

// Run attaches the default shutdown signal handlers, starts every
// timer registered before this call, and dispatches completions until
// a shutdown signal is delivered. It is the core's only blocking entry
// point.
func (p *Proactor) Run() error {
	if err := p.AttachExitHandlers(); err != nil {
		return fmt.Errorf("attach exit handlers: %w", err)
	}

	p.started = true
	p.running = true
	for _, h := range p.pendingStart {
		_ = p.StartTimerHandler(h)
	}
	p.pendingStart = nil

	for p.running {
		guard, err := p.ring.WaitOne()
		if err != nil {
			p.log.Errorf("proactor: wait failed: %s", err)
			continue
		}
		if guard.Empty() {
			continue
		}
		p.dispatch(guard)
	}
	return nil
}

func (p *Proactor) dispatch(guard iouring.CompletionGuard) {
	defer guard.Seen()

	token := guard.UserData()
	ev, ok := p.pendingEvents[token]
	if !ok {
		p.log.Warningf("proactor: stray completion for token %d", token)
		return
	}

	res := guard.Result()
	switch ev.kind {
	case kindTimerExpired:
		// Retirement for this kind is conditional (only on cancel
		// acknowledgment) and handled inside handleTimerExpired itself.
		p.handleTimerExpired(ev, res)
		return
	case kindTimerUpdate:
		p.handleTimerUpdate(ev, res)
	case kindTimerCancel:
		p.handleTimerCancel(ev, res)
	case kindSignal:
		p.handleSignal(ev, res)
	case kindTCPConnect:
		p.handleTCPConnect(ev, res)
	case kindTCPSend:
		p.handleTCPSend(ev, res)
	case kindTCPRecv:
		p.handleTCPRecv(ev, res)
	default:
		p.log.Errorf("proactor: unhandled event kind %s", ev.kind)
	}

	if ev.retires {
		delete(p.pendingEvents, token)
	}
}

func (p *Proactor) handleTimerExpired(ev *event, res int32) {
	h, ok := p.timerHandlers[ev.handle]
	if !ok {
		// Cancellation race: the handler is already gone. Still honor
		// the cancel acknowledgment by retiring the event.
		delete(p.pendingEvents, ev.token)
		return
	}

	if res == -int32(syscall.ECANCELED) {
		// Step 3 of cancellation (spec §5): only now is the handler
		// actually dropped from the registry.
		delete(p.timerHandlers, ev.handle)
		delete(p.pendingEvents, ev.token)
		h.State().lifecycle = timerRetired
		return
	}

	if res != -int32(syscall.ETIME) {
		p.log.Warningf("proactor: timer %q unexpected completion result %d", h.Name(), res)
	}

	deadline := timing.StartDeadline(p.log, "TimerHandler:"+h.Name(), timerDeadline)
	h.OnExpire()
	deadline.Done()
	// Multishot: the event stays in pendingEvents for the next firing.
}

func (p *Proactor) handleTimerUpdate(ev *event, res int32) {
	if res != 0 {
		p.log.Warningf("proactor: timer update for handle %d failed: %s", ev.handle, syscall.Errno(-res))
	}
}

func (p *Proactor) handleTimerCancel(ev *event, res int32) {
	if res != 0 {
		p.log.Warningf("proactor: timer cancel for handle %d failed: %s", ev.handle, syscall.Errno(-res))
	}
}
