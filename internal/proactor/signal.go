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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// shutdownSignals are blocked and delivered via signalfd on loop
// entry; any of them triggers a graceful shutdown.
var shutdownSignals = []syscall.Signal{syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM}

type signalHandlerRecord struct {
	signum   int
	fd       int
	callback func()
}

// sigsetAdd sets sig's bit in set. unix.Sigset_t has no exported
// helper for single-signal construction, so this mirrors what
// sigaddset does in glibc.
func sigsetAdd(set *unix.Sigset_t, sig syscall.Signal) {
	set.Val[(sig-1)/64] |= 1 << (uint64(sig-1) % 64)
}

// AttachExitHandlers blocks SIGINT/SIGQUIT/SIGTERM on the calling OS
// thread (see AddSignalHandler), opens a signalfd for each, and wires
// the default shutdown callback. It
// also ignores SIGPIPE, since a broken TCP peer must not kill the
// process. Called once at Run entry.
func (p *Proactor) AttachExitHandlers() error {
	signal.Ignore(syscall.SIGPIPE)

	for _, sig := range shutdownSignals {
		if err := p.AddSignalHandler(sig, p.Shutdown); err != nil {
			return fmt.Errorf("attach exit handler for %s: %w", sig, err)
		}
	}
	return nil
}

// AddSignalHandler blocks sig, opens a dedicated signalfd for it, and
// arms the first read. callback runs on every delivery of sig that
// reaches the signalfd until the proactor stops. The block uses
// PthreadSigmask and so covers only the calling OS thread; an instance
// of sig delivered to another thread of the process is not blocked
// there and does not go through the signalfd.
func (p *Proactor) AddSignalHandler(sig syscall.Signal, callback func()) error {
	if _, exists := p.signalHandlers[int(sig)]; exists {
		return fmt.Errorf("signal %s already attached", sig)
	}

	var set unix.Sigset_t
	sigsetAdd(&set, sig)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, nil); err != nil {
		return fmt.Errorf("sigprocmask(BLOCK, %s): %w", sig, err)
	}

	fd, err := unix.Signalfd(-1, &set, unix.SFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("signalfd(%s): %w", sig, err)
	}

	rec := &signalHandlerRecord{signum: int(sig), fd: fd, callback: callback}
	p.signalHandlers[int(sig)] = rec
	return p.requestSignalRead(rec)
}

// requestSignalRead submits the next fixed-size read into a fresh
// event buffer for rec.
func (p *Proactor) requestSignalRead(rec *signalHandlerRecord) error {
	token := p.tokenIDs.nextID()
	buf := allocBuffer(signalfdBufSize)
	if err := p.ring.SubmitRead(token, rec.fd, buf); err != nil {
		freeBuffer(buf)
		p.log.Errorf("proactor: submit signal read for %d failed: %s", rec.signum, err)
		return err
	}
	p.pendingEvents[token] = &event{
		token:   token,
		kind:    kindSignal,
		retires: true,
		signal:  &signalPayload{signum: rec.signum, fd: rec.fd, buf: buf},
	}
	return nil
}

func (p *Proactor) handleSignal(ev *event, res int32) {
	buf := ev.signal.buf
	defer freeBuffer(buf)

	if res < 0 {
		p.log.Errorf("proactor: signalfd read failed for signal %d: %s", ev.signal.signum, syscall.Errno(-res))
		return
	}
	if int(res) != signalfdBufSize {
		p.log.Errorf("proactor: short signalfd read for signal %d: %d bytes", ev.signal.signum, res)
		return
	}

	rec, ok := p.signalHandlers[ev.signal.signum]
	if !ok {
		p.log.Warningf("proactor: stray signal completion for %d", ev.signal.signum)
		return
	}

	info := (*unix.SignalfdSiginfo)(unsafe.Pointer(&buf[0]))
	if int(info.Signo) != rec.signum {
		// Unexpected signal reaching an fd we didn't arm for it: the
		// core has no recovery path for this, so it terminates rather
		// than run with a signal pipeline in an unknown state.
		p.log.Criticalf("proactor: signalfd %d delivered unexpected signal %d", rec.fd, info.Signo)
		os.Exit(1)
	}

	rec.callback()

	if err := p.requestSignalRead(rec); err != nil {
		p.log.Errorf("proactor: failed to re-arm signal %d: %s", rec.signum, err)
	}
}

// Shutdown flips the running flag false; the dispatch loop exits after
// the current completion. This is the default callback wired by
// AttachExitHandlers.
func (p *Proactor) Shutdown() {
	p.running = false
}
