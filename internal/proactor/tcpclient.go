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
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// tcpState is the TCP client's connection state machine (spec §4.5).
type tcpState int

const (
	tcpUnknown tcpState = iota
	tcpBroken
	tcpConnecting
	tcpConnected
)

func (s tcpState) String() string {
	switch s {
	case tcpUnknown:
		return "Unknown"
	case tcpBroken:
		return "Broken"
	case tcpConnecting:
		return "Connecting"
	case tcpConnected:
		return "Connected"
	default:
		return "?"
	}
}

// TCPClient specializes a timer handler (spec §3 "TCP client handler")
// with a 1-second initial tick that drives connect/health-check logic.
// It owns a TX FIFO and tracks at most one outstanding receive.
type TCPClient struct {
	*BaseTimer

	host, port string
	fd         int
	state      tcpState
	tx         txQueue
	rxPending  bool

	onConnect func()
	onReceive func([]byte)

	// greeting, if set, is called on every Connected+reachable tick and
	// its result enqueued onto the TX queue ahead of the drain. This is
	// how the demo TCP client (cmd/proactord) produces the "client
	// saying hi" payload without the core baking in a fixed message.
	greeting func() []byte
}

// NewTCPClient builds a TCP client targeting host:port. onConnect and
// onReceive may be nil.
func NewTCPClient(host, port string, onConnect func(), onReceive func([]byte)) *TCPClient {
	c := &TCPClient{
		host: host, port: port, fd: -1, state: tcpUnknown,
		onConnect: onConnect, onReceive: onReceive,
	}
	c.BaseTimer = NewBaseTimer(fmt.Sprintf("tcp-client:%s:%s", host, port), time.Second)
	return c
}

// WithGreeting installs the optional per-tick greeting producer.
func (c *TCPClient) WithGreeting(fn func() []byte) *TCPClient {
	c.greeting = fn
	return c
}

// Enqueue appends data to the outbound FIFO; it is sent on the next
// Connected+reachable tick.
func (c *TCPClient) Enqueue(data []byte) {
	c.tx.enqueue(data)
}

// FD returns the current socket fd, or -1 if not Connected.
func (c *TCPClient) FD() int { return c.fd }

// ConnState reports the current connection state.
func (c *TCPClient) ConnState() string { return c.state.String() }

// OnExpire implements the per-tick table in spec §4.5. It overrides
// BaseTimer's no-op via method promotion priority.
func (c *TCPClient) OnExpire() {
	p := c.State().owner

	switch c.state {
	case tcpUnknown, tcpBroken:
		if c.issueConnect(p) {
			c.state = tcpConnecting
			_ = p.UpdateTimerHandler(c, time.Second)
		}
		// Submission failed: issueConnect has marked the client Broken;
		// it retries on the next tick at the current period rather than
		// getting stranded in Connecting with no completion ever coming.

	case tcpConnecting:
		_ = p.UpdateTimerHandler(c, 50*time.Millisecond)

	case tcpConnected:
		if c.probeReachable() {
			if c.greeting != nil {
				c.tx.enqueue(c.greeting())
			}
			c.drainTX(p)
			c.ensureRX(p)
			_ = p.UpdateTimerHandler(c, 5*time.Second)
		} else {
			unix.Close(c.fd)
			c.fd = -1
			c.rxPending = false
			c.state = tcpBroken
			_ = p.UpdateTimerHandler(c, 20*time.Millisecond)
		}
	}
}

// issueConnect submits an async connect and reports whether submission
// succeeded. The caller must only transition to Connecting on true —
// on false no completion will ever arrive, so staying out of
// Connecting is what lets the next tick retry.
func (c *TCPClient) issueConnect(p *Proactor) bool {
	token := p.tokenIDs.nextID()
	fd, err := p.ring.SubmitConnect(token, c.host, c.port)
	if err != nil {
		p.log.Warningf("tcp client %s: submit connect failed: %s", c.Name(), err)
		c.state = tcpBroken
		return false
	}
	p.pendingEvents[token] = &event{
		token: token, kind: kindTCPConnect, handle: c.State().handleID, retires: true,
		tcpConnect: &tcpConnectPayload{host: c.host, port: c.port, fd: fd},
	}
	return true
}

// probeReachable issues the synchronous MSG_PEEK|MSG_DONTWAIT probe
// described in spec §4.5. It is deliberately not routed through the
// Ring: it is a cheap, non-blocking syscall, not an async op needing a
// completion.
func (c *TCPClient) probeReachable() bool {
	var buf [1]byte
	n, _, err := unix.Recvfrom(c.fd, buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
	if err != nil {
		return err == unix.EINTR || err == unix.EWOULDBLOCK || err == unix.EAGAIN
	}
	return n > 0
}

func (c *TCPClient) drainTX(p *Proactor) {
	for _, buf := range c.tx.drain() {
		token := p.tokenIDs.nextID()
		if err := p.ring.SubmitSend(token, c.fd, buf); err != nil {
			p.log.Errorf("tcp client %s: submit send failed: %s", c.Name(), err)
			continue
		}
		p.pendingEvents[token] = &event{
			token: token, kind: kindTCPSend, handle: c.State().handleID, retires: true,
			tcpSend: &tcpSendPayload{fd: c.fd, data: buf},
		}
	}
}

func (c *TCPClient) ensureRX(p *Proactor) {
	if c.rxPending {
		return
	}
	token := p.tokenIDs.nextID()
	buf := allocBuffer(tcpRecvBufSize)
	if err := p.ring.SubmitRecv(token, c.fd, buf); err != nil {
		freeBuffer(buf)
		p.log.Errorf("tcp client %s: submit recv failed: %s", c.Name(), err)
		return
	}
	c.rxPending = true
	p.pendingEvents[token] = &event{
		token: token, kind: kindTCPRecv, handle: c.State().handleID, retires: true,
		tcpRecv: &tcpRecvPayload{fd: c.fd, buf: buf},
	}
}

// AddTCPClient registers c as both a timer handler (driving its ticks)
// and a TCP client (for connect/send/recv completion dispatch).
func (p *Proactor) AddTCPClient(c *TCPClient) error {
	if err := p.AddTimerHandler(c); err != nil {
		return err
	}
	p.tcpClients[c.State().handleID] = c
	return nil
}

// RemoveTCPClient requests removal of the underlying timer and closes
// the socket if one is open. Cancellation is asynchronous, per spec §5
// — in-flight send/recv completions for this client may still arrive
// and are dropped as benign strays.
func (p *Proactor) RemoveTCPClient(c *TCPClient) error {
	if c.fd >= 0 {
		unix.Close(c.fd)
		c.fd = -1
	}
	delete(p.tcpClients, c.State().handleID)
	return p.RemoveTimerHandler(c)
}

func (p *Proactor) handleTCPConnect(ev *event, res int32) {
	payload := ev.tcpConnect
	p.ring.ReleaseConnect(payload.fd)

	client, ok := p.tcpClients[ev.handle]
	if !ok {
		if payload.fd >= 0 {
			unix.Close(payload.fd)
		}
		p.log.Warningf("proactor: stray tcp connect completion for handle %d", ev.handle)
		return
	}

	if res < 0 {
		if payload.fd >= 0 {
			unix.Close(payload.fd)
		}
		client.state = tcpBroken
		p.log.Warningf("tcp connect to %s:%s failed: %s", payload.host, payload.port, syscall.Errno(-res))
		return
	}

	client.fd = payload.fd
	client.state = tcpConnected
	if client.onConnect != nil {
		client.onConnect()
	}
}

// handleTCPSend does not free ev.tcpSend.data: unlike RX buffers (which
// the proactor itself allocates from the pool via allocBuffer and so
// must itself free), TX buffers are caller-owned — they arrive through
// Enqueue/the greeting hook as plain caller slices, not guaranteed to
// come from allocBuffer. Freeing them here would hand a non-pooled
// slice to mcache.Free. A caller that wants its TX buffers pooled is
// responsible for freeing them itself once sent.
func (p *Proactor) handleTCPSend(ev *event, res int32) {
	if res < 0 {
		p.log.Errorf("tcp send on fd %d failed: %s", ev.tcpSend.fd, syscall.Errno(-res))
	}
	// Partial sends are not retried (spec §4.5, §9 open question): any
	// non-negative result is treated as complete.
}

func (p *Proactor) handleTCPRecv(ev *event, res int32) {
	payload := ev.tcpRecv
	client, ok := p.tcpClients[ev.handle]
	if !ok {
		freeBuffer(payload.buf)
		return
	}
	client.rxPending = false

	if res < 0 {
		p.log.Errorf("tcp recv on fd %d failed: %s", payload.fd, syscall.Errno(-res))
		freeBuffer(payload.buf)
		return
	}
	if res == 0 {
		// Connection received 0 bytes; leave state for the next tick's
		// reachability probe rather than acting here.
		freeBuffer(payload.buf)
		return
	}

	if client.onReceive != nil {
		data := make([]byte, res)
		copy(data, payload.buf[:res])
		client.onReceive(data)
	}
	freeBuffer(payload.buf)
	client.ensureRX(p)
}
