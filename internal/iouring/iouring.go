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

// Package iouring is a single-issuer wrapper around Linux io_uring.
// It owns exactly one submission queue and one completion queue and
// exposes typed prepare-and-submit primitives (timeout, timeout-update,
// timeout-remove, read, connect, send, recv) plus a blocking wait for
// one completion. Callers are expected to be single-threaded: nothing
// here takes a lock.
//
// Requires Linux kernel 5.4+ for IORING_FEAT_SINGLE_MMAP, and 5.15+ for
// multishot boot-time timeouts (used by the timer subsystem built on
// top of this package).
package iouring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sagarsabu/go-proactor/internal/logx"
)

// io_uring opcodes actually used by the proactor core.
const (
	IORING_OP_TIMEOUT        = 11 // Timeout operation (multishot w/ IORING_TIMEOUT_MULTISHOT)
	IORING_OP_TIMEOUT_REMOVE = 12 // Cancel or update a timeout by user_data
	IORING_OP_CONNECT        = 16 // Connect to socket (Linux 5.5+)
	IORING_OP_READ           = 22 // Read from file descriptor (Linux 5.6+)
	IORING_OP_SEND           = 26 // Send data on socket (Linux 5.6+)
	IORING_OP_RECV           = 27 // Receive data from socket (Linux 5.6+)
)

// io_uring setup flags - control behavior of the io_uring instance.
const (
	IORING_SETUP_SINGLE_ISSUER = 1 << 12 // Single-issuer optimization (Linux 6.0+)
)

// io_uring feature flags - returned in params.Features after setup.
const (
	IORING_FEAT_SINGLE_MMAP = 1 << 0 // SQ and CQ rings can be mapped with a single mmap (kernel 5.4+)
)

// io_uring enter flags - control behavior of io_uring_enter syscall.
const (
	IORING_ENTER_GETEVENTS = 1 << 0 // Wait for completion events
)

// Timeout opcode flags (OpcodeFlags on a TIMEOUT / TIMEOUT_REMOVE sqe).
const (
	IORING_TIMEOUT_UPDATE    = 1 << 1 // TIMEOUT_REMOVE updates rather than cancels
	IORING_TIMEOUT_BOOTTIME  = 1 << 2 // anchor the timeout to CLOCK_BOOTTIME
	IORING_TIMEOUT_MULTISHOT = 1 << 6 // keep firing until removed
)

// DefaultQueueDepth is the reference submission/completion queue depth.
const DefaultQueueDepth = 10_000

// ErrQueueFull is returned when the submission queue has no free slot.
var ErrQueueFull = errors.New("iouring: submission queue full")

// ioUringParams mirrors struct io_uring_params, used as both input
// (Flags) and output (Features, SqOff, CqOff) of io_uring_setup.
type ioUringParams struct {
	SqEntries    uint32
	CqEntries    uint32
	Flags        uint32
	SqThreadCpu  uint32
	SqThreadIdle uint32
	Features     uint32
	WqFd         uint32
	Resv         [3]uint32
	SqOff        ioSqringOffsets
	CqOff        ioCqringOffsets
}

type ioSqringOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	Resv2       uint64
}

type ioCqringOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	Cqes        uint32
	Flags       uint64
	Resv1       uint32
	Resv2       uint64
}

// submissionQueue mirrors the mmap'd SQ ring. The application is the
// producer (updates tail); the kernel is the consumer (updates head).
type submissionQueue struct {
	head        *uint32
	tail        *uint32
	ringMask    uint32
	ringEntries uint32
	flags       *uint32
	dropped     *uint32
	array       *uint32
	sqes        []IOUringSQE
}

// completionQueue mirrors the mmap'd CQ ring. The kernel is the
// producer (updates tail); the application is the consumer (updates head).
type completionQueue struct {
	head        *uint32
	tail        *uint32
	ringMask    uint32
	ringEntries uint32
	overflow    *uint32
	cqes        []IOUringCQE
}

// Ring owns a single io_uring instance: one SQ, one CQ, one fd. It is
// not safe for concurrent use; the proactor event loop is the only
// caller and it runs on a single goroutine.
type Ring struct {
	fd      int
	params  ioUringParams
	sq      submissionQueue
	cq      completionQueue
	sqeMem  []byte
	ringMem []byte
	log     logx.Logger

	// pendingConnects pins the sockaddr backing each in-flight
	// IORING_OP_CONNECT so the GC cannot reclaim it while the kernel
	// still holds a raw pointer into it. Released via ReleaseConnect
	// once the proactor reaps the connect completion.
	pendingConnects map[int]any
}

// NewRing creates a new single-issuer io_uring instance with the given
// queue depth (rounded up to a power of two by the kernel). A nil
// logger falls back to a no-op logger.
func NewRing(depth uint32, log logx.Logger) (*Ring, error) {
	if log == nil {
		log = logx.Noop()
	}
	if depth == 0 {
		depth = DefaultQueueDepth
	}

	params := ioUringParams{Flags: IORING_SETUP_SINGLE_ISSUER}
	fd, err := setup(depth, &params)
	if err != nil {
		return nil, fmt.Errorf("io_uring_setup failed: %w", err)
	}

	if params.Features&IORING_FEAT_SINGLE_MMAP == 0 {
		syscall.Close(fd)
		return nil, fmt.Errorf("kernel does not support IORING_FEAT_SINGLE_MMAP (requires Linux 5.4+)")
	}

	ring := &Ring{fd: fd, params: params, log: log, pendingConnects: make(map[int]any)}

	pageSize := uint32(syscall.Getpagesize())

	sqRingSize := params.SqOff.Array + params.SqEntries*uint32(unsafe.Sizeof(uint32(0)))
	cqRingSize := params.CqOff.Cqes + params.CqEntries*uint32(unsafe.Sizeof(IOUringCQE{}))
	ringSize := sqRingSize
	if cqRingSize > ringSize {
		ringSize = cqRingSize
	}
	ringSize = (ringSize + pageSize - 1) &^ (pageSize - 1)

	ringPtr, err := syscall.Mmap(fd, 0, int(ringSize),
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_SHARED|syscall.MAP_POPULATE)
	if err != nil {
		ring.Close()
		return nil, fmt.Errorf("mmap ring failed: %w", err)
	}
	ring.ringMem = ringPtr

	sqeSize := params.SqEntries * uint32(unsafe.Sizeof(IOUringSQE{}))
	sqePtr, err := syscall.Mmap(fd, int64(0x10000000), int(sqeSize),
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_SHARED|syscall.MAP_POPULATE)
	if err != nil {
		ring.Close()
		return nil, fmt.Errorf("mmap sqe failed: %w", err)
	}
	ring.sqeMem = sqePtr

	ring.sq.head = (*uint32)(unsafe.Pointer(&ring.ringMem[params.SqOff.Head]))
	ring.sq.tail = (*uint32)(unsafe.Pointer(&ring.ringMem[params.SqOff.Tail]))
	ring.sq.ringMask = *(*uint32)(unsafe.Pointer(&ring.ringMem[params.SqOff.RingMask]))
	ring.sq.ringEntries = *(*uint32)(unsafe.Pointer(&ring.ringMem[params.SqOff.RingEntries]))
	ring.sq.flags = (*uint32)(unsafe.Pointer(&ring.ringMem[params.SqOff.Flags]))
	ring.sq.dropped = (*uint32)(unsafe.Pointer(&ring.ringMem[params.SqOff.Dropped]))
	ring.sq.array = (*uint32)(unsafe.Pointer(&ring.ringMem[params.SqOff.Array]))
	ring.sq.sqes = unsafe.Slice((*IOUringSQE)(unsafe.Pointer(&ring.sqeMem[0])), params.SqEntries)

	ring.cq.head = (*uint32)(unsafe.Pointer(&ring.ringMem[params.CqOff.Head]))
	ring.cq.tail = (*uint32)(unsafe.Pointer(&ring.ringMem[params.CqOff.Tail]))
	ring.cq.ringMask = *(*uint32)(unsafe.Pointer(&ring.ringMem[params.CqOff.RingMask]))
	ring.cq.ringEntries = *(*uint32)(unsafe.Pointer(&ring.ringMem[params.CqOff.RingEntries]))
	ring.cq.overflow = (*uint32)(unsafe.Pointer(&ring.ringMem[params.CqOff.Overflow]))
	ring.cq.cqes = unsafe.Slice((*IOUringCQE)(unsafe.Pointer(&ring.ringMem[params.CqOff.Cqes])), params.CqEntries)

	runtime.SetFinalizer(ring, func(r *Ring) { r.Close() })

	return ring, nil
}

// peekSQE reserves the next submission queue slot for the caller to
// fill, or returns nil if the queue is full. The caller must follow up
// with submit (via the exported Submit* methods) to make the entry
// visible to the kernel.
func (r *Ring) peekSQE() *IOUringSQE {
	q := &r.sq

	tail := atomic.LoadUint32(q.tail)
	head := atomic.LoadUint32(q.head)
	if tail-head >= q.ringEntries {
		return nil
	}

	idx := tail & q.ringMask
	sqe := &q.sqes[idx]
	*sqe = IOUringSQE{}

	arrayPtr := (*uint32)(unsafe.Add(unsafe.Pointer(q.array), uintptr(idx)*4))
	*arrayPtr = idx

	return sqe
}

func (r *Ring) advanceSQ() {
	atomic.AddUint32(r.sq.tail, 1)
}

func (r *Ring) pendingSQEs() uint32 {
	return atomic.LoadUint32(r.sq.tail) - atomic.LoadUint32(r.sq.head)
}

// submit advances the tail past the entry just filled in and flushes
// all queued-but-unsubmitted entries to the kernel, retrying on EINTR.
func (r *Ring) submit() error {
	r.advanceSQ()
	toSubmit := r.pendingSQEs()
	if toSubmit == 0 {
		return nil
	}
	for {
		_, errno := enter(r.fd, toSubmit, 0, 0)
		if errno == syscall.EINTR {
			continue
		}
		if errno != 0 {
			r.log.Errorf("iouring: submit failed: %s", errno)
			return errno
		}
		return nil
	}
}

// SubmitTimeout arms a multishot, boot-time-clock timeout: the kernel
// produces a -ETIME completion every d until the timeout is removed or
// updated.
func (r *Ring) SubmitTimeout(token uint64, d time.Duration) error {
	sqe := r.peekSQE()
	if sqe == nil {
		return ErrQueueFull
	}
	ts := NewTimeSpec(d)
	sqe.Opcode = IORING_OP_TIMEOUT
	sqe.UserData = token
	sqe.Addr = uint64(uintptr(unsafe.Pointer(&ts)))
	sqe.Len = 1
	sqe.OpcodeFlags = IORING_TIMEOUT_MULTISHOT | IORING_TIMEOUT_BOOTTIME
	err := r.submit()
	runtime.KeepAlive(&ts)
	return err
}

// SubmitTimeoutUpdate rearms the timeout identified by targetToken with
// a new duration, in place, without changing its identity.
func (r *Ring) SubmitTimeoutUpdate(token, targetToken uint64, d time.Duration) error {
	sqe := r.peekSQE()
	if sqe == nil {
		return ErrQueueFull
	}
	ts := NewTimeSpec(d)
	sqe.Opcode = IORING_OP_TIMEOUT_REMOVE
	sqe.UserData = token
	sqe.Addr = targetToken
	sqe.Off = uint64(uintptr(unsafe.Pointer(&ts)))
	sqe.OpcodeFlags = IORING_TIMEOUT_UPDATE | IORING_TIMEOUT_BOOTTIME
	err := r.submit()
	runtime.KeepAlive(&ts)
	return err
}

// SubmitTimeoutRemove cancels the timeout identified by targetToken.
func (r *Ring) SubmitTimeoutRemove(token, targetToken uint64) error {
	sqe := r.peekSQE()
	if sqe == nil {
		return ErrQueueFull
	}
	sqe.Opcode = IORING_OP_TIMEOUT_REMOVE
	sqe.UserData = token
	sqe.Addr = targetToken
	return r.submit()
}

// SubmitRead issues an async read of exactly len(into) bytes from fd.
// into must remain valid and unmodified until the completion arrives.
func (r *Ring) SubmitRead(token uint64, fd int, into []byte) error {
	sqe := r.peekSQE()
	if sqe == nil {
		return ErrQueueFull
	}
	sqe.Opcode = IORING_OP_READ
	sqe.Fd = int32(fd)
	if len(into) > 0 {
		sqe.Addr = uint64(uintptr(unsafe.Pointer(&into[0])))
	}
	sqe.Len = uint32(len(into))
	sqe.UserData = token
	return r.submit()
}

// SubmitConnect resolves host:port synchronously via the system
// resolver, opens a non-blocking socket for the first candidate
// address and submits an async connect on it. On submission failure
// for a candidate it closes that socket and tries the next one.
// Returns the fd owning the in-flight connect.
func (r *Ring) SubmitConnect(token uint64, host, port string) (int, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), host)
	if err != nil {
		return -1, fmt.Errorf("resolve %s: %w", host, err)
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return -1, fmt.Errorf("parse port %q: %w", port, err)
	}

	var lastErr error
	for _, addr := range addrs {
		fd, sa, salen, pin, err := dialSocket(addr.IP, uint16(portNum))
		if err != nil {
			lastErr = err
			continue
		}

		sqe := r.peekSQE()
		if sqe == nil {
			unix.Close(fd)
			return -1, ErrQueueFull
		}
		sqe.Opcode = IORING_OP_CONNECT
		sqe.Fd = int32(fd)
		sqe.UserData = token
		sqe.Addr = uint64(uintptr(sa))
		sqe.Off = uint64(salen)

		if err := r.submit(); err != nil {
			unix.Close(fd)
			lastErr = err
			continue
		}
		r.pendingConnects[fd] = pin
		return fd, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no addresses for %s", host)
	}
	return -1, lastErr
}

// ReleaseConnect unpins the sockaddr backing a prior SubmitConnect for
// fd. Call this once the connect completion has been reaped, whether
// it succeeded or failed.
func (r *Ring) ReleaseConnect(fd int) {
	delete(r.pendingConnects, fd)
}

// SubmitSend issues an async send of data on fd. data must remain
// valid and unmodified until the completion arrives.
func (r *Ring) SubmitSend(token uint64, fd int, data []byte) error {
	sqe := r.peekSQE()
	if sqe == nil {
		return ErrQueueFull
	}
	sqe.Opcode = IORING_OP_SEND
	sqe.Fd = int32(fd)
	if len(data) > 0 {
		sqe.Addr = uint64(uintptr(unsafe.Pointer(&data[0])))
	}
	sqe.Len = uint32(len(data))
	sqe.UserData = token
	return r.submit()
}

// SubmitRecv issues an async recv into a caller-owned fixed buffer.
func (r *Ring) SubmitRecv(token uint64, fd int, into []byte) error {
	sqe := r.peekSQE()
	if sqe == nil {
		return ErrQueueFull
	}
	sqe.Opcode = IORING_OP_RECV
	sqe.Fd = int32(fd)
	if len(into) > 0 {
		sqe.Addr = uint64(uintptr(unsafe.Pointer(&into[0])))
	}
	sqe.Len = uint32(len(into))
	sqe.UserData = token
	return r.submit()
}

// CompletionGuard owns one reaped completion queue entry. Seen must be
// called exactly once to release the slot back to the kernel. A
// zero-value guard (Empty() == true) carries nothing and Seen is a
// no-op on it; this is what WaitOne returns on -EINTR.
type CompletionGuard struct {
	ring     *Ring
	cqe      IOUringCQE
	hasValue bool
}

// Empty reports whether the guard carries no completion.
func (g CompletionGuard) Empty() bool { return !g.hasValue }

// UserData returns the token attached to the original submission.
func (g CompletionGuard) UserData() uint64 { return g.cqe.UserData }

// Result returns the raw completion result: bytes transferred, or a
// negative errno.
func (g CompletionGuard) Result() int32 { return g.cqe.Res }

// Seen releases the completion queue slot. Safe to call on an empty guard.
func (g CompletionGuard) Seen() {
	if g.hasValue && g.ring != nil {
		atomic.AddUint32(g.ring.cq.head, 1)
	}
}

// WaitOne blocks until one completion is available and returns an
// owning guard over it. The guard's Seen method must be called after
// the completion has been handled. Returns an empty guard with a nil
// error on -EINTR so the caller's loop can simply retry; any other
// failure is logged and returned.
func (r *Ring) WaitOne() (CompletionGuard, error) {
	q := &r.cq
	head := atomic.LoadUint32(q.head)
	tail := atomic.LoadUint32(q.tail)

	for head == tail {
		_, errno := enter(r.fd, 0, 1, IORING_ENTER_GETEVENTS)
		if errno == syscall.EINTR {
			return CompletionGuard{}, nil
		}
		if errno != 0 {
			r.log.Errorf("iouring: wait failed: %s", errno)
			return CompletionGuard{}, errno
		}
		tail = atomic.LoadUint32(q.tail)
	}

	cqe := q.cqes[head&q.ringMask]
	return CompletionGuard{ring: r, cqe: cqe, hasValue: true}, nil
}

// Close tears down the ring: unmaps both memory regions and closes the
// io_uring fd. Safe to call multiple times.
func (r *Ring) Close() error {
	if r == nil {
		return nil
	}
	runtime.SetFinalizer(r, nil)

	var firstErr error
	if r.ringMem != nil {
		if err := syscall.Munmap(r.ringMem); err != nil && firstErr == nil {
			firstErr = err
		}
		r.ringMem = nil
	}
	if r.sqeMem != nil {
		if err := syscall.Munmap(r.sqeMem); err != nil && firstErr == nil {
			firstErr = err
		}
		r.sqeMem = nil
	}
	if r.fd >= 0 {
		if err := syscall.Close(r.fd); err != nil && firstErr == nil {
			firstErr = err
		}
		r.fd = -1
	}
	return firstErr
}
